package probe

import (
	"context"
	"net"
	"os"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"bytemomo/sonar/internal/netutil"
)

const defaultPingTimeout = 2 * time.Second

// Pinger answers whether a host responds to an ICMP echo request. Any
// failure along the way (resolution, socket, timeout) is reported as
// unreachable; callers never see an error.
type Pinger interface {
	Ping(ctx context.Context, host string) bool
}

// ICMPPinger sends one echo request per call. It prefers a raw ICMP socket
// and falls back to an unprivileged datagram ICMP socket where the platform
// offers one (Linux ping sockets, macOS).
type ICMPPinger struct {
	Resolver *netutil.Resolver
	Timeout  time.Duration

	seq atomic.Uint32
}

func NewICMPPinger(resolver *netutil.Resolver) *ICMPPinger {
	return &ICMPPinger{Resolver: resolver, Timeout: defaultPingTimeout}
}

// Ping resolves host and performs one echo round-trip with a bounded
// timeout. DNS failure, send failure and timeout all collapse to false; the
// cause is deliberately not distinguished at this layer.
func (p *ICMPPinger) Ping(ctx context.Context, host string) bool {
	ip, err := p.Resolver.Resolve(ctx, host)
	if err != nil {
		log.WithError(err).WithField("host", host).Debug("Ping resolution failed")
		return false
	}

	v6 := ip.To4() == nil
	conn, err := listenICMP(v6)
	if err != nil {
		log.WithError(err).WithField("host", host).Debug("Could not open ICMP socket")
		return false
	}
	defer conn.Close()

	echo := &icmp.Echo{
		ID:   os.Getpid() & 0xffff,
		Seq:  int(p.seq.Add(1) & 0xffff),
		Data: []byte("sonar-echo"),
	}
	msg := icmp.Message{Type: ipv4.ICMPTypeEcho, Body: echo}
	proto := 1 // ICMPv4
	if v6 {
		msg.Type = ipv6.ICMPTypeEchoRequest
		proto = 58 // ICMPv6
	}

	wire, err := msg.Marshal(nil)
	if err != nil {
		return false
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	if _, err := conn.WriteTo(wire, pingAddr(conn, ip)); err != nil {
		return false
	}

	// Raw ICMP sockets see every echo reply arriving on the host, not just
	// ours, so replies must be matched back to this request.
	_, dgram := conn.LocalAddr().(*net.UDPAddr)

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return false
		}
		reply, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil {
			continue
		}
		if matchEchoReply(reply, peer, ip, echo, !dgram) {
			return true
		}
	}
}

// matchEchoReply reports whether reply answers the echo request sent to
// target. The peer address and the sequence number must match; the echo ID
// is checked only on raw sockets, unprivileged ping sockets rewrite it in
// the kernel.
func matchEchoReply(reply *icmp.Message, peer net.Addr, target net.IP, req *icmp.Echo, matchID bool) bool {
	if reply.Type != ipv4.ICMPTypeEchoReply && reply.Type != ipv6.ICMPTypeEchoReply {
		return false
	}
	body, ok := reply.Body.(*icmp.Echo)
	if !ok || body.Seq != req.Seq {
		return false
	}
	if matchID && body.ID != req.ID {
		return false
	}
	if ip := peerIP(peer); ip == nil || !ip.Equal(target) {
		return false
	}
	return true
}

func peerIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	}
	return nil
}

func listenICMP(v6 bool) (*icmp.PacketConn, error) {
	if v6 {
		conn, err := icmp.ListenPacket("ip6:ipv6-icmp", "::")
		if err != nil {
			conn, err = icmp.ListenPacket("udp6", "::")
		}
		return conn, err
	}
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		conn, err = icmp.ListenPacket("udp4", "0.0.0.0")
	}
	return conn, err
}

// pingAddr picks the address form the socket type expects: UDP for the
// unprivileged datagram sockets, plain IP for raw ones.
func pingAddr(conn *icmp.PacketConn, ip net.IP) net.Addr {
	if la, ok := conn.LocalAddr().(*net.UDPAddr); ok && la != nil {
		return &net.UDPAddr{IP: ip}
	}
	return &net.IPAddr{IP: ip}
}
