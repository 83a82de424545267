// Package probe performs the low-level network signals the classifier
// consumes: ICMP echo, TCP connect, UDP send for remote targets, and
// socket-table plus firewall lookups for the local host.
//
// Probes are total: any transport error collapses to a false signal, no
// probe ever returns an error to its caller.
package probe

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
)

const (
	defaultDialTimeout = 3 * time.Second
	defaultUDPTimeout  = 1 * time.Second
)

// OutboundProber produces raw signals for remote (host, protocol, port)
// triples. It is stateless apart from a per-host ping cache, which only
// avoids repeating the identical echo request within one run.
type OutboundProber struct {
	Pinger      Pinger
	DialTimeout time.Duration
	UDPTimeout  time.Duration

	// dial is a seam for tests; nil means a plain net.Dialer.
	dial func(ctx context.Context, network, addr string) (net.Conn, error)

	mu        sync.Mutex
	pingCache map[string]bool
}

func NewOutboundProber(pinger Pinger) *OutboundProber {
	return &OutboundProber{
		Pinger:      pinger,
		DialTimeout: defaultDialTimeout,
		UDPTimeout:  defaultUDPTimeout,
		pingCache:   make(map[string]bool),
	}
}

// Probe performs the signals for one triple. For ICMP the port is ignored.
// TCP and UDP probes always perform the reachability ping alongside the
// service signal; the per-host cache keeps that to one echo per host per
// run.
func (p *OutboundProber) Probe(ctx context.Context, host string, proto domain.Protocol, port uint16) domain.RawSignal {
	var sig domain.RawSignal

	switch proto {
	case domain.ProtocolICMP:
		sig.ReachablePing = p.cachedPing(ctx, host)
	case domain.ProtocolTCP:
		sig.ReachablePing = p.cachedPing(ctx, host)
		sig.TCPConnected = p.tcpConnect(ctx, host, port)
	case domain.ProtocolUDP:
		sig.ReachablePing = p.cachedPing(ctx, host)
		sig.UDPSendOK = p.udpSend(ctx, host, port)
	}
	return sig
}

func (p *OutboundProber) cachedPing(ctx context.Context, host string) bool {
	p.mu.Lock()
	ok, hit := p.pingCache[host]
	p.mu.Unlock()
	if hit {
		return ok
	}

	ok = p.Pinger.Ping(ctx, host)

	p.mu.Lock()
	p.pingCache[host] = ok
	p.mu.Unlock()
	return ok
}

func (p *OutboundProber) dialContext(ctx context.Context, network, addr string, timeout time.Duration) (net.Conn, error) {
	if p.dial != nil {
		return p.dial(ctx, network, addr)
	}
	d := net.Dialer{Timeout: timeout}
	return d.DialContext(ctx, network, addr)
}

// tcpConnect reports handshake success only; refused, timed out and
// unresolvable all read as false.
func (p *OutboundProber) tcpConnect(ctx context.Context, host string, port uint16) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := p.dialContext(ctx, "tcp", addr, p.DialTimeout)
	if err != nil {
		log.WithError(err).WithField("addr", addr).Debug("TCP connect failed")
		return false
	}
	conn.Close()
	return true
}

// udpSend reports whether a short datagram left the local stack without a
// transport error. It does not confirm a listener answered: UDP gives no
// handshake, and ICMP port-unreachable is not parsed here. Genuinely closed
// ports can therefore still read as ok.
func (p *OutboundProber) udpSend(ctx context.Context, host string, port uint16) bool {
	timeout := p.UDPTimeout
	if timeout <= 0 {
		timeout = defaultUDPTimeout
	}

	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := p.dialContext(ctx, "udp", addr, timeout)
	if err != nil {
		log.WithError(err).WithField("addr", addr).Debug("UDP dial failed")
		return false
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	if _, err := conn.Write([]byte{0x00}); err != nil {
		log.WithError(err).WithField("addr", addr).Debug("UDP send failed")
		return false
	}
	return true
}
