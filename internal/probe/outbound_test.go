package probe

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"bytemomo/sonar/internal/domain"
)

type fakePinger struct {
	ok    bool
	calls atomic.Int32
}

func (f *fakePinger) Ping(ctx context.Context, host string) bool {
	f.calls.Add(1)
	return f.ok
}

func proberWithDial(pinger Pinger, dialErr error) *OutboundProber {
	p := NewOutboundProber(pinger)
	p.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		client, server := net.Pipe()
		go func() {
			buf := make([]byte, 16)
			server.Read(buf)
			server.Close()
		}()
		return client, nil
	}
	return p
}

func TestProbe_TCPSignals(t *testing.T) {
	cases := []struct {
		name    string
		pingOK  bool
		dialErr error
		want    domain.RawSignal
	}{
		{"reachable connect ok", true, nil, domain.RawSignal{ReachablePing: true, TCPConnected: true}},
		{"reachable connect refused", true, errors.New("connection refused"), domain.RawSignal{ReachablePing: true}},
		{"unreachable connect ok", false, nil, domain.RawSignal{TCPConnected: true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := proberWithDial(&fakePinger{ok: tc.pingOK}, tc.dialErr)
			got := p.Probe(context.Background(), "example.com", domain.ProtocolTCP, 443)
			if got != tc.want {
				t.Errorf("signal = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestProbe_UDPSendOK(t *testing.T) {
	p := proberWithDial(&fakePinger{ok: true}, nil)
	got := p.Probe(context.Background(), "example.com", domain.ProtocolUDP, 514)
	if !got.UDPSendOK || !got.ReachablePing {
		t.Fatalf("signal = %+v", got)
	}

	p = proberWithDial(&fakePinger{ok: true}, errors.New("network unreachable"))
	got = p.Probe(context.Background(), "example.com", domain.ProtocolUDP, 514)
	if got.UDPSendOK {
		t.Fatalf("send failure must collapse to false, got %+v", got)
	}
}

func TestProbe_UDPZeroTimeoutGetsDefault(t *testing.T) {
	p := proberWithDial(&fakePinger{ok: true}, nil)
	p.UDPTimeout = 0

	got := p.Probe(context.Background(), "example.com", domain.ProtocolUDP, 514)
	if !got.UDPSendOK {
		t.Fatalf("send with defaulted timeout failed: %+v", got)
	}
}

func TestProbe_ICMPOnly(t *testing.T) {
	p := NewOutboundProber(&fakePinger{ok: true})
	got := p.Probe(context.Background(), "example.com", domain.ProtocolICMP, 0)
	want := domain.RawSignal{ReachablePing: true}
	if got != want {
		t.Fatalf("signal = %+v, want %+v", got, want)
	}
}

func TestProbe_PingCachedPerHost(t *testing.T) {
	pinger := &fakePinger{ok: true}
	p := proberWithDial(pinger, nil)

	ctx := context.Background()
	p.Probe(ctx, "example.com", domain.ProtocolICMP, 0)
	p.Probe(ctx, "example.com", domain.ProtocolTCP, 80)
	p.Probe(ctx, "example.com", domain.ProtocolTCP, 443)
	p.Probe(ctx, "other.example", domain.ProtocolTCP, 80)

	if n := pinger.calls.Load(); n != 2 {
		t.Fatalf("pinger called %d times, want 2 (one per host)", n)
	}
}

func TestProbe_NeverPanicsOnDialError(t *testing.T) {
	p := proberWithDial(&fakePinger{}, errors.New("no route to host"))
	sig := p.Probe(context.Background(), "10.255.255.1", domain.ProtocolTCP, 22)
	if sig.TCPConnected || sig.ReachablePing {
		t.Fatalf("signal = %+v, want all false", sig)
	}
}
