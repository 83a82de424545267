package classify

import (
	"reflect"
	"testing"

	"bytemomo/sonar/internal/domain"
)

func TestOutbound_TCPTable(t *testing.T) {
	cases := []struct {
		name             string
		ping, connected  bool
		status           domain.Status
		detail           string
		opening, fwBlock bool
		svcListening     bool
	}{
		{"reachable and connected", true, true, domain.StatusSuccess, domain.DetailPortOpened, true, false, false},
		{"reachable not connected", true, false, domain.StatusFailed, domain.DetailServiceListening, false, false, true},
		{"unreachable connected", false, true, domain.StatusFailed, domain.DetailFirewallBlocked, false, true, false},
		{"unreachable not connected", false, false, domain.StatusFailed, domain.DetailFirewallBlocked, false, true, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := domain.RawSignal{ReachablePing: tc.ping, TCPConnected: tc.connected}
			res := Outbound("example.com", domain.ProtocolTCP, 443, sig)

			if res.Status != tc.status || res.Detail != tc.detail {
				t.Errorf("got %s/%q, want %s/%q", res.Status, res.Detail, tc.status, tc.detail)
			}
			if res.PortOpening != tc.opening || res.FirewallBlocking != tc.fwBlock || res.ServiceListening != tc.svcListening {
				t.Errorf("facets = (%v,%v,%v), want (%v,%v,%v)",
					res.PortOpening, res.FirewallBlocking, res.ServiceListening,
					tc.opening, tc.fwBlock, tc.svcListening)
			}
			if err := res.Validate(); err != nil {
				t.Errorf("invalid result: %v", err)
			}
		})
	}
}

func TestOutbound_UDPUsesSendSignal(t *testing.T) {
	sig := domain.RawSignal{ReachablePing: true, UDPSendOK: true, TCPConnected: false}
	res := Outbound("example.com", domain.ProtocolUDP, 514, sig)
	if res.Status != domain.StatusSuccess || res.Detail != domain.DetailPortOpened {
		t.Fatalf("got %s/%q", res.Status, res.Detail)
	}

	sig = domain.RawSignal{ReachablePing: true, UDPSendOK: false, TCPConnected: true}
	res = Outbound("example.com", domain.ProtocolUDP, 514, sig)
	if res.Status != domain.StatusFailed || res.Detail != domain.DetailServiceListening {
		t.Fatalf("got %s/%q", res.Status, res.Detail)
	}
}

func TestOutbound_ICMP(t *testing.T) {
	res := Outbound("example.com", domain.ProtocolICMP, 0, domain.RawSignal{ReachablePing: true})
	if res.Status != domain.StatusSuccess || res.Detail != domain.DetailPortOpened || !res.PortOpening {
		t.Fatalf("got %+v", res)
	}

	res = Outbound("example.com", domain.ProtocolICMP, 0, domain.RawSignal{})
	if res.Status != domain.StatusFailed || res.Detail != domain.DetailFirewallBlocked || !res.FirewallBlocking {
		t.Fatalf("got %+v", res)
	}
	if res.Port != 0 || res.PortLabel() != "icmp" {
		t.Fatalf("icmp result carries port: %+v", res)
	}
}

func TestInbound_Table(t *testing.T) {
	cases := []struct {
		name                string
		listening, fwAllows bool
		status              domain.Status
		detail              string
	}{
		{"listening and allowed", true, true, domain.StatusAllowed, domain.DetailListeningAllowed},
		{"listening but blocked", true, false, domain.StatusWarning, domain.DetailListeningBlocked},
		{"not listening allowed", false, true, domain.StatusBlocked, domain.DetailNotListening},
		{"not listening blocked", false, false, domain.StatusBlocked, domain.DetailNotListening},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sig := domain.RawSignal{LocallyListening: tc.listening, FirewallAllows: tc.fwAllows}
			res := Inbound("192.168.1.5", domain.ProtocolTCP, 3389, sig)

			if res.Status != tc.status || res.Detail != tc.detail {
				t.Errorf("got %s/%q, want %s/%q", res.Status, res.Detail, tc.status, tc.detail)
			}
			if res.Listening != tc.listening || res.FirewallAllow != tc.fwAllows {
				t.Errorf("facets = (%v,%v), want (%v,%v)", res.Listening, res.FirewallAllow, tc.listening, tc.fwAllows)
			}
			if err := res.Validate(); err != nil {
				t.Errorf("invalid result: %v", err)
			}
		})
	}
}

func TestInbound_ICMPIndependentOfListening(t *testing.T) {
	res := Inbound("192.168.1.5", domain.ProtocolICMP, 0, domain.RawSignal{FirewallAllows: true})
	if res.Status != domain.StatusAllowed || res.Detail != domain.DetailICMPAllowed {
		t.Fatalf("got %+v", res)
	}

	res = Inbound("192.168.1.5", domain.ProtocolICMP, 0, domain.RawSignal{LocallyListening: true})
	if res.Status != domain.StatusBlocked || res.Detail != domain.DetailICMPBlocked {
		t.Fatalf("got %+v", res)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	sig := domain.RawSignal{ReachablePing: true, TCPConnected: false}
	a := Outbound("h", domain.ProtocolTCP, 22, sig)
	b := Outbound("h", domain.ProtocolTCP, 22, sig)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("classifier not deterministic: %+v vs %+v", a, b)
	}
}
