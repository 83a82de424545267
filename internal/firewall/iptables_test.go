package firewall

import (
	"testing"

	"bytemomo/sonar/internal/domain"
)

const sampleDump = `# Generated by iptables-save
*filter
:INPUT DROP [0:0]
:FORWARD DROP [0:0]
:OUTPUT ACCEPT [0:0]
-A INPUT -i lo -j ACCEPT
-A INPUT -p tcp -m tcp --dport 22 -j ACCEPT
-A INPUT -p tcp -m tcp --dport 8443 -j DROP
-A INPUT -p udp -m multiport --dports 53,123 -j ACCEPT
-A INPUT -p tcp -j ACCEPT
-A INPUT -p icmp -m icmp --icmp-type 8 -j ACCEPT
-A FORWARD -p tcp -m tcp --dport 80 -j ACCEPT
COMMIT
`

func TestParseIptablesSave(t *testing.T) {
	rules := ParseIptablesSave(sampleDump)

	// lo accept (no protocol), the DROP rule and the FORWARD rule are skipped;
	// the icmp rule is not a port rule.
	if len(rules) != 3 {
		t.Fatalf("got %d rules: %+v", len(rules), rules)
	}

	if rules[0].Protocol != domain.ProtocolTCP || !rules[0].MatchesPort(22) {
		t.Errorf("rule 0 = %+v", rules[0])
	}
	if rules[1].Protocol != domain.ProtocolUDP || !rules[1].MatchesPort(53) || !rules[1].MatchesPort(123) {
		t.Errorf("rule 1 = %+v", rules[1])
	}
	// bare "-p tcp -j ACCEPT" becomes a wildcard rule
	if !rules[2].MatchesPort(65000) {
		t.Errorf("rule 2 = %+v", rules[2])
	}
	for _, r := range rules {
		if !r.Enabled || r.Direction != domain.RuleInbound {
			t.Errorf("rule not enabled inbound: %+v", r)
		}
	}
}

func TestParseIptablesSave_DropRuleNotIndexed(t *testing.T) {
	rules := ParseIptablesSave(sampleDump)
	for _, r := range rules {
		if r.MatchesPort(8443) && len(r.LocalPorts) == 1 && r.LocalPorts[0] == "8443" {
			t.Fatalf("DROP rule was indexed: %+v", r)
		}
	}
}

func TestIptablesEchoAccepted(t *testing.T) {
	if !iptablesEchoAccepted(sampleDump, domain.IPv4) {
		t.Error("v4 echo-request rule should be detected")
	}
	if iptablesEchoAccepted(sampleDump, domain.IPv6) {
		t.Error("no v6 rule present")
	}

	bare := "-A INPUT -p ipv6-icmp -j ACCEPT\n"
	if !iptablesEchoAccepted(bare, domain.IPv6) {
		t.Error("bare ipv6-icmp accept admits echo")
	}
	named := "-A INPUT -p icmp -m icmp --icmp-type echo-request -j ACCEPT\n"
	if !iptablesEchoAccepted(named, domain.IPv4) {
		t.Error("named echo-request should be detected")
	}
}
