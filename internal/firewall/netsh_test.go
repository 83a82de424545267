package firewall

import (
	"testing"

	"bytemomo/sonar/internal/domain"
)

const netshDump = `
Rule Name:                            Remote Desktop - User Mode (TCP-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Profiles:                             Domain,Private,Public
Grouping:                             Remote Desktop
LocalIP:                              Any
RemoteIP:                             Any
Protocol:                             TCP
LocalPort:                            3389
RemotePort:                           Any
Edge traversal:                       No
Action:                               Allow

Rule Name:                            mDNS (UDP-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Protocol:                             UDP
LocalPort:                            5353
RemotePort:                           Any
Action:                               Allow

Rule Name:                            Core Networking - Multicast (UDP-In)
----------------------------------------------------------------------
Enabled:                              No
Direction:                            In
Protocol:                             UDP
LocalPort:                            3702
Action:                               Allow

Rule Name:                            Block legacy SMB (TCP-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Protocol:                            TCP
LocalPort:                            139,445
Action:                               Block

Rule Name:                            Outbound web (TCP-Out)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            Out
Protocol:                             TCP
LocalPort:                            Any
Action:                               Allow

Rule Name:                            Wide open service (TCP-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Protocol:                             TCP
LocalPort:                            Any
Action:                               Allow

Rule Name:                            File and Printer Sharing (Echo Request - ICMPv4-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Protocol:                             ICMPv4
                                      Type    Code
                                      8       Any
Action:                               Allow

Rule Name:                            Core Networking - Neighbor Discovery (ICMPv6-In)
----------------------------------------------------------------------
Enabled:                              Yes
Direction:                            In
Protocol:                             ICMPv6
                                      Type    Code
                                      135     Any
Action:                               Allow

Ok.
`

func TestParseNetshRules(t *testing.T) {
	rules := ParseNetshRules(netshDump)
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3: %+v", len(rules), rules)
	}

	if rules[0].Protocol != domain.ProtocolTCP || rules[0].LocalPorts[0] != "3389" {
		t.Errorf("rdp rule = %+v", rules[0])
	}
	if rules[1].Protocol != domain.ProtocolUDP || rules[1].LocalPorts[0] != "5353" {
		t.Errorf("mdns rule = %+v", rules[1])
	}
	if rules[2].LocalPorts[0] != domain.PortAny {
		t.Errorf("wide-open rule = %+v", rules[2])
	}

	for _, r := range rules {
		if !r.Enabled || r.Direction != domain.RuleInbound {
			t.Errorf("rule not enabled inbound: %+v", r)
		}
		for _, p := range r.LocalPorts {
			if p == "139" || p == "445" {
				t.Errorf("block-action ports leaked into %+v", r)
			}
		}
	}
}

func TestParseNetshRules_FeedsIndex(t *testing.T) {
	src := &StaticSource{Rules: ParseNetshRules(netshDump)}
	ix := NewIndex(src)

	if !ix.Allows(domain.ProtocolTCP, 3389) {
		t.Error("rdp should be allowed")
	}
	if !ix.Allows(domain.ProtocolTCP, 8080) {
		t.Error("wide-open tcp rule should admit any port")
	}
	if ix.Allows(domain.ProtocolUDP, 3702) {
		t.Error("disabled rule must not match")
	}
}

func TestNetshEchoAccepted(t *testing.T) {
	if !netshEchoAccepted(netshDump, domain.IPv4) {
		t.Error("v4 echo-request rule present, want true")
	}
	if netshEchoAccepted(netshDump, domain.IPv6) {
		t.Error("only neighbor-discovery ICMPv6 present, want false")
	}
}
