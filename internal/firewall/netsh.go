package firewall

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"

	"bytemomo/sonar/internal/domain"
)

// NetshSource reads the live Windows Firewall rule set through
// "netsh advfirewall firewall show rule name=all". The parser expects the
// English field names netsh emits on non-localized systems.
type NetshSource struct {
	// Command overrides the netsh binary, for tests.
	Command string
}

func NewNetshSource() *NetshSource {
	return &NetshSource{Command: "netsh"}
}

func (s *NetshSource) dump() (string, error) {
	out, err := exec.Command(s.Command, "advfirewall", "firewall", "show", "rule", "name=all").Output()
	if err != nil {
		return "", fmt.Errorf("run %s advfirewall: %w", s.Command, err)
	}
	return string(out), nil
}

// InboundRules parses enabled inbound allow-rules for TCP and UDP. Rules
// that cannot be parsed are skipped, they match in neither direction.
func (s *NetshSource) InboundRules() ([]domain.FirewallRule, error) {
	dump, err := s.dump()
	if err != nil {
		return nil, err
	}
	return ParseNetshRules(dump), nil
}

// ICMPEchoEnabled looks for an enabled inbound allow-rule admitting
// echo-request for the family.
func (s *NetshSource) ICMPEchoEnabled(family domain.IPFamily) (bool, error) {
	dump, err := s.dump()
	if err != nil {
		return false, err
	}
	return netshEchoAccepted(dump, family), nil
}

type netshRule struct {
	name      string
	enabled   bool
	inbound   bool
	allow     bool
	protocol  string
	ports     []string
	icmpTypes []string
}

// ParseNetshRules extracts inbound TCP/UDP allow-rules from a netsh rule
// dump.
func ParseNetshRules(dump string) []domain.FirewallRule {
	var rules []domain.FirewallRule
	for _, r := range parseNetshBlocks(dump) {
		if !r.enabled || !r.inbound || !r.allow {
			continue
		}

		var proto domain.Protocol
		switch r.protocol {
		case "TCP":
			proto = domain.ProtocolTCP
		case "UDP":
			proto = domain.ProtocolUDP
		default:
			continue
		}

		ports := r.ports
		if len(ports) == 0 {
			ports = []string{domain.PortAny}
		}
		rules = append(rules, domain.FirewallRule{
			Name:       r.name,
			Direction:  domain.RuleInbound,
			Protocol:   proto,
			LocalPorts: ports,
			Enabled:    true,
		})
	}
	return rules
}

func netshEchoAccepted(dump string, family domain.IPFamily) bool {
	wantProto := "ICMPv4"
	echoType := "8"
	if family == domain.IPv6 {
		wantProto = "ICMPv6"
		echoType = "128"
	}

	for _, r := range parseNetshBlocks(dump) {
		if !r.enabled || !r.inbound || !r.allow || r.protocol != wantProto {
			continue
		}
		// No type table means the rule covers every ICMP type.
		if len(r.icmpTypes) == 0 {
			return true
		}
		for _, t := range r.icmpTypes {
			if t == echoType || strings.EqualFold(t, "Any") {
				return true
			}
		}
	}
	return false
}

// parseNetshBlocks splits a netsh dump into per-rule field sets. ICMP rules
// carry their type/code table on indented continuation lines below the
// Protocol field.
func parseNetshBlocks(dump string) []netshRule {
	var (
		blocks  []netshRule
		current *netshRule
		inICMP  bool
	)
	flush := func() {
		if current != nil {
			blocks = append(blocks, *current)
		}
		current = nil
	}

	sc := bufio.NewScanner(strings.NewReader(dump))
	for sc.Scan() {
		line := sc.Text()
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			// Continuation rows of an ICMP type/code table, e.g. "8  Any".
			if current != nil && inICMP {
				fields := strings.Fields(line)
				if len(fields) >= 1 && fields[0] != "Type" && !strings.HasPrefix(fields[0], "-") {
					current.icmpTypes = append(current.icmpTypes, fields[0])
				}
			}
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		inICMP = false

		switch key {
		case "Rule Name":
			flush()
			current = &netshRule{name: value}
		case "Enabled":
			if current != nil {
				current.enabled = strings.EqualFold(value, "Yes")
			}
		case "Direction":
			if current != nil {
				current.inbound = strings.EqualFold(value, "In")
			}
		case "Action":
			if current != nil {
				current.allow = strings.EqualFold(value, "Allow")
			}
		case "Protocol":
			if current != nil {
				current.protocol = value
				inICMP = strings.HasPrefix(value, "ICMP")
			}
		case "LocalPort":
			if current == nil || strings.EqualFold(value, "Any") {
				continue
			}
			for _, p := range strings.Split(value, ",") {
				if p = strings.TrimSpace(p); p != "" {
					current.ports = append(current.ports, p)
				}
			}
		}
	}
	flush()
	return blocks
}
