package firewall

import (
	"bufio"
	"fmt"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
)

// IptablesSource reads the live rule table through iptables-save. Every rule
// it can read is enabled by definition: iptables has no per-rule disable
// flag, a rule is either present or not.
type IptablesSource struct {
	// SaveCommand overrides the iptables-save binary, for tests.
	SaveCommand string
	// Save6Command overrides the ip6tables-save binary, for tests.
	Save6Command string
}

func NewIptablesSource() *IptablesSource {
	return &IptablesSource{SaveCommand: "iptables-save", Save6Command: "ip6tables-save"}
}

// InboundRules parses ACCEPT rules on the INPUT chain of the filter table.
// Lines that cannot be parsed are skipped, they match in neither direction.
func (s *IptablesSource) InboundRules() ([]domain.FirewallRule, error) {
	out, err := exec.Command(s.SaveCommand, "-t", "filter").Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", s.SaveCommand, err)
	}
	return ParseIptablesSave(string(out)), nil
}

// ICMPEchoEnabled looks for an ACCEPT rule admitting echo-request in the
// family's filter table.
func (s *IptablesSource) ICMPEchoEnabled(family domain.IPFamily) (bool, error) {
	cmd := s.SaveCommand
	if family == domain.IPv6 {
		cmd = s.Save6Command
	}
	out, err := exec.Command(cmd, "-t", "filter").Output()
	if err != nil {
		return false, fmt.Errorf("run %s: %w", cmd, err)
	}
	return iptablesEchoAccepted(string(out), family), nil
}

// ParseIptablesSave extracts inbound allow-rules from iptables-save output.
func ParseIptablesSave(dump string) []domain.FirewallRule {
	var rules []domain.FirewallRule

	sc := bufio.NewScanner(strings.NewReader(dump))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "-A INPUT ") {
			continue
		}
		rule, ok := parseInputRule(line)
		if !ok {
			log.WithField("rule", line).Debug("Skipping uninspectable iptables rule")
			continue
		}
		rules = append(rules, rule)
	}
	return rules
}

func parseInputRule(line string) (domain.FirewallRule, bool) {
	fields := strings.Fields(line)

	var (
		proto  domain.Protocol
		ports  []string
		accept bool
	)
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "-p":
			if i+1 >= len(fields) {
				return domain.FirewallRule{}, false
			}
			switch fields[i+1] {
			case "tcp":
				proto = domain.ProtocolTCP
			case "udp":
				proto = domain.ProtocolUDP
			default:
				return domain.FirewallRule{}, false
			}
			i++
		case "--dport":
			if i+1 >= len(fields) {
				return domain.FirewallRule{}, false
			}
			ports = append(ports, fields[i+1])
			i++
		case "--dports":
			if i+1 >= len(fields) {
				return domain.FirewallRule{}, false
			}
			ports = append(ports, strings.Split(fields[i+1], ",")...)
			i++
		case "-j":
			if i+1 >= len(fields) {
				return domain.FirewallRule{}, false
			}
			accept = fields[i+1] == "ACCEPT"
			i++
		}
	}

	if !accept || proto == "" {
		return domain.FirewallRule{}, false
	}
	if len(ports) == 0 {
		// protocol-wide accept
		ports = []string{domain.PortAny}
	}

	return domain.FirewallRule{
		Name:       line,
		Direction:  domain.RuleInbound,
		Protocol:   proto,
		LocalPorts: ports,
		Enabled:    true,
	}, true
}

func iptablesEchoAccepted(dump string, family domain.IPFamily) bool {
	echoType := "8" // ICMPv4 echo-request
	protoFlag := "icmp"
	typeFlag := "--icmp-type"
	if family == domain.IPv6 {
		echoType = "128"
		protoFlag = "ipv6-icmp"
		typeFlag = "--icmpv6-type"
	}

	sc := bufio.NewScanner(strings.NewReader(dump))
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "-A INPUT ") || !strings.Contains(line, "-j ACCEPT") {
			continue
		}
		if !strings.Contains(line, "-p "+protoFlag) {
			continue
		}
		// A bare "-p icmp -j ACCEPT" admits every type, echo included.
		if !strings.Contains(line, typeFlag) {
			return true
		}
		if strings.Contains(line, typeFlag+" "+echoType) ||
			strings.Contains(line, typeFlag+" echo-request") {
			return true
		}
	}
	return false
}
