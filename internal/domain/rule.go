package domain

import (
	"strconv"
	"strings"
)

// RuleDirection is the traffic direction a firewall rule applies to. Only
// inbound rules are ever indexed.
type RuleDirection string

const (
	RuleInbound  RuleDirection = "inbound"
	RuleOutbound RuleDirection = "outbound"
)

// PortAny is the wildcard local-port filter value.
const PortAny = "Any"

// FirewallRule is a read-only snapshot of one host firewall rule, taken once
// per run. The index never observes rule changes mid-run.
type FirewallRule struct {
	Name      string        `yaml:"name"`
	Direction RuleDirection `yaml:"direction"`
	Protocol  Protocol      `yaml:"protocol"`
	// LocalPorts is the local-port filter: discrete port strings, or the
	// wildcard "Any". Empty means the rule matches no port.
	LocalPorts []string `yaml:"local_ports"`
	Enabled    bool     `yaml:"enabled"`
}

// MatchesPort reports whether the rule's local-port filter contains the
// exact port, the wildcard, or the port's string form.
func (r FirewallRule) MatchesPort(port uint16) bool {
	want := strconv.Itoa(int(port))
	for _, p := range r.LocalPorts {
		if strings.EqualFold(p, PortAny) || strings.TrimSpace(p) == want {
			return true
		}
	}
	return false
}
