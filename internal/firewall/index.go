// Package firewall provides a read-only, queryable view over the host's
// inbound firewall allow-rules.
//
// The index models allow-rules only: the first enabled rule matching a
// protocol and port wins, and no explicit deny rule can override it. Real
// firewalls apply precedence between allow and deny rules; that semantic is
// intentionally not reproduced here.
package firewall

import (
	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
)

// Index is an immutable snapshot of the enabled inbound rule set, built
// once per run. It is safe to share across concurrent probes without
// locking.
type Index struct {
	rules    []domain.FirewallRule
	icmpEcho map[domain.IPFamily]bool
}

// NewIndex builds an index from src. Rules the source could not inspect are
// already absent; a source that fails entirely yields an empty index (no
// rule matches), never an error: inspection failure must not abort a run.
func NewIndex(src domain.FirewallRuleSource) *Index {
	ix := &Index{icmpEcho: map[domain.IPFamily]bool{}}

	rules, err := src.InboundRules()
	if err != nil {
		log.WithError(err).Warn("Could not enumerate firewall rules, treating rule set as empty")
	}
	for _, r := range rules {
		if !r.Enabled || r.Direction != domain.RuleInbound {
			continue
		}
		ix.rules = append(ix.rules, r)
	}

	for _, fam := range []domain.IPFamily{domain.IPv4, domain.IPv6} {
		enabled, err := src.ICMPEchoEnabled(fam)
		if err != nil {
			log.WithError(err).WithField("family", fam).Warn("Could not read ICMP echo rule group")
			continue
		}
		ix.icmpEcho[fam] = enabled
	}

	log.WithField("rules", len(ix.rules)).Debug("Built firewall rule index")
	return ix
}

// Allows reports whether any enabled inbound rule admits proto on port. The
// first match wins.
func (ix *Index) Allows(proto domain.Protocol, port uint16) bool {
	for _, r := range ix.rules {
		if r.Protocol != proto {
			continue
		}
		if r.MatchesPort(port) {
			return true
		}
	}
	return false
}

// ICMPAllowed reports whether the inbound ICMP echo-request rule group is
// enabled for the given IP family.
func (ix *Index) ICMPAllowed(family domain.IPFamily) bool {
	return ix.icmpEcho[family]
}
