package probe

import (
	"net"

	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
	"bytemomo/sonar/internal/firewall"
	"bytemomo/sonar/internal/socktab"
)

// InboundProber answers listening and firewall questions for the local
// host. The socket table and the rule index are both snapshots taken when
// the prober is built; neither observes changes mid-run, and both are
// read-only afterwards so concurrent probes need no locking.
//
// Elevation is a precondition enforced by the caller, not here.
type InboundProber struct {
	entries []socktab.Entry
	rules   *firewall.Index
}

// NewInboundProber snapshots the socket table from src. A source failure
// yields an empty table (nothing listening), never an error: per-item and
// whole-source inspection failures must not abort the run.
func NewInboundProber(src socktab.Source, rules *firewall.Index) *InboundProber {
	entries, err := src.Entries()
	if err != nil {
		log.WithError(err).Warn("Could not enumerate socket table, treating it as empty")
	}
	return &InboundProber{entries: entries, rules: rules}
}

// Probe produces the raw signals for one (local address, protocol, port).
func (p *InboundProber) Probe(localIP net.IP, proto domain.Protocol, port uint16) domain.RawSignal {
	return domain.RawSignal{
		LocallyListening: socktab.Listening(p.entries, proto, port, localIP),
		FirewallAllows:   p.rules.Allows(proto, port),
	}
}

// ProbeICMP produces the signal for the inbound ICMP check of localIP's
// address family. There is no listening concept for ICMP, only the echo
// rule group state.
func (p *InboundProber) ProbeICMP(localIP net.IP) domain.RawSignal {
	family := domain.IPv4
	if localIP.To4() == nil {
		family = domain.IPv6
	}
	return domain.RawSignal{FirewallAllows: p.rules.ICMPAllowed(family)}
}
