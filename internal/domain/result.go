package domain

import "strconv"

// Direction identifies which way a probe looks: from this host toward a
// remote target, or at this host's own sockets and firewall.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

// Protocol is the transport a probe exercises.
type Protocol string

const (
	ProtocolTCP  Protocol = "tcp"
	ProtocolUDP  Protocol = "udp"
	ProtocolICMP Protocol = "icmp"
)

// Status is the classified verdict for one (target, protocol, port).
//
// Outbound probes classify to Success or Failed. Inbound probes classify to
// Allowed, Warning or Blocked.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusAllowed Status = "allowed"
	StatusWarning Status = "warning"
	StatusBlocked Status = "blocked"
)

// Succeeded reports whether the status counts toward the success tally of a
// run summary. Warning is a failure for tallying: the service works locally
// but cannot be reached from outside.
func (s Status) Succeeded() bool {
	return s == StatusSuccess || s == StatusAllowed
}

// Detail strings attached to classified results. These are stable, they map
// directly onto the Detail report column.
const (
	DetailPortOpened       = "Port Opened"
	DetailServiceListening = "Service listening"
	DetailFirewallBlocked  = "Firewall blocked"
	DetailListeningAllowed = "Listening + Firewall allows"
	DetailListeningBlocked = "Listening, blocked by firewall"
	DetailNotListening     = "Not listening"
	DetailICMPAllowed      = "ICMP allowed"
	DetailICMPBlocked      = "ICMP blocked"
)

// RawSignal carries the transient booleans a single probe produced. It is
// consumed immediately by the classifier and never persisted. A probe that
// hit any transport error reports the corresponding field as false; probes
// do not surface errors.
type RawSignal struct {
	ReachablePing    bool
	TCPConnected     bool
	UDPSendOK        bool
	LocallyListening bool
	FirewallAllows   bool
}

// ProbeResult is the immutable record for one probed (target, protocol,
// port). It is created once by the classifier and never mutated.
//
// PortOpening, FirewallBlocking and ServiceListening are the outbound
// facets; Listening and FirewallAllow are the inbound ones. Only the set
// matching Direction is meaningful, the other set stays false.
type ProbeResult struct {
	Target    string    `json:"target"`
	Direction Direction `json:"direction"`
	Protocol  Protocol  `json:"protocol"`
	Port      uint16    `json:"port"` // 0 for ICMP

	Status Status `json:"status"`
	Detail string `json:"detail"`

	PortOpening      bool `json:"port_opening"`
	FirewallBlocking bool `json:"firewall_blocking"`
	ServiceListening bool `json:"service_listening"`

	Listening     bool `json:"listening"`
	FirewallAllow bool `json:"firewall_allow"`
}

// PortLabel renders the port column: the numeric port, or the protocol name
// for ICMP which has no port concept.
func (r ProbeResult) PortLabel() string {
	if r.Protocol == ProtocolICMP {
		return string(ProtocolICMP)
	}
	return strconv.Itoa(int(r.Port))
}

// RunSummary tallies classified results for one target. It is derived from
// the result collection and recomputable at any time; it is never mutated
// independently.
type RunSummary struct {
	Target  string `json:"target"`
	Total   int    `json:"total"`
	Success int    `json:"success"`
	Failed  int    `json:"failed"`
}
