// Package socktab enumerates the local socket table: which protocol/port
// pairs have a listening (TCP) or bound (UDP) endpoint, and on which
// address.
package socktab

import (
	"net"

	"bytemomo/sonar/internal/domain"
)

// State of a socket-table entry. UDP has no connection state, a bound
// socket reports StateBound.
type State string

const (
	StateListen State = "LISTEN"
	StateBound  State = "BOUND"
	StateOther  State = "OTHER"
)

// Entry is one row of the socket table.
type Entry struct {
	Protocol  domain.Protocol
	LocalIP   net.IP
	LocalPort uint16
	State     State
}

// Source lists the current host's socket table. Implementations skip rows
// they cannot decode.
type Source interface {
	Entries() ([]Entry, error)
}

// Listening reports whether entries contains an endpoint accepting proto
// traffic on port bound to localIP or to a wildcard address.
func Listening(entries []Entry, proto domain.Protocol, port uint16, localIP net.IP) bool {
	for _, e := range entries {
		if e.Protocol != proto || e.LocalPort != port {
			continue
		}
		switch proto {
		case domain.ProtocolTCP:
			if e.State != StateListen {
				continue
			}
		case domain.ProtocolUDP:
			if e.State != StateBound {
				continue
			}
		default:
			continue
		}
		if e.LocalIP.IsUnspecified() || e.LocalIP.Equal(localIP) {
			return true
		}
	}
	return false
}
