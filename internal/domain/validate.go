package domain

import "fmt"

// Validate checks a ProbeResult at construction time. The classifier builds
// every field, so a failure here indicates a programming error, not bad
// operator input.
func (r ProbeResult) Validate() error {
	if r.Target == "" {
		return fmt.Errorf("result: target is required")
	}
	switch r.Direction {
	case DirectionOutbound, DirectionInbound:
	default:
		return fmt.Errorf("result: unknown direction %q", r.Direction)
	}
	switch r.Protocol {
	case ProtocolTCP, ProtocolUDP:
		if r.Port == 0 {
			return fmt.Errorf("result: %s requires a port", r.Protocol)
		}
	case ProtocolICMP:
		if r.Port != 0 {
			return fmt.Errorf("result: icmp carries no port, got %d", r.Port)
		}
	default:
		return fmt.Errorf("result: unknown protocol %q", r.Protocol)
	}
	switch r.Status {
	case StatusSuccess, StatusFailed, StatusAllowed, StatusWarning, StatusBlocked:
	default:
		return fmt.Errorf("result: unknown status %q", r.Status)
	}
	if r.Detail == "" {
		return fmt.Errorf("result: detail is required")
	}
	return nil
}
