// Package classify turns raw probe signals into reasoned probe results.
//
// Classification is a pure, total mapping: every combination of input
// booleans has exactly one verdict, so no probe outcome is ever unhandled.
// It performs no I/O.
package classify

import "bytemomo/sonar/internal/domain"

// Outbound classifies a remote-direction probe of proto on port. For TCP the
// service signal is the handshake result, for UDP the send result.
//
// An unreachable host (ping failed) always classifies as firewall blocked,
// regardless of the service signal: this tool attributes unreachability to
// the firewall, never to the service.
func Outbound(target string, proto domain.Protocol, port uint16, sig domain.RawSignal) domain.ProbeResult {
	res := domain.ProbeResult{
		Target:    target,
		Direction: domain.DirectionOutbound,
		Protocol:  proto,
		Port:      port,
	}

	if proto == domain.ProtocolICMP {
		res.Port = 0
		res.PortOpening = sig.ReachablePing
		res.FirewallBlocking = !sig.ReachablePing
		if sig.ReachablePing {
			res.Status, res.Detail = domain.StatusSuccess, domain.DetailPortOpened
		} else {
			res.Status, res.Detail = domain.StatusFailed, domain.DetailFirewallBlocked
		}
		return res
	}

	service := sig.TCPConnected
	if proto == domain.ProtocolUDP {
		service = sig.UDPSendOK
	}

	switch {
	case sig.ReachablePing && service:
		res.PortOpening = true
		res.Status, res.Detail = domain.StatusSuccess, domain.DetailPortOpened
	case sig.ReachablePing && !service:
		res.ServiceListening = true
		res.Status, res.Detail = domain.StatusFailed, domain.DetailServiceListening
	default: // host unreachable
		res.FirewallBlocking = true
		res.Status, res.Detail = domain.StatusFailed, domain.DetailFirewallBlocked
	}
	return res
}

// Inbound classifies a local-direction probe of proto on port.
//
// A port nothing listens on is Blocked even when a firewall rule would have
// allowed it: "not listening" always wins over firewall state.
func Inbound(target string, proto domain.Protocol, port uint16, sig domain.RawSignal) domain.ProbeResult {
	res := domain.ProbeResult{
		Target:    target,
		Direction: domain.DirectionInbound,
		Protocol:  proto,
		Port:      port,
	}

	if proto == domain.ProtocolICMP {
		res.Port = 0
		res.FirewallAllow = sig.FirewallAllows
		if sig.FirewallAllows {
			res.Status, res.Detail = domain.StatusAllowed, domain.DetailICMPAllowed
		} else {
			res.Status, res.Detail = domain.StatusBlocked, domain.DetailICMPBlocked
		}
		return res
	}

	res.Listening = sig.LocallyListening
	res.FirewallAllow = sig.FirewallAllows

	switch {
	case sig.LocallyListening && sig.FirewallAllows:
		res.Status, res.Detail = domain.StatusAllowed, domain.DetailListeningAllowed
	case sig.LocallyListening && !sig.FirewallAllows:
		res.Status, res.Detail = domain.StatusWarning, domain.DetailListeningBlocked
	default:
		res.Status, res.Detail = domain.StatusBlocked, domain.DetailNotListening
	}
	return res
}
