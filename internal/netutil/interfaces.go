package netutil

import (
	"net"

	log "github.com/sirupsen/logrus"
)

// LocalProbeAddrs enumerates the unicast addresses of every interface that
// is up and not loopback: the inbound probe targets. When nothing usable is
// found it falls back to the IPv4 wildcard so an inbound run still has one
// target. Interfaces that cannot be inspected are skipped.
func LocalProbeAddrs() []net.IP {
	ifaces, err := net.Interfaces()
	if err != nil {
		log.WithError(err).Warn("Could not enumerate interfaces, falling back to wildcard")
		return []net.IP{net.IPv4zero}
	}

	var out []net.IP
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			log.WithError(err).WithField("iface", iface.Name).Debug("Skipping uninspectable interface")
			continue
		}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.IsLinkLocalUnicast() {
				continue
			}
			out = append(out, ipnet.IP)
		}
	}

	if len(out) == 0 {
		out = []net.IP{net.IPv4zero}
	}
	return out
}
