// Package scanner provides the optional nmap-backed outbound engine. It
// trades the native per-triple probes for one batched nmap run, useful when
// an operator wants nmap's port-state heuristics for verification.
package scanner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"
	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
	"bytemomo/sonar/internal/probe"
)

// NmapEngine satisfies the runner's outbound prober by consulting a single
// cached nmap scan of every host and port in the run. The reachability ping
// still comes from the native pinger so classification semantics stay
// identical to the native engine.
type NmapEngine struct {
	Pinger  probe.Pinger
	Timeout time.Duration

	hosts    []string
	tcpPorts []uint16
	udpPorts []uint16

	once     sync.Once
	tcpOpen  map[string]bool
	udpOpen  map[string]bool
	pingMu   sync.Mutex
	pingSeen map[string]bool
}

func NewNmapEngine(pinger probe.Pinger, hosts []string, tcpPorts, udpPorts []uint16, timeout time.Duration) *NmapEngine {
	return &NmapEngine{
		Pinger:   pinger,
		Timeout:  timeout,
		hosts:    hosts,
		tcpPorts: tcpPorts,
		udpPorts: udpPorts,
		tcpOpen:  make(map[string]bool),
		udpOpen:  make(map[string]bool),
		pingSeen: make(map[string]bool),
	}
}

// Probe looks the triple up in the scan cache, running the scan on first
// use. A scan failure leaves the cache empty, so every service signal reads
// false; the probe itself never errors.
func (e *NmapEngine) Probe(ctx context.Context, host string, proto domain.Protocol, port uint16) domain.RawSignal {
	var sig domain.RawSignal

	switch proto {
	case domain.ProtocolICMP:
		sig.ReachablePing = e.cachedPing(ctx, host)
	case domain.ProtocolTCP:
		e.once.Do(func() { e.scan(ctx) })
		sig.ReachablePing = e.cachedPing(ctx, host)
		sig.TCPConnected = e.tcpOpen[key(host, port)]
	case domain.ProtocolUDP:
		e.once.Do(func() { e.scan(ctx) })
		sig.ReachablePing = e.cachedPing(ctx, host)
		sig.UDPSendOK = e.udpOpen[key(host, port)]
	}
	return sig
}

func (e *NmapEngine) cachedPing(ctx context.Context, host string) bool {
	e.pingMu.Lock()
	ok, hit := e.pingSeen[host]
	e.pingMu.Unlock()
	if hit {
		return ok
	}
	ok = e.Pinger.Ping(ctx, host)
	e.pingMu.Lock()
	e.pingSeen[host] = ok
	e.pingMu.Unlock()
	return ok
}

func (e *NmapEngine) scan(ctx context.Context) {
	portsArg := portSpec(e.tcpPorts, e.udpPorts)
	if portsArg == "" {
		return
	}

	log.WithFields(log.Fields{
		"targets": e.hosts,
		"ports":   portsArg,
	}).Info("Starting nmap scan")

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	opts := []nmap.Option{
		nmap.WithTargets(e.hosts...),
		nmap.WithPorts(portsArg),
		nmap.WithSkipHostDiscovery(), // reachability is the pinger's job
	}
	if len(e.udpPorts) > 0 {
		opts = append(opts, nmap.WithUDPScan())
	}

	s, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		log.WithError(err).Error("Failed to create nmap scanner")
		return
	}

	result, warnings, err := s.Run()
	if err != nil {
		log.WithError(err).Error("Nmap scan failed")
		return
	}
	if warnings != nil && len(*warnings) > 0 {
		log.WithField("warnings", *warnings).Debug("Nmap scan warnings")
	}

	for _, h := range result.Hosts {
		names := hostNames(h)
		for _, p := range h.Ports {
			open := strings.HasPrefix(string(p.State.State), "open")
			for _, name := range names {
				k := key(name, uint16(p.ID))
				switch p.Protocol {
				case "tcp":
					e.tcpOpen[k] = e.tcpOpen[k] || open
				case "udp":
					// nmap reports unanswered UDP as open|filtered,
					// which counts as ok, matching the native engine's
					// weak send heuristic.
					e.udpOpen[k] = e.udpOpen[k] || open
				}
			}
		}
	}
}

// hostNames returns every name the scanned host can be addressed by in the
// run config: addresses and reported hostnames.
func hostNames(h nmap.Host) []string {
	var names []string
	for _, a := range h.Addresses {
		names = append(names, a.Addr)
	}
	for _, hn := range h.Hostnames {
		names = append(names, hn.Name)
	}
	return names
}

// portSpec renders the nmap -p argument, e.g. "T:22,80,U:53".
func portSpec(tcp, udp []uint16) string {
	var parts []string
	if len(tcp) > 0 {
		parts = append(parts, "T:"+joinPorts(tcp))
	}
	if len(udp) > 0 {
		parts = append(parts, "U:"+joinPorts(udp))
	}
	return strings.Join(parts, ",")
}

func joinPorts(ports []uint16) string {
	strs := make([]string, len(ports))
	for i, p := range ports {
		strs[i] = strconv.Itoa(int(p))
	}
	return strings.Join(strs, ",")
}

func key(host string, port uint16) string {
	return fmt.Sprintf("%s/%d", host, port)
}
