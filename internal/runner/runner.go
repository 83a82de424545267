// Package runner exposes the engine's run API: fan probes for every
// (target, protocol, port) unit out over a bounded worker pool, classify
// each raw signal, and collect results deterministically.
package runner

import (
	"context"
	"net"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bytemomo/sonar/internal/aggregate"
	"bytemomo/sonar/internal/classify"
	"bytemomo/sonar/internal/domain"
)

// OutboundProber produces raw signals for remote triples.
type OutboundProber interface {
	Probe(ctx context.Context, host string, proto domain.Protocol, port uint16) domain.RawSignal
}

// InboundProber produces raw signals for the local host.
type InboundProber interface {
	Probe(localIP net.IP, proto domain.Protocol, port uint16) domain.RawSignal
	ProbeICMP(localIP net.IP) domain.RawSignal
}

// Config bounds the worker pool and the per-probe deadline. A single
// unreachable host can then never stall a run: its probes time out
// individually while other workers keep going.
type Config struct {
	Workers      int           `yaml:"workers"`
	ProbeTimeout time.Duration `yaml:"probe_timeout"`
}

func DefaultConfig() Config {
	return Config{Workers: 16, ProbeTimeout: 5 * time.Second}
}

// Runner executes probe runs. Results are ordered by (target, protocol,
// port) regardless of which worker finished first.
type Runner struct {
	Outbound OutboundProber
	Inbound  InboundProber
	Repo     domain.ResultRepo // optional per-result sink
	Config   Config
}

type unit struct {
	target string
	ip     net.IP
	proto  domain.Protocol
	port   uint16
}

// RunOutbound probes every host against the TCP and UDP port sets, plus one
// ICMP reachability row per host when wantICMP is set. Cancelling ctx stops
// scheduling new probes; in-flight probes finish or hit their own timeout.
// Results collected before cancellation are still returned.
func (r Runner) RunOutbound(ctx context.Context, hosts []string, tcpPorts, udpPorts []uint16, wantICMP bool) ([]domain.ProbeResult, []domain.RunSummary, error) {
	var units []unit
	for _, h := range hosts {
		if wantICMP {
			units = append(units, unit{target: h, proto: domain.ProtocolICMP})
		}
		for _, p := range tcpPorts {
			units = append(units, unit{target: h, proto: domain.ProtocolTCP, port: p})
		}
		for _, p := range udpPorts {
			units = append(units, unit{target: h, proto: domain.ProtocolUDP, port: p})
		}
	}

	log.WithFields(log.Fields{
		"hosts":   len(hosts),
		"units":   len(units),
		"workers": r.Config.Workers,
	}).Info("Starting outbound run")

	return r.execute(ctx, units, func(ctx context.Context, u unit) domain.ProbeResult {
		sig := r.Outbound.Probe(ctx, u.target, u.proto, u.port)
		return classify.Outbound(u.target, u.proto, u.port, sig)
	})
}

// RunInbound probes every local address against the TCP and UDP port sets,
// plus one ICMP rule-group row per address when wantICMP is set. Elevation
// is the caller's precondition; without it the socket and firewall
// snapshots come up empty and every port reads blocked.
func (r Runner) RunInbound(ctx context.Context, localTargets []net.IP, tcpPorts, udpPorts []uint16, wantICMP bool) ([]domain.ProbeResult, []domain.RunSummary, error) {
	var units []unit
	for _, ip := range localTargets {
		if wantICMP {
			units = append(units, unit{target: ip.String(), ip: ip, proto: domain.ProtocolICMP})
		}
		for _, p := range tcpPorts {
			units = append(units, unit{target: ip.String(), ip: ip, proto: domain.ProtocolTCP, port: p})
		}
		for _, p := range udpPorts {
			units = append(units, unit{target: ip.String(), ip: ip, proto: domain.ProtocolUDP, port: p})
		}
	}

	log.WithFields(log.Fields{
		"addresses": len(localTargets),
		"units":     len(units),
		"workers":   r.Config.Workers,
	}).Info("Starting inbound run")

	return r.execute(ctx, units, func(_ context.Context, u unit) domain.ProbeResult {
		var sig domain.RawSignal
		if u.proto == domain.ProtocolICMP {
			sig = r.Inbound.ProbeICMP(u.ip)
		} else {
			sig = r.Inbound.Probe(u.ip, u.proto, u.port)
		}
		return classify.Inbound(u.target, u.proto, u.port, sig)
	})
}

func (r Runner) execute(ctx context.Context, units []unit, probe func(context.Context, unit) domain.ProbeResult) ([]domain.ProbeResult, []domain.RunSummary, error) {
	agg := aggregate.New()

	g, gctx := errgroup.WithContext(ctx)
	workers := r.Config.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, u := range units {
		u := u
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			pctx := gctx
			if r.Config.ProbeTimeout > 0 {
				var cancel context.CancelFunc
				pctx, cancel = context.WithTimeout(gctx, r.Config.ProbeTimeout)
				defer cancel()
			}

			res := probe(pctx, u)
			if err := res.Validate(); err != nil {
				log.WithError(err).WithField("target", u.target).Error("Dropping malformed result")
				return nil
			}

			agg.Add(res)
			if r.Repo != nil {
				if err := r.Repo.Save(res); err != nil {
					log.WithError(err).WithField("target", u.target).Error("Failed to save result")
				}
			}
			return nil
		})
	}

	err := g.Wait()
	results := agg.AllResults()

	log.WithFields(log.Fields{
		"results": len(results),
	}).Info("Run finished")

	return results, agg.Summaries(), err
}
