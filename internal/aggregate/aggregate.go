// Package aggregate collects classified probe results for a run and derives
// per-target summaries.
package aggregate

import (
	"sort"
	"sync"

	"bytemomo/sonar/internal/domain"
)

// protocolOrder fixes the protocol column order within a target so reports
// are reproducible: icmp first, then tcp, then udp.
var protocolOrder = map[domain.Protocol]int{
	domain.ProtocolICMP: 0,
	domain.ProtocolTCP:  1,
	domain.ProtocolUDP:  2,
}

// Aggregator owns the growing result collection for one run. It is the only
// mutable shared state in a run; Add serializes concurrent writers. Results
// are append-only, never removed or mutated after insertion.
type Aggregator struct {
	mu      sync.Mutex
	results []domain.ProbeResult
}

func New() *Aggregator {
	return &Aggregator{}
}

// Add records one classified result. Safe for concurrent use.
func (a *Aggregator) Add(res domain.ProbeResult) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, res)
}

// AllResults returns every recorded result ordered by target, then
// protocol, then ascending numeric port. The ordering is independent of the
// order probes completed in.
func (a *Aggregator) AllResults() []domain.ProbeResult {
	a.mu.Lock()
	out := make([]domain.ProbeResult, len(a.results))
	copy(out, a.results)
	a.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Target != out[j].Target {
			return out[i].Target < out[j].Target
		}
		if out[i].Protocol != out[j].Protocol {
			return protocolOrder[out[i].Protocol] < protocolOrder[out[j].Protocol]
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// SummaryFor tallies the recorded results for one target.
func (a *Aggregator) SummaryFor(target string) domain.RunSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	sum := domain.RunSummary{Target: target}
	for _, r := range a.results {
		if r.Target != target {
			continue
		}
		sum.Total++
		if r.Status.Succeeded() {
			sum.Success++
		} else {
			sum.Failed++
		}
	}
	return sum
}

// Summaries returns one summary per target, ordered by target.
func (a *Aggregator) Summaries() []domain.RunSummary {
	byTarget := make(map[string]*domain.RunSummary)
	var order []string

	for _, r := range a.AllResults() {
		sum, ok := byTarget[r.Target]
		if !ok {
			sum = &domain.RunSummary{Target: r.Target}
			byTarget[r.Target] = sum
			order = append(order, r.Target)
		}
		sum.Total++
		if r.Status.Succeeded() {
			sum.Success++
		} else {
			sum.Failed++
		}
	}

	out := make([]domain.RunSummary, 0, len(order))
	for _, t := range order {
		out = append(out, *byTarget[t])
	}
	return out
}
