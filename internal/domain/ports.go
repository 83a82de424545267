package domain

// IPFamily selects an IP version for family-scoped firewall queries.
type IPFamily int

const (
	IPv4 IPFamily = 4
	IPv6 IPFamily = 6
)

// FirewallRuleSource lists the host's firewall rules. Implementations skip
// entries they cannot inspect; a skipped rule matches in neither direction.
type FirewallRuleSource interface {
	// InboundRules returns every inbound rule the source could read,
	// enabled or not.
	InboundRules() ([]FirewallRule, error)

	// ICMPEchoEnabled reports whether the platform's built-in inbound
	// ICMP echo-request rule group is enabled for the given family.
	ICMPEchoEnabled(family IPFamily) (bool, error)
}

// ResultRepo is an interface for saving per-target probe results.
type ResultRepo interface {
	Save(res ProbeResult) error
}

// ReportWriter is an interface for writing aggregated run reports.
type ReportWriter interface {
	// Aggregate writes all run results and returns the report path.
	Aggregate(results []ProbeResult, summaries []RunSummary) (string, error)
}
