package firewall

import "bytemomo/sonar/internal/domain"

// NewSystemSource returns the live rule source for this platform.
func NewSystemSource() domain.FirewallRuleSource {
	return NewIptablesSource()
}
