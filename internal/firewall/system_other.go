//go:build !linux && !windows

package firewall

import (
	"fmt"
	"runtime"

	"bytemomo/sonar/internal/domain"
)

type unsupportedSource struct{}

func (unsupportedSource) InboundRules() ([]domain.FirewallRule, error) {
	return nil, fmt.Errorf("no live firewall rule source on %s, configure a rules file", runtime.GOOS)
}

func (unsupportedSource) ICMPEchoEnabled(domain.IPFamily) (bool, error) {
	return false, fmt.Errorf("no live firewall rule source on %s, configure a rules file", runtime.GOOS)
}

// NewSystemSource returns the live rule source for this platform.
func NewSystemSource() domain.FirewallRuleSource {
	return unsupportedSource{}
}
