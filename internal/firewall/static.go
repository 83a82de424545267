package firewall

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"bytemomo/sonar/internal/domain"
)

// StaticSource serves a fixed rule set, loaded from YAML or built in code.
// It backs declarative environments where the effective policy is known
// ahead of time, and the tests.
type StaticSource struct {
	Rules    []domain.FirewallRule `yaml:"rules"`
	ICMPEcho struct {
		V4 bool `yaml:"v4"`
		V6 bool `yaml:"v6"`
	} `yaml:"icmp_echo"`
}

// LoadStaticSource reads a rule-set document from path.
func LoadStaticSource(path string) (*StaticSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var src StaticSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("failed to parse firewall rules: %w", err)
	}
	return &src, nil
}

func (s *StaticSource) InboundRules() ([]domain.FirewallRule, error) {
	return s.Rules, nil
}

func (s *StaticSource) ICMPEchoEnabled(family domain.IPFamily) (bool, error) {
	if family == domain.IPv6 {
		return s.ICMPEcho.V6, nil
	}
	return s.ICMPEcho.V4, nil
}
