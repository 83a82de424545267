// Package yamlconfig loads reusable run configurations: which direction to
// probe, which hosts and port specs to cover, and how the run executes.
package yamlconfig

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bytemomo/sonar/internal/domain"
)

// Engine selects the outbound probing implementation.
type Engine string

const (
	EngineNative Engine = "native"
	EngineNmap   Engine = "nmap"
)

// RunConfig is one reusable run description.
type RunConfig struct {
	Name      string           `yaml:"name"`
	Direction domain.Direction `yaml:"direction"`

	// Hosts are the remote targets of an outbound run. Ignored inbound,
	// where targets come from interface enumeration.
	Hosts []string `yaml:"hosts,omitempty"`

	// TCPPorts and UDPPorts are port-spec tokens: service names, ports,
	// ranges.
	TCPPorts []string `yaml:"tcp_ports,omitempty"`
	UDPPorts []string `yaml:"udp_ports,omitempty"`
	ICMP     bool     `yaml:"icmp"`

	Engine         Engine        `yaml:"engine,omitempty"`
	Workers        int           `yaml:"workers,omitempty"`
	ProbeTimeout   time.Duration `yaml:"probe_timeout,omitempty"`
	ResolveTimeout time.Duration `yaml:"resolve_timeout,omitempty"`

	// FirewallRulesFile points at a static rule-set document; empty means
	// the live platform source.
	FirewallRulesFile string `yaml:"firewall_rules_file,omitempty"`

	OutDir  string `yaml:"out_dir,omitempty"`
	LogFile string `yaml:"log_file,omitempty"`
}

// LoadRunConfig reads and validates a run configuration document.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks the loaded document for operator mistakes.
func (c *RunConfig) Validate() error {
	switch c.Direction {
	case domain.DirectionOutbound:
		if len(c.Hosts) == 0 {
			return fmt.Errorf("run config: outbound run needs at least one host")
		}
	case domain.DirectionInbound:
	case "":
		return fmt.Errorf("run config: direction is required")
	default:
		return fmt.Errorf("run config: unknown direction %q", c.Direction)
	}

	if len(c.TCPPorts) == 0 && len(c.UDPPorts) == 0 && !c.ICMP {
		return fmt.Errorf("run config: nothing to probe, set tcp_ports, udp_ports or icmp")
	}

	switch c.Engine {
	case "", EngineNative, EngineNmap:
	default:
		return fmt.Errorf("run config: unknown engine %q", c.Engine)
	}
	if c.Engine == EngineNmap && c.Direction == domain.DirectionInbound {
		return fmt.Errorf("run config: the nmap engine only supports outbound runs")
	}
	return nil
}

func (c *RunConfig) applyDefaults() {
	if c.Engine == "" {
		c.Engine = EngineNative
	}
	if c.Workers <= 0 {
		c.Workers = 16
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = 3 * time.Second
	}
	if c.OutDir == "" {
		c.OutDir = "./sonar-results"
	}
}
