package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/adapter/csvreport"
	"bytemomo/sonar/internal/adapter/htmlreport"
	"bytemomo/sonar/internal/adapter/jsonreport"
	"bytemomo/sonar/internal/adapter/logger"
	"bytemomo/sonar/internal/adapter/yamlconfig"
	"bytemomo/sonar/internal/domain"
	"bytemomo/sonar/internal/firewall"
	"bytemomo/sonar/internal/netutil"
	"bytemomo/sonar/internal/portspec"
	"bytemomo/sonar/internal/privilege"
	"bytemomo/sonar/internal/probe"
	"bytemomo/sonar/internal/runner"
	"bytemomo/sonar/internal/scanner"
	"bytemomo/sonar/internal/socktab"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to run config YAML file (required)")
		outDir      = flag.String("out", "", "Output directory (overrides run config)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		versionFlag = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Printf("sonar connectivity prober v%s (%s)\n", version, commit)
		os.Exit(0)
	}

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --config is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := yamlconfig.LoadRunConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *outDir != "" {
		cfg.OutDir = *outDir
	}

	level := log.InfoLevel
	if *verbose {
		level = log.DebugLevel
	}
	logger.SetLoggerToStructured(level, cfg.LogFile)

	log.WithFields(log.Fields{
		"version":   version,
		"run":       cfg.Name,
		"direction": cfg.Direction,
	}).Info("Starting sonar")

	if cfg.Direction == domain.DirectionInbound && !privilege.Elevated() {
		log.Fatal("Inbound runs need elevated privileges to read the socket table and firewall rules")
	}

	tcpPorts := parsePorts("tcp", cfg.TCPPorts)
	udpPorts := parsePorts("udp", cfg.UDPPorts)
	if len(tcpPorts) == 0 && len(udpPorts) == 0 && !cfg.ICMP {
		log.Fatal("No valid ports left after parsing and icmp is disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run := runner.Runner{
		Repo: jsonreport.New(cfg.OutDir),
		Config: runner.Config{
			Workers:      cfg.Workers,
			ProbeTimeout: cfg.ProbeTimeout,
		},
	}

	var (
		results   []domain.ProbeResult
		summaries []domain.RunSummary
	)

	switch cfg.Direction {
	case domain.DirectionOutbound:
		pinger := probe.NewICMPPinger(netutil.NewResolver(cfg.ResolveTimeout))
		if cfg.Engine == yamlconfig.EngineNmap {
			run.Outbound = scanner.NewNmapEngine(pinger, cfg.Hosts, tcpPorts, udpPorts, cfg.ProbeTimeout)
		} else {
			run.Outbound = probe.NewOutboundProber(pinger)
		}
		results, summaries, err = run.RunOutbound(ctx, cfg.Hosts, tcpPorts, udpPorts, cfg.ICMP)

	case domain.DirectionInbound:
		rules := firewall.NewIndex(firewallSource(cfg))
		run.Inbound = probe.NewInboundProber(socktab.NewSystemSource(), rules)
		results, summaries, err = run.RunInbound(ctx, netutil.LocalProbeAddrs(), tcpPorts, udpPorts, cfg.ICMP)
	}
	if err != nil {
		log.WithError(err).Warn("Run ended early")
	}

	writeReports(cfg, results, summaries)
	printSummary(summaries)

	for _, r := range results {
		if !r.Status.Succeeded() {
			os.Exit(2)
		}
	}
}

// parsePorts expands spec tokens into ports, logging every skipped token.
func parsePorts(proto string, tokens []string) []uint16 {
	ports, warnings := portspec.Parse(tokens)
	for _, w := range warnings {
		log.WithField("protocol", proto).Warn(w)
	}
	return ports
}

// firewallSource picks the static rule document when configured, otherwise
// the live platform source.
func firewallSource(cfg *yamlconfig.RunConfig) domain.FirewallRuleSource {
	if cfg.FirewallRulesFile != "" {
		src, err := firewall.LoadStaticSource(cfg.FirewallRulesFile)
		if err != nil {
			log.WithError(err).Fatal("Could not load firewall rules file")
		}
		return src
	}
	return firewall.NewSystemSource()
}

func writeReports(cfg *yamlconfig.RunConfig, results []domain.ProbeResult, summaries []domain.RunSummary) {
	writers := []domain.ReportWriter{
		jsonreport.New(cfg.OutDir),
		csvreport.New(cfg.OutDir, cfg.Direction),
		htmlreport.New(cfg.OutDir, cfg.Direction),
	}
	for _, w := range writers {
		path, err := w.Aggregate(results, summaries)
		if err != nil {
			log.WithError(err).Error("Failed to write report")
			continue
		}
		log.WithField("path", path).Info("Report written")
	}
}

func printSummary(summaries []domain.RunSummary) {
	for _, s := range summaries {
		fmt.Printf("%s: %d/%d checks succeeded\n", s.Target, s.Success, s.Total)
	}
}
