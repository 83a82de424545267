// Package netutil holds the host-resolution and interface-enumeration
// helpers the probing engine consumes.
package netutil

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
	log "github.com/sirupsen/logrus"
)

const defaultResolveTimeout = 3 * time.Second

// Resolver resolves hostnames with an explicit, bounded timeout so a dead
// DNS server cannot stall a run. It queries the system's configured
// nameservers directly and falls back to the stdlib resolver when none are
// usable.
type Resolver struct {
	client  *dns.Client
	servers []string
}

// NewResolver builds a resolver from the system resolv.conf. A missing or
// unreadable resolv.conf is not an error, the stdlib fallback covers it.
func NewResolver(timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	r := &Resolver{client: &dns.Client{Timeout: timeout}}

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		log.WithError(err).Debug("No resolv.conf, using stdlib resolver only")
		return r
	}
	for _, s := range conf.Servers {
		r.servers = append(r.servers, net.JoinHostPort(s, conf.Port))
	}
	return r
}

// Resolve returns one address for host: the literal itself when host is an
// IP, otherwise the first A record (AAAA when no A exists).
func (r *Resolver) Resolve(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		if ip := r.query(ctx, host, qtype); ip != nil {
			return ip, nil
		}
	}

	// Direct queries found nothing (or no servers are configured); let the
	// stdlib resolver try hosts files and any platform-specific sources.
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", host, err)
	}
	return ips[0], nil
}

func (r *Resolver) query(ctx context.Context, host string, qtype uint16) net.IP {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(host), qtype)

	for _, server := range r.servers {
		resp, _, err := r.client.ExchangeContext(ctx, msg, server)
		if err != nil || resp == nil {
			continue
		}
		for _, ans := range resp.Answer {
			switch rr := ans.(type) {
			case *dns.A:
				return rr.A
			case *dns.AAAA:
				return rr.AAAA
			}
		}
	}
	return nil
}
