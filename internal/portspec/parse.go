// Package portspec turns textual port specifications into canonical port
// sets. A specification is a list of tokens: well-known service names
// ("HTTP", "rdp"), bare ports ("8080") and inclusive ranges ("8000-8100").
package portspec

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// servicePorts maps well-known service names to their fixed ports. Lookup
// is case-insensitive.
var servicePorts = map[string]uint16{
	"http":   80,
	"https":  443,
	"ftp":    21,
	"ssh":    22,
	"telnet": 23,
	"smtp":   25,
	"smtps":  465,
	"imap":   143,
	"imaps":  993,
	"pop3":   110,
	"pop3s":  995,
	"rdp":    3389,
	"mysql":  3306,
	"mssql":  1433,
	"dns":    53,
	"ntp":    123,
	"snmp":   161,
	"syslog": 514,
}

var rangeToken = regexp.MustCompile(`^\d+-\d+$`)

// ServicePort resolves a service name to its fixed port.
func ServicePort(name string) (uint16, bool) {
	p, ok := servicePorts[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Parse resolves a token list into a sorted, deduplicated port set.
//
// Malformed tokens never fail the parse: each one produces a warning and is
// skipped, so the result is always a (possibly empty) valid set. Parsing the
// same tokens twice yields an identical result.
func Parse(tokens []string) ([]uint16, []string) {
	seen := make(map[uint16]struct{})
	var warnings []string

	for _, tok := range tokens {
		t := strings.ToLower(strings.TrimSpace(tok))
		if t == "" {
			continue
		}

		if p, ok := servicePorts[t]; ok {
			seen[p] = struct{}{}
			continue
		}

		if rangeToken.MatchString(t) {
			bounds := strings.SplitN(t, "-", 2)
			start, serr := strconv.Atoi(bounds[0])
			end, eerr := strconv.Atoi(bounds[1])
			if serr != nil || eerr != nil || start < 1 || end > 65535 || start > end {
				warnings = append(warnings, fmt.Sprintf("invalid port range %q, skipped", tok))
				continue
			}
			for p := start; p <= end; p++ {
				seen[uint16(p)] = struct{}{}
			}
			continue
		}

		if v, err := strconv.Atoi(t); err == nil {
			if v < 1 || v > 65535 {
				warnings = append(warnings, fmt.Sprintf("port %q out of range 1-65535, skipped", tok))
				continue
			}
			seen[uint16(v)] = struct{}{}
			continue
		}

		warnings = append(warnings, fmt.Sprintf("unrecognized token %q, skipped", tok))
	}

	ports := make([]uint16, 0, len(seen))
	for p := range seen {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports, warnings
}
