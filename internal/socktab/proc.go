package socktab

import (
	"bufio"
	"encoding/hex"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"bytemomo/sonar/internal/domain"
)

// TCP_LISTEN as printed in /proc/net/tcp.
const procStateListen = 0x0A

// ProcSource reads the socket table from the procfs net files.
type ProcSource struct {
	// Root is the directory holding the tcp/tcp6/udp/udp6 files,
	// /proc/net on a live system. Overridable for tests.
	Root string
}

func NewProcSource() *ProcSource {
	return &ProcSource{Root: "/proc/net"}
}

// Entries parses all four procfs tables. A table that cannot be opened is
// skipped; undecodable rows within a table are skipped individually.
func (s *ProcSource) Entries() ([]Entry, error) {
	var all []Entry
	tables := []struct {
		file  string
		proto domain.Protocol
		v6    bool
	}{
		{"tcp", domain.ProtocolTCP, false},
		{"tcp6", domain.ProtocolTCP, true},
		{"udp", domain.ProtocolUDP, false},
		{"udp6", domain.ProtocolUDP, true},
	}

	opened := 0
	for _, tb := range tables {
		f, err := os.Open(filepath.Join(s.Root, tb.file))
		if err != nil {
			log.WithError(err).WithField("table", tb.file).Debug("Skipping unreadable socket table")
			continue
		}
		all = append(all, parseProcNet(f, tb.proto, tb.v6)...)
		f.Close()
		opened++
	}

	if opened == 0 {
		return nil, os.ErrNotExist
	}
	return all, nil
}

// parseProcNet decodes one procfs net table. Row format:
//
//	sl local_address rem_address st ...
//
// with addresses as kernel-endian hex and the state as a hex byte.
func parseProcNet(r io.Reader, proto domain.Protocol, v6 bool) []Entry {
	var entries []Entry

	sc := bufio.NewScanner(r)
	sc.Scan() // header
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}

		ip, port, ok := parseProcAddr(fields[1], v6)
		if !ok {
			continue
		}
		st, err := strconv.ParseUint(fields[3], 16, 8)
		if err != nil {
			continue
		}

		state := StateOther
		switch proto {
		case domain.ProtocolTCP:
			if st == procStateListen {
				state = StateListen
			}
		case domain.ProtocolUDP:
			// Bound UDP sockets sit in TCP_CLOSE (0x07); anything
			// present in the table is bound.
			state = StateBound
		}

		entries = append(entries, Entry{
			Protocol:  proto,
			LocalIP:   ip,
			LocalPort: port,
			State:     state,
		})
	}
	return entries
}

// parseProcAddr decodes "HEXADDR:HEXPORT". The kernel prints the address in
// 32-bit little-endian groups.
func parseProcAddr(s string, v6 bool) (net.IP, uint16, bool) {
	addr, portHex, ok := strings.Cut(s, ":")
	if !ok {
		return nil, 0, false
	}

	raw, err := hex.DecodeString(addr)
	if err != nil {
		return nil, 0, false
	}
	wantLen := net.IPv4len
	if v6 {
		wantLen = net.IPv6len
	}
	if len(raw) != wantLen {
		return nil, 0, false
	}

	ip := make(net.IP, wantLen)
	for g := 0; g < wantLen; g += 4 {
		ip[g+0] = raw[g+3]
		ip[g+1] = raw[g+2]
		ip[g+2] = raw[g+1]
		ip[g+3] = raw[g+0]
	}

	port, err := strconv.ParseUint(portHex, 16, 16)
	if err != nil {
		return nil, 0, false
	}
	return ip, uint16(port), true
}
