//go:build !windows

// Package privilege answers whether the current process is elevated enough
// for inbound probing (socket-table and firewall inspection).
package privilege

import "os"

// Elevated reports whether the process runs with root privileges.
func Elevated() bool {
	return os.Geteuid() == 0
}
