//go:build windows

// Package privilege answers whether the current process is elevated enough
// for inbound probing (socket-table and firewall inspection).
package privilege

import "golang.org/x/sys/windows"

// Elevated reports whether the process token carries administrator
// elevation.
func Elevated() bool {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_QUERY, &token); err != nil {
		return false
	}
	defer token.Close()
	return token.IsElevated()
}
