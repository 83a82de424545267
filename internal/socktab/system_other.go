//go:build !linux && !windows

package socktab

import "fmt"

type unsupportedSource struct{}

func (unsupportedSource) Entries() ([]Entry, error) {
	return nil, fmt.Errorf("socket table enumeration not supported on this platform")
}

// NewSystemSource returns the platform socket-table source.
func NewSystemSource() Source {
	return unsupportedSource{}
}
