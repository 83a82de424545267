//go:build windows

package socktab

// NewSystemSource returns the platform socket-table source.
func NewSystemSource() Source {
	return NewIphlpapiSource()
}
