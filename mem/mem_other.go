//go:build !linux

package mem

import "fmt"

// Available reports whether the host supports double mapping.
func Available() bool {
	return false
}

// New fails on hosts without the required mapping primitive. Buffers fall
// back to a plain allocation with explicit wrap math.
func New(n int) (*DoubleMapped, error) {
	return nil, fmt.Errorf("double mapping unavailable on this platform: size %d", n)
}

// Close is a no-op on hosts without double mapping.
func (m *DoubleMapped) Close() error {
	return nil
}
