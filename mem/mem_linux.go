//go:build linux

package mem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Available reports whether the host supports double mapping.
func Available() bool {
	return true
}

// New allocates a double-mapped region of at least n bytes, rounded up to
// a multiple of the page size. The caller must Close the region when the
// last user is gone.
func New(n int) (*DoubleMapped, error) {
	size := RoundToPages(n)

	fd, err := unix.MemfdCreate("graph-buffer", unix.MFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("memfd_create: %w", err)
	}
	defer unix.Close(fd)

	if err = unix.Ftruncate(fd, int64(size)); err != nil {
		return nil, fmt.Errorf("ftruncate: %w", err)
	}

	// Reserve 2*size of contiguous address space first, then map the fd
	// over each half with MAP_FIXED.
	region, err := unix.Mmap(-1, 0, 2*size, unix.PROT_NONE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("reserve address space: %w", err)
	}

	base := uintptr(0)
	if len(region) > 0 {
		base = addrOf(region)
	}
	for i := 0; i < 2; i++ {
		_, _, errno := unix.Syscall6(unix.SYS_MMAP,
			base+uintptr(i*size), uintptr(size),
			uintptr(unix.PROT_READ|unix.PROT_WRITE),
			uintptr(unix.MAP_SHARED|unix.MAP_FIXED),
			uintptr(fd), 0)
		if errno != 0 {
			_ = unix.Munmap(region)
			return nil, fmt.Errorf("map half %d: %w", i, errno)
		}
	}

	return &DoubleMapped{data: region, size: size}, nil
}

// Close unmaps both halves.
func (m *DoubleMapped) Close() error {
	if m.data == nil {
		return nil
	}
	data := m.data
	m.data = nil
	return unix.Munmap(data)
}
