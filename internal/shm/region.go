// Package shm implements the POSIX shared-memory IPC substrate (spec
// §4.5): three families of fixed-size pages — SharedConfig,
// SharedSymbolConfigs, SharedEventLog — each backed by a well-known
// shared-memory object and read/written with atomics instead of locks,
// so any number of readers can observe a writer's state without
// blocking it.
package shm

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// ErrSizeMismatch is returned by OpenRW/OpenRO when an existing region's
// file size doesn't match what the caller expects to map.
var ErrSizeMismatch = errors.New("shm: region size mismatch")

// baseDir is where this system's shared-memory objects live. Linux
// mounts /dev/shm as a tmpfs, which is the conventional backing store
// for POSIX shared memory (shm_open uses the same filesystem under the
// hood) — golang.org/x/sys/unix doesn't wrap shm_open directly, so this
// package opens the tmpfs path itself and maps it with Mmap, which is
// the same mechanism shm_open+mmap reduces to.
var baseDir = "/dev/shm"

func path(name string) string {
	return filepath.Join(baseDir, name)
}

// Region is one mapped shared-memory page.
type Region struct {
	file *os.File
	data []byte
}

// Create allocates (or truncates and re-maps) a region of the given
// size, owned by the writer process.
func Create(name string, size int) (*Region, error) {
	f, err := os.OpenFile(path(name), os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, err
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, err
	}
	return mapRegion(f, size, unix.PROT_READ|unix.PROT_WRITE)
}

// OpenRW maps an existing region for read-write access.
func OpenRW(name string, size int) (*Region, error) {
	return openExisting(name, size, unix.PROT_READ|unix.PROT_WRITE, os.O_RDWR)
}

// OpenRO maps an existing region for read-only access — the role every
// observer process (dashboards, the tuner, tooling) other than the
// owning trading process takes (spec §4.5: "observers decide the
// process is dead").
func OpenRO(name string, size int) (*Region, error) {
	return openExisting(name, size, unix.PROT_READ, os.O_RDONLY)
}

func openExisting(name string, size int, prot int, flag int) (*Region, error) {
	f, err := os.OpenFile(path(name), flag, 0)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.Size() != int64(size) {
		f.Close()
		return nil, ErrSizeMismatch
	}
	return mapRegion(f, size, prot)
}

func mapRegion(f *os.File, size int, prot int) (*Region, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, prot, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Region{file: f, data: data}, nil
}

// Bytes exposes the mapped memory directly; callers use the typed
// wrappers (SharedConfig, SharedSymbolConfigs, SharedEventLog) rather
// than touching this themselves.
func (r *Region) Bytes() []byte { return r.data }

// Close unmaps the region and closes the backing file descriptor. It
// does not remove the shared-memory object — call Unlink for that.
func (r *Region) Close() error {
	if err := unix.Munmap(r.data); err != nil {
		r.file.Close()
		return err
	}
	return r.file.Close()
}

// Unlink removes the named shared-memory object. Only the owning
// process should call this, and only after all readers are known to
// have closed their mappings.
func Unlink(name string) error {
	return os.Remove(path(name))
}
