package shm

import (
	"sync/atomic"
	"unsafe"
)

// The helpers below reinterpret a byte offset into a mapped region as a
// pointer to the matching atomic type. This is the same technique any
// POSIX shared-memory consumer uses to get atomic access to a mapped
// page's fields — Go's sync/atomic requires the operand's address to be
// naturally aligned, which every layout in this package maintains by
// construction (each field's offset is a multiple of its own size).

func ptr64(data []byte, offset int) *uint64 {
	return (*uint64)(unsafe.Pointer(&data[offset]))
}

func ptr32(data []byte, offset int) *uint32 {
	return (*uint32)(unsafe.Pointer(&data[offset]))
}

func loadU64(data []byte, offset int) uint64 { return atomic.LoadUint64(ptr64(data, offset)) }
func storeU64(data []byte, offset int, v uint64) { atomic.StoreUint64(ptr64(data, offset), v) }
func addU64(data []byte, offset int, delta uint64) uint64 {
	return atomic.AddUint64(ptr64(data, offset), delta)
}
func casU64(data []byte, offset int, old, new uint64) bool {
	return atomic.CompareAndSwapUint64(ptr64(data, offset), old, new)
}

func loadU32(data []byte, offset int) uint32 { return atomic.LoadUint32(ptr32(data, offset)) }
func storeU32(data []byte, offset int, v uint32) { atomic.StoreUint32(ptr32(data, offset), v) }
func addU32(data []byte, offset int, delta uint32) uint32 {
	return atomic.AddUint32(ptr32(data, offset), delta)
}
func casU32(data []byte, offset int, old, new uint32) bool {
	return atomic.CompareAndSwapUint32(ptr32(data, offset), old, new)
}

func loadI64(data []byte, offset int) int64 {
	return int64(atomic.LoadUint64(ptr64(data, offset)))
}
func storeI64(data []byte, offset int, v int64) {
	atomic.StoreUint64(ptr64(data, offset), uint64(v))
}
