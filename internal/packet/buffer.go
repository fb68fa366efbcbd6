package packet

import (
	"fmt"
	"sync"
)

// Allocator hands out backing storage for wire buffers. Free always receives
// the exact slice Alloc returned, never a view into it.
type Allocator interface {
	Alloc(n int) []byte
	Free(b []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(n int) []byte { return make([]byte, n) }
func (heapAllocator) Free([]byte)        {}

// HeapAllocator leaves reclamation to the garbage collector.
var HeapAllocator Allocator = heapAllocator{}

// PoolAllocator recycles fixed size buffers. Requests larger than the pool size
// fall back to the heap and are dropped on Free.
type PoolAllocator struct {
	size int
	pool sync.Pool
}

func NewPoolAllocator(size int) *PoolAllocator {
	p := &PoolAllocator{size: size}
	p.pool.New = func() any {
		b := make([]byte, size)
		return &b
	}

	return p
}

func (p *PoolAllocator) Alloc(n int) []byte {
	if n > p.size {
		return make([]byte, n)
	}

	b := (*p.pool.Get().(*[]byte))[:n]
	clear(b)

	return b
}

func (p *PoolAllocator) Free(b []byte) {
	if cap(b) != p.size {
		return
	}

	b = b[:p.size]
	p.pool.Put(&b)
}

// WireBuffer owns a contiguous packet image. The visible region starts offset
// bytes into the allocation so the network header of a link frame lands on an
// 8 byte boundary. Release hands the whole allocation back exactly once.
type WireBuffer struct {
	origin   []byte
	offset   int
	alloc    Allocator
	released bool
}

func NewWireBuffer(alloc Allocator, size, offset int) (*WireBuffer, error) {
	if size < 0 || offset < 0 {
		return nil, fmt.Errorf("invalid buffer geometry: size=%d offset=%d", size, offset)
	}

	if alloc == nil {
		alloc = HeapAllocator
	}

	origin := alloc.Alloc(offset + size)
	if len(origin) < offset+size {
		return nil, fmt.Errorf("allocator returned %d bytes, want %d", len(origin), offset+size)
	}

	return &WireBuffer{
		origin: origin,
		offset: offset,
		alloc:  alloc,
	}, nil
}

// Bytes returns the visible packet image. It is nil after Release.
func (b *WireBuffer) Bytes() []byte {
	if b.released {
		return nil
	}

	return b.origin[b.offset:]
}

func (b *WireBuffer) Len() int {
	if b.released {
		return 0
	}

	return len(b.origin) - b.offset
}

func (b *WireBuffer) Offset() int {
	return b.offset
}

// Release returns the true allocation, not the offset view, to the allocator.
// Calling it more than once is a no-op.
func (b *WireBuffer) Release() {
	if b == nil || b.released {
		return
	}

	b.released = true
	b.alloc.Free(b.origin)
	b.origin = nil
}
