package packet

import (
	"errors"
	"fmt"
)

// alignment is the boundary the network header of a link frame is placed on.
const alignment = 8

// Coalescer flattens a chain into a single wire buffer for the given injection
// type. It must not reject an injection type it does not know; the dispatcher
// owns that decision.
type Coalescer interface {
	Coalesce(chain Chain, t InjectionType) (*WireBuffer, error)
}

type ChainCoalescer struct {
	alloc Allocator
}

func NewChainCoalescer(alloc Allocator) *ChainCoalescer {
	if alloc == nil {
		alloc = HeapAllocator
	}

	return &ChainCoalescer{alloc: alloc}
}

func (c *ChainCoalescer) Coalesce(chain Chain, t InjectionType) (*WireBuffer, error) {
	size := chain.Len()
	if size == 0 {
		return nil, errors.New("coalesce(): empty packet")
	}

	offset := 0
	first := chain[0]
	switch {
	case t.IsLink():
		if !first.Type.IsLinkHeader() {
			return nil, fmt.Errorf("coalesce(): no link layer header at the head of the chain (found %s)", first.Type)
		}
		offset = alignment - len(first.Data)%alignment
	case t.IsRaw4():
		if first.Type != BlockIPv4 {
			return nil, fmt.Errorf("coalesce(): no IPv4 header at the head of the chain (found %s)", first.Type)
		}
	case t.IsRaw6():
		if first.Type != BlockIPv6 {
			return nil, fmt.Errorf("coalesce(): no IPv6 header at the head of the chain (found %s)", first.Type)
		}
	}

	buf, err := NewWireBuffer(c.alloc, size, offset)
	if err != nil {
		return nil, fmt.Errorf("coalesce(): %w", err)
	}

	dst := buf.Bytes()
	n := 0
	for _, b := range chain {
		n += copy(dst[n:], b.Data)
	}

	return buf, nil
}
