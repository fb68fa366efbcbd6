package packet

import "fmt"

// BlockType tags what a Block carries so the coalescer can check the chain
// against the injection type it is about to be written with.
type BlockType int

const (
	BlockPayload BlockType = iota
	BlockEthernet
	BlockTokenRing
	BlockIPv4
	BlockIPv6
	BlockTransport
)

var blockTypeNames = []string{
	"payload",
	"ethernet",
	"token-ring",
	"ipv4",
	"ipv6",
	"transport",
}

func (t BlockType) String() string {
	if t < 0 || int(t) >= len(blockTypeNames) {
		return fmt.Sprintf("block(%d)", int(t))
	}

	return blockTypeNames[t]
}

func (t BlockType) IsLinkHeader() bool {
	return t == BlockEthernet || t == BlockTokenRing
}

// Block is one independently built piece of a packet.
type Block struct {
	Type BlockType
	Data []byte
}

// Chain is an ordered list of blocks, outermost header first.
type Chain []Block

// Len returns the number of bytes the chain occupies on the wire.
func (c Chain) Len() int {
	n := 0
	for _, b := range c {
		n += len(b.Data)
	}

	return n
}
