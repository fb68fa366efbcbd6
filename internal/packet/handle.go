package packet

import (
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Handle is a link layer endpoint bound to one interface. AF_PACKET backs it
// on Linux and pcap everywhere else.
type Handle interface {
	// ReadPacketData reads the next frame from the wire.
	ReadPacketData() (data []byte, ci gopacket.CaptureInfo, err error)

	// WritePacketData sends a complete frame.
	WritePacketData(data []byte) error

	SetBPFRawInstructionFilter(filters []BPFInstruction) error

	ClearBPF() error

	LinkType() layers.LinkType

	Close() error
}

type BPFInstruction struct {
	Op uint16
	Jt uint8
	Jf uint8
	K  uint32
}
