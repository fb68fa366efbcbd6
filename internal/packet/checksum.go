package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// ChecksumService fills in the checksums of a network layer packet in place.
type ChecksumService interface {
	Fix(packet []byte) error
}

var _ ChecksumService = LayerChecksummer{}

// LayerChecksummer recomputes the IPv4 header checksum through gopacket.
// IPv6 has no header checksum, so IPv6 packets pass through untouched.
type LayerChecksummer struct{}

func (LayerChecksummer) Fix(packet []byte) error {
	if len(packet) == 0 {
		return errors.New("empty packet")
	}

	switch v := packet[0] >> 4; v {
	case 4:
		return fixIPv4Checksum(packet)
	case 6:
		return nil
	default:
		return fmt.Errorf("unknown ip version %d", v)
	}
}

func fixIPv4Checksum(packet []byte) error {
	ip := &layers.IPv4{}
	if err := ip.DecodeFromBytes(packet, gopacket.NilDecodeFeedback); err != nil {
		return fmt.Errorf("failed to decode ipv4 header: %w", err)
	}

	// the decoder fills in a zero length; the header must be summed as it is
	if binary.BigEndian.Uint16(packet[2:4]) == 0 {
		ip.Length = 0
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true}
	if err := ip.SerializeTo(buf, opts); err != nil {
		return fmt.Errorf("failed to serialize ipv4 header: %w", err)
	}

	hdr := buf.Bytes()
	if len(hdr) != int(ip.IHL)*4 {
		return fmt.Errorf("ipv4 header length mismatch: %d != %d", len(hdr), int(ip.IHL)*4)
	}

	// the checksum must cover the bytes that go on the wire
	if !sameIPv4Header(packet[:len(hdr)], hdr) {
		return errors.New("ipv4 header does not survive re-serialization")
	}

	copy(packet[10:12], hdr[10:12])

	return nil
}

// sameIPv4Header compares two headers of equal length, ignoring the checksum field.
func sameIPv4Header(a, b []byte) bool {
	if len(a) != len(b) || len(a) < 12 {
		return false
	}

	return bytes.Equal(a[:10], b[:10]) && bytes.Equal(a[12:], b[12:])
}
