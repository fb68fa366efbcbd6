package packet

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// HardwareResolver maps a destination address to the hardware address of the
// neighbor that should receive the frame.
type HardwareResolver interface {
	Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, error)
}

// CompatLink is a link adapter that can report its medium.
type CompatLink interface {
	LinkWriter
	LinkType() layers.LinkType
}

type LinkCompatAttrs struct {
	HardwareAddr net.HardwareAddr
	LocalIPv4    net.IP
	LocalIPv6    net.IP
}

var _ RawWriter = (*LinkCompat)(nil)

// LinkCompat emulates raw IP sockets on platforms that have none by framing
// each packet itself and writing it through a link adapter.
type LinkCompat struct {
	logger zerolog.Logger

	link     CompatLink
	resolver HardwareResolver
	checksum ChecksumService

	hwAddr    net.HardwareAddr
	localIPv4 net.IP
	localIPv6 net.IP
}

func NewLinkCompat(
	logger zerolog.Logger,
	link CompatLink,
	resolver HardwareResolver,
	checksum ChecksumService,
	attrs LinkCompatAttrs,
) *LinkCompat {
	return &LinkCompat{
		logger:    logger,
		link:      link,
		resolver:  resolver,
		checksum:  checksum,
		hwAddr:    attrs.HardwareAddr,
		localIPv4: attrs.LocalIPv4.To4(),
		localIPv6: attrs.LocalIPv6.To16(),
	}
}

func (c *LinkCompat) SendRawIPv4(ctx context.Context, b []byte) (int, error) {
	return c.writeFramed(ctx, "write_raw_ipv4", b)
}

func (c *LinkCompat) SendRawIPv6(ctx context.Context, b []byte) (int, error) {
	return c.writeFramed(ctx, "write_raw_ipv6", b)
}

// writeFramed returns the payload length on success, not the frame length.
func (c *LinkCompat) writeFramed(ctx context.Context, op string, payload []byte) (int, error) {
	// the frame size depends on the medium, so it is known before anything else
	linkType := c.link.LinkType()
	medium := MediumFromLinkType(linkType)
	hdrLen, ok := medium.headerLen()
	if !ok {
		return 0, &UnsupportedMediumError{Op: op, Medium: medium, LinkType: linkType}
	}

	if err := c.checksum.Fix(payload); err != nil {
		return 0, fmt.Errorf("%s(): %w: %w", op, ErrChecksum, err)
	}

	dstIP, etherType, err := destinationOf(payload)
	if err != nil {
		return 0, &TransmissionError{Op: op, Want: len(payload), Err: err}
	}

	var src, dst [6]byte
	copy(src[:], c.hwAddr)

	if c.isLocal(dstIP) {
		dst = src
	} else {
		mac, err := c.resolver.Resolve(ctx, dstIP)
		if err != nil {
			return 0, &TransmissionError{
				Op:   op,
				Dst:  dstIP.String(),
				Want: len(payload),
				Err:  fmt.Errorf("failed to resolve hardware address: %w", err),
			}
		}
		copy(dst[:], mac)
	}

	frame := make([]byte, hdrLen+len(payload))
	switch medium {
	case MediumEthernet:
		putEthernetHeader(frame, dst, src, etherType)
	case MediumTokenRing:
		putTokenRingHeader(frame, dst, src, etherType)
	}
	copy(frame[hdrLen:], payload)

	if err := c.link.WritePacketData(frame); err != nil {
		return 0, &TransmissionError{Op: op, Dst: dstIP.String(), Want: len(payload), Err: err}
	}

	c.logger.Trace().
		Str("dst", dstIP.String()).
		Str("medium", medium.String()).
		Int("frame_len", len(frame)).
		Msg("framed packet written")

	return len(payload), nil
}

func (c *LinkCompat) isLocal(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return c.localIPv4 != nil && bytes.Equal(ip4, c.localIPv4)
	}

	return c.localIPv6 != nil && ip.Equal(c.localIPv6)
}

func destinationOf(packet []byte) (net.IP, layers.EthernetType, error) {
	if len(packet) == 0 {
		return nil, 0, ErrShortHeader
	}

	switch packet[0] >> 4 {
	case 4:
		if len(packet) < ipv4.HeaderLen {
			return nil, 0, ErrShortHeader
		}
		return net.IP(bytes.Clone(packet[16:20])), layers.EthernetTypeIPv4, nil
	case 6:
		if len(packet) < ipv6.HeaderLen {
			return nil, 0, ErrShortHeader
		}
		return net.IP(bytes.Clone(packet[24:40])), layers.EthernetTypeIPv6, nil
	default:
		return nil, 0, fmt.Errorf("unknown ip version %d", packet[0]>>4)
	}
}

func putEthernetHeader(b []byte, dst, src [6]byte, t layers.EthernetType) {
	copy(b[0:6], dst[:])
	copy(b[6:12], src[:])
	binary.BigEndian.PutUint16(b[12:14], uint16(t))
}

// putTokenRingHeader writes an 802.5 MAC header followed by an 802.2 SNAP
// header carrying t.
func putTokenRingHeader(b []byte, dst, src [6]byte, t layers.EthernetType) {
	b[0] = 0x10 // access control: frame priority
	b[1] = 0x40 // frame control: LLC frame
	copy(b[2:8], dst[:])
	copy(b[8:14], src[:])
	b[14] = 0xaa // DSAP: SNAP
	b[15] = 0xaa // SSAP: SNAP
	b[16] = 0x03 // control: unnumbered information
	b[17], b[18], b[19] = 0, 0, 0
	binary.BigEndian.PutUint16(b[20:22], uint16(t))
}
