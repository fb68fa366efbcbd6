package system

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/jackpal/gateway"
	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/packet"
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

type ARPResolverAttrs struct {
	Timeout  time.Duration
	CacheTTL time.Duration
}

var _ packet.HardwareResolver = (*ARPResolver)(nil)

// ARPResolver finds the hardware address a frame for a destination should be
// sent to. On-link IPv4 destinations are asked for directly; everything else,
// IPv6 included, goes to the default gateway.
type ARPResolver struct {
	logger zerolog.Logger

	handle  packet.Handle
	nic     *NIC
	timeout time.Duration
	cache   *NeighborCache

	discoverGateway func() (net.IP, error)

	mu      sync.Mutex // one request on the handle at a time
	packets <-chan gopacket.Packet
}

func NewARPResolver(
	logger zerolog.Logger,
	handle packet.Handle,
	nic *NIC,
	attrs ARPResolverAttrs,
) *ARPResolver {
	timeout := attrs.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Second
	}

	return &ARPResolver{
		logger:          logger,
		handle:          handle,
		nic:             nic,
		timeout:         timeout,
		cache:           NewNeighborCache(attrs.CacheTTL),
		discoverGateway: gateway.DiscoverGateway,
	}
}

func (r *ARPResolver) Resolve(ctx context.Context, ip net.IP) (net.HardwareAddr, error) {
	if r.isBroadcast(ip) {
		return broadcastMAC, nil
	}

	hop, err := r.nextHop(ip)
	if err != nil {
		return nil, err
	}

	if mac, ok := r.cache.Get(hop); ok {
		return mac, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// a concurrent caller may have resolved it while we waited
	if mac, ok := r.cache.Get(hop); ok {
		return mac, nil
	}

	mac, err := r.request(ctx, hop)
	if err != nil {
		return nil, err
	}

	r.cache.Set(hop, mac)
	r.logger.Debug().
		Str("ip", hop.String()).
		Str("mac", mac.String()).
		Msg("neighbor resolved")

	return mac, nil
}

func (r *ARPResolver) isBroadcast(ip net.IP) bool {
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}

	if ip4.Equal(net.IPv4bcast) {
		return true
	}

	n := r.nic.Network
	if n == nil || !n.Contains(ip4) || len(n.Mask) != net.IPv4len {
		return false
	}

	for i := range ip4 {
		if ip4[i]|n.Mask[i] != 0xff {
			return false
		}
	}

	return true
}

func (r *ARPResolver) nextHop(ip net.IP) (net.IP, error) {
	if ip4 := ip.To4(); ip4 != nil && r.nic.Network != nil && r.nic.Network.Contains(ip4) {
		return ip4, nil
	}

	gw, err := r.discoverGateway()
	if err != nil {
		return nil, fmt.Errorf("could not discover gateway: %w", err)
	}

	gw4 := gw.To4()
	if gw4 == nil {
		return nil, fmt.Errorf("gateway %s is not an IPv4 address", gw)
	}

	return gw4, nil
}

// request broadcasts an ARP request for target and waits for the reply.
func (r *ARPResolver) request(ctx context.Context, target net.IP) (net.HardwareAddr, error) {
	if r.nic.IPv4 == nil {
		return nil, errors.New("interface has no IPv4 address to send ARP requests from")
	}

	srcMAC := r.nic.Interface.HardwareAddr

	eth := &layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       broadcastMAC,
		EthernetType: layers.EthernetTypeARP,
	}
	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(r.nic.IPv4.To4()),
		DstHwAddress:      []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		DstProtAddress:    []byte(target.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, arp); err != nil {
		return nil, fmt.Errorf("failed to serialize ARP request: %w", err)
	}

	// capture only the reply we care about
	filter, err := generateArpFilter(srcMAC, target)
	if err != nil {
		return nil, fmt.Errorf("failed to generate BPF instructions: %w", err)
	}

	if err := r.handle.SetBPFRawInstructionFilter(filter); err != nil {
		return nil, fmt.Errorf("failed to set ARP BPF filter: %w", err)
	}
	defer func() { _ = r.handle.ClearBPF() }()

	if err := r.handle.WritePacketData(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to send ARP request: %w", err)
	}

	r.logger.Trace().Int("len", len(buf.Bytes())).Str("target", target.String()).Msg("arp request sent")

	if r.packets == nil {
		r.packets = gopacket.NewPacketSource(r.handle, r.handle.LinkType()).Packets()
	}

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	for {
		select {
		case p, ok := <-r.packets:
			if !ok {
				return nil, errors.New("packet source closed")
			}
			arpLayer, ok := p.Layer(layers.LayerTypeARP).(*layers.ARP)
			if !ok {
				continue
			}
			if arpLayer.Operation == layers.ARPReply &&
				net.IP(arpLayer.SourceProtAddress).Equal(target) {
				r.logger.Trace().Int("len", len(p.Data())).Msg("arp reply received")
				return net.HardwareAddr(arpLayer.SourceHwAddress), nil
			}
		case <-timer.C:
			return nil, fmt.Errorf("ARP request for %s timed out", target)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func generateArpFilter(
	dstMAC net.HardwareAddr,
	srcIP net.IP,
) ([]packet.BPFInstruction, error) {
	if len(dstMAC) != 6 {
		return nil, fmt.Errorf("invalid MAC address length")
	}
	srcIP = srcIP.To4()
	if srcIP == nil {
		return nil, fmt.Errorf("invalid IPv4 address")
	}

	// BPF compares at most 4 bytes at a time, so the MAC is split 4+2
	macHigh := binary.BigEndian.Uint32(dstMAC[0:4])
	macLow := binary.BigEndian.Uint16(dstMAC[4:6])

	ipVal := binary.BigEndian.Uint32(srcIP)

	// {Op, Jt, Jf, K}
	instructions := []packet.BPFInstruction{
		// EtherType == ARP
		{Op: 0x28, Jt: 0, Jf: 0, K: 12},
		{Op: 0x15, Jt: 0, Jf: 7, K: 0x0806},

		// ether dst
		{Op: 0x20, Jt: 0, Jf: 0, K: 0},
		{Op: 0x15, Jt: 0, Jf: 5, K: macHigh},
		{Op: 0x28, Jt: 0, Jf: 0, K: 4},
		{Op: 0x15, Jt: 0, Jf: 3, K: uint32(macLow)},

		// ARP sender IP sits at 14 + 2 + 2 + 1 + 1 + 2 + 6 = 28
		{Op: 0x20, Jt: 0, Jf: 0, K: 28},
		{Op: 0x15, Jt: 0, Jf: 1, K: ipVal},

		// accept whole packet
		{Op: 0x6, Jt: 0, Jf: 0, K: 0x00040000},
		// drop
		{Op: 0x6, Jt: 0, Jf: 0, K: 0x00000000},
	}

	return instructions, nil
}
