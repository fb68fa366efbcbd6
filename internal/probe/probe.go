package probe

import (
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/miekg/dns"
	"github.com/xvzc/pktwrite/internal/packet"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	ethernetHeaderLen = 14
	udpHeaderLen      = 8
	icmpHeaderLen     = 8
	dnsPort           = 53
)

// Attrs describes a single probe packet.
type Attrs struct {
	Kind Kind

	SrcMAC net.HardwareAddr // link injection only
	DstMAC net.HardwareAddr // link injection only

	SrcIP net.IP
	DstIP net.IP
	TTL   uint8
	ID    uint16 // IPv4 id, ICMP echo id and DNS message id

	SrcPort uint16
	DstPort uint16 // dns defaults to 53

	Seq     uint16 // ICMP echo sequence
	Payload []byte
	DNSName string
}

// Build assembles the probe as a chain of independently built blocks laid out
// for the given injection type.
func Build(t packet.InjectionType, a Attrs) (packet.Chain, error) {
	if a.DstIP == nil || a.SrcIP == nil {
		return nil, errors.New("source and destination addresses are required")
	}

	isV4 := a.DstIP.To4() != nil
	if (a.SrcIP.To4() != nil) != isV4 {
		return nil, fmt.Errorf("address family mismatch: %s -> %s", a.SrcIP, a.DstIP)
	}

	switch {
	case t.IsRaw4() && !isV4:
		return nil, fmt.Errorf("%s injection needs an IPv4 destination, got %s", t, a.DstIP)
	case t.IsRaw6() && isV4:
		return nil, fmt.Errorf("%s injection needs an IPv6 destination, got %s", t, a.DstIP)
	case !t.IsRaw4() && !t.IsRaw6() && !t.IsLink():
		return nil, fmt.Errorf("unsupported injection type %s", t)
	}

	var stack []gopacket.SerializableLayer

	if t.IsLink() {
		if len(a.SrcMAC) != 6 || len(a.DstMAC) != 6 {
			return nil, errors.New("link injection needs source and destination hardware addresses")
		}
		etherType := layers.EthernetTypeIPv6
		if isV4 {
			etherType = layers.EthernetTypeIPv4
		}
		stack = append(stack, &layers.Ethernet{
			SrcMAC:       a.SrcMAC,
			DstMAC:       a.DstMAC,
			EthernetType: etherType,
		})
	}

	network, netHdrLen := buildNetworkLayer(a, isV4)
	stack = append(stack, network)

	upper, err := upperLayers(a, isV4, network)
	if err != nil {
		return nil, err
	}
	stack = append(stack, upper...)

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		ComputeChecksums: true,
		FixLengths:       true,
	}
	if err := gopacket.SerializeLayers(buf, opts, stack...); err != nil {
		return nil, fmt.Errorf("failed to serialize probe: %w", err)
	}

	return split(buf.Bytes(), t.IsLink(), isV4, netHdrLen, a.Kind), nil
}

type networkLayer interface {
	gopacket.NetworkLayer
	gopacket.SerializableLayer
}

func buildNetworkLayer(a Attrs, isV4 bool) (networkLayer, int) {
	proto := layers.IPProtocolUDP
	if a.Kind == KindICMP {
		proto = layers.IPProtocolICMPv4
		if !isV4 {
			proto = layers.IPProtocolICMPv6
		}
	}

	if isV4 {
		return &layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      a.TTL,
			Id:       a.ID,
			Flags:    layers.IPv4DontFragment,
			Protocol: proto,
			SrcIP:    a.SrcIP.To4(),
			DstIP:    a.DstIP.To4(),
		}, ipv4.HeaderLen
	}

	return &layers.IPv6{
		Version:    6,
		HopLimit:   a.TTL,
		NextHeader: proto,
		SrcIP:      a.SrcIP.To16(),
		DstIP:      a.DstIP.To16(),
	}, ipv6.HeaderLen
}

func upperLayers(
	a Attrs,
	isV4 bool,
	network gopacket.NetworkLayer,
) ([]gopacket.SerializableLayer, error) {
	switch a.Kind {
	case KindICMP:
		body, err := echoRequest(a, isV4)
		if err != nil {
			return nil, err
		}
		return []gopacket.SerializableLayer{gopacket.Payload(body)}, nil

	case KindUDP, KindDNS:
		payload := a.Payload
		dstPort := a.DstPort
		if a.Kind == KindDNS {
			q, err := dnsQuery(a, isV4)
			if err != nil {
				return nil, err
			}
			payload = q
			if dstPort == 0 {
				dstPort = dnsPort
			}
		}

		if dstPort == 0 {
			return nil, errors.New("udp probe needs a destination port")
		}

		udp := &layers.UDP{
			SrcPort: layers.UDPPort(a.SrcPort),
			DstPort: layers.UDPPort(dstPort),
		}
		if err := udp.SetNetworkLayerForChecksum(network); err != nil {
			return nil, err
		}

		return []gopacket.SerializableLayer{udp, gopacket.Payload(payload)}, nil

	default:
		return nil, fmt.Errorf("unsupported probe kind %s", a.Kind)
	}
}

func echoRequest(a Attrs, isV4 bool) ([]byte, error) {
	msg := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{
			ID:   int(a.ID),
			Seq:  int(a.Seq),
			Data: a.Payload,
		},
	}

	var psh []byte
	if !isV4 {
		msg.Type = ipv6.ICMPTypeEchoRequest
		psh = icmp.IPv6PseudoHeader(a.SrcIP.To16(), a.DstIP.To16())
	}

	b, err := msg.Marshal(psh)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal echo request: %w", err)
	}

	return b, nil
}

func dnsQuery(a Attrs, isV4 bool) ([]byte, error) {
	if _, ok := dns.IsDomainName(a.DNSName); !ok || a.DNSName == "" {
		return nil, fmt.Errorf("invalid dns name %q", a.DNSName)
	}

	qtype := dns.TypeA
	if !isV4 {
		qtype = dns.TypeAAAA
	}

	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(a.DNSName), qtype)
	m.Id = a.ID

	b, err := m.Pack()
	if err != nil {
		return nil, fmt.Errorf("failed to pack dns query: %w", err)
	}

	return b, nil
}

// split cuts a serialized probe back into its blocks. Ethernet padding, if
// any, stays with the last block.
func split(raw []byte, link, isV4 bool, netHdrLen int, kind Kind) packet.Chain {
	var chain packet.Chain

	off := 0
	if link {
		chain = append(chain, packet.Block{Type: packet.BlockEthernet, Data: raw[:ethernetHeaderLen]})
		off = ethernetHeaderLen
	}

	netType := packet.BlockIPv6
	if isV4 {
		netType = packet.BlockIPv4
	}
	chain = append(chain, packet.Block{Type: netType, Data: raw[off : off+netHdrLen]})
	off += netHdrLen

	hdrLen := udpHeaderLen
	if kind == KindICMP {
		hdrLen = icmpHeaderLen
	}
	chain = append(chain, packet.Block{Type: packet.BlockTransport, Data: raw[off : off+hdrLen]})
	off += hdrLen

	if off < len(raw) {
		chain = append(chain, packet.Block{Type: packet.BlockPayload, Data: raw[off:]})
	}

	return chain
}
