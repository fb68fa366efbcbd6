//go:build !linux

package packet

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket/pcap"
)

var _ Handle = (*DefaultHandle)(nil)

type DefaultHandle struct {
	*pcap.Handle
}

func NewHandle(iface *net.Interface) (Handle, error) {
	iHandle, err := pcap.NewInactiveHandle(pcapDeviceName(iface))
	if err != nil {
		return nil, err
	}
	defer iHandle.CleanUp()

	// frames are written whole, so capture whole frames as well
	if err := iHandle.SetSnapLen(MaxRawPacket); err != nil {
		return nil, err
	}

	// in immediate mode, packets are delivered to the application
	// as soon as they arrive. In other words, this overrides SetTimeout.
	if err := iHandle.SetImmediateMode(true); err != nil {
		return nil, err
	}

	// keeps a blocked reader responsive to Close
	if err := iHandle.SetTimeout(250 * time.Millisecond); err != nil {
		return nil, err
	}

	handle, err := iHandle.Activate()
	if err != nil {
		return nil, fmt.Errorf("failed to activate pcap handle: %w", err)
	}

	return &DefaultHandle{handle}, nil
}

// pcapDeviceName maps an interface to the name pcap knows it by. On Windows
// that is an NPF device path rather than the friendly interface name, so the
// device is matched on its addresses.
func pcapDeviceName(iface *net.Interface) string {
	addrs, err := iface.Addrs()
	if err != nil {
		return iface.Name
	}

	devs, err := pcap.FindAllDevs()
	if err != nil {
		return iface.Name
	}

	for _, dev := range devs {
		if dev.Name == iface.Name {
			return dev.Name
		}
		for _, da := range dev.Addresses {
			for _, a := range addrs {
				ipnet, ok := a.(*net.IPNet)
				if ok && ipnet.IP.Equal(da.IP) {
					return dev.Name
				}
			}
		}
	}

	return iface.Name
}

func (h *DefaultHandle) Close() error {
	h.Handle.Close()
	return nil
}

func (h *DefaultHandle) ClearBPF() error {
	return h.SetBPFFilter("")
}

func (h *DefaultHandle) SetBPFRawInstructionFilter(
	inst []BPFInstruction,
) error {
	var converted []pcap.BPFInstruction
	for _, v := range inst {
		converted = append(converted, pcap.BPFInstruction{
			Code: v.Op, Jt: v.Jt, Jf: v.Jf, K: v.K,
		})
	}

	return h.SetBPFInstructionFilter(converted)
}
