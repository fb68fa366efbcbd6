//go:build linux

package packet

import (
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/sys/unix"
)

// readTimeout keeps a blocked reader responsive to Close.
const readTimeout = 250 * time.Millisecond

var _ Handle = (*LinuxHandle)(nil)

// LinuxHandle reads and writes frames on an AF_PACKET socket via x/sys/unix,
// which works on every Linux architecture including 386 and MIPS.
type LinuxHandle struct {
	fd      int
	ifIndex int
	buf     []byte
}

func NewHandle(iface *net.Interface) (Handle, error) {
	proto := htons(unix.ETH_P_ALL)

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("failed to open packet socket: %w", err)
	}

	// "any" binds to index 0 and is read in cooked mode
	bindIndex := 0
	if iface != nil && iface.Name != "any" {
		bindIndex = iface.Index
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  bindIndex,
	}

	if err := unix.Bind(fd, sll); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to bind packet socket: %w", err)
	}

	tv := unix.NsecToTimeval(readTimeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &LinuxHandle{
		fd:      fd,
		ifIndex: bindIndex,
		buf:     make([]byte, MaxRawPacket),
	}, nil
}

func (h *LinuxHandle) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	n, _, err := unix.Recvfrom(h.fd, h.buf, 0)
	if err != nil {
		return nil, gopacket.CaptureInfo{}, err
	}

	data := make([]byte, n)
	copy(data, h.buf[:n])

	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: n,
		Length:        n,
	}

	return data, ci, nil
}

func (h *LinuxHandle) WritePacketData(data []byte) error {
	addr := &unix.SockaddrLinklayer{
		Ifindex: h.ifIndex,
	}
	return unix.Sendto(h.fd, data, 0, addr)
}

func (h *LinuxHandle) LinkType() layers.LinkType {
	if h.ifIndex == 0 {
		return layers.LinkTypeLinuxSLL
	}
	return layers.LinkTypeEthernet
}

func (h *LinuxHandle) Close() error {
	return unix.Close(h.fd)
}

func (h *LinuxHandle) SetBPFRawInstructionFilter(raw []BPFInstruction) error {
	if len(raw) == 0 {
		return h.ClearBPF()
	}

	filter := make([]unix.SockFilter, len(raw))
	for i, r := range raw {
		filter[i] = unix.SockFilter{
			Code: r.Op,
			Jt:   r.Jt,
			Jf:   r.Jf,
			K:    r.K,
		}
	}

	fprog := &unix.SockFprog{
		Len:    uint16(len(filter)),
		Filter: &filter[0],
	}

	return unix.SetsockoptSockFprog(h.fd, unix.SOL_SOCKET, unix.SO_ATTACH_FILTER, fprog)
}

func (h *LinuxHandle) ClearBPF() error {
	return unix.SetsockoptInt(h.fd, unix.SOL_SOCKET, unix.SO_DETACH_FILTER, 0)
}
