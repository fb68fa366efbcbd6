//go:build unix

package packet

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
	"golang.org/x/sys/unix"
)

// hostOrderLenOff reports whether the kernel expects ip_len and ip_off of a
// header-included IPv4 packet in host byte order.
func hostOrderLenOff(goos string) bool {
	switch goos {
	case "darwin", "ios", "dragonfly", "netbsd":
		return true
	default:
		return false
	}
}

// rawIPv6Supported reports whether the platform can send header-included IPv6.
func rawIPv6Supported(goos string) bool {
	switch goos {
	case "solaris", "illumos":
		return false
	default:
		return true
	}
}

type sockSender interface {
	SendmsgN(fd int, p []byte, to unix.Sockaddr) (int, error)
}

type unixSender struct{}

func (unixSender) SendmsgN(fd int, p []byte, to unix.Sockaddr) (int, error) {
	return unix.SendmsgN(fd, p, nil, to, 0)
}

var _ RawWriter = (*RawSocketWriter)(nil)

// RawSocketWriter sends header-included packets over raw IP sockets. A family
// that was not opened reports ErrNotOpen, a family the platform cannot do
// reports ErrUnsupportedAddressFamily.
type RawSocketWriter struct {
	logger zerolog.Logger

	fd4 int
	fd6 int

	sender          sockSender
	hostOrderLenOff bool
	ipv6Supported   bool
}

func OpenRawSocketWriter(logger zerolog.Logger, openIPv4, openIPv6 bool) (*RawSocketWriter, error) {
	w := &RawSocketWriter{
		logger:          logger,
		fd4:             -1,
		fd6:             -1,
		sender:          unixSender{},
		hostOrderLenOff: hostOrderLenOff(runtime.GOOS),
		ipv6Supported:   rawIPv6Supported(runtime.GOOS),
	}

	if openIPv4 {
		fd, err := openRawIPv4()
		if err != nil {
			return nil, err
		}
		w.fd4 = fd
	}

	if openIPv6 && w.ipv6Supported {
		fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_RAW, unix.IPPROTO_RAW)
		if err != nil {
			_ = w.Close()
			return nil, fmt.Errorf("failed to open raw ipv6 socket: %w", err)
		}
		w.fd6 = fd
	}

	logger.Debug().
		Bool("ipv4", w.fd4 >= 0).
		Bool("ipv6", w.fd6 >= 0).
		Bool("host_order_len_off", w.hostOrderLenOff).
		Msg("raw sockets opened")

	return w, nil
}

func openRawIPv4() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_RAW, unix.IPPROTO_RAW)
	if err != nil {
		return -1, fmt.Errorf("failed to open raw ipv4 socket: %w", err)
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_IP, unix.IP_HDRINCL, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("failed to set IP_HDRINCL: %w", err)
	}

	// broadcast destinations are refused without it
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_BROADCAST, 1); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("failed to set SO_BROADCAST: %w", err)
	}

	return fd, nil
}

func (w *RawSocketWriter) SendRawIPv4(ctx context.Context, b []byte) (int, error) {
	const op = "write_raw_ipv4"

	if w.fd4 < 0 {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: ErrNotOpen}
	}

	if len(b) < ipv4.HeaderLen {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: ErrShortHeader}
	}

	if err := ctx.Err(); err != nil {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: err}
	}

	sa := &unix.SockaddrInet4{}
	copy(sa.Addr[:], b[16:20])

	if w.hostOrderLenOff {
		toHostOrder16(b[2:4])
		toHostOrder16(b[6:8])
		defer func() {
			toNetworkOrder16(b[2:4])
			toNetworkOrder16(b[6:8])
		}()
	}

	n, err := w.sender.SendmsgN(w.fd4, b, sa)
	if err != nil || n != len(b) {
		return n, &TransmissionError{
			Op:      op,
			Dst:     net.IP(sa.Addr[:]).String(),
			Written: n,
			Want:    len(b),
			Err:     err,
		}
	}

	return n, nil
}

func (w *RawSocketWriter) SendRawIPv6(ctx context.Context, b []byte) (int, error) {
	const op = "write_raw_ipv6"

	if !w.ipv6Supported {
		return 0, fmt.Errorf("%s(): %w", op, ErrUnsupportedAddressFamily)
	}

	if w.fd6 < 0 {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: ErrNotOpen}
	}

	if len(b) < ipv6.HeaderLen {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: ErrShortHeader}
	}

	if err := ctx.Err(); err != nil {
		return 0, &TransmissionError{Op: op, Want: len(b), Err: err}
	}

	sa := &unix.SockaddrInet6{}
	copy(sa.Addr[:], b[24:40])

	n, err := w.sender.SendmsgN(w.fd6, b, sa)
	if err != nil || n != len(b) {
		return n, &TransmissionError{
			Op:      op,
			Dst:     net.IP(sa.Addr[:]).String(),
			Written: n,
			Want:    len(b),
			Err:     err,
		}
	}

	return n, nil
}

func (w *RawSocketWriter) Close() error {
	var errs []error
	for _, fd := range []*int{&w.fd4, &w.fd6} {
		if *fd < 0 {
			continue
		}
		if err := unix.Close(*fd); err != nil {
			errs = append(errs, err)
		}
		*fd = -1
	}

	return errors.Join(errs...)
}
