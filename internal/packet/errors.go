package packet

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/gopacket/layers"
)

// MaxErrorLen bounds the length of every error message produced by this package.
const MaxErrorLen = 256

var (
	ErrInvalidContext           = errors.New("write(): invalid injection context")
	ErrCoalesceFailed           = errors.New("write(): coalesce failed")
	ErrPacketTooLarge           = errors.New("packet is too large")
	ErrUnsupportedInjectionType = errors.New("unsupported injection type")
	ErrUnsupportedAddressFamily = errors.New("no IPv6 support")
	ErrUnsupportedMedium        = errors.New("network type is not supported")
	ErrChecksum                 = errors.New("checksum failed")
	ErrTransmission             = errors.New("transmission failed")
	ErrShortHeader              = errors.New("header is truncated")
	ErrNotOpen                  = errors.New("endpoint is not open")
)

type PacketTooLargeError struct {
	Len int
}

func (e *PacketTooLargeError) Error() string {
	return bounded(fmt.Sprintf("write(): packet is too large (%d bytes)", e.Len))
}

func (e *PacketTooLargeError) Is(target error) bool {
	return target == ErrPacketTooLarge
}

type UnsupportedInjectionTypeError struct {
	Type InjectionType
}

func (e *UnsupportedInjectionTypeError) Error() string {
	return bounded(fmt.Sprintf("write(): unsupported injection type (%d)", int(e.Type)))
}

func (e *UnsupportedInjectionTypeError) Is(target error) bool {
	return target == ErrUnsupportedInjectionType
}

// UnsupportedMediumError names the adapter's link type as well when the
// medium could not be classified.
type UnsupportedMediumError struct {
	Op       string
	Medium   Medium
	LinkType layers.LinkType
}

func (e *UnsupportedMediumError) Error() string {
	medium := e.Medium.String()
	if e.Medium == MediumUnknown {
		medium = fmt.Sprintf("%s, %s/%d", medium, e.LinkType, uint8(e.LinkType))
	}

	return bounded(fmt.Sprintf("%s(): network type (%s) is not supported", e.Op, medium))
}

func (e *UnsupportedMediumError) Is(target error) bool {
	return target == ErrUnsupportedMedium
}

// TransmissionError reports a send that failed or came up short. Written is
// whatever the transport reported, which may be less than Want.
type TransmissionError struct {
	Op      string
	Dst     string
	Written int
	Want    int
	Err     error
}

func (e *TransmissionError) Error() string {
	reason := "short write"
	if e.Err != nil {
		reason = e.Err.Error()
	}

	msg := fmt.Sprintf("%s(): %d bytes written (%s)", e.Op, e.Written, reason)
	if e.Dst != "" {
		msg = fmt.Sprintf("%s(): %d of %d bytes written to %s (%s)", e.Op, e.Written, e.Want, e.Dst, reason)
	}

	return bounded(msg)
}

func (e *TransmissionError) Unwrap() error {
	return e.Err
}

func (e *TransmissionError) Is(target error) bool {
	return target == ErrTransmission
}

func bounded(msg string) string {
	if len(msg) <= MaxErrorLen {
		return msg
	}

	cut := MaxErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}

	return msg[:cut]
}
