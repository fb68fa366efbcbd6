package packet

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	cause := errors.New("no buffer space available")

	tcs := []struct {
		name    string
		err     error
		target  error
		message string
	}{
		{
			name:    "packet too large",
			err:     &PacketTooLargeError{Len: 70000},
			target:  ErrPacketTooLarge,
			message: "write(): packet is too large (70000 bytes)",
		},
		{
			name:    "unsupported injection type",
			err:     &UnsupportedInjectionTypeError{Type: 9},
			target:  ErrUnsupportedInjectionType,
			message: "write(): unsupported injection type (9)",
		},
		{
			name:    "unsupported medium",
			err:     &UnsupportedMediumError{Op: "write_raw_ipv4", Medium: MediumATM},
			target:  ErrUnsupportedMedium,
			message: "write_raw_ipv4(): network type (atm) is not supported",
		},
		{
			name:    "transmission without a destination",
			err:     &TransmissionError{Op: "write_link", Written: 0, Want: 60, Err: cause},
			target:  cause,
			message: "write_link(): 0 bytes written (no buffer space available)",
		},
		{
			name:    "transmission with a destination",
			err:     &TransmissionError{Op: "write_raw_ipv4", Dst: "192.0.2.1", Written: 10, Want: 60, Err: cause},
			target:  ErrTransmission,
			message: "write_raw_ipv4(): 10 of 60 bytes written to 192.0.2.1 (no buffer space available)",
		},
		{
			name:    "short write",
			err:     &TransmissionError{Op: "write", Written: 5, Want: 10},
			target:  ErrTransmission,
			message: "write(): 5 bytes written (short write)",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.err, tc.target)
			assert.Equal(t, tc.message, tc.err.Error())
		})
	}
}

func TestErrors_Bounded(t *testing.T) {
	err := &TransmissionError{
		Op:  "write_raw_ipv4",
		Err: errors.New(strings.Repeat("x", 1024)),
	}

	assert.Len(t, err.Error(), MaxErrorLen)
	assert.True(t, strings.HasPrefix(err.Error(), "write_raw_ipv4(): 0 bytes written"))
}

func TestErrors_BoundedRuneBoundary(t *testing.T) {
	// the three byte rune straddles the cut
	msg := strings.Repeat("a", MaxErrorLen-1) + "한" + "tail"

	got := bounded(msg)

	assert.True(t, utf8.ValidString(got))
	assert.Len(t, got, MaxErrorLen-1)
	assert.Equal(t, strings.Repeat("a", MaxErrorLen-1), got)
}
