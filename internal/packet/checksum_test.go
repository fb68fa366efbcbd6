package packet

import (
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerChecksummer_Fix(t *testing.T) {
	tcs := []struct {
		name   string
		packet func(t *testing.T) []byte
		assert func(t *testing.T, before, after []byte, err error)
	}{
		{
			name: "ipv4 header checksum is filled in",
			packet: func(t *testing.T) []byte {
				return append(ipv4Header(t, remoteIPv4, 4), 1, 2, 3, 4)
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				require.NoError(t, err)
				assert.Zero(t, ipv4Checksum(after[:20]))
				assert.Equal(t, before[:10], after[:10])
				assert.Equal(t, before[12:], after[12:])
			},
		},
		{
			name: "ipv4 header with options",
			packet: func(t *testing.T) []byte {
				ip := &layers.IPv4{
					Version:  4,
					TTL:      1,
					Protocol: layers.IPProtocolICMPv4,
					SrcIP:    localIPv4.To4(),
					DstIP:    remoteIPv4.To4(),
					Options: []layers.IPv4Option{
						{OptionType: 0x94, OptionLength: 4, OptionData: []byte{0, 0}},
					},
				}
				buf := gopacket.NewSerializeBuffer()
				opts := gopacket.SerializeOptions{FixLengths: true}
				require.NoError(t, gopacket.SerializeLayers(buf, opts, ip, gopacket.Payload{9, 9}))
				return buf.Bytes()
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				require.NoError(t, err)
				assert.Zero(t, ipv4Checksum(after[:24]))
			},
		},
		{
			name: "ipv6 is untouched",
			packet: func(t *testing.T) []byte {
				return ipv6Header(remoteIPv6, 0)
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				require.NoError(t, err)
				assert.Equal(t, before, after)
			},
		},
		{
			name: "truncated ipv4",
			packet: func(t *testing.T) []byte {
				return []byte{0x45, 0, 0, 20}
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				assert.Error(t, err)
			},
		},
		{
			name: "unknown version",
			packet: func(t *testing.T) []byte {
				return []byte{0x20, 0}
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				assert.ErrorContains(t, err, "unknown ip version 2")
			},
		},
		{
			name: "empty",
			packet: func(t *testing.T) []byte {
				return nil
			},
			assert: func(t *testing.T, before, after []byte, err error) {
				assert.Error(t, err)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			p := tc.packet(t)
			before := append([]byte(nil), p...)
			err := LayerChecksummer{}.Fix(p)
			tc.assert(t, before, p, err)
		})
	}
}

func TestSameIPv4Header(t *testing.T) {
	hdr := ipv4Header(t, remoteIPv4, 4)[:20]

	tcs := []struct {
		name   string
		mutate func(b []byte)
		want   bool
	}{
		{
			name:   "identical",
			mutate: func(b []byte) {},
			want:   true,
		},
		{
			name:   "checksum differs only",
			mutate: func(b []byte) { b[10], b[11] = 0xde, 0xad },
			want:   true,
		},
		{
			name:   "ttl differs",
			mutate: func(b []byte) { b[8]++ },
			want:   false,
		},
		{
			name:   "trailing byte differs",
			mutate: func(b []byte) { b[19] ^= 0xff },
			want:   false,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			other := append([]byte(nil), hdr...)
			tc.mutate(other)
			assert.Equal(t, tc.want, sameIPv4Header(hdr, other))
		})
	}

	assert.False(t, sameIPv4Header(hdr, hdr[:16]))
}
