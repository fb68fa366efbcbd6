package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainCoalescer_Coalesce(t *testing.T) {
	tcs := []struct {
		name      string
		chain     Chain
		injection InjectionType
		assert    func(t *testing.T, buf *WireBuffer, err error)
	}{
		{
			name:      "raw ipv4 is not offset",
			chain:     Chain{{Type: BlockIPv4, Data: []byte{0x45, 1, 2}}, {Type: BlockPayload, Data: []byte{3, 4}}},
			injection: InjectRaw4,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				require.NoError(t, err)
				assert.Zero(t, buf.Offset())
				assert.Equal(t, []byte{0x45, 1, 2, 3, 4}, buf.Bytes())
			},
		},
		{
			name: "ethernet frame is offset by two",
			chain: Chain{
				{Type: BlockEthernet, Data: make([]byte, 14)},
				{Type: BlockIPv4, Data: []byte{0x45}},
			},
			injection: InjectLink,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2, buf.Offset())
				assert.Equal(t, 15, buf.Len())
				assert.Zero(t, (buf.Offset()+14)%8)
			},
		},
		{
			name: "token ring frame",
			chain: Chain{
				{Type: BlockTokenRing, Data: make([]byte, 22)},
				{Type: BlockIPv6, Data: []byte{0x60}},
			},
			injection: InjectLinkAdv,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				require.NoError(t, err)
				assert.Equal(t, 2, buf.Offset())
			},
		},
		{
			name: "aligned header still gets a full offset",
			chain: Chain{
				{Type: BlockEthernet, Data: make([]byte, 16)},
			},
			injection: InjectLink,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				require.NoError(t, err)
				assert.Equal(t, 8, buf.Offset())
			},
		},
		{
			name:      "link without a link header",
			chain:     Chain{{Type: BlockIPv4, Data: []byte{0x45}}},
			injection: InjectLink,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				assert.ErrorContains(t, err, "no link layer header")
			},
		},
		{
			name:      "raw6 without an ipv6 header",
			chain:     Chain{{Type: BlockIPv4, Data: []byte{0x45}}},
			injection: InjectRaw6,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				assert.ErrorContains(t, err, "no IPv6 header")
			},
		},
		{
			name:      "raw4 without an ipv4 header",
			chain:     Chain{{Type: BlockPayload, Data: []byte{1}}},
			injection: InjectRaw4Adv,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				assert.ErrorContains(t, err, "no IPv4 header")
			},
		},
		{
			name:      "empty chain",
			chain:     Chain{},
			injection: InjectRaw4,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				assert.ErrorContains(t, err, "empty packet")
			},
		},
		{
			name:      "chain of empty blocks",
			chain:     Chain{{Type: BlockIPv4}, {Type: BlockPayload}},
			injection: InjectRaw4,
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				assert.Error(t, err)
			},
		},
		{
			name:      "unknown injection type is left to the dispatcher",
			chain:     Chain{{Type: BlockPayload, Data: []byte{1, 2}}},
			injection: InjectionType(99),
			assert: func(t *testing.T, buf *WireBuffer, err error) {
				require.NoError(t, err)
				assert.Equal(t, []byte{1, 2}, buf.Bytes())
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			buf, err := NewChainCoalescer(nil).Coalesce(tc.chain, tc.injection)
			tc.assert(t, buf, err)
			if buf != nil {
				buf.Release()
			}
		})
	}
}
