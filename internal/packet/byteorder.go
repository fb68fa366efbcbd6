package packet

import (
	"encoding/binary"
	"unsafe"
)

var nativeEndian = determineNativeEndian()

func determineNativeEndian() binary.ByteOrder {
	buf := [2]byte{}
	*(*uint16)(unsafe.Pointer(&buf[0])) = uint16(0xABCD)
	switch buf {
	case [2]byte{0xCD, 0xAB}:
		return binary.LittleEndian
	case [2]byte{0xAB, 0xCD}:
		return binary.BigEndian
	default:
		panic("could not determine native endianness")
	}
}

func htons(v uint16) uint16 {
	if nativeEndian == binary.LittleEndian {
		return (v << 8) | (v >> 8)
	}
	return v
}

// toHostOrder16 rewrites the network order field at b[0:2] in host order.
func toHostOrder16(b []byte) {
	nativeEndian.PutUint16(b, binary.BigEndian.Uint16(b))
}

// toNetworkOrder16 undoes toHostOrder16.
func toNetworkOrder16(b []byte) {
	binary.BigEndian.PutUint16(b, nativeEndian.Uint16(b))
}
