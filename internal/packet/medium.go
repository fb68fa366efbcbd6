package packet

import "github.com/google/gopacket/layers"

// Medium is the physical medium class of a link adapter.
type Medium int

const (
	MediumUnknown Medium = iota
	MediumEthernet
	MediumTokenRing
	MediumFDDI
	MediumWAN
	MediumATM
	MediumArcnet
)

var mediumNames = []string{
	"unknown",
	"802.3",
	"802.5",
	"fddi",
	"wan",
	"atm",
	"arcnet",
}

func (m Medium) String() string {
	if m < 0 || int(m) >= len(mediumNames) {
		return mediumNames[MediumUnknown]
	}

	return mediumNames[m]
}

// MediumFromLinkType classifies a capture link type.
func MediumFromLinkType(lt layers.LinkType) Medium {
	switch lt {
	case layers.LinkTypeEthernet:
		return MediumEthernet
	case layers.LinkTypeTokenRing:
		return MediumTokenRing
	case layers.LinkTypeFDDI:
		return MediumFDDI
	case layers.LinkTypePPP, layers.LinkTypePPP_HDLC, layers.LinkTypeC_HDLC:
		return MediumWAN
	case layers.LinkTypeATM_RFC1483:
		return MediumATM
	case layers.LinkTypeArcNet:
		return MediumArcnet
	default:
		return MediumUnknown
	}
}

const (
	ethernetHeaderLen  = 14
	tokenRingHeaderLen = 22
)

// headerLen returns the size of the link header synthesized for m, or false
// when frames cannot be built for it.
func (m Medium) headerLen() (int, bool) {
	switch m {
	case MediumEthernet:
		return ethernetHeaderLen, true
	case MediumTokenRing:
		return tokenRingHeaderLen, true
	default:
		return 0, false
	}
}
