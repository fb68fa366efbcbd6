package packet

import (
	"fmt"
	"slices"
)

// InjectionType selects the path a coalesced packet takes to the wire.
// The "advanced" variants share the transport of their base variant; they only
// differ in how the upstream builder assembled the headers.
type InjectionType int

const (
	InjectRaw4 InjectionType = iota
	InjectRaw4Adv
	InjectRaw6
	InjectRaw6Adv
	InjectLink
	InjectLinkAdv
)

var availableInjectionTypes = []string{
	"raw4",
	"raw4-adv",
	"raw6",
	"raw6-adv",
	"link",
	"link-adv",
}

func (t InjectionType) String() string {
	if t < 0 || int(t) >= len(availableInjectionTypes) {
		return fmt.Sprintf("unknown(%d)", int(t))
	}

	return availableInjectionTypes[t]
}

func (t InjectionType) IsRaw4() bool {
	return t == InjectRaw4 || t == InjectRaw4Adv
}

func (t InjectionType) IsRaw6() bool {
	return t == InjectRaw6 || t == InjectRaw6Adv
}

func (t InjectionType) IsLink() bool {
	return t == InjectLink || t == InjectLinkAdv
}

// AvailableInjectionTypes returns the names accepted by ParseInjectionType.
func AvailableInjectionTypes() []string {
	return slices.Clone(availableInjectionTypes)
}

func ParseInjectionType(s string) (InjectionType, error) {
	idx := slices.Index(availableInjectionTypes, s)
	if idx < 0 {
		return 0, fmt.Errorf("unknown injection type %q", s)
	}

	return InjectionType(idx), nil
}
