package probe

import (
	"fmt"
	"slices"
)

// Kind selects what the probe carries above the network layer.
type Kind int

const (
	KindICMP Kind = iota
	KindUDP
	KindDNS
)

var availableKinds = []string{"icmp", "udp", "dns"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(availableKinds) {
		return fmt.Sprintf("kind(%d)", int(k))
	}

	return availableKinds[k]
}

func AvailableKinds() []string {
	return slices.Clone(availableKinds)
}

func ParseKind(s string) (Kind, error) {
	idx := slices.Index(availableKinds, s)
	if idx < 0 {
		return 0, fmt.Errorf("unknown probe kind %q", s)
	}

	return Kind(idx), nil
}
