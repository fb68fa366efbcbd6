package config

import (
	"fmt"
	"math"
	"net"
	"slices"

	"github.com/miekg/dns"
	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
)

func checkUint8(v int) error {
	if v < 0 || math.MaxUint8 < v {
		return fmt.Errorf("out of range[%d-%d]", 0, math.MaxUint8)
	}

	return nil
}

func checkUint8NonZero(v int) error {
	if v < 1 || math.MaxUint8 < v {
		return fmt.Errorf("out of range[%d-%d]", 1, math.MaxUint8)
	}

	return nil
}

func checkUint16(v int) error {
	if v < 0 || math.MaxUint16 < v {
		return fmt.Errorf("out of range[%d-%d]", 0, math.MaxUint16)
	}

	return nil
}

func checkUint16NonZero(v int) error {
	if v < 1 || math.MaxUint16 < v {
		return fmt.Errorf("out of range[%d-%d]", 1, math.MaxUint16)
	}

	return nil
}

func checkLogLevel(v string) error {
	if !slices.Contains(availableLogLevels, v) {
		return fmt.Errorf("invalid log level %q, available: %v", v, availableLogLevels)
	}

	if _, err := zerolog.ParseLevel(v); err != nil {
		return fmt.Errorf("invalid log level %q", v)
	}

	return nil
}

func checkInjectionType(v string) error {
	if _, err := packet.ParseInjectionType(v); err != nil {
		return fmt.Errorf("%w, available: %v", err, packet.AvailableInjectionTypes())
	}

	return nil
}

func checkProbeKind(v string) error {
	if _, err := probe.ParseKind(v); err != nil {
		return fmt.Errorf("%w, available: %v", err, probe.AvailableKinds())
	}

	return nil
}

func checkIPAddr(v string) error {
	if net.ParseIP(v) == nil {
		return fmt.Errorf("invalid ip address %q", v)
	}

	return nil
}

func checkDomainName(v string) error {
	if v == "" {
		return fmt.Errorf("empty domain name")
	}

	if _, ok := dns.IsDomainName(v); !ok {
		return fmt.Errorf("invalid domain name %q", v)
	}

	return nil
}
