package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
	"github.com/xvzc/pktwrite/internal/ptr"
)

type merger[T any] interface {
	Clone() T
	Merge(T) T
}

var _ merger[*Config] = (*Config)(nil)

type Config struct {
	General *GeneralOptions `toml:"general"`
	Inject  *InjectOptions  `toml:"inject"`
	Probe   *ProbeOptions   `toml:"probe"`
}

func NewConfig() *Config {
	return &Config{
		General: &GeneralOptions{
			LogLevel: ptr.FromValue(zerolog.InfoLevel),
			Silent:   ptr.FromValue(false),
		},
		Inject: &InjectOptions{
			Interface:      ptr.FromValue(""),
			Type:           ptr.FromValue(packet.InjectRaw4),
			Count:          ptr.FromValue(uint16(1)),
			Interval:       ptr.FromValue(time.Second),
			ResolveTimeout: ptr.FromValue(3 * time.Second),
		},
		Probe: &ProbeOptions{
			Kind:    ptr.FromValue(probe.KindICMP),
			SrcPort: ptr.FromValue(uint16(0)),
			DstPort: ptr.FromValue(uint16(0)),
			TTL:     ptr.FromValue(uint8(64)),
			Payload: ptr.FromValue(""),
			DNSName: ptr.FromValue(""),
		},
	}
}

func (c *Config) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("non-table type config")
	}

	for k := range m {
		switch k {
		case "general", "inject", "probe":
		default:
			return fmt.Errorf("unknown section %q", k)
		}
	}

	c.General = findStructFrom[GeneralOptions](m, "general", &err)
	c.Inject = findStructFrom[InjectOptions](m, "inject", &err)
	c.Probe = findStructFrom[ProbeOptions](m, "probe", &err)

	return err
}

func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	return &Config{
		General: c.General.Clone(),
		Inject:  c.Inject.Clone(),
		Probe:   c.Probe.Clone(),
	}
}

func (origin *Config) Merge(overrides *Config) *Config {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &Config{
		General: origin.General.Merge(overrides.General),
		Inject:  origin.Inject.Merge(overrides.Inject),
		Probe:   origin.Probe.Merge(overrides.Probe),
	}
}

// Validate checks the constraints that span more than one option.
func (c *Config) Validate() error {
	if c.Probe == nil || c.Probe.Dst == nil {
		return errors.New("probe destination is required")
	}

	isV4 := c.Probe.Dst.To4() != nil
	if c.Probe.Src != nil && (c.Probe.Src.To4() != nil) != isV4 {
		return fmt.Errorf(
			"probe source %s and destination %s are of different families",
			c.Probe.Src,
			c.Probe.Dst,
		)
	}

	if c.Inject != nil && c.Inject.Type != nil {
		t := *c.Inject.Type
		if t.IsRaw4() && !isV4 {
			return fmt.Errorf("%s injection needs an IPv4 destination", t)
		}
		if t.IsRaw6() && isV4 {
			return fmt.Errorf("%s injection needs an IPv6 destination", t)
		}
	}

	if c.Probe.Kind != nil && *c.Probe.Kind == probe.KindDNS &&
		(c.Probe.DNSName == nil || *c.Probe.DNSName == "") {
		return errors.New("dns probe needs a dns-name")
	}

	if c.Probe.Kind != nil && *c.Probe.Kind == probe.KindUDP &&
		(c.Probe.DstPort == nil || *c.Probe.DstPort == 0) {
		return errors.New("udp probe needs a dst-port")
	}

	return nil
}
