package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
	"github.com/xvzc/pktwrite/internal/ptr"
)

// ┌─────────────────┐
// │ GENERAL OPTIONS │
// └─────────────────┘
var _ merger[*GeneralOptions] = (*GeneralOptions)(nil)

var availableLogLevels = []string{"info", "warn", "trace", "error", "debug"}

type GeneralOptions struct {
	LogLevel *zerolog.Level `toml:"log-level"`
	Silent   *bool          `toml:"silent"`
}

func (o *GeneralOptions) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("non-table type general config")
	}

	o.Silent = findFrom(m, "silent", parseBoolFn(), &err)
	if p := findFrom(m, "log-level", parseStringFn(checkLogLevel), &err); isOk(p, err) {
		o.LogLevel = ptr.FromValue(MustParseLogLevel(*p))
	}

	return err
}

func (o *GeneralOptions) Clone() *GeneralOptions {
	if o == nil {
		return nil
	}

	var newLevel *zerolog.Level
	if o.LogLevel != nil {
		newLevel = ptr.FromValue(MustParseLogLevel(strings.ToLower(o.LogLevel.String())))
	}

	return &GeneralOptions{
		LogLevel: newLevel,
		Silent:   ptr.Clone(o.Silent),
	}
}

func (origin *GeneralOptions) Merge(overrides *GeneralOptions) *GeneralOptions {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &GeneralOptions{
		LogLevel: ptr.CloneOr(overrides.LogLevel, origin.LogLevel),
		Silent:   ptr.CloneOr(overrides.Silent, origin.Silent),
	}
}

// ┌────────────────┐
// │ INJECT OPTIONS │
// └────────────────┘
var _ merger[*InjectOptions] = (*InjectOptions)(nil)

type InjectOptions struct {
	Interface      *string               `toml:"interface"`
	Type           *packet.InjectionType `toml:"type"`
	Count          *uint16               `toml:"count"`
	Interval       *time.Duration        `toml:"interval"`
	ResolveTimeout *time.Duration        `toml:"resolve-timeout"`
}

func (o *InjectOptions) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("'inject' must be table type")
	}

	o.Interface = findFrom(m, "interface", parseStringFn(nil), &err)

	if p := findFrom(m, "type", parseStringFn(checkInjectionType), &err); isOk(p, err) {
		o.Type = ptr.FromValue(MustParseInjectionType(*p))
	}

	o.Count = findFrom(m, "count", parseIntFn[uint16](checkUint16NonZero), &err)

	if p := findFrom(m, "interval", parseIntFn[uint16](checkUint16), &err); isOk(p, err) {
		o.Interval = ptr.FromValue(time.Duration(*p) * time.Millisecond)
	}

	if p := findFrom(m, "resolve-timeout", parseIntFn[uint16](checkUint16NonZero), &err); isOk(p, err) {
		o.ResolveTimeout = ptr.FromValue(time.Duration(*p) * time.Millisecond)
	}

	return err
}

func (o *InjectOptions) Clone() *InjectOptions {
	if o == nil {
		return nil
	}

	return &InjectOptions{
		Interface:      ptr.Clone(o.Interface),
		Type:           ptr.Clone(o.Type),
		Count:          ptr.Clone(o.Count),
		Interval:       ptr.Clone(o.Interval),
		ResolveTimeout: ptr.Clone(o.ResolveTimeout),
	}
}

func (origin *InjectOptions) Merge(overrides *InjectOptions) *InjectOptions {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &InjectOptions{
		Interface:      ptr.CloneOr(overrides.Interface, origin.Interface),
		Type:           ptr.CloneOr(overrides.Type, origin.Type),
		Count:          ptr.CloneOr(overrides.Count, origin.Count),
		Interval:       ptr.CloneOr(overrides.Interval, origin.Interval),
		ResolveTimeout: ptr.CloneOr(overrides.ResolveTimeout, origin.ResolveTimeout),
	}
}

// ┌───────────────┐
// │ PROBE OPTIONS │
// └───────────────┘
var _ merger[*ProbeOptions] = (*ProbeOptions)(nil)

type ProbeOptions struct {
	Kind    *probe.Kind `toml:"kind"`
	Src     net.IP      `toml:"src"`
	Dst     net.IP      `toml:"dst"`
	SrcPort *uint16     `toml:"src-port"`
	DstPort *uint16     `toml:"dst-port"`
	TTL     *uint8      `toml:"ttl"`
	Payload *string     `toml:"payload"`
	DNSName *string     `toml:"dns-name"`
}

func (o *ProbeOptions) UnmarshalTOML(data any) (err error) {
	m, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("'probe' must be table type")
	}

	if p := findFrom(m, "kind", parseStringFn(checkProbeKind), &err); isOk(p, err) {
		o.Kind = ptr.FromValue(MustParseProbeKind(*p))
	}

	if p := findFrom(m, "src", parseStringFn(checkIPAddr), &err); isOk(p, err) {
		o.Src = MustParseIP(*p)
	}

	if p := findFrom(m, "dst", parseStringFn(checkIPAddr), &err); isOk(p, err) {
		o.Dst = MustParseIP(*p)
	}

	o.SrcPort = findFrom(m, "src-port", parseIntFn[uint16](checkUint16), &err)
	o.DstPort = findFrom(m, "dst-port", parseIntFn[uint16](checkUint16), &err)
	o.TTL = findFrom(m, "ttl", parseIntFn[uint8](checkUint8NonZero), &err)
	o.Payload = findFrom(m, "payload", parseStringFn(nil), &err)
	o.DNSName = findFrom(m, "dns-name", parseStringFn(checkDomainName), &err)

	return err
}

func (o *ProbeOptions) Clone() *ProbeOptions {
	if o == nil {
		return nil
	}

	return &ProbeOptions{
		Kind:    ptr.Clone(o.Kind),
		Src:     ptr.CloneSlice(o.Src),
		Dst:     ptr.CloneSlice(o.Dst),
		SrcPort: ptr.Clone(o.SrcPort),
		DstPort: ptr.Clone(o.DstPort),
		TTL:     ptr.Clone(o.TTL),
		Payload: ptr.Clone(o.Payload),
		DNSName: ptr.Clone(o.DNSName),
	}
}

func (origin *ProbeOptions) Merge(overrides *ProbeOptions) *ProbeOptions {
	if overrides == nil {
		return origin.Clone()
	}

	if origin == nil {
		return overrides.Clone()
	}

	return &ProbeOptions{
		Kind:    ptr.CloneOr(overrides.Kind, origin.Kind),
		Src:     ptr.CloneSliceOr(overrides.Src, origin.Src),
		Dst:     ptr.CloneSliceOr(overrides.Dst, origin.Dst),
		SrcPort: ptr.CloneOr(overrides.SrcPort, origin.SrcPort),
		DstPort: ptr.CloneOr(overrides.DstPort, origin.DstPort),
		TTL:     ptr.CloneOr(overrides.TTL, origin.TTL),
		Payload: ptr.CloneOr(overrides.Payload, origin.Payload),
		DNSName: ptr.CloneOr(overrides.DNSName, origin.DNSName),
	}
}
