package config

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
)

func TestParseIntFn(t *testing.T) {
	tcs := []struct {
		name    string
		input   any
		want    uint16
		wantErr bool
	}{
		{"int64 from toml", int64(443), 443, false},
		{"plain int", 80, 80, false},
		{"out of range", int64(70000), 0, true},
		{"negative", int64(-1), 0, true},
		{"float", 1.5, 0, true},
		{"string", "80", 0, true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseIntFn[uint16](checkUint16)(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseStringFn(t *testing.T) {
	reject := func(string) error { return errors.New("rejected") }

	s, err := parseStringFn(nil)("eth0")
	assert.NoError(t, err)
	assert.Equal(t, "eth0", s)

	_, err = parseStringFn(reject)("eth0")
	assert.EqualError(t, err, "rejected")

	_, err = parseStringFn(nil)(int64(1))
	assert.Error(t, err)
}

func TestParseBoolFn(t *testing.T) {
	b, err := parseBoolFn()(true)
	assert.NoError(t, err)
	assert.True(t, b)

	_, err = parseBoolFn()("true")
	assert.Error(t, err)
}

func TestMustParse(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, MustParseLogLevel("WARN"))
	assert.Equal(t, packet.InjectRaw6Adv, MustParseInjectionType("raw6-adv"))
	assert.Equal(t, probe.KindDNS, MustParseProbeKind("dns"))
	assert.Equal(t, "2001:db8::1", MustParseIP("2001:db8::1").String())

	assert.Panics(t, func() { MustParseLogLevel("loud") })
	assert.Panics(t, func() { MustParseInjectionType("raw5") })
	assert.Panics(t, func() { MustParseProbeKind("tcp") })
	assert.Panics(t, func() { MustParseIP("300.1.1.1") })
}
