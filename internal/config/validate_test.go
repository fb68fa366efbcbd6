package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckNumbers(t *testing.T) {
	tcs := []struct {
		name    string
		check   func(int) error
		input   int
		wantErr bool
	}{
		{"uint8 zero", checkUint8, 0, false},
		{"uint8 max", checkUint8, 255, false},
		{"uint8 overflow", checkUint8, 256, true},
		{"uint8 negative", checkUint8, -1, true},
		{"uint8 non-zero rejects zero", checkUint8NonZero, 0, true},
		{"uint8 non-zero", checkUint8NonZero, 1, false},
		{"uint16 max", checkUint16, 65535, false},
		{"uint16 overflow", checkUint16, 65536, true},
		{"uint16 non-zero rejects zero", checkUint16NonZero, 0, true},
		{"uint16 non-zero max", checkUint16NonZero, 65535, false},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.check(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckStrings(t *testing.T) {
	tcs := []struct {
		name    string
		check   func(string) error
		input   string
		wantErr bool
	}{
		{"log level", checkLogLevel, "trace", false},
		{"log level unknown", checkLogLevel, "fatal", true},
		{"injection type", checkInjectionType, "link-adv", false},
		{"injection type unknown", checkInjectionType, "raw", true},
		{"probe kind", checkProbeKind, "icmp", false},
		{"probe kind unknown", checkProbeKind, "arp", true},
		{"ipv4", checkIPAddr, "192.0.2.1", false},
		{"ipv6", checkIPAddr, "2001:db8::1", false},
		{"ip with port", checkIPAddr, "192.0.2.1:80", true},
		{"domain", checkDomainName, "example.com", false},
		{"fqdn", checkDomainName, "example.com.", false},
		{"empty domain", checkDomainName, "", true},
		{"empty label", checkDomainName, "example..com", true},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.check(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
