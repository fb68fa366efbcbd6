package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

func parseBoolFn() func(any) (bool, error) {
	return func(v any) (bool, error) {
		b, ok := v.(bool)
		if !ok {
			return false, fmt.Errorf("expected bool, got %T", v)
		}

		return b, nil
	}
}

func parseStringFn(check func(string) error) func(any) (string, error) {
	return func(v any) (string, error) {
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("expected string, got %T", v)
		}

		if check != nil {
			if err := check(s); err != nil {
				return "", err
			}
		}

		return s, nil
	}
}

// parseIntFn accepts the int64 values the toml decoder produces as well as
// plain ints from tests.
func parseIntFn[T integer](check func(int) error) func(any) (T, error) {
	return func(v any) (T, error) {
		var i int
		switch n := v.(type) {
		case int64:
			i = int(n)
		case int:
			i = n
		default:
			return 0, fmt.Errorf("expected integer, got %T", v)
		}

		if check != nil {
			if err := check(i); err != nil {
				return 0, err
			}
		}

		return T(i), nil
	}
}

func isOk[T any](p *T, err error) bool {
	return p != nil && err == nil
}

func MustParseLogLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil {
		panic(err)
	}

	return level
}

func MustParseInjectionType(s string) packet.InjectionType {
	t, err := packet.ParseInjectionType(s)
	if err != nil {
		panic(err)
	}

	return t
}

func MustParseProbeKind(s string) probe.Kind {
	k, err := probe.ParseKind(s)
	if err != nil {
		panic(err)
	}

	return k
}

func MustParseIP(s string) net.IP {
	ip := net.ParseIP(s)
	if ip == nil {
		panic(fmt.Sprintf("invalid ip address %q", s))
	}

	return ip
}
