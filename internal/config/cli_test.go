package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
)

func TestCreateCommand_Flags(t *testing.T) {
	tcs := []struct {
		name   string
		args   []string
		assert func(t *testing.T, cfg *Config)
	}{
		{
			name: "default values (destination only)",
			args: []string{"pktwrite", "--clean", "--dst", "198.51.100.1"},
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, zerolog.InfoLevel, *cfg.General.LogLevel)
				assert.False(t, *cfg.General.Silent)
				assert.Equal(t, "", *cfg.Inject.Interface)
				assert.Equal(t, packet.InjectRaw4, *cfg.Inject.Type)
				assert.Equal(t, uint16(1), *cfg.Inject.Count)
				assert.Equal(t, time.Second, *cfg.Inject.Interval)
				assert.Equal(t, 3*time.Second, *cfg.Inject.ResolveTimeout)
				assert.Equal(t, probe.KindICMP, *cfg.Probe.Kind)
				assert.Nil(t, cfg.Probe.Src)
				assert.Equal(t, "198.51.100.1", cfg.Probe.Dst.String())
				assert.Equal(t, uint8(64), *cfg.Probe.TTL)
			},
		},
		{
			name: "all flags set with custom values",
			args: []string{
				"pktwrite",
				"--clean",
				"--log-level", "debug",
				"--silent",
				"--interface", "eth1",
				"--type", "link",
				"--count", "4",
				"--interval", "10",
				"--resolve-timeout", "200",
				"--kind", "dns",
				"--src", "2001:db8::1",
				"--dst", "2001:db8::53",
				"--src-port", "5000",
				"--dst-port", "5353",
				"--ttl", "9",
				"--payload", "xyz",
				"--dns-name", "example.net",
			},
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, zerolog.DebugLevel, *cfg.General.LogLevel)
				assert.True(t, *cfg.General.Silent)
				assert.Equal(t, "eth1", *cfg.Inject.Interface)
				assert.Equal(t, packet.InjectLink, *cfg.Inject.Type)
				assert.Equal(t, uint16(4), *cfg.Inject.Count)
				assert.Equal(t, 10*time.Millisecond, *cfg.Inject.Interval)
				assert.Equal(t, 200*time.Millisecond, *cfg.Inject.ResolveTimeout)
				assert.Equal(t, probe.KindDNS, *cfg.Probe.Kind)
				assert.Equal(t, "2001:db8::1", cfg.Probe.Src.String())
				assert.Equal(t, "2001:db8::53", cfg.Probe.Dst.String())
				assert.Equal(t, uint16(5000), *cfg.Probe.SrcPort)
				assert.Equal(t, uint16(5353), *cfg.Probe.DstPort)
				assert.Equal(t, uint8(9), *cfg.Probe.TTL)
				assert.Equal(t, "xyz", *cfg.Probe.Payload)
				assert.Equal(t, "example.net", *cfg.Probe.DNSName)
			},
		},
		{
			name: "short aliases",
			args: []string{"pktwrite", "--clean", "-t", "raw6", "-d", "2001:db8::1", "-i", "lo"},
			assert: func(t *testing.T, cfg *Config) {
				assert.Equal(t, packet.InjectRaw6, *cfg.Inject.Type)
				assert.Equal(t, "lo", *cfg.Inject.Interface)
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var capturedCfg *Config
			runFunc := func(ctx context.Context, configDir string, cfg *Config) error {
				capturedCfg = cfg
				return nil
			}

			cmd := CreateCommand(runFunc, "v0.0.0", "commit", "build")

			err := cmd.Run(context.Background(), tc.args)
			require.NoError(t, err)
			require.NotNil(t, capturedCfg, "Run function was not called")

			tc.assert(t, capturedCfg)
		})
	}
}

func TestCreateCommand_Rejects(t *testing.T) {
	tcs := []struct {
		name string
		args []string
	}{
		{"missing destination", []string{"pktwrite", "--clean"}},
		{"zero count", []string{"pktwrite", "--clean", "--dst", "192.0.2.1", "--count", "0"}},
		{"unknown type", []string{"pktwrite", "--clean", "--dst", "192.0.2.1", "--type", "raw5"}},
		{"bad address", []string{"pktwrite", "--clean", "--dst", "192.0.2"}},
		{"family mismatch", []string{"pktwrite", "--clean", "--type", "raw6", "--dst", "192.0.2.1"}},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			runFunc := func(ctx context.Context, configDir string, cfg *Config) error {
				called = true
				return nil
			}

			cmd := CreateCommand(runFunc, "v0.0.0", "commit", "build")

			err := cmd.Run(context.Background(), tc.args)
			assert.Error(t, err)
			assert.False(t, called)
		})
	}
}

func TestCreateCommand_OverrideTOML(t *testing.T) {
	tomlContent := `
[general]
    log-level = "debug"
    silent = true

[inject]
    interface = "en0"
    type = "link"
    count = 10
    interval = 50

[probe]
    kind = "udp"
    dst = "198.51.100.20"
    dst-port = 33434
    ttl = 5
    payload = "from-file"
`
	configPath := filepath.Join(t.TempDir(), "pktwrite.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(tomlContent), 0o644))

	var capturedCfg *Config
	var capturedDir string
	runFunc := func(ctx context.Context, configDir string, cfg *Config) error {
		capturedCfg = cfg
		capturedDir = configDir
		return nil
	}

	cmd := CreateCommand(runFunc, "v0.0.0", "commit", "build")

	args := []string{
		"pktwrite",
		"--config", configPath,
		"--log-level", "error",
		"--silent=false",
		"--count", "2",
		"--ttl", "1",
	}

	err := cmd.Run(context.Background(), args)
	require.NoError(t, err)
	require.NotNil(t, capturedCfg)
	assert.NotEmpty(t, capturedDir)

	// overridden by flags
	assert.Equal(t, zerolog.ErrorLevel, *capturedCfg.General.LogLevel)
	assert.False(t, *capturedCfg.General.Silent)
	assert.Equal(t, uint16(2), *capturedCfg.Inject.Count)
	assert.Equal(t, uint8(1), *capturedCfg.Probe.TTL)

	// kept from the file
	assert.Equal(t, "en0", *capturedCfg.Inject.Interface)
	assert.Equal(t, packet.InjectLink, *capturedCfg.Inject.Type)
	assert.Equal(t, 50*time.Millisecond, *capturedCfg.Inject.Interval)
	assert.Equal(t, probe.KindUDP, *capturedCfg.Probe.Kind)
	assert.Equal(t, "198.51.100.20", capturedCfg.Probe.Dst.String())
	assert.Equal(t, uint16(33434), *capturedCfg.Probe.DstPort)
	assert.Equal(t, "from-file", *capturedCfg.Probe.Payload)

	// defaults fill what neither source set
	assert.Equal(t, 3*time.Second, *capturedCfg.Inject.ResolveTimeout)
}
