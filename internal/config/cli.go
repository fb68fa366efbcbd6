package config

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
	"github.com/xvzc/pktwrite/internal/ptr"
)

func CreateCommand(
	runFunc func(ctx context.Context, configDir string, cfg *Config) error,
	version string,
	commit string,
	build string,
) *cli.Command {
	cli.RootCommandHelpTemplate = createHelpTemplate()

	cmd := &cli.Command{
		Name:        "pktwrite",
		Description: "Build a probe packet and write it through a raw socket or the link layer",
		Copyright:   "Apache License, Version 2.0, January 2004",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name: "clean",
				Usage: `
				if set, all configuration files will be ignored`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage: `
				Custom location of the config file to load. Options given through the command
				line flags will override the options set in this file.`,
				OnlyOnce: true,
				Sources:  cli.EnvVars("PKTWRITE_CONFIG"),
			},

			&cli.IntFlag{
				Name: "count",
				Usage: `
				Number of probes to write (default: 1, max: 65535)`,
				Value:     1,
				OnlyOnce:  true,
				Validator: checkUint16NonZero,
			},

			&cli.StringFlag{
				Name: "dns-name",
				Usage: `
				Name asked for by a 'dns' probe`,
				OnlyOnce:  true,
				Validator: checkDomainName,
			},

			&cli.StringFlag{
				Name:    "dst",
				Aliases: []string{"d"},
				Usage: `
				Destination IP address of the probe`,
				OnlyOnce:  true,
				Validator: checkIPAddr,
			},

			&cli.IntFlag{
				Name: "dst-port",
				Usage: `
				Destination port of a 'udp' or 'dns' probe (dns default: 53)`,
				OnlyOnce:  true,
				Validator: checkUint16,
			},

			&cli.StringFlag{
				Name:    "interface",
				Aliases: []string{"i"},
				Usage: `
				Network interface to write on (default: the interface of the default route)`,
				OnlyOnce: true,
			},

			&cli.IntFlag{
				Name: "interval",
				Usage: `
				Delay between probes in milliseconds (default: 1000, max: 65535)`,
				Value:     1000,
				OnlyOnce:  true,
				Validator: checkUint16,
			},

			&cli.StringFlag{
				Name: "kind",
				Usage: fmt.Sprintf(`
				Probe to build, one of %v (default: "icmp")`, probe.AvailableKinds()),
				Value:     "icmp",
				OnlyOnce:  true,
				Validator: checkProbeKind,
			},

			&cli.StringFlag{
				Name: "log-level",
				Usage: `
				Set log level (default: 'info')`,
				Value:     "info",
				OnlyOnce:  true,
				Validator: checkLogLevel,
			},

			&cli.StringFlag{
				Name: "payload",
				Usage: `
				Bytes carried after the probe's transport header`,
				OnlyOnce: true,
			},

			&cli.IntFlag{
				Name: "resolve-timeout",
				Usage: `
				Time to wait for an ARP reply in milliseconds (default: 3000, max: 65535)`,
				Value:     3000,
				OnlyOnce:  true,
				Validator: checkUint16NonZero,
			},

			&cli.BoolFlag{
				Name: "silent",
				Usage: `
				Do not print the summary after the probes are written`,
				OnlyOnce: true,
			},

			&cli.StringFlag{
				Name: "src",
				Usage: `
				Source IP address of the probe (default: the address of the interface)`,
				OnlyOnce:  true,
				Validator: checkIPAddr,
			},

			&cli.IntFlag{
				Name: "src-port",
				Usage: `
				Source port of a 'udp' or 'dns' probe`,
				OnlyOnce:  true,
				Validator: checkUint16,
			},

			&cli.IntFlag{
				Name: "ttl",
				Usage: `
				TTL or hop limit of the probe (default: 64, max: 255)`,
				Value:     64,
				OnlyOnce:  true,
				Validator: checkUint8NonZero,
			},

			&cli.StringFlag{
				Name:    "type",
				Aliases: []string{"t"},
				Usage: fmt.Sprintf(`
				Injection type, one of %v (default: "raw4")`, packet.AvailableInjectionTypes()),
				Value:     "raw4",
				OnlyOnce:  true,
				Validator: checkInjectionType,
			},

			&cli.BoolFlag{
				Name: "version",
				Usage: `
				Print version; this may contain some other relevant information`,
				Aliases:  []string{"v"},
				OnlyOnce: true,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("version") {
				fmt.Printf("pktwrite %s %s (%s)\n", version, commit, build)
				os.Exit(0)
			}

			var tomlCfg *Config
			var configDir string
			if !cmd.Bool("clean") {
				configFilename := "pktwrite.toml"

				configDirs := []string{
					path.Join(string(os.PathSeparator), "etc", configFilename),
					path.Join(os.Getenv("XDG_CONFIG_HOME"), "pktwrite", configFilename),
					path.Join(os.Getenv("HOME"), ".config", "pktwrite", configFilename),
				}

				c, err := searchTomlFile(cmd.String("config"), configDirs)
				if err != nil {
					return err
				}

				if c != "" {
					configDir = c
					tomlCfg, err = fromTomlFile(c)
					if err != nil {
						return fmt.Errorf("error parsing toml config: %w", err)
					}
				}
			}

			argsCfg := parseConfigFromArgs(cmd)

			finalCfg := NewConfig().Merge(tomlCfg).Merge(argsCfg)
			if err := finalCfg.Validate(); err != nil {
				return err
			}

			return runFunc(ctx, strings.Replace(configDir, os.Getenv("HOME"), "~", 1), finalCfg)
		},
	}

	cli.HelpFlag = &cli.BoolFlag{
		Name:    "help",
		Aliases: []string{"h"},
		Usage: `
        show help`,
	}

	return cmd
}

func createHelpTemplate() string {
	return fmt.Sprintf(`DESCRIPTION:
  %s{{if .Copyright }}
COPYRIGHT:
  {{.Copyright}}{{end}}
USAGE:
  %s {{if .Flags}}%s{{end}}{{if .Commands}}
GLOBAL OPTIONS:
  {{range .VisibleFlags}}%s{{if .Aliases}}{{range .Aliases}}%s{{end}}{{end}} %s %s %s
	{{end}}{{end}}
	`,
		"{{.Name}} - {{.Description}}",
		"{{.Name}}",
		"[global options]",
		"--{{.Name}}",
		", -{{.}}",
		"{{.TypeName}}",
		"{{.Usage}}",
		"{{.DefaultText}}",
	)
}

// parseConfigFromArgs only carries the flags that were given, so that the
// values from the toml file survive the merge.
func parseConfigFromArgs(cmd *cli.Command) *Config {
	general := &GeneralOptions{}
	if cmd.IsSet("log-level") {
		general.LogLevel = ptr.FromValue(MustParseLogLevel(cmd.String("log-level")))
	}
	if cmd.IsSet("silent") {
		general.Silent = ptr.FromValue(cmd.Bool("silent"))
	}

	inject := &InjectOptions{}
	if cmd.IsSet("interface") {
		inject.Interface = ptr.FromValue(cmd.String("interface"))
	}
	if cmd.IsSet("type") {
		inject.Type = ptr.FromValue(MustParseInjectionType(cmd.String("type")))
	}
	if cmd.IsSet("count") {
		inject.Count = ptr.FromValue(uint16(cmd.Int("count")))
	}
	if cmd.IsSet("interval") {
		inject.Interval = ptr.FromValue(time.Duration(cmd.Int("interval")) * time.Millisecond)
	}
	if cmd.IsSet("resolve-timeout") {
		inject.ResolveTimeout = ptr.FromValue(
			time.Duration(cmd.Int("resolve-timeout")) * time.Millisecond,
		)
	}

	pr := &ProbeOptions{}
	if cmd.IsSet("kind") {
		pr.Kind = ptr.FromValue(MustParseProbeKind(cmd.String("kind")))
	}
	if cmd.IsSet("src") {
		pr.Src = MustParseIP(cmd.String("src"))
	}
	if cmd.IsSet("dst") {
		pr.Dst = MustParseIP(cmd.String("dst"))
	}
	if cmd.IsSet("src-port") {
		pr.SrcPort = ptr.FromValue(uint16(cmd.Int("src-port")))
	}
	if cmd.IsSet("dst-port") {
		pr.DstPort = ptr.FromValue(uint16(cmd.Int("dst-port")))
	}
	if cmd.IsSet("ttl") {
		pr.TTL = ptr.FromValue(uint8(cmd.Int("ttl")))
	}
	if cmd.IsSet("payload") {
		pr.Payload = ptr.FromValue(cmd.String("payload"))
	}
	if cmd.IsSet("dns-name") {
		pr.DNSName = ptr.FromValue(cmd.String("dns-name"))
	}

	return &Config{General: general, Inject: inject, Probe: pr}
}
