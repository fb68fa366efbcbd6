package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xvzc/pktwrite/internal/config"
	"github.com/xvzc/pktwrite/internal/logging"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/probe"
	"github.com/xvzc/pktwrite/internal/session"
	"github.com/xvzc/pktwrite/internal/system"
)

// Version information set by linker flags
var (
	version = "dev"
	commit  = "unknown"
	build   = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cmd := config.CreateCommand(runApp, version, commit, build)
	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "pktwrite: %s\n", err)
		os.Exit(1)
	}
}

func runApp(ctx context.Context, configDir string, cfg *config.Config) error {
	logging.SetGlobalLogger(ctx, *cfg.General.LogLevel)
	logger := logging.WithScope(log.Logger, "app")

	if configDir != "" {
		logger.Info().Str("path", configDir).Msg("config file loaded")
	}

	nic, err := system.LookupNIC(*cfg.Inject.Interface)
	if err != nil {
		return fmt.Errorf("failed to find a network interface: %w", err)
	}

	logger.Debug().
		Str("iface", nic.Interface.Name).
		Str("ipv4", fmt.Sprint(nic.IPv4)).
		Str("ipv6", fmt.Sprint(nic.IPv6)).
		Msg("interface selected")

	t := *cfg.Inject.Type

	attrs, err := createProbeAttrs(cfg, nic, uint16(os.Getpid()))
	if err != nil {
		return err
	}

	transport, resolver, err := openTransport(log.Logger, nic, t, *cfg.Inject.ResolveTimeout)
	if err != nil {
		return fmt.Errorf("failed to open %s transport: %w", t, err)
	}
	defer func() {
		if err := transport.Close(); err != nil {
			logging.WarnUnwrapped(&logger, "error while closing transport", err)
		}
	}()

	if t.IsLink() {
		mac, err := resolver.Resolve(ctx, attrs.DstIP)
		if err != nil {
			return fmt.Errorf("failed to resolve next hop for %s: %w", attrs.DstIP, err)
		}
		attrs.DstMAC = mac
	}

	injector := createInjector(log.Logger, transport, t)

	sent, err := runProbes(
		session.WithTarget(ctx, attrs.DstIP.String()),
		logging.WithScope(log.Logger, "probe"),
		injector,
		attrs,
		*cfg.Inject.Count,
		*cfg.Inject.Interval,
	)

	if !*cfg.General.Silent {
		printSummary(injector, attrs.DstIP, sent)
	}

	if err != nil {
		logging.ErrorUnwrapped(&logger, "probe run failed", err)
	}

	return err
}

func createInjector(
	logger zerolog.Logger,
	transport packet.Transport,
	t packet.InjectionType,
) *packet.Injector {
	// room for the alignment gap in front of a full sized packet
	alloc := packet.NewPoolAllocator(packet.MaxRawPacket + 8)

	return packet.NewInjector(
		logging.WithScope(logger, "inject"),
		transport,
		packet.NewChainCoalescer(alloc),
		t,
	)
}

// createProbeAttrs fills in what the configuration leaves open from the
// interface: the source address of the destination's family and, for link
// injection, the source hardware address.
func createProbeAttrs(cfg *config.Config, nic *system.NIC, id uint16) (probe.Attrs, error) {
	p := cfg.Probe

	attrs := probe.Attrs{
		Kind:    *p.Kind,
		DstIP:   p.Dst,
		SrcIP:   p.Src,
		TTL:     *p.TTL,
		ID:      id,
		SrcPort: *p.SrcPort,
		DstPort: *p.DstPort,
		Payload: []byte(*p.Payload),
		DNSName: *p.DNSName,
	}

	if attrs.SrcIP == nil {
		if p.Dst.To4() != nil {
			attrs.SrcIP = nic.IPv4
		} else {
			attrs.SrcIP = nic.IPv6
		}
	}

	if attrs.SrcIP == nil {
		return probe.Attrs{}, fmt.Errorf(
			"interface %s has no address of the destination's family",
			nic.Interface.Name,
		)
	}

	if attrs.SrcPort == 0 && attrs.Kind != probe.KindICMP {
		attrs.SrcPort = 32768 + id%28232
	}

	if (*cfg.Inject.Type).IsLink() {
		attrs.SrcMAC = nic.Interface.HardwareAddr
	}

	return attrs, nil
}

// runProbes writes count probes, one every interval, with increasing sequence
// numbers. A failed write is logged and the run goes on; the run fails only if
// nothing was written.
func runProbes(
	ctx context.Context,
	logger zerolog.Logger,
	injector *packet.Injector,
	attrs probe.Attrs,
	count uint16,
	interval time.Duration,
) (int, error) {
	var (
		sent    int
		lastErr error
	)

	for i := range count {
		if i > 0 {
			select {
			case <-ctx.Done():
				return sent, ctx.Err()
			case <-time.After(interval):
			}
		}

		attrs.Seq = i
		chain, err := probe.Build(injector.InjectionType(), attrs)
		if err != nil {
			return sent, fmt.Errorf("failed to build probe: %w", err)
		}

		n, err := injector.Write(ctx, chain)
		if err != nil {
			lastErr = err
			if errors.Is(err, packet.ErrPacketTooLarge) ||
				errors.Is(err, packet.ErrUnsupportedInjectionType) ||
				errors.Is(err, packet.ErrUnsupportedAddressFamily) ||
				errors.Is(err, packet.ErrUnsupportedMedium) {
				// every following probe would fail the same way
				return sent, err
			}

			logger.Warn().Ctx(ctx).Uint16("seq", i).Int("written", n).Err(err).Msg("probe write failed")
			continue
		}

		sent++
		logger.Info().Ctx(ctx).Uint16("seq", i).Int("len", n).Msg("probe written")
	}

	if sent == 0 && lastErr != nil {
		return 0, lastErr
	}

	return sent, nil
}

func printSummary(injector *packet.Injector, dst net.IP, sent int) {
	s := injector.Stats()

	fmt.Printf("\n")
	fmt.Printf("--- %s %s statistics ---\n", dst, injector.InjectionType())
	fmt.Printf(" • PROBES_SENT   : %d\n", sent)
	fmt.Printf(" • PACKETS_SENT  : %d\n", s.PacketsSent)
	fmt.Printf(" • BYTES_WRITTEN : %d\n", s.BytesWritten)
	fmt.Printf(" • PACKET_ERRORS : %d\n", s.PacketErrors)
	fmt.Printf("\n")
}
