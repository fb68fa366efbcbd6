//go:build windows

package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/logging"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/system"
)

// openTransport opens the adapter for every injection type. Raw packets are
// framed by LinkCompat.
func openTransport(
	logger zerolog.Logger,
	nic *system.NIC,
	t packet.InjectionType,
	resolveTimeout time.Duration,
) (packet.Transport, packet.HardwareResolver, error) {
	h, err := packet.NewHandle(nic.Interface)
	if err != nil {
		return nil, nil, err
	}

	resolver := system.NewARPResolver(
		logging.WithScope(logger, "arp"),
		h,
		nic,
		system.ARPResolverAttrs{Timeout: resolveTimeout, CacheTTL: time.Minute},
	)

	compat := packet.NewLinkCompat(
		logging.WithScope(logger, "compat"),
		h,
		resolver,
		packet.LayerChecksummer{},
		packet.LinkCompatAttrs{
			HardwareAddr: nic.Interface.HardwareAddr,
			LocalIPv4:    nic.IPv4,
			LocalIPv6:    nic.IPv6,
		},
	)

	return packet.NewEndpoint(compat, packet.NewLinkTransport(h), h), resolver, nil
}
