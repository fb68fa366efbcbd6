//go:build unix

package main

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/logging"
	"github.com/xvzc/pktwrite/internal/packet"
	"github.com/xvzc/pktwrite/internal/system"
)

// openTransport opens raw IP sockets for the raw injection types and a link
// handle, together with an ARP resolver for its frames, for the link types.
func openTransport(
	logger zerolog.Logger,
	nic *system.NIC,
	t packet.InjectionType,
	resolveTimeout time.Duration,
) (packet.Transport, packet.HardwareResolver, error) {
	if !t.IsLink() {
		w, err := packet.OpenRawSocketWriter(
			logging.WithScope(logger, "rawsock"),
			t.IsRaw4(),
			t.IsRaw6(),
		)
		if err != nil {
			return nil, nil, err
		}

		return packet.NewEndpoint(w, nil, w), nil, nil
	}

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

	return packet.NewEndpoint(nil, packet.NewLinkTransport(h), h), resolver, nil
}
