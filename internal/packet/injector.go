package packet

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xvzc/pktwrite/internal/session"
)

// MaxRawPacket is the largest packet the raw IPv4 path will hand to the kernel.
const MaxRawPacket = 65535

// Injector writes packet chains through the transport selected by its
// injection type and keeps running statistics of the outcome.
type Injector struct {
	logger zerolog.Logger

	transport     Transport
	coalescer     Coalescer
	injectionType InjectionType

	stats Stats
}

func NewInjector(
	logger zerolog.Logger,
	transport Transport,
	coalescer Coalescer,
	injectionType InjectionType,
) *Injector {
	return &Injector{
		logger:        logger,
		transport:     transport,
		coalescer:     coalescer,
		injectionType: injectionType,
	}
}

func (inj *Injector) InjectionType() InjectionType {
	return inj.injectionType
}

func (inj *Injector) Stats() StatsSnapshot {
	return inj.stats.Snapshot()
}

// Write coalesces chain and sends it. On success it returns the packet length.
// On failure it returns whatever the transport reported as written, never
// negative, together with the cause.
//
// A packet rejected before transmission (too large, unsupported type) leaves
// the statistics untouched. Every attempted send is counted exactly once,
// either as sent or as an error.
func (inj *Injector) Write(ctx context.Context, chain Chain) (int, error) {
	if inj == nil || inj.transport == nil || inj.coalescer == nil {
		return 0, ErrInvalidContext
	}

	ctx = session.WithNewTraceID(ctx)
	logger := inj.logger.With().Ctx(ctx).Str("type", inj.injectionType.String()).Logger()

	buf, err := inj.coalescer.Coalesce(chain, inj.injectionType)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCoalesceFailed, err)
	}
	defer buf.Release()

	packet := buf.Bytes()

	var send func(context.Context, []byte) (int, error)
	switch inj.injectionType {
	case InjectRaw4, InjectRaw4Adv:
		if len(packet) > MaxRawPacket {
			err := &PacketTooLargeError{Len: len(packet)}
			logger.Warn().Int("len", len(packet)).Msg("packet rejected")
			return 0, err
		}
		send = inj.transport.SendRawIPv4
	case InjectRaw6, InjectRaw6Adv:
		send = inj.transport.SendRawIPv6
	case InjectLink, InjectLinkAdv:
		send = inj.transport.SendLink
	default:
		return 0, &UnsupportedInjectionTypeError{Type: inj.injectionType}
	}

	n, err := send(ctx, packet)
	if err == nil && n == len(packet) {
		inj.stats.recordSent(n)
		logger.Debug().Int("len", n).Int("offset", buf.Offset()).Msg("packet written")
		return n, nil
	}

	inj.stats.recordError(n)
	if err == nil {
		err = &TransmissionError{Op: "write", Written: n, Want: len(packet)}
	}

	logger.Warn().
		Int("written", n).
		Int("len", len(packet)).
		Int("offset", buf.Offset()).
		Err(err).
		Msg("packet write failed")

	if n < 0 {
		n = 0
	}

	return n, err
}
