package packet

import (
	"context"
	"errors"
	"io"
)

// RawWriter puts a complete network layer packet on the wire. Implementations
// return the number of bytes the platform reported as written.
type RawWriter interface {
	SendRawIPv4(ctx context.Context, b []byte) (int, error)
	SendRawIPv6(ctx context.Context, b []byte) (int, error)
}

// LinkSender puts a complete link layer frame on the wire.
type LinkSender interface {
	SendLink(ctx context.Context, b []byte) (int, error)
}

// Transport is everything the injector needs from the platform.
type Transport interface {
	RawWriter
	LinkSender
	io.Closer
}

var _ Transport = (*Endpoint)(nil)

// Endpoint joins a raw writer and a link sender into a Transport. Either side
// may be nil, in which case its paths fail with ErrNotOpen.
type Endpoint struct {
	raw     RawWriter
	link    LinkSender
	closers []io.Closer
}

func NewEndpoint(raw RawWriter, link LinkSender, closers ...io.Closer) *Endpoint {
	return &Endpoint{
		raw:     raw,
		link:    link,
		closers: closers,
	}
}

func (e *Endpoint) SendRawIPv4(ctx context.Context, b []byte) (int, error) {
	if e.raw == nil {
		return 0, &TransmissionError{Op: "write_raw_ipv4", Want: len(b), Err: ErrNotOpen}
	}

	return e.raw.SendRawIPv4(ctx, b)
}

func (e *Endpoint) SendRawIPv6(ctx context.Context, b []byte) (int, error) {
	if e.raw == nil {
		return 0, &TransmissionError{Op: "write_raw_ipv6", Want: len(b), Err: ErrNotOpen}
	}

	return e.raw.SendRawIPv6(ctx, b)
}

func (e *Endpoint) SendLink(ctx context.Context, b []byte) (int, error) {
	if e.link == nil {
		return 0, &TransmissionError{Op: "write_link", Want: len(b), Err: ErrNotOpen}
	}

	return e.link.SendLink(ctx, b)
}

func (e *Endpoint) Close() error {
	var errs []error
	for _, c := range e.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
