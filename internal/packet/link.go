package packet

import "context"

// LinkWriter is the part of a Handle the write path needs.
type LinkWriter interface {
	WritePacketData(data []byte) error
}

var _ LinkSender = (*LinkTransport)(nil)

// LinkTransport sends prebuilt frames. The whole frame either goes out or is
// reported as not written at all.
type LinkTransport struct {
	writer LinkWriter
}

func NewLinkTransport(w LinkWriter) *LinkTransport {
	return &LinkTransport{writer: w}
}

func (lt *LinkTransport) SendLink(ctx context.Context, b []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, &TransmissionError{Op: "write_link", Want: len(b), Err: err}
	}

	if err := lt.writer.WritePacketData(b); err != nil {
		return 0, &TransmissionError{Op: "write_link", Want: len(b), Err: err}
	}

	return len(b), nil
}
