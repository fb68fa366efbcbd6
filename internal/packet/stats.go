package packet

import "sync/atomic"

// Stats counts what an injector put on the wire. A partial write adds its
// byte count to BytesWritten and still counts as one error.
type Stats struct {
	packetsSent  atomic.Uint64
	bytesWritten atomic.Uint64
	packetErrors atomic.Uint64
}

type StatsSnapshot struct {
	PacketsSent  uint64
	BytesWritten uint64
	PacketErrors uint64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		PacketsSent:  s.packetsSent.Load(),
		BytesWritten: s.bytesWritten.Load(),
		PacketErrors: s.packetErrors.Load(),
	}
}

func (s *Stats) recordSent(n int) {
	s.packetsSent.Add(1)
	s.bytesWritten.Add(uint64(n))
}

func (s *Stats) recordError(n int) {
	s.packetErrors.Add(1)
	if n > 0 {
		s.bytesWritten.Add(uint64(n))
	}
}
