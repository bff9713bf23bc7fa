package ingest

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

// SocketError wraps a transport-level failure from the aggregator's receive
// loop. Unlike DecodeError, a SocketError is fatal to the current tick — the
// caller decides whether to retry.
type SocketError struct {
	Cause error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("lidar aggregator socket error: %v", e.Cause)
}

func (e *SocketError) Unwrap() error {
	return e.Cause
}

// Aggregator accumulates decoded LiDAR points over a bounded wall-clock
// window. It owns no socket of its own — the host binds the UDP listener and
// hands the Aggregator a net.PacketConn, keeping the core free of
// process-wide mutable state.
type Aggregator struct {
	conn     net.PacketConn
	boundary float32
	logger   *zap.SugaredLogger
	buf      []byte
}

// NewAggregator builds an Aggregator reading from conn, clipping points
// outside the [-boundary, +boundary]^3 cube in sensor frame.
func NewAggregator(conn net.PacketConn, boundary float32, logger *zap.SugaredLogger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Aggregator{
		conn:     conn,
		boundary: boundary,
		logger:   logger,
		buf:      make([]byte, 65536),
	}
}

// Collect holds the receive loop open until window elapses (or ctx is
// canceled, if sooner) and returns every LiDAR point decoded and within
// bounds during that time, in arrival order. A decode failure is logged and
// the packet dropped; only a socket I/O error aborts the call early. An
// elapsed window with zero points is a legal, non-error result.
func (a *Aggregator) Collect(ctx context.Context, window time.Duration) ([]Point, error) {
	deadline := time.Now().Add(window)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := a.conn.SetReadDeadline(deadline); err != nil {
		return nil, &SocketError{Cause: err}
	}
	// Unblock a pending read as soon as ctx is canceled.
	stop := context.AfterFunc(ctx, func() { a.conn.SetReadDeadline(time.Now()) })
	defer stop()

	var points []Point
	for {
		if ctx.Err() != nil {
			return points, nil
		}

		n, _, err := a.conn.ReadFrom(a.buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return points, nil
			}
			return points, &SocketError{Cause: err}
		}

		frame, err := DecodePacket(a.buf[:n])
		if err != nil {
			a.logger.Debugw("dropping malformed lidar packet", "error", err)
			continue
		}

		for _, p := range frame.LidarPoints {
			if !withinBoundary(p.Position, a.boundary) {
				continue
			}
			points = append(points, p)
		}
	}
}

func withinBoundary(p geometry.Vector3, boundary float32) bool {
	return p.X >= -boundary && p.X <= boundary &&
		p.Y >= -boundary && p.Y <= boundary &&
		p.Z >= -boundary && p.Z <= boundary
}
