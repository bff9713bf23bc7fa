package core

import (
	"context"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
	"github.com/chd-flightcore/lidar-core/internal/telemetry"
)

type spyPublisher struct {
	velocities []telemetry.VelocityCommand
	paths      [][]geometry.Vector3
}

func (s *spyPublisher) PublishVelocity(_ uuid.UUID, cmd telemetry.VelocityCommand) error {
	s.velocities = append(s.velocities, cmd)
	return nil
}

func (s *spyPublisher) PublishPath(_ uuid.UUID, path []geometry.Vector3) error {
	s.paths = append(s.paths, path)
	return nil
}

func udpLoopback(t *testing.T) (net.PacketConn, func([]byte)) {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	client, err := net.Dial("udp", conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial udp: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return conn, func(buf []byte) {
		if _, err := client.Write(buf); err != nil {
			t.Fatalf("write udp: %v", err)
		}
	}
}

func lidarPacket(xmm, ymm, zmm int32, refl uint8) []byte {
	const headerSize = 36
	const pointSize = 14
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint16(buf[1:3], headerSize+pointSize)
	binary.LittleEndian.PutUint16(buf[5:7], 1)
	buf[10] = 1 // LiDAR
	rec := make([]byte, pointSize)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(xmm))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(ymm))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(zmm))
	rec[12] = refl
	return append(buf, rec...)
}

func TestPipelineTickProducesOccupancyAndAvoidance(t *testing.T) {
	conn, send := udpLoopback(t)
	config := DefaultCoreConfig()
	config.FrameIntegrationTime = 30 * time.Millisecond
	config.WarnTriggerDistance = 0.5
	config.MaxDepth = 7 // leaf centre stays within the warn trigger

	publisher := &spyPublisher{}
	pipeline := NewPipeline(conn, config, publisher)

	send(lidarPacket(300, 0, 0, 200)) // 0.3m ahead, within the warn trigger

	result, err := pipeline.Tick(context.Background(), nil)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if result.PointsIn != 1 {
		t.Fatalf("PointsIn = %d, want 1", result.PointsIn)
	}
	if len(result.Occupancy) == 0 {
		t.Errorf("expected non-empty occupancy map")
	}
	if len(publisher.velocities) != 1 {
		t.Fatalf("expected exactly one published velocity, got %d", len(publisher.velocities))
	}
	if publisher.velocities[0].TypeMask != telemetry.TypeMaskVelocityOnly || publisher.velocities[0].VelX >= 0 {
		t.Errorf("expected an active avoidance response, got %+v", publisher.velocities[0])
	}
}

func TestPipelineTickWithGoalPublishesPath(t *testing.T) {
	conn, _ := udpLoopback(t)
	config := DefaultCoreConfig()
	config.FrameIntegrationTime = 20 * time.Millisecond
	config.WarnTriggerDistance = 0.5

	publisher := &spyPublisher{}
	pipeline := NewPipeline(conn, config, publisher)

	goal := geometry.Vector3{X: 2}
	result, err := pipeline.Tick(context.Background(), &goal)
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if result.PathErr != nil {
		t.Fatalf("PathErr: %v", result.PathErr)
	}
	if len(publisher.paths) != 1 {
		t.Fatalf("expected exactly one published path, got %d", len(publisher.paths))
	}
	last := result.Path[len(result.Path)-1]
	if d := last.Distance(goal); d > config.APF.Epsilon {
		t.Errorf("final waypoint %+v is %f from goal, want <= %f", last, d, config.APF.Epsilon)
	}
}

func TestCoreConfigMaxDepthZeroMeansSix(t *testing.T) {
	c := DefaultCoreConfig()
	c.MaxDepth = 0
	if got := c.resolvedMaxDepth(); got != 6 {
		t.Errorf("resolvedMaxDepth() = %d, want 6", got)
	}
}
