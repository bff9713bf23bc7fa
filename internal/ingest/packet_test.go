package ingest

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func buildHeader(dataType uint8, dotNum uint16, length uint16) []byte {
	buf := make([]byte, headerSize)
	buf[0] = 1 // version
	binary.LittleEndian.PutUint16(buf[1:3], length)
	binary.LittleEndian.PutUint16(buf[3:5], 1000) // time_interval
	binary.LittleEndian.PutUint16(buf[5:7], dotNum)
	binary.LittleEndian.PutUint16(buf[7:9], 42) // udp_cnt
	buf[9] = 1                                  // frame_cnt
	buf[10] = dataType
	buf[11] = 0 // time_type
	binary.LittleEndian.PutUint64(buf[17:25], 123456789)
	return buf
}

func appendLidarPoint(buf []byte, xmm, ymm, zmm int32, refl, tag uint8) []byte {
	rec := make([]byte, pointSize)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(xmm))
	binary.LittleEndian.PutUint32(rec[4:8], uint32(ymm))
	binary.LittleEndian.PutUint32(rec[8:12], uint32(zmm))
	rec[12] = refl
	rec[13] = tag
	return append(buf, rec...)
}

func appendF32(buf []byte, v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return append(buf, b...)
}

func TestDecodePacketLidar(t *testing.T) {
	buf := buildHeader(dataTypeLidar, 2, headerSize+2*pointSize)
	buf = appendLidarPoint(buf, 1000, 2000, -500, 200, 0)
	buf = appendLidarPoint(buf, 0, 0, 0, 0, 0) // sentinel, must be dropped

	frame, err := DecodePacket(buf)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if len(frame.LidarPoints) != 1 {
		t.Fatalf("expected 1 point after sentinel drop, got %d", len(frame.LidarPoints))
	}
	p := frame.LidarPoints[0]
	if p.Position.X != 1.0 || p.Position.Y != 2.0 || p.Position.Z != -0.5 {
		t.Errorf("unexpected position: %+v", p.Position)
	}
	if p.Reflectivity != 200 {
		t.Errorf("Reflectivity = %d, want 200", p.Reflectivity)
	}
}

func TestDecodePacketIMU(t *testing.T) {
	buf := buildHeader(dataTypeIMU, 0, headerSize+24)
	buf = appendF32(buf, 0.1)
	buf = appendF32(buf, 0.2)
	buf = appendF32(buf, 0.3)
	buf = appendF32(buf, 1.0)
	buf = appendF32(buf, 0.0)
	buf = appendF32(buf, -1.0)

	frame, err := DecodePacket(buf)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if frame.IMU == nil {
		t.Fatalf("expected IMU sample")
	}
	if frame.IMU.Gyro.X != 0.1 || frame.IMU.Acc.Z != -1.0 {
		t.Errorf("unexpected IMU sample: %+v", frame.IMU)
	}
}

func TestDecodePacketErrors(t *testing.T) {
	t.Run("truncated buffer", func(t *testing.T) {
		_, err := DecodePacket(make([]byte, headerSize-1))
		assertDecodeErrorKind(t, err, Truncated)
	})

	t.Run("length exceeds buffer", func(t *testing.T) {
		buf := buildHeader(dataTypeLidar, 0, headerSize+100)
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, Truncated)
	})

	t.Run("length field shorter than header", func(t *testing.T) {
		// A corrupt length field (here: 10) that undershoots headerSize,
		// even though the datagram itself is a full, well-formed header.
		buf := buildHeader(dataTypeLidar, 0, 10)
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, Truncated)
	})

	t.Run("unsupported type", func(t *testing.T) {
		buf := buildHeader(7, 0, headerSize)
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, UnsupportedType)
	})

	t.Run("payload not a multiple of point size", func(t *testing.T) {
		buf := buildHeader(dataTypeLidar, 1, headerSize+pointSize-1)
		buf = append(buf, make([]byte, pointSize-1)...)
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, Truncated)
	})

	t.Run("payload mismatch", func(t *testing.T) {
		buf := buildHeader(dataTypeLidar, 2, headerSize+pointSize) // dot_num says 2, payload holds 1
		buf = appendLidarPoint(buf, 1, 1, 1, 1, 0)
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, PayloadMismatch)
	})

	t.Run("IMU payload wrong length", func(t *testing.T) {
		buf := buildHeader(dataTypeIMU, 0, headerSize+20)
		buf = append(buf, make([]byte, 20)...) // 5 floats instead of 6
		_, err := DecodePacket(buf)
		assertDecodeErrorKind(t, err, Truncated)
	})
}

func assertDecodeErrorKind(t *testing.T, err error, want DecodeErrorKind) {
	t.Helper()
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError in chain, got %T (%v)", err, err)
	}
	if de.Kind != want {
		t.Errorf("Kind = %v, want %v", de.Kind, want)
	}
}
