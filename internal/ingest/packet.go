// Package ingest decodes raw LiDAR/IMU UDP frames, accumulates them over an
// integration window, and downsamples the resulting point cloud before it is
// handed to the octree builder.
package ingest

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/chd-flightcore/lidar-core/internal/geometry"
)

const (
	headerSize = 36
	pointSize  = 14

	dataTypeIMU   = 0
	dataTypeLidar = 1
)

// DecodeErrorKind classifies why DecodePacket rejected a buffer.
type DecodeErrorKind int

// DecodeErrorKind values, per the wire contract in the packet header.
const (
	// Truncated means the buffer was shorter than the header, the header's
	// length field exceeds the buffer, or the payload isn't a whole number
	// of point records.
	Truncated DecodeErrorKind = iota
	// UnsupportedType means the header's data_type field was not 0 (IMU) or
	// 1 (LiDAR).
	UnsupportedType
	// PayloadMismatch means dot_num * pointSize disagreed with the payload's
	// actual byte length.
	PayloadMismatch
)

func (k DecodeErrorKind) String() string {
	switch k {
	case Truncated:
		return "truncated"
	case UnsupportedType:
		return "unsupported_type"
	case PayloadMismatch:
		return "payload_mismatch"
	default:
		return "unknown"
	}
}

// DecodeError reports a packet the decoder refused to parse. The caller's
// policy (per the core's failure-tolerant data plane) is to log and drop the
// packet, never to abort the aggregation window.
type DecodeError struct {
	Kind   DecodeErrorKind
	Detail string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode packet: %s: %s", e.Kind, e.Detail)
}

// Header is the 36-byte little-endian header shared by LiDAR and IMU
// packets.
type Header struct {
	Version      uint8
	Length       uint16
	TimeInterval uint16 // microseconds between points
	DotNum       uint16 // payload point count
	UDPCount     uint16
	FrameCount   uint8
	DataType     uint8
	TimeType     uint8
	Timestamp    uint64 // nanoseconds
}

// Point is a single LiDAR return in the sensor's native frame, already
// converted from millimeters to meters.
type Point struct {
	Position     geometry.Vector3
	Reflectivity uint8
}

// IMUSample is a single decoded IMU reading.
type IMUSample struct {
	Gyro geometry.Vector3 // rad/s
	Acc  geometry.Vector3 // g
}

// Frame is one decoded packet: exactly one of LidarPoints or IMU is
// populated, selected by Header.DataType.
type Frame struct {
	Header      Header
	LidarPoints []Point
	IMU         *IMUSample
}

// DecodePacket parses a single self-contained UDP datagram. Packet
// fragmentation across datagrams is not supported — each call consumes
// exactly one buffer and produces exactly one frame.
func DecodePacket(buf []byte) (Frame, error) {
	if len(buf) < headerSize {
		return Frame{}, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("buffer length %d shorter than header %d", len(buf), headerSize),
		}
	}

	h := Header{
		Version:      buf[0],
		Length:       binary.LittleEndian.Uint16(buf[1:3]),
		TimeInterval: binary.LittleEndian.Uint16(buf[3:5]),
		DotNum:       binary.LittleEndian.Uint16(buf[5:7]),
		UDPCount:     binary.LittleEndian.Uint16(buf[7:9]),
		FrameCount:   buf[9],
		DataType:     buf[10],
		TimeType:     buf[11],
		Timestamp:    binary.LittleEndian.Uint64(buf[17:25]),
	}

	if int(h.Length) < headerSize {
		return Frame{}, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("length field %d shorter than header %d", h.Length, headerSize),
		}
	}
	if int(h.Length) > len(buf) {
		return Frame{}, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("length field %d exceeds buffer %d", h.Length, len(buf)),
		}
	}

	payload := buf[headerSize:h.Length]

	switch h.DataType {
	case dataTypeLidar:
		points, err := decodeLidarPayload(payload, h.DotNum)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Header: h, LidarPoints: points}, nil
	case dataTypeIMU:
		sample, err := decodeIMUPayload(payload)
		if err != nil {
			return Frame{}, err
		}
		return Frame{Header: h, IMU: sample}, nil
	default:
		return Frame{}, &DecodeError{
			Kind:   UnsupportedType,
			Detail: fmt.Sprintf("data_type %d not in {0, 1}", h.DataType),
		}
	}
}

func decodeLidarPayload(payload []byte, dotNum uint16) ([]Point, error) {
	if len(payload)%pointSize != 0 {
		return nil, &DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("payload length %d not a multiple of point size %d", len(payload), pointSize),
		}
	}
	if int(dotNum) != len(payload)/pointSize {
		return nil, &DecodeError{
			Kind: PayloadMismatch,
			Detail: fmt.Sprintf("dot_num=%d * %d != payload_bytes=%d",
				dotNum, pointSize, len(payload)),
		}
	}

	count := len(payload) / pointSize
	points := make([]Point, 0, count)
	for i := 0; i < count; i++ {
		rec := payload[i*pointSize : (i+1)*pointSize]
		xmm := int32(binary.LittleEndian.Uint32(rec[0:4]))
		ymm := int32(binary.LittleEndian.Uint32(rec[4:8]))
		zmm := int32(binary.LittleEndian.Uint32(rec[8:12]))
		refl := rec[12]

		if xmm == 0 && ymm == 0 && zmm == 0 {
			continue // sentinel
		}

		points = append(points, Point{
			Position: geometry.Vector3{
				X: float32(xmm) / 1000.0,
				Y: float32(ymm) / 1000.0,
				Z: float32(zmm) / 1000.0,
			},
			Reflectivity: refl,
		})
	}
	return points, nil
}

func decodeIMUPayload(payload []byte) (*IMUSample, error) {
	const f32Size = 4
	const wantLen = 6 * f32Size
	if len(payload) != wantLen {
		return nil, errors.WithStack(&DecodeError{
			Kind:   Truncated,
			Detail: fmt.Sprintf("IMU payload length %d, want %d", len(payload), wantLen),
		})
	}

	readF32 := func(off int) float32 {
		bits := binary.LittleEndian.Uint32(payload[off : off+4])
		return math.Float32frombits(bits)
	}

	return &IMUSample{
		Gyro: geometry.Vector3{X: readF32(0), Y: readF32(4), Z: readF32(8)},
		Acc:  geometry.Vector3{X: readF32(12), Y: readF32(16), Z: readF32(20)},
	}, nil
}
