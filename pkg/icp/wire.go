// Package icp implements the Internal Control Protocol: the full-duplex
// framed channel between the Session Manager and the RDP frontend. Frames
// carry a fixed header followed by a structpb.Struct payload, a real
// protobuf wire-format envelope that needs no protoc-generated code.
package icp

import (
	"encoding/binary"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Direction distinguishes a request frame from a response frame sharing the
// same tag.
type Direction uint8

const (
	DirectionRequest  Direction = 0
	DirectionResponse Direction = 1
)

// Header is the fixed portion of every ICP frame, in wire order.
type Header struct {
	CallType  uint32
	Tag       uint32
	Direction Direction
	Status    uint32
}

const headerSize = 4 + 4 + 1 + 4 // callType | tag | direction | status

// Frame is one decoded ICP message: header plus a protobuf payload.
type Frame struct {
	Header  Header
	Payload *structpb.Struct
}

// WriteFrame encodes f as: 4-byte BE total length | header | protobuf
// payload, and writes it to w in a single call.
func WriteFrame(w io.Writer, f Frame) error {
	var payloadBytes []byte
	var err error
	if f.Payload != nil {
		payloadBytes, err = proto.Marshal(f.Payload)
		if err != nil {
			return fmt.Errorf("icp: marshal payload: %w", err)
		}
	}

	body := make([]byte, headerSize+len(payloadBytes))
	binary.BigEndian.PutUint32(body[0:4], f.Header.CallType)
	binary.BigEndian.PutUint32(body[4:8], f.Header.Tag)
	body[8] = byte(f.Header.Direction)
	binary.BigEndian.PutUint32(body[9:13], f.Header.Status)
	copy(body[headerSize:], payloadBytes)

	lenPrefix := make([]byte, 4)
	binary.BigEndian.PutUint32(lenPrefix, uint32(len(body)))

	if _, err := w.Write(lenPrefix); err != nil {
		return fmt.Errorf("icp: write length prefix: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("icp: write frame body: %w", err)
	}
	return nil
}

// ReadFrame blocks until a full frame has been read from r, or returns the
// read error (io.EOF on clean channel close).
func ReadFrame(r io.Reader) (Frame, error) {
	var lenPrefix [4]byte
	if _, err := io.ReadFull(r, lenPrefix[:]); err != nil {
		return Frame{}, err
	}
	length := binary.BigEndian.Uint32(lenPrefix[:])
	if length < headerSize {
		return Frame{}, fmt.Errorf("icp: frame length %d shorter than header", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return Frame{}, fmt.Errorf("icp: read frame body: %w", err)
	}

	h := Header{
		CallType:  binary.BigEndian.Uint32(body[0:4]),
		Tag:       binary.BigEndian.Uint32(body[4:8]),
		Direction: Direction(body[8]),
		Status:    binary.BigEndian.Uint32(body[9:13]),
	}

	var payload *structpb.Struct
	if len(body) > headerSize {
		payload = &structpb.Struct{}
		if err := proto.Unmarshal(body[headerSize:], payload); err != nil {
			return Frame{}, fmt.Errorf("icp: unmarshal payload: %w", err)
		}
	}

	return Frame{Header: h, Payload: payload}, nil
}
