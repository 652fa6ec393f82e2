// Package filexfer implements the wire encoding used by the SSH File Transfer
// Protocol, version 3 (draft-ietf-secsh-filexfer-02).
package filexfer

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Encoding errors.
var (
	ErrShortPacket = errors.New("packet too short")
	ErrLongPacket  = errors.New("packet too long")
)

// Buffer wraps up the big-endian primitive grammar used throughout the
// protocol: fixed-width integers and uint32-length-prefixed byte strings.
type Buffer struct {
	b   []byte
	off int
}

// NewBuffer creates a Buffer that consumes from buf.
// The Buffer takes ownership of buf; the caller must not use it afterward.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{b: buf}
}

// NewMarshalBuffer creates a Buffer ready to marshal a packet body into,
// with the 4-byte length placeholder, the packet type, and the request ID
// already written, and size bytes of additional capacity reserved.
func NewMarshalBuffer(packetType PacketType, requestID uint32, size int) *Buffer {
	buf := NewBuffer(make([]byte, 4, 4+1+4+size))

	buf.AppendUint8(uint8(packetType))
	buf.AppendUint32(requestID)

	return buf
}

// Bytes returns the unconsumed tail of the Buffer.
// The slice is valid only until the next Append or Consume call.
func (b *Buffer) Bytes() []byte {
	return b.b[b.off:]
}

// Len returns the number of unconsumed bytes remaining in the Buffer.
func (b *Buffer) Len() int {
	return len(b.b) - b.off
}

// Packet finalizes a buffer started with NewMarshalBuffer, writing the
// frame length into the first four bytes and returning the header and an
// out-of-band payload to append after it (used for Write's data and the
// replies that carry a raw byte string).
func (b *Buffer) Packet(payload []byte) (header, payloadOut []byte, err error) {
	b.PutLength(len(b.b) - 4 + len(payload))
	return b.b, payload, nil
}

// PutLength writes size into the first four bytes of the Buffer in network
// byte order, growing the buffer if it is shorter than 4 bytes.
func (b *Buffer) PutLength(size int) {
	if len(b.b) < 4 {
		b.b = append(b.b, make([]byte, 4-len(b.b))...)
	}
	binary.BigEndian.PutUint32(b.b, uint32(size))
}

// ConsumeUint8 consumes a single byte.
func (b *Buffer) ConsumeUint8() (uint8, error) {
	if b.Len() < 1 {
		return 0, ErrShortPacket
	}
	v := b.b[b.off]
	b.off++
	return v, nil
}

// AppendUint8 appends a single byte.
func (b *Buffer) AppendUint8(v uint8) {
	b.b = append(b.b, v)
}

// ConsumeBool consumes a single byte, true if non-zero.
func (b *Buffer) ConsumeBool() (bool, error) {
	v, err := b.ConsumeUint8()
	return v != 0, err
}

// AppendBool appends a single byte, 1 for true, 0 for false.
func (b *Buffer) AppendBool(v bool) {
	if v {
		b.AppendUint8(1)
	} else {
		b.AppendUint8(0)
	}
}

// ConsumeUint32 consumes a big-endian uint32.
func (b *Buffer) ConsumeUint32() (uint32, error) {
	if b.Len() < 4 {
		return 0, ErrShortPacket
	}
	v := binary.BigEndian.Uint32(b.b[b.off:])
	b.off += 4
	return v, nil
}

// AppendUint32 appends a big-endian uint32.
func (b *Buffer) AppendUint32(v uint32) {
	b.b = binary.BigEndian.AppendUint32(b.b, v)
}

// ConsumeUint64 consumes a big-endian uint64.
func (b *Buffer) ConsumeUint64() (uint64, error) {
	if b.Len() < 8 {
		return 0, ErrShortPacket
	}
	v := binary.BigEndian.Uint64(b.b[b.off:])
	b.off += 8
	return v, nil
}

// AppendUint64 appends a big-endian uint64.
func (b *Buffer) AppendUint64(v uint64) {
	b.b = binary.BigEndian.AppendUint64(b.b, v)
}

// ConsumeByteSlice consumes a uint32-length-prefixed byte string.
// The returned slice aliases the Buffer's backing array.
func (b *Buffer) ConsumeByteSlice() ([]byte, error) {
	length, err := b.ConsumeUint32()
	if err != nil {
		return nil, err
	}
	if b.Len() < int(length) {
		return nil, ErrShortPacket
	}
	v := b.b[b.off : b.off+int(length) : b.off+int(length)]
	b.off += int(length)
	return v, nil
}

// AppendByteSlice appends a uint32-length-prefixed byte string.
func (b *Buffer) AppendByteSlice(v []byte) {
	b.AppendUint32(uint32(len(v)))
	b.b = append(b.b, v...)
}

// ConsumeString consumes a uint32-length-prefixed byte string as a string.
func (b *Buffer) ConsumeString() (string, error) {
	v, err := b.ConsumeByteSlice()
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// AppendString appends a uint32-length-prefixed byte string.
func (b *Buffer) AppendString(v string) {
	b.AppendByteSlice([]byte(v))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (b *Buffer) MarshalBinary() ([]byte, error) {
	return b.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// It takes ownership of data; the caller must not reuse it.
func (b *Buffer) UnmarshalBinary(data []byte) error {
	b.b = data
	b.off = 0
	return nil
}
