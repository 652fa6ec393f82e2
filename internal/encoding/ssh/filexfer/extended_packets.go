package filexfer

import (
	"encoding"
	"sync"
)

// ExtendedData is the marshalable payload carried by an Extended or
// ExtendedReply packet. A vendor extension registers a constructor for its
// own type via RegisterExtendedPacketType; an unregistered one decodes to
// a raw Buffer that the caller can interpret itself.
type ExtendedData = interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// ExtendedDataConstructor builds a fresh, empty ExtendedData value.
type ExtendedDataConstructor func() ExtendedData

var extendedPacketTypes = struct {
	mu           sync.RWMutex
	constructors map[string]ExtendedDataConstructor
}{
	constructors: make(map[string]ExtendedDataConstructor),
}

// RegisterExtendedPacketType registers a constructor for the named
// extension so ExtendedPacket.UnmarshalPacketBody can decode that
// extension's request data into a concrete type instead of a raw Buffer.
// ExtendedReplyPacket does not consult the registry: a reply does not name
// its extension, so its body decodes to a raw Buffer unless the caller
// sets Data beforehand.
func RegisterExtendedPacketType(extension string, constructor ExtendedDataConstructor) {
	extendedPacketTypes.mu.Lock()
	defer extendedPacketTypes.mu.Unlock()

	extendedPacketTypes.constructors[extension] = constructor
}

func newExtendedPacket(extension string) ExtendedData {
	extendedPacketTypes.mu.RLock()
	defer extendedPacketTypes.mu.RUnlock()

	if f := extendedPacketTypes.constructors[extension]; f != nil {
		return f()
	}
	return new(Buffer)
}

// ExtendedPacket defines the SSH_FXP_EXTENDED packet.
type ExtendedPacket struct {
	ExtendedRequest string
	Data            ExtendedData
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ExtendedPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeExtended, reqid, 4+len(p.ExtendedRequest))
	b.AppendString(p.ExtendedRequest)

	if p.Data != nil {
		if payload, err = p.Data.MarshalBinary(); err != nil {
			return nil, nil, err
		}
	}

	return b.Packet(payload)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
//
// If p.Data is nil, it is populated from the registry keyed by
// ExtendedRequest, falling back to a raw Buffer for unregistered
// extensions.
func (p *ExtendedPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.ExtendedRequest, err = buf.ConsumeString(); err != nil {
		return err
	}

	if p.Data == nil {
		p.Data = newExtendedPacket(p.ExtendedRequest)
	}

	return p.Data.UnmarshalBinary(buf.Bytes())
}

// ExtendedReplyPacket defines the SSH_FXP_EXTENDED_REPLY packet.
type ExtendedReplyPacket struct {
	Data ExtendedData
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ExtendedReplyPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeExtendedReply, reqid, 0)

	if p.Data != nil {
		if payload, err = p.Data.MarshalBinary(); err != nil {
			return nil, nil, err
		}
	}

	return b.Packet(payload)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
//
// If p.Data is nil, the remaining bytes are wrapped in a raw Buffer: an
// ExtendedReply's shape depends entirely on which extension it answers,
// which this packet alone does not know.
func (p *ExtendedReplyPacket) UnmarshalPacketBody(buf *Buffer) error {
	if p.Data == nil {
		p.Data = new(Buffer)
	}
	return p.Data.UnmarshalBinary(buf.Bytes())
}
