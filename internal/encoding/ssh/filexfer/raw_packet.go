package filexfer

import (
	"io"

	"github.com/pkg/errors"

	isync "github.com/aneoconsulting/gosftp/internal/sync"
)

// maxPacketSize is the largest frame this client will read. filexfer-02
// section 3 puts no hard cap on packet size; this is a defensive limit
// against a misbehaving peer claiming an absurd length, not a protocol
// requirement.
const maxPacketSize = 256 * 1024

// writeBufPool supplies the scratch buffer WritePacket assembles a frame
// into. The buffer is fully copied into w.Write before WritePacket
// returns it to the pool, so reuse across calls is safe even though
// writes are serialized by the caller rather than by this package.
var writeBufPool = isync.NewSlicePool[[]byte, byte](64, maxPacketSize)

func newPacketFromType(typ PacketType) (Packet, error) {
	switch typ {
	case PacketTypeOpen:
		return new(OpenPacket), nil
	case PacketTypeClose:
		return new(ClosePacket), nil
	case PacketTypeRead:
		return new(ReadPacket), nil
	case PacketTypeWrite:
		return new(WritePacket), nil
	case PacketTypeLstat:
		return new(LstatPacket), nil
	case PacketTypeFStat:
		return new(FStatPacket), nil
	case PacketTypeSetstat:
		return new(SetstatPacket), nil
	case PacketTypeFSetstat:
		return new(FSetstatPacket), nil
	case PacketTypeOpenDir:
		return new(OpenDirPacket), nil
	case PacketTypeReadDir:
		return new(ReadDirPacket), nil
	case PacketTypeRemove:
		return new(RemovePacket), nil
	case PacketTypeMkdir:
		return new(MkdirPacket), nil
	case PacketTypeRmdir:
		return new(RmdirPacket), nil
	case PacketTypeRealpath:
		return new(RealpathPacket), nil
	case PacketTypeStat:
		return new(StatPacket), nil
	case PacketTypeRename:
		return new(RenamePacket), nil
	case PacketTypeReadlink:
		return new(ReadlinkPacket), nil
	case PacketTypeSymlink:
		return new(SymlinkPacket), nil
	case PacketTypeStatus:
		return new(StatusPacket), nil
	case PacketTypeHandle:
		return new(HandlePacket), nil
	case PacketTypeData:
		return new(DataPacket), nil
	case PacketTypeName:
		return new(NamePacket), nil
	case PacketTypeAttrs:
		return new(AttrsPacket), nil
	case PacketTypeExtended:
		return new(ExtendedPacket), nil
	case PacketTypeExtendedReply:
		return new(ExtendedReplyPacket), nil
	default:
		return nil, errors.Errorf("unrecognized packet type: %v", typ)
	}
}

// RawPacket is a decoded frame whose type and request ID have been read,
// but whose body has not yet been unmarshaled into a concrete Packet.
// ReadRawPacket stages frames through a RawPacket so the multiplexer can
// inspect the request ID and dispatch before paying for a full decode.
type RawPacket struct {
	Type      PacketType
	RequestID uint32
	Data      Buffer
}

// RequestPacket decodes the concrete Packet named by p.Type out of p.Data.
func (p *RawPacket) RequestPacket() (Packet, error) {
	packet, err := newPacketFromType(p.Type)
	if err != nil {
		return nil, err
	}
	if err := packet.UnmarshalPacketBody(&p.Data); err != nil {
		return nil, err
	}
	return packet, nil
}

// UnmarshalFrom decodes a RawPacket's type and request ID from buf,
// leaving the remaining bytes in p.Data.
func (p *RawPacket) UnmarshalFrom(buf *Buffer) error {
	typ, err := buf.ConsumeUint8()
	if err != nil {
		return err
	}
	p.Type = PacketType(typ)

	if p.RequestID, err = buf.ConsumeUint32(); err != nil {
		return err
	}

	p.Data = *buf
	return nil
}

// ReadRawPacket reads one length-prefixed frame from r: a uint32 length,
// followed by that many bytes of SSH_FXP_* packet body (type byte,
// request ID, then payload).
func ReadRawPacket(r io.Reader) (*RawPacket, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return nil, err
	}

	length := NewBuffer(lengthBytes[:])
	size, err := length.ConsumeUint32()
	if err != nil {
		return nil, err
	}

	if size < 5 {
		return nil, ErrShortPacket
	}
	if size > maxPacketSize {
		return nil, ErrLongPacket
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	raw := new(RawPacket)
	if err := raw.UnmarshalFrom(NewBuffer(body)); err != nil {
		return nil, err
	}
	return raw, nil
}

// WritePacket marshals p under reqid and writes its length-prefixed frame
// to w in a single call, so a concurrent writer never interleaves two
// frames.
func WritePacket(w io.Writer, reqid uint32, p Packet) error {
	header, payload, err := p.MarshalPacket(reqid)
	if err != nil {
		return err
	}

	if len(payload) == 0 {
		_, err := w.Write(header)
		return err
	}

	need := len(header) + len(payload)
	full := writeBufPool.Get()
	if cap(full) < need {
		full = make([]byte, 0, need)
	}
	full = append(full[:0], header...)
	full = append(full, payload...)

	_, err = w.Write(full)
	writeBufPool.Put(full)
	return err
}
