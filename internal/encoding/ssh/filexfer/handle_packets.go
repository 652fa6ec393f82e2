package filexfer

// ClosePacket defines the SSH_FXP_CLOSE packet.
type ClosePacket struct {
	Handle string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ClosePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeClose, reqid, 4+len(p.Handle))
	b.AppendString(p.Handle)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *ClosePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Handle, err = buf.ConsumeString()
	return err
}

// ReadPacket defines the SSH_FXP_READ packet.
type ReadPacket struct {
	Handle string
	Offset uint64
	Len    uint32
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.Handle) + 8 + 4

	b := NewMarshalBuffer(PacketTypeRead, reqid, size)
	b.AppendString(p.Handle)
	b.AppendUint64(p.Offset)
	b.AppendUint32(p.Len)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *ReadPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Handle, err = buf.ConsumeString(); err != nil {
		return err
	}
	if p.Offset, err = buf.ConsumeUint64(); err != nil {
		return err
	}
	p.Len, err = buf.ConsumeUint32()
	return err
}

// WritePacket defines the SSH_FXP_WRITE packet. Data is carried as an
// out-of-band payload so a large write avoids an extra copy into the
// header buffer.
type WritePacket struct {
	Handle string
	Offset uint64
	Data   []byte
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *WritePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.Handle) + 8 + 4

	b := NewMarshalBuffer(PacketTypeWrite, reqid, size)
	b.AppendString(p.Handle)
	b.AppendUint64(p.Offset)
	b.AppendUint32(uint32(len(p.Data)))

	return b.Packet(p.Data)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *WritePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Handle, err = buf.ConsumeString(); err != nil {
		return err
	}
	if p.Offset, err = buf.ConsumeUint64(); err != nil {
		return err
	}
	p.Data, err = buf.ConsumeByteSlice()
	return err
}

// FStatPacket defines the SSH_FXP_FSTAT packet.
type FStatPacket struct {
	Handle string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *FStatPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeFStat, reqid, 4+len(p.Handle))
	b.AppendString(p.Handle)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *FStatPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Handle, err = buf.ConsumeString()
	return err
}

// FSetstatPacket defines the SSH_FXP_FSETSTAT packet.
type FSetstatPacket struct {
	Handle string
	Attrs  Attributes
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *FSetstatPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.Handle) + p.Attrs.Len()

	b := NewMarshalBuffer(PacketTypeFSetstat, reqid, size)
	b.AppendString(p.Handle)
	p.Attrs.MarshalInto(b)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *FSetstatPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Handle, err = buf.ConsumeString(); err != nil {
		return err
	}
	return p.Attrs.UnmarshalFrom(buf)
}

// ReadDirPacket defines the SSH_FXP_READDIR packet.
type ReadDirPacket struct {
	Handle string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadDirPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeReadDir, reqid, 4+len(p.Handle))
	b.AppendString(p.Handle)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *ReadDirPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Handle, err = buf.ConsumeString()
	return err
}
