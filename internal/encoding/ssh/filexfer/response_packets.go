package filexfer

import "github.com/pkg/errors"

// StatusPacket defines the SSH_FXP_STATUS packet, per
// draft-ietf-secsh-filexfer-02 section 7.
type StatusPacket struct {
	StatusCode   Status
	ErrorMessage string
	LanguageTag  string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *StatusPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + 4 + len(p.ErrorMessage) + 4 + len(p.LanguageTag)

	b := NewMarshalBuffer(PacketTypeStatus, reqid, size)
	b.AppendUint32(uint32(p.StatusCode))
	b.AppendString(p.ErrorMessage)
	b.AppendString(p.LanguageTag)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *StatusPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	code, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}
	p.StatusCode = Status(code)
	if !p.StatusCode.Valid() {
		return errors.Errorf("unrecognized status code: %d", code)
	}

	if p.ErrorMessage, err = buf.ConsumeString(); err != nil {
		return err
	}
	p.LanguageTag, err = buf.ConsumeString()
	return err
}

// HandlePacket defines the SSH_FXP_HANDLE packet.
type HandlePacket struct {
	Handle string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *HandlePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeHandle, reqid, 4+len(p.Handle))
	b.AppendString(p.Handle)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *HandlePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Handle, err = buf.ConsumeString()
	return err
}

// DataPacket defines the SSH_FXP_DATA packet.
type DataPacket struct {
	Data []byte
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *DataPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeData, reqid, 4)
	b.AppendUint32(uint32(len(p.Data)))
	return b.Packet(p.Data)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *DataPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Data, err = buf.ConsumeByteSlice()
	return err
}

// NameEntry is a single file named by a SSH_FXP_NAME reply: the REALPATH
// response carries exactly one, READDIR responses carry a batch.
//
// Longname is opaque, `ls -l`-style display text formatted by the server;
// a client must not parse it for semantic content (filexfer-02 section 7
// leaves its format server-specific).
type NameEntry struct {
	Filename string
	Longname string
	Attrs    Attributes
}

// Len returns the number of bytes MarshalInto will append.
func (e *NameEntry) Len() int {
	return 4 + len(e.Filename) + 4 + len(e.Longname) + e.Attrs.Len()
}

// MarshalInto marshals e onto the end of buf.
func (e *NameEntry) MarshalInto(buf *Buffer) {
	buf.AppendString(e.Filename)
	buf.AppendString(e.Longname)
	e.Attrs.MarshalInto(buf)
}

// UnmarshalFrom unmarshals a NameEntry from buf into e.
func (e *NameEntry) UnmarshalFrom(buf *Buffer) (err error) {
	if e.Filename, err = buf.ConsumeString(); err != nil {
		return err
	}
	if e.Longname, err = buf.ConsumeString(); err != nil {
		return err
	}
	return e.Attrs.UnmarshalFrom(buf)
}

// NamePacket defines the SSH_FXP_NAME packet.
type NamePacket struct {
	Entries []*NameEntry
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *NamePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4
	for _, e := range p.Entries {
		size += e.Len()
	}

	b := NewMarshalBuffer(PacketTypeName, reqid, size)
	b.AppendUint32(uint32(len(p.Entries)))
	for _, e := range p.Entries {
		e.MarshalInto(b)
	}

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *NamePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	count, err := buf.ConsumeUint32()
	if err != nil {
		return err
	}

	p.Entries = make([]*NameEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		var e NameEntry
		if err := e.UnmarshalFrom(buf); err != nil {
			return err
		}
		p.Entries = append(p.Entries, &e)
	}

	return nil
}

// AttrsPacket defines the SSH_FXP_ATTRS packet.
type AttrsPacket struct {
	Attrs Attributes
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *AttrsPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeAttrs, reqid, p.Attrs.Len())
	p.Attrs.MarshalInto(b)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *AttrsPacket) UnmarshalPacketBody(buf *Buffer) error {
	return p.Attrs.UnmarshalFrom(buf)
}
