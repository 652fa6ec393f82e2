package filexfer

// LstatPacket defines the SSH_FXP_LSTAT packet.
type LstatPacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *LstatPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeLstat, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *LstatPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// SetstatPacket defines the SSH_FXP_SETSTAT packet.
type SetstatPacket struct {
	Path  string
	Attrs Attributes
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *SetstatPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.Path) + p.Attrs.Len()

	b := NewMarshalBuffer(PacketTypeSetstat, reqid, size)
	b.AppendString(p.Path)
	p.Attrs.MarshalInto(b)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *SetstatPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Path, err = buf.ConsumeString(); err != nil {
		return err
	}
	return p.Attrs.UnmarshalFrom(buf)
}

// RemovePacket defines the SSH_FXP_REMOVE packet.
type RemovePacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RemovePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeRemove, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *RemovePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// MkdirPacket defines the SSH_FXP_MKDIR packet.
type MkdirPacket struct {
	Path  string
	Attrs Attributes
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *MkdirPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.Path) + p.Attrs.Len()

	b := NewMarshalBuffer(PacketTypeMkdir, reqid, size)
	b.AppendString(p.Path)
	p.Attrs.MarshalInto(b)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *MkdirPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Path, err = buf.ConsumeString(); err != nil {
		return err
	}
	return p.Attrs.UnmarshalFrom(buf)
}

// RmdirPacket defines the SSH_FXP_RMDIR packet.
type RmdirPacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RmdirPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeRmdir, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *RmdirPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// RealpathPacket defines the SSH_FXP_REALPATH packet.
type RealpathPacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RealpathPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeRealpath, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *RealpathPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// StatPacket defines the SSH_FXP_STAT packet.
type StatPacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *StatPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeStat, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *StatPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// RenamePacket defines the SSH_FXP_RENAME packet.
type RenamePacket struct {
	OldPath string
	NewPath string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *RenamePacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.OldPath) + 4 + len(p.NewPath)

	b := NewMarshalBuffer(PacketTypeRename, reqid, size)
	b.AppendString(p.OldPath)
	b.AppendString(p.NewPath)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *RenamePacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.OldPath, err = buf.ConsumeString(); err != nil {
		return err
	}
	p.NewPath, err = buf.ConsumeString()
	return err
}

// ReadlinkPacket defines the SSH_FXP_READLINK packet.
type ReadlinkPacket struct {
	Path string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *ReadlinkPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	b := NewMarshalBuffer(PacketTypeReadlink, reqid, 4+len(p.Path))
	b.AppendString(p.Path)
	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *ReadlinkPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	p.Path, err = buf.ConsumeString()
	return err
}

// SymlinkPacket defines the SSH_FXP_SYMLINK packet.
//
// The argument order on the wire is reversed from the field order below:
// OpenSSH's server has always read target-path before link-path, a bug in
// the original implementation that shipped before anyone noticed, and
// every server still expects it today. See section 3.1 of
// https://github.com/openssh/openssh-portable/blob/master/PROTOCOL.
type SymlinkPacket struct {
	LinkPath   string
	TargetPath string
}

// MarshalPacket returns p as a two-part binary encoding of p.
func (p *SymlinkPacket) MarshalPacket(reqid uint32) (header, payload []byte, err error) {
	size := 4 + len(p.TargetPath) + 4 + len(p.LinkPath)

	b := NewMarshalBuffer(PacketTypeSymlink, reqid, size)
	// Arguments are inverted on the wire, see doc comment above.
	b.AppendString(p.TargetPath)
	b.AppendString(p.LinkPath)

	return b.Packet(nil)
}

// UnmarshalPacketBody unmarshals the packet body from buf.
func (p *SymlinkPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.TargetPath, err = buf.ConsumeString(); err != nil {
		return err
	}
	p.LinkPath, err = buf.ConsumeString()
	return err
}
