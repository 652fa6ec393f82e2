package filexfer

// InitPacket defines the SSH_FXP_INIT packet, the client's opening frame.
type InitPacket struct {
	Version    uint32
	Extensions []*ExtensionPair
}

// MarshalBinary returns the full wire encoding of p, including the
// length-prefixed frame. Init/Version are the only two packets exchanged
// before any request ID exists, so they marshal straight to a frame
// instead of going through MarshalPacket(reqid).
func (p *InitPacket) MarshalBinary() ([]byte, error) {
	size := 1 + 4
	for _, ext := range p.Extensions {
		size += ext.Len()
	}

	b := NewBuffer(make([]byte, 4, 4+size))
	b.AppendUint8(uint8(PacketTypeInit))
	b.AppendUint32(p.Version)
	for _, ext := range p.Extensions {
		ext.MarshalInto(b)
	}
	b.PutLength(size)

	return b.Bytes(), nil
}

// UnmarshalPacketBody unmarshals the packet body (everything after the
// type byte) from buf into p.
func (p *InitPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Version, err = buf.ConsumeUint32(); err != nil {
		return err
	}
	for buf.Len() > 0 {
		var ext ExtensionPair
		if err := ext.UnmarshalFrom(buf); err != nil {
			return err
		}
		p.Extensions = append(p.Extensions, &ext)
	}
	return nil
}

// VersionPacket defines the SSH_FXP_VERSION packet, the server's reply to
// Init. filexfer-02 requires Version == 3; any other value is a server
// this client cannot talk to.
type VersionPacket struct {
	Version    uint32
	Extensions []*ExtensionPair
}

// MarshalBinary returns the full wire encoding of p, including the
// length-prefixed frame.
func (p *VersionPacket) MarshalBinary() ([]byte, error) {
	size := 1 + 4
	for _, ext := range p.Extensions {
		size += ext.Len()
	}

	b := NewBuffer(make([]byte, 4, 4+size))
	b.AppendUint8(uint8(PacketTypeVersion))
	b.AppendUint32(p.Version)
	for _, ext := range p.Extensions {
		ext.MarshalInto(b)
	}
	b.PutLength(size)

	return b.Bytes(), nil
}

// UnmarshalPacketBody unmarshals the packet body (everything after the
// type byte) from buf into p.
func (p *VersionPacket) UnmarshalPacketBody(buf *Buffer) (err error) {
	if p.Version, err = buf.ConsumeUint32(); err != nil {
		return err
	}
	for buf.Len() > 0 {
		var ext ExtensionPair
		if err := ext.UnmarshalFrom(buf); err != nil {
			return err
		}
		p.Extensions = append(p.Extensions, &ext)
	}
	return nil
}
