package filexfer

import (
	"bytes"
	"testing"
)

func TestBufferPrimitives(t *testing.T) {
	b := NewBuffer(nil)
	b.AppendUint8(7)
	b.AppendUint32(0x01020304)
	b.AppendUint64(0x0102030405060708)
	b.AppendString("hi")
	b.AppendBool(true)

	want := []byte{
		7,
		0x01, 0x02, 0x03, 0x04,
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x00, 0x00, 0x00, 2, 'h', 'i',
		1,
	}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatalf("Bytes() = %X, want %X", b.Bytes(), want)
	}

	r := NewBuffer(append([]byte(nil), want...))

	if v, err := r.ConsumeUint8(); err != nil || v != 7 {
		t.Fatalf("ConsumeUint8() = %v, %v", v, err)
	}
	if v, err := r.ConsumeUint32(); err != nil || v != 0x01020304 {
		t.Fatalf("ConsumeUint32() = %v, %v", v, err)
	}
	if v, err := r.ConsumeUint64(); err != nil || v != 0x0102030405060708 {
		t.Fatalf("ConsumeUint64() = %v, %v", v, err)
	}
	if v, err := r.ConsumeString(); err != nil || v != "hi" {
		t.Fatalf("ConsumeString() = %q, %v", v, err)
	}
	if v, err := r.ConsumeBool(); err != nil || !v {
		t.Fatalf("ConsumeBool() = %v, %v", v, err)
	}
}

func TestBufferShortPacket(t *testing.T) {
	r := NewBuffer([]byte{0, 0, 0, 5, 'h', 'i'})
	if _, err := r.ConsumeByteSlice(); err != ErrShortPacket {
		t.Fatalf("ConsumeByteSlice() err = %v, want ErrShortPacket", err)
	}
}

func TestOpenPacketRoundTrip(t *testing.T) {
	const reqid = 42

	p := &OpenPacket{
		Filename: "/tmp/foo",
		PFlags:   FlagRead | FlagCreate,
		Attrs: Attributes{
			Flags:       AttrPermissions,
			Permissions: 0o644,
		},
	}

	header, payload, err := p.MarshalPacket(reqid)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) != 0 {
		t.Fatalf("unexpected payload: %X", payload)
	}

	buf := NewBuffer(header[4:]) // skip the frame length
	if _, err := buf.ConsumeUint8(); err != nil {
		t.Fatal(err)
	}
	gotReqID, err := buf.ConsumeUint32()
	if err != nil {
		t.Fatal(err)
	}
	if gotReqID != reqid {
		t.Fatalf("request id = %d, want %d", gotReqID, reqid)
	}

	var got OpenPacket
	if err := got.UnmarshalPacketBody(buf); err != nil {
		t.Fatal(err)
	}

	if got.Filename != p.Filename || got.PFlags != p.PFlags || got.Attrs != p.Attrs {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, *p)
	}
}

func TestSymlinkPacketWireOrderMatchesOpenSSH(t *testing.T) {
	p := &SymlinkPacket{
		LinkPath:   "link",
		TargetPath: "target",
	}

	_, _, err := p.MarshalPacket(1)
	if err != nil {
		t.Fatal(err)
	}

	header, _, err := p.MarshalPacket(1)
	if err != nil {
		t.Fatal(err)
	}

	buf := NewBuffer(header[9:]) // skip length, type, request-id
	first, err := buf.ConsumeString()
	if err != nil {
		t.Fatal(err)
	}
	if first != p.TargetPath {
		t.Fatalf("first string on wire = %q, want target path %q (OpenSSH argument order)", first, p.TargetPath)
	}
}

func TestAttributesRejectsUnknownFlag(t *testing.T) {
	buf := NewBuffer(nil)
	buf.AppendUint32(1 << 30) // not one of the four known bits

	var a Attributes
	if err := a.UnmarshalFrom(buf); err != ErrInvalidFlags {
		t.Fatalf("UnmarshalFrom() err = %v, want ErrInvalidFlags", err)
	}
}

func TestVersionPacketUsesItsOwnPacketType(t *testing.T) {
	p := &VersionPacket{Version: 3}

	data, err := p.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}

	if PacketType(data[4]) != PacketTypeVersion {
		t.Fatalf("VersionPacket marshaled with type %v, want %v", PacketType(data[4]), PacketTypeVersion)
	}
}
