package filexfer

import "github.com/pkg/errors"

// ErrInvalidFlags is returned when an Attributes record carries a flag bit
// this draft of the protocol does not define.
var ErrInvalidFlags = errors.New("attributes: unrecognized flag bit")

// Attribute flag bits, per draft-ietf-secsh-filexfer-02 section 5.
// Each bit makes its associated fields present on the wire; a caller that
// never learned a given fact (say, permissions of a just-created file)
// simply clears its bit rather than sending a synthetic value.
const (
	AttrSize        = 1 << iota // SSH_FILEXFER_ATTR_SIZE
	AttrUIDGID                  // SSH_FILEXFER_ATTR_UIDGID
	AttrPermissions             // SSH_FILEXFER_ATTR_PERMISSIONS
	AttrACModTime               // SSH_FILEXFER_ATTR_ACMODTIME

	// knownAttrFlags is every bit this draft defines. draft-ietf-secsh-filexfer-02
	// has no extended-attributes bit (that is a later-draft addition); any
	// other bit on the wire is a protocol violation, not a forward-compatible
	// unknown field, so UnmarshalFrom rejects it outright.
	knownAttrFlags = AttrSize | AttrUIDGID | AttrPermissions | AttrACModTime
)

// Attributes is the wire encoding of the sparse file-attribute record from
// draft-ietf-secsh-filexfer-02 section 5. A field is meaningful only when
// its flag bit is set; callers should consult the flag, not assume a zero
// value means "absent".
type Attributes struct {
	Flags uint32

	Size uint64 // AttrSize

	UID uint32 // AttrUIDGID
	GID uint32

	Permissions uint32 // AttrPermissions

	ATime uint32 // AttrACModTime
	MTime uint32
}

// Len returns the number of bytes MarshalInto will append.
func (a *Attributes) Len() int {
	length := 4 // flags

	if a.Flags&AttrSize != 0 {
		length += 8
	}
	if a.Flags&AttrUIDGID != 0 {
		length += 8
	}
	if a.Flags&AttrPermissions != 0 {
		length += 4
	}
	if a.Flags&AttrACModTime != 0 {
		length += 8
	}

	return length
}

// MarshalInto marshals a onto the end of buf.
func (a *Attributes) MarshalInto(buf *Buffer) {
	buf.AppendUint32(a.Flags)

	if a.Flags&AttrSize != 0 {
		buf.AppendUint64(a.Size)
	}
	if a.Flags&AttrUIDGID != 0 {
		buf.AppendUint32(a.UID)
		buf.AppendUint32(a.GID)
	}
	if a.Flags&AttrPermissions != 0 {
		buf.AppendUint32(a.Permissions)
	}
	if a.Flags&AttrACModTime != 0 {
		buf.AppendUint32(a.ATime)
		buf.AppendUint32(a.MTime)
	}
}

// UnmarshalFrom unmarshals an Attributes from buf into a.
//
// Any flag bit outside knownAttrFlags fails decoding with ErrInvalidFlags:
// draft-ietf-secsh-filexfer-02 defines no extension mechanism for this
// record, so an unrecognized bit means the peer and this client disagree
// about the wire format, not that there is a sub-record to skip.
func (a *Attributes) UnmarshalFrom(buf *Buffer) (err error) {
	if a.Flags, err = buf.ConsumeUint32(); err != nil {
		return err
	}

	if a.Flags&^uint32(knownAttrFlags) != 0 {
		return ErrInvalidFlags
	}

	if a.Flags&AttrSize != 0 {
		if a.Size, err = buf.ConsumeUint64(); err != nil {
			return err
		}
	}

	if a.Flags&AttrUIDGID != 0 {
		if a.UID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if a.GID, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrPermissions != 0 {
		if a.Permissions, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	if a.Flags&AttrACModTime != 0 {
		if a.ATime, err = buf.ConsumeUint32(); err != nil {
			return err
		}
		if a.MTime, err = buf.ConsumeUint32(); err != nil {
			return err
		}
	}

	return nil
}
