package sftp

import (
	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

// Attrs is the sparse file-attribute record from draft-ietf-secsh-filexfer-02
// section 5. Each field is independently optional; a nil pointer means the
// server (or caller) never supplied that fact, not that it is zero.
type Attrs struct {
	Size        *uint64
	UID         *uint32
	GID         *uint32
	Permissions *uint32
	ATime       *uint32
	MTime       *uint32
}

// WithSize returns a copy of a with Size set, for chaining Attrs literals
// the way callers build up an Open/Setstat request.
func (a Attrs) WithSize(size uint64) Attrs { a.Size = &size; return a }

// WithOwner returns a copy of a with UID/GID set.
func (a Attrs) WithOwner(uid, gid uint32) Attrs { a.UID = &uid; a.GID = &gid; return a }

// WithPermissions returns a copy of a with Permissions set.
func (a Attrs) WithPermissions(perm uint32) Attrs { a.Permissions = &perm; return a }

// WithTimes returns a copy of a with ATime/MTime set.
func (a Attrs) WithTimes(atime, mtime uint32) Attrs { a.ATime = &atime; a.MTime = &mtime; return a }

func (a Attrs) toWire() sshfx.Attributes {
	var w sshfx.Attributes

	if a.Size != nil {
		w.Flags |= sshfx.AttrSize
		w.Size = *a.Size
	}
	if a.UID != nil && a.GID != nil {
		w.Flags |= sshfx.AttrUIDGID
		w.UID = *a.UID
		w.GID = *a.GID
	}
	if a.Permissions != nil {
		w.Flags |= sshfx.AttrPermissions
		w.Permissions = *a.Permissions
	}
	if a.ATime != nil && a.MTime != nil {
		w.Flags |= sshfx.AttrACModTime
		w.ATime = *a.ATime
		w.MTime = *a.MTime
	}

	return w
}

func attrsFromWire(w sshfx.Attributes) Attrs {
	var a Attrs

	if w.Flags&sshfx.AttrSize != 0 {
		size := w.Size
		a.Size = &size
	}
	if w.Flags&sshfx.AttrUIDGID != 0 {
		uid, gid := w.UID, w.GID
		a.UID, a.GID = &uid, &gid
	}
	if w.Flags&sshfx.AttrPermissions != 0 {
		perm := w.Permissions
		a.Permissions = &perm
	}
	if w.Flags&sshfx.AttrACModTime != 0 {
		atime, mtime := w.ATime, w.MTime
		a.ATime, a.MTime = &atime, &mtime
	}

	return a
}

// PFlags is the SSH_FXF_* open-mode bitfield. Truncate and Exclude are
// only meaningful combined with Create.
type PFlags uint32

// Open-mode flag bits.
const (
	FlagRead      PFlags = 1 << iota // SSH_FXF_READ
	FlagWrite                        // SSH_FXF_WRITE
	FlagAppend                       // SSH_FXF_APPEND
	FlagCreate                       // SSH_FXF_CREAT
	FlagTruncate                     // SSH_FXF_TRUNC
	FlagExclude                      // SSH_FXF_EXCL
)

// NameEntry is one row of a Name reply: a filename, an opaque `ls -l`-style
// display string the client must not parse, and its attributes.
type NameEntry struct {
	Filename string
	Longname string
	Attrs    Attrs
}

func nameEntryFromWire(e *sshfx.NameEntry) *NameEntry {
	return &NameEntry{
		Filename: e.Filename,
		Longname: e.Longname,
		Attrs:    attrsFromWire(e.Attrs),
	}
}
