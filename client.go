package sftp

import (
	"context"
	"io"
	"log"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

// Client is a protocol session multiplexed over a single byte stream. One
// Client serves any number of concurrent File and Dir cursors, and any
// number of concurrent callers issuing one-shot operations directly.
type Client struct {
	conn     *conn
	maxChunk int
}

// ClientOption configures a Client constructed by NewClient.
type ClientOption func(*clientOptions)

type clientOptions struct {
	logger           *log.Logger
	maxChunk         int
	skipVersionCheck bool
}

// WithLogger directs diagnostic messages the client has no better place
// to put — most notably a discarded reply whose request ID matches no
// waiting request — to logger. The default is silence.
func WithLogger(logger *log.Logger) ClientOption {
	return func(o *clientOptions) { o.logger = logger }
}

// WithMaxPacket caps the size of the Read/Write chunks a File issues,
// below the protocol's own 32 KiB convention. It only ever lowers the
// cap: a value of zero or above maxIOChunk leaves the default in place.
func WithMaxPacket(n int) ClientOption {
	return func(o *clientOptions) {
		if n > 0 && n < maxIOChunk {
			o.maxChunk = n
		}
	}
}

// WithVersionCheck, passed false, skips asserting that the server
// negotiated exactly protocol version 3. It exists for test harnesses
// that script a deliberately malformed handshake; every other part of
// this client still assumes version-3 wire semantics regardless.
func WithVersionCheck(enabled bool) ClientOption {
	return func(o *clientOptions) { o.skipVersionCheck = !enabled }
}

// NewClient performs the version-3 handshake over w/r and returns a
// ready Client. w and r are typically an SSH session's stdin and stdout
// pipes after the "sftp" subsystem has been requested; NewClient does
// not itself know anything about SSH.
func NewClient(ctx context.Context, w io.Writer, r io.Reader, opts ...ClientOption) (*Client, error) {
	o := clientOptions{maxChunk: maxIOChunk}
	for _, opt := range opts {
		opt(&o)
	}

	c, err := newConn(ctx, w, r, o.logger, o.skipVersionCheck)
	if err != nil {
		return nil, err
	}
	return &Client{conn: c, maxChunk: o.maxChunk}, nil
}

// NewClientPipe is a convenience constructor for tests and in-process
// servers: rwc is both the write and read side of the session.
func NewClientPipe(ctx context.Context, rwc io.ReadWriter, opts ...ClientOption) (*Client, error) {
	return NewClient(ctx, rwc, rwc, opts...)
}

// Close stops the session. Every request in flight fails with
// ErrSessionStopped, and every subsequent call on this Client or on a
// cursor derived from it fails the same way.
func (c *Client) Close() error {
	return c.conn.Close()
}

// roundTrip sends req and asserts the reply is one of the packet types
// in want, decoding it. A Status reply not itself named in want is
// translated to a ProtocolError (or, if it reports Ok, to a BadMessage:
// no catalogue entry expects success to arrive as a bare Status when it
// asked for a Handle/Attrs/Name/Data/ExtendedReply). Any other
// unexpected variant also becomes a BadMessage naming expect, the
// human-readable label used in the error text.
func (c *Client) roundTrip(ctx context.Context, req sshfx.Packet, expect string, want ...sshfx.PacketType) (sshfx.Packet, error) {
	raw, err := c.conn.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	for _, t := range want {
		if raw.Type == t {
			return raw.RequestPacket()
		}
	}

	if raw.Type == sshfx.PacketTypeStatus {
		p, werr := raw.RequestPacket()
		if werr != nil {
			return nil, &WireError{Err: werr}
		}
		status := statusFromPacket(p.(*sshfx.StatusPacket))
		if status.Code == Ok {
			return nil, BadMessage("expected %s, got Status(Ok)", expect)
		}
		return nil, &ProtocolError{Status: status}
	}

	return nil, BadMessage("expected %s, got packet type %v", expect, raw.Type)
}

// statusRoundTrip sends req, whose only well-formed reply is a Status,
// and turns Ok into a nil error.
func (c *Client) statusRoundTrip(ctx context.Context, req sshfx.Packet) error {
	raw, err := c.conn.roundTrip(ctx, req)
	if err != nil {
		return err
	}
	if raw.Type != sshfx.PacketTypeStatus {
		return BadMessage("expected Status, got packet type %v", raw.Type)
	}

	p, werr := raw.RequestPacket()
	if werr != nil {
		return &WireError{Err: werr}
	}
	status := statusFromPacket(p.(*sshfx.StatusPacket))
	if status.Code == Ok {
		return nil
	}
	return &ProtocolError{Status: status}
}

// Open opens path with the given mode flags and attributes, returning a
// File cursor over the resulting handle.
func (c *Client) Open(ctx context.Context, path string, pflags PFlags, attrs Attrs) (*File, error) {
	p, err := c.roundTrip(ctx, &sshfx.OpenPacket{
		Filename: path,
		PFlags:   uint32(pflags),
		Attrs:    attrs.toWire(),
	}, "Handle", sshfx.PacketTypeHandle)
	if err != nil {
		return nil, err
	}
	return newFile(c, p.(*sshfx.HandlePacket).Handle), nil
}

// OpenFile opens path for reading only: the common case of opening an
// existing file with no create/truncate behavior.
func (c *Client) OpenFile(ctx context.Context, path string) (*File, error) {
	return c.Open(ctx, path, FlagRead, Attrs{})
}

// Create opens path for writing, creating it if absent and truncating it
// if present, with mode 0644.
func (c *Client) Create(ctx context.Context, path string) (*File, error) {
	perm := uint32(0o644)
	return c.Open(ctx, path, FlagWrite|FlagCreate|FlagTruncate, Attrs{Permissions: &perm})
}

func (c *Client) closeHandle(ctx context.Context, handle string) error {
	return c.statusRoundTrip(ctx, &sshfx.ClosePacket{Handle: handle})
}

// readAt issues a single Read for up to length bytes at offset. The
// eof result is true when the server replied Status(Eof): a zero-byte
// read, not an error, per the file cursor's read semantics.
func (c *Client) readAt(ctx context.Context, handle string, offset uint64, length uint32) (data []byte, eof bool, err error) {
	raw, err := c.conn.roundTrip(ctx, &sshfx.ReadPacket{Handle: handle, Offset: offset, Len: length})
	if err != nil {
		return nil, false, err
	}

	switch raw.Type {
	case sshfx.PacketTypeData:
		p, werr := raw.RequestPacket()
		if werr != nil {
			return nil, false, &WireError{Err: werr}
		}
		return p.(*sshfx.DataPacket).Data, false, nil
	case sshfx.PacketTypeStatus:
		p, werr := raw.RequestPacket()
		if werr != nil {
			return nil, false, &WireError{Err: werr}
		}
		status := statusFromPacket(p.(*sshfx.StatusPacket))
		if status.Code == Eof {
			return nil, true, nil
		}
		return nil, false, &ProtocolError{Status: status}
	default:
		return nil, false, BadMessage("expected Data or Status, got packet type %v", raw.Type)
	}
}

func (c *Client) writeAt(ctx context.Context, handle string, offset uint64, data []byte) error {
	return c.statusRoundTrip(ctx, &sshfx.WritePacket{Handle: handle, Offset: offset, Data: data})
}

// Lstat stats path without following a trailing symlink.
func (c *Client) Lstat(ctx context.Context, path string) (Attrs, error) {
	return c.statReply(ctx, &sshfx.LstatPacket{Path: path})
}

// Stat stats path, following symlinks.
func (c *Client) Stat(ctx context.Context, path string) (Attrs, error) {
	return c.statReply(ctx, &sshfx.StatPacket{Path: path})
}

func (c *Client) fstat(ctx context.Context, handle string) (Attrs, error) {
	return c.statReply(ctx, &sshfx.FStatPacket{Handle: handle})
}

func (c *Client) statReply(ctx context.Context, req sshfx.Packet) (Attrs, error) {
	p, err := c.roundTrip(ctx, req, "Attrs", sshfx.PacketTypeAttrs)
	if err != nil {
		return Attrs{}, err
	}
	return attrsFromWire(p.(*sshfx.AttrsPacket).Attrs), nil
}

// SetStat sets attributes on path.
func (c *Client) SetStat(ctx context.Context, path string, attrs Attrs) error {
	return c.statusRoundTrip(ctx, &sshfx.SetstatPacket{Path: path, Attrs: attrs.toWire()})
}

func (c *Client) fsetstat(ctx context.Context, handle string, attrs Attrs) error {
	return c.statusRoundTrip(ctx, &sshfx.FSetstatPacket{Handle: handle, Attrs: attrs.toWire()})
}

// OpenDir opens path as a directory, returning a Dir cursor.
func (c *Client) OpenDir(ctx context.Context, path string) (*Dir, error) {
	p, err := c.roundTrip(ctx, &sshfx.OpenDirPacket{Path: path}, "Handle", sshfx.PacketTypeHandle)
	if err != nil {
		return nil, err
	}
	return newDir(c, p.(*sshfx.HandlePacket).Handle), nil
}

// readDirBatch issues a single ReadDir. eof is true on Status(Eof); the
// Dir cursor is what turns repeated batches into a flat sequence.
func (c *Client) readDirBatch(ctx context.Context, handle string) (entries []*NameEntry, eof bool, err error) {
	raw, err := c.conn.roundTrip(ctx, &sshfx.ReadDirPacket{Handle: handle})
	if err != nil {
		return nil, false, err
	}

	switch raw.Type {
	case sshfx.PacketTypeName:
		p, werr := raw.RequestPacket()
		if werr != nil {
			return nil, false, &WireError{Err: werr}
		}
		wire := p.(*sshfx.NamePacket).Entries
		entries = make([]*NameEntry, len(wire))
		for i, e := range wire {
			entries[i] = nameEntryFromWire(e)
		}
		return entries, false, nil
	case sshfx.PacketTypeStatus:
		p, werr := raw.RequestPacket()
		if werr != nil {
			return nil, false, &WireError{Err: werr}
		}
		status := statusFromPacket(p.(*sshfx.StatusPacket))
		if status.Code == Eof {
			return nil, true, nil
		}
		return nil, false, &ProtocolError{Status: status}
	default:
		return nil, false, BadMessage("expected Name or Status, got packet type %v", raw.Type)
	}
}

// ReadDir is the composite OpenDir/ReadDir-loop/Close convenience: it
// returns every entry under path in one call, rather than the
// incremental Dir cursor. If any ReadDir in the loop fails for a reason
// other than Eof, Close is still attempted before the original error is
// returned.
func (c *Client) ReadDir(ctx context.Context, path string) ([]*NameEntry, error) {
	dir, err := c.OpenDir(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []*NameEntry
	for {
		entry, err := dir.Next(ctx)
		if err != nil {
			_ = dir.Close(ctx)
			return nil, err
		}
		if entry == nil {
			break
		}
		entries = append(entries, entry)
	}

	return entries, dir.Close(ctx)
}

// Remove deletes the file at path.
func (c *Client) Remove(ctx context.Context, path string) error {
	return c.statusRoundTrip(ctx, &sshfx.RemovePacket{Path: path})
}

// Mkdir creates a directory at path with the given attributes.
func (c *Client) Mkdir(ctx context.Context, path string, attrs Attrs) error {
	return c.statusRoundTrip(ctx, &sshfx.MkdirPacket{Path: path, Attrs: attrs.toWire()})
}

// Rmdir removes the empty directory at path.
func (c *Client) Rmdir(ctx context.Context, path string) error {
	return c.statusRoundTrip(ctx, &sshfx.RmdirPacket{Path: path})
}

// RealPath resolves path to its canonical absolute form.
func (c *Client) RealPath(ctx context.Context, path string) (string, error) {
	return c.singleNameReply(ctx, &sshfx.RealpathPacket{Path: path})
}

// ReadLink reads the target of the symlink at path.
func (c *Client) ReadLink(ctx context.Context, path string) (string, error) {
	return c.singleNameReply(ctx, &sshfx.ReadlinkPacket{Path: path})
}

func (c *Client) singleNameReply(ctx context.Context, req sshfx.Packet) (string, error) {
	p, err := c.roundTrip(ctx, req, "Name", sshfx.PacketTypeName)
	if err != nil {
		return "", err
	}
	entries := p.(*sshfx.NamePacket).Entries
	if len(entries) != 1 {
		return "", BadMessage("expected exactly one Name entry, got %d", len(entries))
	}
	return entries[0].Filename, nil
}

// Rename renames oldpath to newpath.
func (c *Client) Rename(ctx context.Context, oldpath, newpath string) error {
	return c.statusRoundTrip(ctx, &sshfx.RenamePacket{OldPath: oldpath, NewPath: newpath})
}

// Symlink creates a symlink at linkpath pointing to targetpath.
func (c *Client) Symlink(ctx context.Context, targetpath, linkpath string) error {
	return c.statusRoundTrip(ctx, &sshfx.SymlinkPacket{LinkPath: linkpath, TargetPath: targetpath})
}

// Extended issues a vendor extension request named by ext, with data as
// its opaque payload, and returns the server's opaque reply payload.
func (c *Client) Extended(ctx context.Context, ext string, data []byte) ([]byte, error) {
	p, err := c.roundTrip(ctx, &sshfx.ExtendedPacket{
		ExtendedRequest: ext,
		Data:            sshfx.NewBuffer(append([]byte(nil), data...)),
	}, "ExtendedReply", sshfx.PacketTypeExtendedReply)
	if err != nil {
		return nil, err
	}

	reply, ok := p.(*sshfx.ExtendedReplyPacket).Data.(*sshfx.Buffer)
	if !ok {
		return nil, BadMessage("extended reply %q decoded to a registered type, not raw data", ext)
	}
	return reply.Bytes(), nil
}
