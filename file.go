package sftp

import (
	"context"
	"io"
	"sync"
)

// maxIOChunk bounds every single Read/Write request a File issues,
// regardless of the caller's buffer size: the protocol never guarantees
// a server will honor a larger length, so a File slices its own calls.
const maxIOChunk = 32 * 1024

// sharedHandle is the remote handle behind one or more File clones. It is
// reference-counted: the protocol Close is issued exactly once, when the
// last clone releases it.
type sharedHandle struct {
	client *Client
	handle string

	mu   sync.Mutex
	refs int
	done chan struct{} // set once the last reference has started closing
	err  error
}

func (h *sharedHandle) retain() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

// release drops one reference. The underlying Close is sent only when
// the reference count reaches zero; a caller that arrives after another
// goroutine already started that Close waits for it and shares its
// result, rather than issuing a second Close for a handle the server has
// already invalidated.
func (h *sharedHandle) release(ctx context.Context) error {
	h.mu.Lock()
	h.refs--
	if h.refs > 0 {
		h.mu.Unlock()
		return nil
	}
	if h.done != nil {
		done := h.done
		h.mu.Unlock()
		<-done
		h.mu.Lock()
		err := h.err
		h.mu.Unlock()
		return err
	}
	h.done = make(chan struct{})
	h.mu.Unlock()

	err := h.client.closeHandle(ctx, h.handle)

	h.mu.Lock()
	h.err = err
	close(h.done)
	h.mu.Unlock()
	return err
}

// File is a cursor over a remote open file: a shared handle plus a
// current offset. Read, Write, Seek and Close never overlap on the same
// File — each takes the cursor's mutex for the duration of its protocol
// round trip, so "at most one pending operation" holds by construction
// rather than by an explicit state machine.
type File struct {
	h      *sharedHandle
	mu     sync.Mutex
	offset uint64
	closed bool
}

func newFile(c *Client, handle string) *File {
	return &File{h: &sharedHandle{client: c, handle: handle, refs: 1}}
}

// Clone returns a second cursor over the same remote handle, with its
// own independent offset starting at f's current offset. The remote file
// is closed only once both f and the clone (and any further clones) have
// been closed.
func (f *File) Clone() *File {
	f.h.retain()

	f.mu.Lock()
	offset := f.offset
	f.mu.Unlock()

	return &File{h: f.h, offset: offset}
}

// Read issues a single Read request for up to len(buf) bytes, capped at
// 32 KiB (or the lower WithMaxPacket cap), starting at the cursor's
// current offset, and advances the offset by the number of bytes read;
// it may return fewer bytes than len(buf) without error. A server reply of Status(Eof) surfaces as (0, io.EOF),
// matching io.Reader's contract, not as a ProtocolError.
func (f *File) Read(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	length := len(buf)
	if max := f.h.client.maxChunk; length > max {
		length = max
	}

	data, eof, err := f.h.client.readAt(ctx, f.h.handle, f.offset, uint32(length))
	if err != nil {
		return 0, err
	}
	if eof {
		return 0, io.EOF
	}

	n := copy(buf, data)
	f.offset += uint64(n)
	return n, nil
}

// Write writes every byte of buf, issuing as many chunks of at most 32
// KiB as necessary, and advances the offset by the number of bytes
// submitted: the protocol's Write reply is only a Status, so a
// non-error reply means every submitted byte was accepted.
func (f *File) Write(ctx context.Context, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	max := f.h.client.maxChunk
	var n int
	for n < len(buf) {
		length := len(buf) - n
		if length > max {
			length = max
		}

		if err := f.h.client.writeAt(ctx, f.h.handle, f.offset, buf[n:n+length]); err != nil {
			return n, err
		}

		n += length
		f.offset += uint64(length)
	}

	return n, nil
}

// ReadAt reads len(buf) bytes starting at off, in chunks of at most 32
// KiB, without disturbing the cursor's sequential offset — mirroring
// os.File.ReadAt. It keeps issuing chunks at the advancing offset until
// buf is full or a reply reports an error; a Status(Eof) reply short of
// a full buf surfaces as io.EOF, per io.ReaderAt's contract.
func (f *File) ReadAt(ctx context.Context, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &IOError{Kind: "invalid", Msg: "negative offset for ReadAt"}
	}
	if len(buf) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	max := f.h.client.maxChunk
	offset := uint64(off)
	var n int
	for n < len(buf) {
		length := len(buf) - n
		if length > max {
			length = max
		}

		data, eof, err := f.h.client.readAt(ctx, f.h.handle, offset, uint32(length))
		if err != nil {
			return n, err
		}
		if eof {
			return n, io.EOF
		}

		copied := copy(buf[n:], data)
		n += copied
		offset += uint64(copied)
	}

	return n, nil
}

// WriteAt writes every byte of buf starting at off, in chunks of at
// most 32 KiB, without disturbing the cursor's sequential offset —
// mirroring os.File.WriteAt.
func (f *File) WriteAt(ctx context.Context, buf []byte, off int64) (int, error) {
	if off < 0 {
		return 0, &IOError{Kind: "invalid", Msg: "negative offset for WriteAt"}
	}
	if len(buf) == 0 {
		return 0, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	max := f.h.client.maxChunk
	offset := uint64(off)
	var n int
	for n < len(buf) {
		length := len(buf) - n
		if length > max {
			length = max
		}

		if err := f.h.client.writeAt(ctx, f.h.handle, offset, buf[n:n+length]); err != nil {
			return n, err
		}

		n += length
		offset += uint64(length)
	}

	return n, nil
}

// Seek repositions the cursor. SeekEnd issues an FStat to learn the
// remote size; it fails with an IOError of kind "unsupported" if the
// server's reply omits size, or kind "invalid" on signed overflow in
// either direction.
func (f *File) Seek(ctx context.Context, offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, ErrFileClosed
	}

	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, &IOError{Kind: "invalid", Msg: "negative offset for SeekStart"}
		}
		f.offset = uint64(offset)

	case io.SeekCurrent:
		n, ok := addSignedUint64(f.offset, offset)
		if !ok {
			return 0, &IOError{Kind: "invalid", Msg: "seek would move before the start of the file"}
		}
		f.offset = n

	case io.SeekEnd:
		attrs, err := f.h.client.fstat(ctx, f.h.handle)
		if err != nil {
			return 0, err
		}
		if attrs.Size == nil {
			return 0, &IOError{Kind: "unsupported", Msg: "server did not report a size to seek from"}
		}
		n, ok := addSignedUint64(*attrs.Size, offset)
		if !ok {
			return 0, &IOError{Kind: "invalid", Msg: "seek would move before the start of the file"}
		}
		f.offset = n

	default:
		return 0, &IOError{Kind: "invalid", Msg: "unknown whence value"}
	}

	return int64(f.offset), nil
}

// addSignedUint64 computes base+delta, reporting false on overflow past
// zero or past the range of a uint64 in either direction.
func addSignedUint64(base uint64, delta int64) (uint64, bool) {
	if delta >= 0 {
		n := base + uint64(delta)
		if n < base {
			return 0, false
		}
		return n, true
	}
	d := uint64(-delta)
	if d > base {
		return 0, false
	}
	return base - d, true
}

// Stat reads the current attributes of the open file.
func (f *File) Stat(ctx context.Context) (Attrs, error) {
	return f.h.client.fstat(ctx, f.h.handle)
}

// SetStat sets attributes on the open file.
func (f *File) SetStat(ctx context.Context, attrs Attrs) error {
	return f.h.client.fsetstat(ctx, f.h.handle, attrs)
}

// Close releases this cursor's reference to the remote handle. It is
// idempotent: a second Close on the same File resolves immediately with
// a nil error without touching the shared handle again. If another
// clone's Close is already in flight when the last reference is
// released, this call waits for it and returns its result rather than
// issuing a second protocol Close.
func (f *File) Close(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	f.mu.Unlock()

	return f.h.release(ctx)
}

// ErrFileClosed is returned by any operation on a File after its own
// Close has been called, whether or not the underlying handle has
// actually reached the server yet.
var ErrFileClosed = &IOError{Kind: "closed", Msg: "file is closed"}
