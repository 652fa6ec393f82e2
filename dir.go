package sftp

import (
	"context"
	"io"
	"sync"
)

// Dir is a cursor over a remote open directory: single ownership (unlike
// File, it is never cloned), an in-memory buffer of entries not yet
// handed to the caller, and lazy ReadDir fetches as the buffer empties.
type Dir struct {
	client *Client
	handle string

	mu      sync.Mutex
	buf     []*NameEntry // reversed: Next pops the tail
	eof     bool         // the server has reported Eof; no more fetches
	closed  bool
	closeErr error
	didStop bool
}

func newDir(c *Client, handle string) *Dir {
	return &Dir{client: c, handle: handle}
}

// Next returns the next entry in the listing, or (nil, nil) once the
// sequence is exhausted. It fetches a new batch from the server whenever
// the local buffer runs dry; an Ok batch that turns out to be empty
// surfaces as io.ErrUnexpectedEOF, since the protocol only uses an empty
// Name reply to mean "no more in THIS batch", and Eof is a distinct
// reply the caller is meant to see as termination, not as this error.
func (d *Dir) Next(ctx context.Context) (*NameEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, io.ErrClosedPipe
	}

	if n := len(d.buf); n > 0 {
		entry := d.buf[n-1]
		d.buf = d.buf[:n-1]
		return entry, nil
	}

	if d.eof {
		return nil, nil
	}

	batch, eof, err := d.client.readDirBatch(ctx, d.handle)
	if err != nil {
		return nil, err
	}
	if eof {
		d.eof = true
		return nil, nil
	}
	if len(batch) == 0 {
		return nil, io.ErrUnexpectedEOF
	}

	for i, j := 0, len(batch)-1; i < j; i, j = i+1, j-1 {
		batch[i], batch[j] = batch[j], batch[i]
	}
	entry := batch[len(batch)-1]
	d.buf = batch[:len(batch)-1]
	return entry, nil
}

// Close releases the remote directory handle. It is idempotent: once
// called, every subsequent Next reports a closed-directory error rather
// than resuming iteration, and a second Close resolves immediately.
func (d *Dir) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.didStop {
		err := d.closeErr
		d.mu.Unlock()
		return err
	}
	d.didStop = true
	d.closed = true
	d.mu.Unlock()

	err := d.client.closeHandle(ctx, d.handle)

	d.mu.Lock()
	d.closeErr = err
	d.mu.Unlock()
	return err
}
