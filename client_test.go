package sftp_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gosftp "github.com/aneoconsulting/gosftp"
	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
	"github.com/aneoconsulting/gosftp/sftptest"
)

// newTestClient wires a Client to an in-process sftptest.Server and
// completes the handshake before returning, the way every end-to-end
// scenario below assumes.
func newTestClient(t *testing.T, opts ...gosftp.ClientOption) (*gosftp.Client, *sftptest.Server) {
	t.Helper()

	srv, conn := sftptest.New()

	handshakeErr := make(chan error, 1)
	go func() { handshakeErr <- srv.Handshake(3) }()

	c, err := gosftp.NewClientPipe(context.Background(), conn, opts...)
	require.NoError(t, err)
	require.NoError(t, <-handshakeErr)

	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})

	return c, srv
}

// Scenario 1: version handshake. A server that doesn't negotiate version
// 3 is rejected.
func TestClientRejectsWrongVersion(t *testing.T) {
	srv, conn := sftptest.New()

	handshakeErr := make(chan error, 1)
	go func() { handshakeErr <- srv.Handshake(4) }()

	_, err := gosftp.NewClientPipe(context.Background(), conn)
	require.Error(t, err)
	require.NoError(t, <-handshakeErr)
}

// WithVersionCheck(false) accepts a server that negotiates anything.
func TestClientSkipVersionCheck(t *testing.T) {
	srv, conn := sftptest.New()

	handshakeErr := make(chan error, 1)
	go func() { handshakeErr <- srv.Handshake(4) }()

	c, err := gosftp.NewClientPipe(context.Background(), conn, gosftp.WithVersionCheck(false))
	require.NoError(t, err)
	require.NoError(t, <-handshakeErr)
	defer c.Close()
	defer srv.Close()
}

// Scenario 2: stat a path.
func TestClientStat(t *testing.T) {
	c, srv := newTestClient(t)

	replyErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			replyErr <- err
			return
		}
		if raw.Type != sshfx.PacketTypeStat {
			replyErr <- fmt.Errorf("unexpected packet type %v", raw.Type)
			return
		}
		replyErr <- srv.Reply(raw.RequestID, &sshfx.AttrsPacket{
			Attrs: sshfx.Attributes{Flags: sshfx.AttrSize, Size: 42},
		})
	}()

	attrs, err := c.Stat(context.Background(), "/a")
	require.NoError(t, err)
	require.NoError(t, <-replyErr)

	require.NotNil(t, attrs.Size)
	assert.Equal(t, uint64(42), *attrs.Size)
	assert.Nil(t, attrs.UID)
	assert.Nil(t, attrs.Permissions)
}

// Scenario 3: write chunking. A 48 KiB write is split into two frames at
// the 32 KiB boundary, both offsets correct, and the cursor's final
// offset reflects every submitted byte.
func TestFileWriteChunking(t *testing.T) {
	c, srv := newTestClient(t)

	openErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			openErr <- err
			return
		}
		if raw.Type != sshfx.PacketTypeOpen {
			openErr <- fmt.Errorf("expected Open, got %v", raw.Type)
			return
		}
		openErr <- srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "h"})
	}()

	f, err := c.Create(context.Background(), "/big")
	require.NoError(t, err)
	require.NoError(t, <-openErr)

	const total = 48 * 1024
	buf := make([]byte, total)
	for i := range buf {
		buf[i] = byte(i)
	}

	type chunk struct {
		offset uint64
		length int
	}
	seen := make(chan chunk, 2)
	writeErr := make(chan error, 1)
	go func() {
		for i := 0; i < 2; i++ {
			raw, err := srv.ReadRaw()
			if err != nil {
				writeErr <- err
				return
			}
			if raw.Type != sshfx.PacketTypeWrite {
				writeErr <- fmt.Errorf("expected Write, got %v", raw.Type)
				return
			}
			p, err := raw.RequestPacket()
			if err != nil {
				writeErr <- err
				return
			}
			w := p.(*sshfx.WritePacket)
			seen <- chunk{w.Offset, len(w.Data)}
			if err := srv.Status(raw.RequestID, sshfx.StatusOK, ""); err != nil {
				writeErr <- err
				return
			}
		}
		writeErr <- nil
	}()

	n, err := f.Write(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, total, n)

	off, err := f.Seek(context.Background(), 0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(total), off)

	first := <-seen
	second := <-seen
	require.NoError(t, <-writeErr)
	assert.Equal(t, uint64(0), first.offset)
	assert.Equal(t, 32*1024, first.length)
	assert.Equal(t, uint64(32*1024), second.offset)
	assert.Equal(t, 16*1024, second.length)
}

// Scenario 5: readdir composite. Two Name batches then Eof flatten into
// a single ordered slice, and Close is still issued.
func TestClientReadDirComposite(t *testing.T) {
	c, srv := newTestClient(t)

	serverDone := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			serverDone <- err
			return
		}
		if err := srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "H"}); err != nil {
			serverDone <- err
			return
		}

		batches := [][]string{{"n1", "n2"}, {"n3"}}
		for _, names := range batches {
			raw, err := srv.ReadRaw()
			if err != nil {
				serverDone <- err
				return
			}
			entries := make([]*sshfx.NameEntry, len(names))
			for i, name := range names {
				entries[i] = &sshfx.NameEntry{Filename: name}
			}
			if err := srv.Reply(raw.RequestID, &sshfx.NamePacket{Entries: entries}); err != nil {
				serverDone <- err
				return
			}
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverDone <- err
			return
		}
		if err := srv.Status(raw.RequestID, sshfx.StatusEOF, ""); err != nil {
			serverDone <- err
			return
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverDone <- err
			return
		}
		if raw.Type != sshfx.PacketTypeClose {
			serverDone <- fmt.Errorf("expected Close, got %v", raw.Type)
			return
		}
		serverDone <- srv.Status(raw.RequestID, sshfx.StatusOK, "")
	}()

	entries, err := c.ReadDir(context.Background(), "/dir")
	require.NoError(t, err)
	require.NoError(t, <-serverDone)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Filename
	}
	assert.Equal(t, []string{"n1", "n2", "n3"}, names)
}

