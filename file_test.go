package sftp_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gosftp "github.com/aneoconsulting/gosftp"
	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

// File EOF: a Read whose reply is Status(Eof) surfaces as a zero-byte
// read via io.EOF, not as a ProtocolError.
func TestFileReadEOF(t *testing.T) {
	c, srv := newTestClient(t)

	openErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			openErr <- err
			return
		}
		openErr <- srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "h"})
	}()

	f, err := c.OpenFile(context.Background(), "/empty")
	require.NoError(t, err)
	require.NoError(t, <-openErr)

	readErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			readErr <- err
			return
		}
		readErr <- srv.Status(raw.RequestID, sshfx.StatusEOF, "")
	}()

	buf := make([]byte, 16)
	n, err := f.Read(context.Background(), buf)
	require.NoError(t, <-readErr)

	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
}

// Scenario 4: seek from end. A reported size of 100 resolves SeekEnd(-10)
// to offset 90, and SeekEnd(-200) fails rather than going negative.
func TestFileSeekFromEnd(t *testing.T) {
	c, srv := newTestClient(t)

	openErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			openErr <- err
			return
		}
		openErr <- srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "h"})
	}()

	f, err := c.OpenFile(context.Background(), "/sized")
	require.NoError(t, err)
	require.NoError(t, <-openErr)

	fstatErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			fstatErr <- err
			return
		}
		fstatErr <- srv.Reply(raw.RequestID, &sshfx.AttrsPacket{
			Attrs: sshfx.Attributes{Flags: sshfx.AttrSize, Size: 100},
		})
	}()

	off, err := f.Seek(context.Background(), -10, io.SeekEnd)
	require.NoError(t, err)
	require.NoError(t, <-fstatErr)
	assert.Equal(t, int64(90), off)

	fstatErr2 := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			fstatErr2 <- err
			return
		}
		fstatErr2 <- srv.Reply(raw.RequestID, &sshfx.AttrsPacket{
			Attrs: sshfx.Attributes{Flags: sshfx.AttrSize, Size: 100},
		})
	}()

	_, err = f.Seek(context.Background(), -200, io.SeekEnd)
	require.NoError(t, <-fstatErr2)
	require.Error(t, err)

	var ioErr *gosftp.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "invalid", ioErr.Kind)
}

// Clone shares one remote handle: the protocol Close is issued exactly
// once, after both clones have released their reference.
func TestFileCloneSharesHandle(t *testing.T) {
	c, srv := newTestClient(t)

	openErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			openErr <- err
			return
		}
		openErr <- srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "shared"})
	}()

	f, err := c.OpenFile(context.Background(), "/x")
	require.NoError(t, err)
	require.NoError(t, <-openErr)

	clone := f.Clone()

	require.NoError(t, f.Close(context.Background()))

	closeCount := make(chan int, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			closeCount <- -1
			return
		}
		if raw.Type != sshfx.PacketTypeClose {
			closeCount <- -1
			return
		}
		if err := srv.Status(raw.RequestID, sshfx.StatusOK, ""); err != nil {
			closeCount <- -1
			return
		}
		closeCount <- 1
	}()

	require.NoError(t, clone.Close(context.Background()))
	assert.Equal(t, 1, <-closeCount)

	// Closing either cursor again is a no-op, not a second protocol Close.
	assert.NoError(t, f.Close(context.Background()))
	assert.NoError(t, clone.Close(context.Background()))
}
