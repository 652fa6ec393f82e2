package sftp_test

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

// Directory iteration: two batches then Eof yields the flat, in-order
// sequence of every entry, then termination.
func TestDirIterationTwoBatchesThenEOF(t *testing.T) {
	c, srv := newTestClient(t)

	serverErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if err := srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "D"}); err != nil {
			serverErr <- err
			return
		}

		for _, names := range [][]string{{"a", "b", "c"}, {"d", "e"}} {
			raw, err := srv.ReadRaw()
			if err != nil {
				serverErr <- err
				return
			}
			entries := make([]*sshfx.NameEntry, len(names))
			for i, n := range names {
				entries[i] = &sshfx.NameEntry{Filename: n}
			}
			if err := srv.Reply(raw.RequestID, &sshfx.NamePacket{Entries: entries}); err != nil {
				serverErr <- err
				return
			}
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if err := srv.Status(raw.RequestID, sshfx.StatusEOF, ""); err != nil {
			serverErr <- err
			return
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		serverErr <- srv.Status(raw.RequestID, sshfx.StatusOK, "")
	}()

	dir, err := c.OpenDir(context.Background(), "/d")
	require.NoError(t, err)

	var got []string
	for {
		e, err := dir.Next(context.Background())
		require.NoError(t, err)
		if e == nil {
			break
		}
		got = append(got, e.Filename)
	}
	require.NoError(t, dir.Close(context.Background()))
	require.NoError(t, <-serverErr)

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, got)
}

// An Ok batch that turns out empty is not the same thing as Eof: the
// protocol only uses it to mean "nothing in this particular reply", so
// it surfaces as io.ErrUnexpectedEOF rather than silent termination.
func TestDirEmptyBatchIsUnexpectedEOF(t *testing.T) {
	c, srv := newTestClient(t)

	serverErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if err := srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "D"}); err != nil {
			serverErr <- err
			return
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		serverErr <- srv.Reply(raw.RequestID, &sshfx.NamePacket{})
	}()

	dir, err := c.OpenDir(context.Background(), "/d")
	require.NoError(t, err)

	_, err = dir.Next(context.Background())
	require.NoError(t, <-serverErr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

// Close always issues the protocol Close, even when Eof was already
// observed: reaching Eof ends the listing stream but does not itself
// release the server-side handle.
func TestDirCloseAfterEOFStillIssuesClose(t *testing.T) {
	c, srv := newTestClient(t)

	serverErr := make(chan error, 1)
	go func() {
		raw, err := srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if err := srv.Reply(raw.RequestID, &sshfx.HandlePacket{Handle: "D"}); err != nil {
			serverErr <- err
			return
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if err := srv.Status(raw.RequestID, sshfx.StatusEOF, ""); err != nil {
			serverErr <- err
			return
		}

		raw, err = srv.ReadRaw()
		if err != nil {
			serverErr <- err
			return
		}
		if raw.Type != sshfx.PacketTypeClose {
			serverErr <- fmt.Errorf("expected Close, got %v", raw.Type)
			return
		}
		serverErr <- srv.Status(raw.RequestID, sshfx.StatusOK, "")
	}()

	dir, err := c.OpenDir(context.Background(), "/d")
	require.NoError(t, err)

	e, err := dir.Next(context.Background())
	require.NoError(t, err)
	assert.Nil(t, e)

	require.NoError(t, dir.Close(context.Background()))
	require.NoError(t, <-serverErr)

	// A second Close is a no-op, not a second protocol request.
	assert.NoError(t, dir.Close(context.Background()))
}
