package sftp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
	"github.com/aneoconsulting/gosftp/sftptest"
)

func newTestConn(t *testing.T) (*conn, *sftptest.Server) {
	t.Helper()

	srv, clientConn := sftptest.New()

	handshakeErr := make(chan error, 1)
	go func() { handshakeErr <- srv.Handshake(protocolVersion) }()

	c, err := newConn(context.Background(), clientConn, clientConn, nil, false)
	if err != nil {
		t.Fatalf("newConn: %v", err)
	}
	if err := <-handshakeErr; err != nil {
		t.Fatalf("server handshake: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
		srv.Close()
	})

	return c, srv
}

// Request identity: issuing N requests before any reply arrives writes
// IDs 1..N, in order, to the wire.
func TestConnRequestIdentity(t *testing.T) {
	c, srv := newTestConn(t)

	const n = 5
	for i := 0; i < n; i++ {
		go c.roundTrip(context.Background(), &sshfx.LstatPacket{Path: fmt.Sprintf("/%d", i)})

		raw, err := srv.ReadRaw()
		if err != nil {
			t.Fatalf("request %d: ReadRaw: %v", i, err)
		}
		if want := uint32(i + 1); raw.RequestID != want {
			t.Fatalf("request %d: got id %d, want %d", i, raw.RequestID, want)
		}
		if err := srv.Status(raw.RequestID, sshfx.StatusOK, ""); err != nil {
			t.Fatalf("request %d: reply: %v", i, err)
		}
	}
}

// Dispatch: replies arriving in reverse order still reach the waiter that
// issued the matching request, never a different one.
func TestConnDispatchOutOfOrder(t *testing.T) {
	c, srv := newTestConn(t)

	const n = 3
	type result struct {
		raw *sshfx.RawPacket
		err error
	}
	results := make(chan result, n)

	for i := 0; i < n; i++ {
		go func(i int) {
			raw, err := c.roundTrip(context.Background(), &sshfx.OpenPacket{Filename: fmt.Sprintf("/file-%d", i)})
			results <- result{raw, err}
		}(i)
	}

	reqIDs := make([]uint32, n)
	wantHandle := make(map[uint32]string, n)
	for i := 0; i < n; i++ {
		raw, err := srv.ReadRaw()
		if err != nil {
			t.Fatalf("ReadRaw: %v", err)
		}
		p, err := raw.RequestPacket()
		if err != nil {
			t.Fatalf("decode request: %v", err)
		}
		reqIDs[i] = raw.RequestID
		wantHandle[raw.RequestID] = p.(*sshfx.OpenPacket).Filename
	}

	// Reply in reverse order of arrival.
	for i := n - 1; i >= 0; i-- {
		id := reqIDs[i]
		if err := srv.Reply(id, &sshfx.HandlePacket{Handle: wantHandle[id]}); err != nil {
			t.Fatalf("reply id %d: %v", id, err)
		}
	}

	seen := make(map[uint32]bool, n)
	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("roundTrip: %v", r.err)
		}
		p, err := r.raw.RequestPacket()
		if err != nil {
			t.Fatalf("decode reply: %v", err)
		}
		handle := p.(*sshfx.HandlePacket).Handle
		if handle != wantHandle[r.raw.RequestID] {
			t.Fatalf("id %d: got handle %q, want %q", r.raw.RequestID, handle, wantHandle[r.raw.RequestID])
		}
		seen[r.raw.RequestID] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct replies, want %d", len(seen), n)
	}
}

// Cancellation: dropping a request's context before its reply arrives
// does not free or reuse its ID, and the late reply that eventually
// arrives for it is discarded without disturbing later requests.
func TestConnCancellationDoesNotReuseID(t *testing.T) {
	c, srv := newTestConn(t)

	ctx, cancel := context.WithCancel(context.Background())
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.roundTrip(ctx, &sshfx.LstatPacket{Path: "/cancelled"})
		firstDone <- err
	}()

	raw, err := srv.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	firstID := raw.RequestID

	cancel()
	if err := <-firstDone; !errors.Is(err, context.Canceled) {
		t.Fatalf("roundTrip error = %v, want context.Canceled", err)
	}

	secondDone := make(chan *sshfx.RawPacket, 1)
	go func() {
		raw, _ := c.roundTrip(context.Background(), &sshfx.LstatPacket{Path: "/second"})
		secondDone <- raw
	}()

	raw2, err := srv.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if raw2.RequestID == firstID {
		t.Fatalf("second request reused cancelled id %d", firstID)
	}
	if err := srv.Status(raw2.RequestID, sshfx.StatusOK, ""); err != nil {
		t.Fatalf("reply: %v", err)
	}
	<-secondDone

	// The late reply for the cancelled ID must not wedge the receive loop
	// or affect a subsequent, unrelated request.
	if err := srv.Status(firstID, sshfx.StatusOK, "late"); err != nil {
		t.Fatalf("late reply: %v", err)
	}

	thirdDone := make(chan error, 1)
	go func() {
		_, err := c.roundTrip(context.Background(), &sshfx.LstatPacket{Path: "/third"})
		thirdDone <- err
	}()

	raw3, err := srv.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}
	if raw3.RequestID == firstID {
		t.Fatalf("third request reused cancelled id %d", firstID)
	}
	if err := srv.Status(raw3.RequestID, sshfx.StatusOK, ""); err != nil {
		t.Fatalf("reply: %v", err)
	}
	if err := <-thirdDone; err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
}

// Bad reply id: an unmatched reply is dropped, every other in-flight
// waiter is unaffected.
func TestConnUnmatchedReplyDiscarded(t *testing.T) {
	c, srv := newTestConn(t)

	done := make(chan error, 1)
	go func() {
		_, err := c.roundTrip(context.Background(), &sshfx.LstatPacket{Path: "/x"})
		done <- err
	}()

	raw, err := srv.ReadRaw()
	if err != nil {
		t.Fatalf("ReadRaw: %v", err)
	}

	// A reply for an ID nobody is waiting on.
	if err := srv.Status(raw.RequestID+1000, sshfx.StatusOK, ""); err != nil {
		t.Fatalf("bogus reply: %v", err)
	}
	// The real reply still arrives.
	if err := srv.Status(raw.RequestID, sshfx.StatusOK, ""); err != nil {
		t.Fatalf("reply: %v", err)
	}

	if err := <-done; err != nil {
		t.Fatalf("roundTrip: %v", err)
	}
}
