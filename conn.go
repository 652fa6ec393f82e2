package sftp

import (
	"context"
	"io"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
	"github.com/aneoconsulting/gosftp/internal/pragma"
	isync "github.com/aneoconsulting/gosftp/internal/sync"
)

// protocolVersion is the only version this package speaks. A server that
// negotiates anything else during the handshake is rejected outright
// rather than accommodated: there is no draft-02/draft-03 compatibility
// shim here.
const protocolVersion = 3

// reply is what the receive loop delivers to a waiting caller: either the
// decoded packet, or the error encountered trying to produce one.
type reply struct {
	raw *sshfx.RawPacket
	err error
}

// conn is the request-ID multiplexer: one per session, shared by every
// Client, File and Dir cloned from it. It owns the wire and has no notion
// of what an Open or a Read means; that belongs to Client.
type conn struct {
	noCopy pragma.DoNotCopy

	w io.Writer
	r io.Reader

	logger *log.Logger

	nextID uint32 // atomic

	inflight isync.Map[uint32, chan reply]
	stopped  atomic.Bool
	stopMu   sync.Mutex // guards stopErr and the shutdown critical section
	stopErr  error
	done     chan struct{}

	sendMu sync.Mutex

	group  *errgroup.Group
	cancel context.CancelFunc
}

// newConn performs the filexfer-02 handshake (send Init, read Version,
// reject anything but protocolVersion) and starts the background receive
// loop. The returned conn is ready for roundTrip calls.
func newConn(ctx context.Context, w io.Writer, r io.Reader, logger *log.Logger, skipVersionCheck bool) (*conn, error) {
	init := &sshfx.InitPacket{Version: protocolVersion}

	data, err := init.MarshalBinary()
	if err != nil {
		return nil, &WireError{Err: err}
	}
	if _, err := w.Write(data); err != nil {
		return nil, &TransportError{Kind: "write", Err: err}
	}

	version, err := readVersion(r)
	if err != nil {
		return nil, err
	}
	if !skipVersionCheck && version.Version != protocolVersion {
		return nil, BadMessage("server negotiated version %d, want %d", version.Version, protocolVersion)
	}

	cctx, cancel := context.WithCancel(ctx)
	group, _ := errgroup.WithContext(cctx)

	c := &conn{
		w:      w,
		r:      r,
		logger: logger,
		done:   make(chan struct{}),
		group:  group,
		cancel: cancel,
	}

	c.group.Go(c.recvLoop)

	return c, nil
}

// readVersion reads the server's SSH_FXP_VERSION reply. It cannot go
// through ReadRawPacket: Version, unlike every other reply, carries no
// request ID.
func readVersion(r io.Reader) (*sshfx.VersionPacket, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return nil, &TransportError{Kind: "read", Err: err}
	}

	length := sshfx.NewBuffer(lengthBytes[:])
	size, err := length.ConsumeUint32()
	if err != nil {
		return nil, &WireError{Err: err}
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, &TransportError{Kind: "read", Err: err}
	}

	buf := sshfx.NewBuffer(body)
	typ, err := buf.ConsumeUint8()
	if err != nil {
		return nil, &WireError{Err: err}
	}
	if sshfx.PacketType(typ) != sshfx.PacketTypeVersion {
		return nil, BadMessage("expected SSH_FXP_VERSION, got packet type %v", sshfx.PacketType(typ))
	}

	version := new(sshfx.VersionPacket)
	if err := version.UnmarshalPacketBody(buf); err != nil {
		return nil, &WireError{Err: err}
	}
	return version, nil
}

// roundTrip assigns req a fresh ID, writes it, and waits for the matching
// reply. The ID is registered in the in-flight table before its frame is
// written, so a reply can never arrive ahead of its entry; the entry is
// withdrawn again only if the encode or write fails or the session has
// stopped meanwhile. Dropping the context (cancellation) after that point
// never causes an ID to be reused while a reply for it is still
// outstanding: the entry is removed only by the receive loop, when the
// matching reply actually arrives, or by shutdown.
func (c *conn) roundTrip(ctx context.Context, req sshfx.Packet) (*sshfx.RawPacket, error) {
	if c.stopped.Load() {
		return nil, ErrSessionStopped
	}

	id := atomic.AddUint32(&c.nextID, 1)
	ch := make(chan reply, 1)

	c.sendMu.Lock()
	c.inflight.Store(id, ch)
	err := sshfx.WritePacket(c.w, id, req)
	if err == nil && c.stopped.Load() {
		err = c.loadStopErr()
	}
	if err != nil {
		c.inflight.Delete(id)
	}
	c.sendMu.Unlock()

	if err != nil {
		return nil, err
	}

	select {
	case rep := <-ch:
		return rep.raw, rep.err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, c.loadStopErr()
	}
}

func (c *conn) loadStopErr() error {
	c.stopMu.Lock()
	defer c.stopMu.Unlock()
	return c.stopErr
}

// recvLoop is the conn's single reader. It owns c.r for the lifetime of
// the session; nothing else may read from it.
func (c *conn) recvLoop() error {
	for {
		raw, err := sshfx.ReadRawPacket(c.r)
		if err != nil {
			c.shutdown(&TransportError{Kind: "read", Err: err})
			return err
		}

		switch raw.Type {
		case sshfx.PacketTypeStatus, sshfx.PacketTypeHandle, sshfx.PacketTypeData,
			sshfx.PacketTypeName, sshfx.PacketTypeAttrs, sshfx.PacketTypeExtendedReply:
		default:
			err := BadMessage("unexpected packet type from server: %v", raw.Type)
			if ch, ok := c.inflight.LoadAndDelete(raw.RequestID); ok {
				ch <- reply{err: err}
			} else if c.logger != nil {
				c.logger.Printf("sftp: discarding reply for unknown request id %d: %v", raw.RequestID, err)
			}
			continue
		}

		ch, ok := c.inflight.LoadAndDelete(raw.RequestID)

		if !ok {
			// No request is waiting under this ID: it was never assigned,
			// or its reply was already delivered. Not an error, just
			// discarded. (A request whose caller gave up keeps its entry,
			// so its late reply lands in that entry's buffered channel.)
			if c.logger != nil {
				c.logger.Printf("sftp: discarding reply for unknown request id %d", raw.RequestID)
			}
			continue
		}

		ch <- reply{raw: raw}
	}
}

// shutdown marks the conn stopped and delivers err to every request still
// waiting on a reply, exactly once no matter how many goroutines observe
// the failure concurrently.
func (c *conn) shutdown(err error) {
	if !c.stopped.CompareAndSwap(false, true) {
		return
	}

	c.stopMu.Lock()
	c.stopErr = err
	c.stopMu.Unlock()

	c.inflight.Range(func(id uint32, ch chan reply) bool {
		ch <- reply{err: err}
		c.inflight.Delete(id)
		return true
	})
	close(c.done)
}

// Close stops the session and fails every in-flight request with
// ErrSessionStopped. It does not close the underlying reader or writer;
// the caller owns those (typically an ssh.Session's pipes).
//
// Close does not wait for the receive loop: that goroutine stays blocked
// in its current read until the stream delivers data or its owner closes
// it. Whatever it reads after Close is discarded, since shutdown has
// emptied the in-flight table, and it exits at its first failed read.
func (c *conn) Close() error {
	c.shutdown(ErrSessionStopped)
	c.cancel()
	return nil
}
