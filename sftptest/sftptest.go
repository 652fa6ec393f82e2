// Package sftptest provides an in-process scripted SFTP server for
// exercising gosftp's client against canned replies instead of a real
// sshd, the same role the teacher's request-server_test.go/server_test.go
// harnesses fill for its own test suite.
package sftptest

import (
	"io"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

const protocolVersion = 3

// Server is the test's handle onto the server side of an in-process
// session: it reads exactly what the Client under test writes, and
// writes exactly what that Client reads. It drives no loop of its own —
// a test's server behavior is an ordinary sequence of ReadRaw/Reply
// calls, typically run on a separate goroutine from the Client calls
// they answer.
type Server struct {
	r io.Reader
	w io.Writer
}

// New wires up a pair of in-process pipes and returns the server side
// plus the client-facing io.ReadWriteCloser to pass to sftp.NewClientPipe
// (or the separate reader/writer to sftp.NewClient).
func New() (srv *Server, clientConn io.ReadWriteCloser) {
	clientReads, serverWrites := io.Pipe()
	serverReads, clientWrites := io.Pipe()

	srv = &Server{r: serverReads, w: serverWrites}
	clientConn = &pipeConn{r: clientReads, w: clientWrites}
	return srv, clientConn
}

// pipeConn adapts a pair of *io.Pipe halves into a single
// io.ReadWriteCloser, the shape NewClientPipe expects.
type pipeConn struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (c *pipeConn) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *pipeConn) Write(p []byte) (int, error) { return c.w.Write(p) }
func (c *pipeConn) Close() error {
	c.r.CloseWithError(io.ErrClosedPipe)
	return c.w.Close()
}

// Handshake consumes the client's Init frame and replies with Version,
// advertising version (ordinarily protocolVersion, but a scripted
// WithVersionCheck(false) test may want to hand back something else).
func (srv *Server) Handshake(version uint32) error {
	if _, err := srv.readInit(); err != nil {
		return err
	}
	return srv.writeVersion(version)
}

func (srv *Server) readInit() (*sshfx.InitPacket, error) {
	raw, err := readUnidentifiedFrame(srv.r)
	if err != nil {
		return nil, err
	}

	init := new(sshfx.InitPacket)
	if err := init.UnmarshalPacketBody(raw); err != nil {
		return nil, err
	}
	return init, nil
}

func (srv *Server) writeVersion(version uint32) error {
	pkt := &sshfx.VersionPacket{Version: version}
	data, err := pkt.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = srv.w.Write(data)
	return err
}

// readUnidentifiedFrame reads one length-prefixed frame and returns its
// body (type byte already consumed) as a Buffer positioned right after
// the type byte — the shape Init and Version need, since neither carries
// a request ID the way every other packet does.
func readUnidentifiedFrame(r io.Reader) (*sshfx.Buffer, error) {
	var lengthBytes [4]byte
	if _, err := io.ReadFull(r, lengthBytes[:]); err != nil {
		return nil, err
	}

	length := sshfx.NewBuffer(lengthBytes[:])
	size, err := length.ConsumeUint32()
	if err != nil {
		return nil, err
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	buf := sshfx.NewBuffer(body)
	if _, err := buf.ConsumeUint8(); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRaw reads the next client request frame.
func (srv *Server) ReadRaw() (*sshfx.RawPacket, error) {
	return sshfx.ReadRawPacket(srv.r)
}

// Reply writes a reply packet tagged with id, the request ID the client
// is waiting on.
func (srv *Server) Reply(id uint32, p sshfx.Packet) error {
	return sshfx.WritePacket(srv.w, id, p)
}

// Status is a convenience for the single most common reply shape.
func (srv *Server) Status(id uint32, code sshfx.Status, msg string) error {
	return srv.Reply(id, &sshfx.StatusPacket{StatusCode: code, ErrorMessage: msg, LanguageTag: "en"})
}

// Close closes both halves of the in-process pipe from the server side.
func (srv *Server) Close() error {
	var err error
	if c, ok := srv.r.(io.Closer); ok {
		err = c.Close()
	}
	if c, ok := srv.w.(io.Closer); ok {
		if werr := c.Close(); err == nil {
			err = werr
		}
	}
	return err
}
