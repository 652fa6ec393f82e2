package sftp

import (
	"fmt"
	"io"
	"io/fs"

	"github.com/pkg/errors"
)

// ClientError is implemented by every error this package returns from a
// protocol operation, letting callers switch on the failure category
// without string-matching.
type ClientError interface {
	error
	clientError()
}

// ProtocolError wraps a non-Ok Status returned verbatim by the server.
type ProtocolError struct {
	Status Status
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("sftp: %s: %s", e.Status.Code, e.Status.Err)
}

func (*ProtocolError) clientError() {}

// Is reports whether target names the same StatusCode, so callers can
// write errors.Is(err, sftp.ErrNoSuchFile) instead of a type assertion.
func (e *ProtocolError) Is(target error) bool {
	code, ok := target.(StatusCode)
	return ok && e.Status.Code == code
}

// WireError reports a codec failure: a frame could not be encoded or a
// reply could not be decoded into any known packet shape.
type WireError struct {
	Err error
}

func (e *WireError) Error() string { return fmt.Sprintf("sftp: wire: %s", e.Err) }
func (e *WireError) Unwrap() error { return e.Err }
func (*WireError) clientError()    {}

// TransportError reports a failure of the underlying byte stream itself
// (read/write error, unexpected close) as distinct from a malformed
// message on an otherwise healthy stream.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sftp: transport (%s): %s", e.Kind, e.Err)
}
func (e *TransportError) Unwrap() error { return e.Err }
func (*TransportError) clientError()    {}

// IOError reports a local I/O failure not otherwise categorized (e.g. a
// seek computation that cannot be satisfied).
type IOError struct {
	Kind string
	Msg  string
}

func (e *IOError) Error() string     { return fmt.Sprintf("sftp: io (%s): %s", e.Kind, e.Msg) }
func (*IOError) clientError()        {}

// BadMessage builds a WireError for a reply that was well-formed on the
// wire but semantically wrong: an unexpected variant, a cardinality
// violation (RealPath with zero or multiple names), or a flag combination
// the protocol forbids.
func BadMessage(format string, args ...any) error {
	return &WireError{Err: errors.Errorf(format, args...)}
}

// ToIOErrKind maps a protocol Status onto the stdlib's portable
// fs.PathError-compatible sentinels, per the table in the status and
// error model: a caller that only wants to know "does not exist" /
// "permission denied" does not need to inspect the StatusCode directly.
func ToIOErrKind(status Status) error {
	switch status.Code {
	case Ok:
		return nil
	case Eof:
		return io.ErrUnexpectedEOF
	case NoSuchFile:
		return fs.ErrNotExist
	case PermissionDenied:
		return fs.ErrPermission
	case BadMessageCode:
		return errUnexpectedData
	case OpUnsupported:
		return errUnsupportedOp
	default: // Failure, NoConnection, ConnectionLost, and anything else: no portable analogue
		return errors.New(status.Err)
	}
}

var (
	errUnexpectedData = errors.New("sftp: invalid data")
	errUnsupportedOp  = errors.New("sftp: operation not supported by server")
)

// ErrSessionStopped is returned by every client/cursor method once the
// multiplexer has shut down, whether due to a transport failure or a
// deliberate Close.
var ErrSessionStopped = &TransportError{Kind: "stopped", Err: errors.New("sftp: session has been stopped")}
