package sftp

import (
	"fmt"

	sshfx "github.com/aneoconsulting/gosftp/internal/encoding/ssh/filexfer"
)

// StatusCode is the closed set of SSH_FX_* codes defined by
// draft-ietf-secsh-filexfer-02. A Status reply carrying a code outside
// this set fails to decode, so the caller receives a *WireError, never a
// ProtocolError with a silently accepted tenth value.
type StatusCode uint32

// The nine status codes filexfer-02 defines.
const (
	Ok StatusCode = StatusCode(sshfx.StatusOK)
	Eof StatusCode = StatusCode(sshfx.StatusEOF)
	NoSuchFile StatusCode = StatusCode(sshfx.StatusNoSuchFile)
	PermissionDenied StatusCode = StatusCode(sshfx.StatusPermissionDenied)
	Failure StatusCode = StatusCode(sshfx.StatusFailure)
	BadMessageCode StatusCode = StatusCode(sshfx.StatusBadMessage)
	NoConnection StatusCode = StatusCode(sshfx.StatusNoConnection)
	ConnectionLost StatusCode = StatusCode(sshfx.StatusConnectionLost)
	OpUnsupported StatusCode = StatusCode(sshfx.StatusOPUnsupported)
)

func (c StatusCode) String() string {
	return sshfx.Status(c).String()
}

// Error satisfies the error interface, so a StatusCode can be passed
// directly as the target of errors.Is against a *ProtocolError.
func (c StatusCode) Error() string {
	return c.String()
}

// The named sentinels callers match a *ProtocolError against, e.g.
// errors.Is(err, sftp.ErrNoSuchFile).
var (
	ErrEOF              error = Eof
	ErrNoSuchFile       error = NoSuchFile
	ErrPermissionDenied error = PermissionDenied
	ErrFailure          error = Failure
	ErrBadMessage       error = BadMessageCode
	ErrNoConnection     error = NoConnection
	ErrConnectionLost   error = ConnectionLost
	ErrOpUnsupported    error = OpUnsupported
)

// Status is the server's verdict on a request: code Ok means success,
// anything else is an error, optionally explained by Err and tagged with
// a RFC 1766-style language code in Lang.
type Status struct {
	Code StatusCode
	Err  string
	Lang string
}

// NewStatus builds a Status for code, filling in a human-readable default
// message when msg is empty and tagging the language "en", for a status
// constructed locally rather than relayed verbatim from the wire.
func NewStatus(code StatusCode, msg string) Status {
	if msg == "" {
		msg = defaultStatusMessage(code)
	}
	return Status{Code: code, Err: msg, Lang: "en"}
}

func defaultStatusMessage(code StatusCode) string {
	switch code {
	case Ok:
		return "ok"
	case Eof:
		return "end of file"
	case NoSuchFile:
		return "no such file"
	case PermissionDenied:
		return "permission denied"
	case Failure:
		return "failure"
	case BadMessageCode:
		return "bad message"
	case NoConnection:
		return "no connection"
	case ConnectionLost:
		return "connection lost"
	case OpUnsupported:
		return "operation unsupported"
	default:
		return fmt.Sprintf("unknown status %d", uint32(code))
	}
}

func statusFromPacket(p *sshfx.StatusPacket) Status {
	return Status{
		Code: StatusCode(p.StatusCode),
		Err:  p.ErrorMessage,
		Lang: p.LanguageTag,
	}
}

func (s Status) toPacket() *sshfx.StatusPacket {
	return &sshfx.StatusPacket{
		StatusCode:   sshfx.Status(s.Code),
		ErrorMessage: s.Err,
		LanguageTag:  s.Lang,
	}
}
