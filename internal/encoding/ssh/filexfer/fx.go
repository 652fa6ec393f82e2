package filexfer

import "fmt"

// Status is the closed set of SSH_FX_* codes defined by
// draft-ietf-secsh-filexfer-02 section 7. Unlike later protocol drafts,
// this set is not open for extension: a value outside it is a protocol
// violation, not a forward-compatible unknown code.
type Status uint32

// The nine filexfer-02 status codes.
const (
	StatusOK = Status(iota)
	StatusEOF
	StatusNoSuchFile
	StatusPermissionDenied
	StatusFailure
	StatusBadMessage
	StatusNoConnection
	StatusConnectionLost
	StatusOPUnsupported

	numStatusCodes
)

// Valid reports whether f is one of the nine codes this draft defines.
func (f Status) Valid() bool {
	return f < numStatusCodes
}

func (f Status) String() string {
	switch f {
	case StatusOK:
		return "SSH_FX_OK"
	case StatusEOF:
		return "SSH_FX_EOF"
	case StatusNoSuchFile:
		return "SSH_FX_NO_SUCH_FILE"
	case StatusPermissionDenied:
		return "SSH_FX_PERMISSION_DENIED"
	case StatusFailure:
		return "SSH_FX_FAILURE"
	case StatusBadMessage:
		return "SSH_FX_BAD_MESSAGE"
	case StatusNoConnection:
		return "SSH_FX_NO_CONNECTION"
	case StatusConnectionLost:
		return "SSH_FX_CONNECTION_LOST"
	case StatusOPUnsupported:
		return "SSH_FX_OP_UNSUPPORTED"
	default:
		return fmt.Sprintf("SSH_FX_UNKNOWN(%d)", uint32(f))
	}
}
