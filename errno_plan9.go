//go:build plan9

package sftp

import "syscall"

// Errno translates a server status into the syscall.ErrorString plan9
// uses in place of an errno: NoSuchFile becomes ENOENT and
// PermissionDenied becomes EPERM. ok is false for every other status,
// OpUnsupported included.
func (e *ProtocolError) Errno() (errno syscall.ErrorString, ok bool) {
	switch e.Status.Code {
	case NoSuchFile:
		return syscall.ENOENT.(syscall.ErrorString), true
	case PermissionDenied:
		return syscall.EPERM.(syscall.ErrorString), true
	default:
		return "", false
	}
}
