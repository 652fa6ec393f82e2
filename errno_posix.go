//go:build !plan9
// +build !plan9

package sftp

import "syscall"

// Errno translates a server status into the syscall.Errno a caller
// checking os.IsNotExist/os.IsPermission-style predicates on a wrapped
// *os.PathError would expect. It is the reverse of the translation a
// server performs when it turns a local I/O error into a wire Status;
// here the wire Status is already known and the platform errno is what's
// missing. ok is false for any status with no close platform analogue
// (Failure, NoConnection, ConnectionLost and the like).
func (e *ProtocolError) Errno() (errno syscall.Errno, ok bool) {
	switch e.Status.Code {
	case NoSuchFile:
		return syscall.ENOENT, true
	case PermissionDenied:
		return syscall.EACCES, true
	case OpUnsupported:
		return syscall.ENOTSUP, true
	default:
		return 0, false
	}
}
