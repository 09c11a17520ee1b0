//go:build linux

package daemon

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// checkPeerUID verifies the connecting process's effective uid equals ours
// (§4.2's mandatory peer-uid check) using SO_PEERCRED on the accepted Unix
// socket connection.
func checkPeerUID(conn *net.UnixConn, wantUID int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return fmt.Errorf("syscall conn: %w", err)
	}
	var ucred *unix.Ucred
	var sockErr error
	err = raw.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err != nil {
		return fmt.Errorf("control: %w", err)
	}
	if sockErr != nil {
		return fmt.Errorf("getsockopt SO_PEERCRED: %w", sockErr)
	}
	if int(ucred.Uid) != wantUID {
		return fmt.Errorf("peer uid %d != daemon uid %d", ucred.Uid, wantUID)
	}
	return nil
}
