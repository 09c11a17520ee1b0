//go:build !linux

package daemon

import (
	"fmt"
	"net"
)

func checkPeerUID(conn *net.UnixConn, wantUID int) error {
	return fmt.Errorf("peer credential checks are only implemented on linux")
}
