// Command ssh_clipboard transfers the interactive clipboard over an
// existing SSH connection: push/pull/peek on the client side, daemon/proxy
// on the remote side.
package main

import "ssh-clipboard/internal/cli"

func main() {
	cli.Execute()
}
