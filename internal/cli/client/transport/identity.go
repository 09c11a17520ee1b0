package transport

import (
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// ValidateIdentityFile parses path as an SSH private key so a bad
// --identity-file surfaces as a client-side diagnostic before ssh(1) is
// ever spawned, rather than an opaque "Permission denied" from the child.
// Encrypted keys are accepted as present-and-parseable; ssh(1) itself
// handles the passphrase prompt.
func ValidateIdentityFile(path string) error {
	if path == "" {
		return nil
	}
	key, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read identity file %s: %w", path, err)
	}
	if _, err := ssh.ParsePrivateKey(key); err != nil {
		if _, ok := err.(*ssh.PassphraseMissingError); ok {
			return nil
		}
		return fmt.Errorf("identity file %s does not parse as an SSH private key: %w", path, err)
	}
	return nil
}
