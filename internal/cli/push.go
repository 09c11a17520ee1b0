package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/cli/client/transport"
	"ssh-clipboard/internal/clipboard"
	"ssh-clipboard/internal/protocol"
)

var (
	pushTargetFlag  string
	pushHost        string
	pushUser        string
	pushPort        int
	pushIdentity    string
	pushSSHBin      string
	pushSSHOptions  []string
	pushTimeoutMs   int
	pushMaxSize     int64
	pushStrict      bool
	pushResyncBytes int
	pushFromStdin   bool
	pushProfileName string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Send the local clipboard (or stdin) to the remote daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, identity, sshOpts, err := resolveClientTarget(cmd, pushTargetFlag, pushHost, pushUser, pushPort, pushIdentity, pushSSHOptions, pushProfileName)
		if err != nil {
			return err
		}

		var contentType string
		var data []byte
		if pushFromStdin {
			data, err = io.ReadAll(bufio.NewReader(os.Stdin))
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			contentType = protocol.TextPlain
		} else {
			contentType, data, err = (clipboard.Desktop{}).Read()
			if err != nil {
				fmt.Fprintln(os.Stderr, "clipboard read failed:", err)
				os.Exit(protocol.ExitClipboardFailure)
			}
		}

		maxSize := resolveMaxSize(pushMaxSize)
		if uint32(len(data)) > maxSize {
			fmt.Fprintf(os.Stderr, "payload of %d bytes exceeds max-size %d\n", len(data), maxSize)
			os.Exit(protocol.ExitPayloadTooLarge)
		}

		if err := transport.ValidateIdentityFile(identity); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(protocol.ExitSSHFailure)
		}

		req := protocol.Request{
			RequestID: uint64(time.Now().UnixNano()),
			Kind:      protocol.RequestSet,
			Value: protocol.Value{
				ContentType: contentType,
				Data:        data,
				CreatedAt:   time.Now().UnixMilli(),
			},
		}

		cfg := transport.Config{
			SSHBin:         pushSSHBin,
			Target:         t,
			IdentityFile:   identity,
			Options:        sshOpts,
			Timeout:        resolveTimeout(pushTimeoutMs),
			MaxResponse:    maxSize,
			ResyncMaxBytes: resolveResyncMaxBytes(pushResyncBytes),
			StrictFrames:   resolveStrictFrames(pushStrict),
		}

		result, err := transport.Run(cmd.Context(), cfg, req)
		os.Exit(classifyAndReport(result, err))
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushTargetFlag, "target", "", "user@host[:port] target")
	pushCmd.Flags().StringVar(&pushHost, "host", "", "remote host (alternative to --target)")
	pushCmd.Flags().StringVar(&pushUser, "user", "", "remote user (alternative to --target)")
	pushCmd.Flags().IntVar(&pushPort, "port", 0, "SSH port")
	pushCmd.Flags().StringVar(&pushIdentity, "identity-file", "", "SSH private key file")
	pushCmd.Flags().StringVar(&pushSSHBin, "ssh-bin", "", "explicit path to the ssh binary")
	pushCmd.Flags().StringArrayVar(&pushSSHOptions, "ssh-option", nil, "repeatable -o option for ssh(1)")
	pushCmd.Flags().IntVar(&pushTimeoutMs, "timeout-ms", 0, "wall-clock deadline for the whole operation")
	pushCmd.Flags().Int64Var(&pushMaxSize, "max-size", 0, "maximum clipboard payload size in bytes")
	pushCmd.Flags().BoolVar(&pushStrict, "strict-frames", false, "disable resync tolerance on the client read")
	pushCmd.Flags().IntVar(&pushResyncBytes, "resync-max-bytes", 0, "cap on bytes discarded while resyncing")
	pushCmd.Flags().BoolVar(&pushFromStdin, "stdin", false, "read the value from stdin instead of the clipboard")
	pushCmd.Flags().StringVar(&pushProfileName, "profile", "", "named profile from the config file")

	_ = viper.BindPFlag("identity", pushCmd.Flags().Lookup("identity-file"))
}
