package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/cli/client/transport"
	"ssh-clipboard/internal/protocol"
)

var (
	peekTargetFlag  string
	peekHost        string
	peekUser        string
	peekPort        int
	peekIdentity    string
	peekSSHBin      string
	peekSSHOptions  []string
	peekTimeoutMs   int
	peekMaxSize     int64
	peekStrict      bool
	peekResyncBytes int
	peekProfileName string
	peekJSON        bool
	peekTUI         bool
)

// peekCmd is a thin alias over `pull --peek`: it asks the remote for
// metadata only, never the value itself.
var peekCmd = &cobra.Command{
	Use:   "peek",
	Short: "Show metadata (content type, size, age) for the remote clipboard without transferring it",
	RunE: func(cmd *cobra.Command, args []string) error {
		t, identity, sshOpts, err := resolveClientTarget(cmd, peekTargetFlag, peekHost, peekUser, peekPort, peekIdentity, peekSSHOptions, peekProfileName)
		if err != nil {
			return err
		}
		if err := transport.ValidateIdentityFile(identity); err != nil {
			return err
		}

		req := protocol.Request{RequestID: uint64(time.Now().UnixNano()), Kind: protocol.RequestPeekMeta}
		cfg := transport.Config{
			SSHBin:         peekSSHBin,
			Target:         t,
			IdentityFile:   identity,
			Options:        sshOpts,
			Timeout:        resolveTimeout(peekTimeoutMs),
			MaxResponse:    resolveMaxSize(peekMaxSize),
			ResyncMaxBytes: resolveResyncMaxBytes(peekResyncBytes),
			StrictFrames:   resolveStrictFrames(peekStrict),
		}

		result, err := transport.Run(cmd.Context(), cfg, req)
		if err != nil || result.Response == nil {
			os.Exit(classifyAndReport(result, err))
			return nil
		}

		pullJSON, pullTUI = peekJSON, peekTUI
		os.Exit(handlePeekResponse(cmd.Context(), *result.Response))
		return nil
	},
}

func init() {
	peekCmd.Flags().StringVar(&peekTargetFlag, "target", "", "user@host[:port] target")
	peekCmd.Flags().StringVar(&peekHost, "host", "", "remote host (alternative to --target)")
	peekCmd.Flags().StringVar(&peekUser, "user", "", "remote user (alternative to --target)")
	peekCmd.Flags().IntVar(&peekPort, "port", 0, "SSH port")
	peekCmd.Flags().StringVar(&peekIdentity, "identity-file", "", "SSH private key file")
	peekCmd.Flags().StringVar(&peekSSHBin, "ssh-bin", "", "explicit path to the ssh binary")
	peekCmd.Flags().StringArrayVar(&peekSSHOptions, "ssh-option", nil, "repeatable -o option for ssh(1)")
	peekCmd.Flags().IntVar(&peekTimeoutMs, "timeout-ms", 0, "wall-clock deadline for the whole operation")
	peekCmd.Flags().Int64Var(&peekMaxSize, "max-size", 0, "maximum clipboard payload size in bytes")
	peekCmd.Flags().BoolVar(&peekStrict, "strict-frames", false, "disable resync tolerance on the client read")
	peekCmd.Flags().IntVar(&peekResyncBytes, "resync-max-bytes", 0, "cap on bytes discarded while resyncing")
	peekCmd.Flags().StringVar(&peekProfileName, "profile", "", "named profile from the config file")
	peekCmd.Flags().BoolVar(&peekJSON, "json", false, "render as JSON")
	peekCmd.Flags().BoolVar(&peekTUI, "tui", false, "render as an interactive card")

	_ = viper.BindPFlag("identity", peekCmd.Flags().Lookup("identity-file"))
}
