package cli

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/cli/client/metaview"
	"ssh-clipboard/internal/cli/client/osc52"
	"ssh-clipboard/internal/cli/client/transport"
	"ssh-clipboard/internal/clipboard"
	"ssh-clipboard/internal/protocol"
)

var (
	pullTargetFlag  string
	pullHost        string
	pullUser        string
	pullPort        int
	pullIdentity    string
	pullSSHBin      string
	pullSSHOptions  []string
	pullTimeoutMs   int
	pullMaxSize     int64
	pullStrict      bool
	pullResyncBytes int
	pullProfileName string
	pullToStdout    bool
	pullOutput      string
	pullBase64      bool
	pullPeek        bool
	pullJSON        bool
	pullTUI         bool
)

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Receive the remote clipboard value",
	RunE: func(cmd *cobra.Command, args []string) error {
		if pullBase64 && !pullToStdout {
			return fmt.Errorf("--base64 requires --stdout")
		}

		t, identity, sshOpts, err := resolveClientTarget(cmd, pullTargetFlag, pullHost, pullUser, pullPort, pullIdentity, pullSSHOptions, pullProfileName)
		if err != nil {
			return err
		}
		if err := transport.ValidateIdentityFile(identity); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(protocol.ExitSSHFailure)
		}

		kind := protocol.RequestGet
		if pullPeek {
			kind = protocol.RequestPeekMeta
		}
		req := protocol.Request{RequestID: uint64(time.Now().UnixNano()), Kind: kind}

		cfg := transport.Config{
			SSHBin:         pullSSHBin,
			Target:         t,
			IdentityFile:   identity,
			Options:        sshOpts,
			Timeout:        resolveTimeout(pullTimeoutMs),
			MaxResponse:    resolveMaxSize(pullMaxSize),
			ResyncMaxBytes: resolveResyncMaxBytes(pullResyncBytes),
			StrictFrames:   resolveStrictFrames(pullStrict),
		}

		result, err := transport.Run(cmd.Context(), cfg, req)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(protocol.ExitSSHFailure)
		}
		if result.Response == nil {
			os.Exit(classifyAndReport(result, nil))
		}

		resp := *result.Response
		if pullPeek {
			os.Exit(handlePeekResponse(cmd.Context(), resp))
		}
		os.Exit(handlePullResponse(resp))
		return nil
	},
}

func handlePullResponse(resp protocol.Response) int {
	switch resp.Kind {
	case protocol.ResponseEmpty:
		fmt.Fprintln(os.Stderr, "clipboard has never been set")
		return protocol.ExitInvalidRequest
	case protocol.ResponseError:
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
		return protocol.ExitCode(resp.Error.Code)
	case protocol.ResponseValue:
		return routeValue(resp.Value)
	default:
		fmt.Fprintln(os.Stderr, "unexpected response to pull")
		return protocol.ExitInvalidRequest
	}
}

// routeValue implements §6's content-type sink rules: text goes anywhere,
// image/png requires an explicit file/base64 sink or an image-capable
// clipboard.
func routeValue(v protocol.Value) int {
	switch {
	case pullBase64:
		fmt.Println(base64.StdEncoding.EncodeToString(v.Data))
		return protocol.ExitOK
	case pullOutput != "":
		if err := os.WriteFile(pullOutput, v.Data, 0o600); err != nil {
			fmt.Fprintln(os.Stderr, "write output file:", err)
			return protocol.ExitClipboardFailure
		}
		return protocol.ExitOK
	case pullToStdout && v.ContentType != protocol.ImagePNG:
		os.Stdout.Write(v.Data)
		return protocol.ExitOK
	}

	if v.ContentType == protocol.ImagePNG {
		fmt.Fprintln(os.Stderr, "unsupported content type: image/png requires --output, --base64, or an image-capable clipboard")
		return protocol.ExitInvalidRequest
	}

	if err := (clipboard.Desktop{}).Write(v.ContentType, v.Data); err != nil {
		if setOSC52(v) {
			return protocol.ExitOK
		}
		fmt.Fprintln(os.Stderr, "clipboard write failed:", err)
		return protocol.ExitClipboardFailure
	}
	return protocol.ExitOK
}

func setOSC52(v protocol.Value) bool {
	if v.ContentType != protocol.TextPlain || !osc52.Eligible(os.Stdout) {
		return false
	}
	return osc52.Set(os.Stdout, string(v.Data)) == nil
}

func handlePeekResponse(ctx context.Context, resp protocol.Response) int {
	switch resp.Kind {
	case protocol.ResponseEmpty:
		if pullJSON {
			fmt.Println(`{"empty":true}`)
		} else {
			fmt.Fprintln(os.Stderr, "clipboard has never been set")
		}
		return protocol.ExitInvalidRequest
	case protocol.ResponseError:
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
		return protocol.ExitCode(resp.Error.Code)
	case protocol.ResponseMeta:
		return renderMeta(ctx, resp.Meta)
	default:
		fmt.Fprintln(os.Stderr, "unexpected response to peek")
		return protocol.ExitInvalidRequest
	}
}

func msToWallClock(ms int64) time.Time {
	return time.UnixMilli(ms)
}

func renderMeta(ctx context.Context, m protocol.Meta) int {
	if pullTUI {
		if err := metaview.Show(ctx, metaview.FromMeta(m)); err != nil {
			fmt.Fprintln(os.Stderr, "tui render failed:", err)
			return protocol.ExitInvalidRequest
		}
		return protocol.ExitOK
	}
	if pullJSON {
		out, _ := json.Marshal(struct {
			ContentType string `json:"content_type"`
			Size        uint64 `json:"size"`
			CreatedAt   int64  `json:"created_at"`
		}{m.ContentType, m.Size, m.CreatedAt})
		fmt.Println(string(out))
		return protocol.ExitOK
	}
	fmt.Printf("content-type: %s\nsize: %s\ncreated-at: %s\n",
		m.ContentType, humanize.Bytes(m.Size), humanize.Time(msToWallClock(m.CreatedAt)))
	return protocol.ExitOK
}

func init() {
	pullCmd.Flags().StringVar(&pullTargetFlag, "target", "", "user@host[:port] target")
	pullCmd.Flags().StringVar(&pullHost, "host", "", "remote host (alternative to --target)")
	pullCmd.Flags().StringVar(&pullUser, "user", "", "remote user (alternative to --target)")
	pullCmd.Flags().IntVar(&pullPort, "port", 0, "SSH port")
	pullCmd.Flags().StringVar(&pullIdentity, "identity-file", "", "SSH private key file")
	pullCmd.Flags().StringVar(&pullSSHBin, "ssh-bin", "", "explicit path to the ssh binary")
	pullCmd.Flags().StringArrayVar(&pullSSHOptions, "ssh-option", nil, "repeatable -o option for ssh(1)")
	pullCmd.Flags().IntVar(&pullTimeoutMs, "timeout-ms", 0, "wall-clock deadline for the whole operation")
	pullCmd.Flags().Int64Var(&pullMaxSize, "max-size", 0, "maximum clipboard payload size in bytes")
	pullCmd.Flags().BoolVar(&pullStrict, "strict-frames", false, "disable resync tolerance on the client read")
	pullCmd.Flags().IntVar(&pullResyncBytes, "resync-max-bytes", 0, "cap on bytes discarded while resyncing")
	pullCmd.Flags().StringVar(&pullProfileName, "profile", "", "named profile from the config file")
	pullCmd.Flags().BoolVar(&pullToStdout, "stdout", false, "write the value to stdout instead of the clipboard")
	pullCmd.Flags().StringVar(&pullOutput, "output", "", "write the value to this file")
	pullCmd.Flags().BoolVar(&pullBase64, "base64", false, "base64-encode the value written to stdout (requires --stdout)")
	pullCmd.Flags().BoolVar(&pullPeek, "peek", false, "request metadata only, like the peek command")
	pullCmd.Flags().BoolVar(&pullJSON, "json", false, "render --peek output as JSON")
	pullCmd.Flags().BoolVar(&pullTUI, "tui", false, "render --peek output as an interactive card")

	_ = viper.BindPFlag("identity", pullCmd.Flags().Lookup("identity-file"))
}
