package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/daemon"
	"ssh-clipboard/internal/proxy"
)

var (
	proxySocketPath      string
	proxyMaxSize         int64
	proxyIOTimeoutMs     int
	proxyAutostartDaemon bool
	proxyDaemonBin       string
)

// proxyCmd is the SSH-entrypoint one-shot bridge: `ssh user@host ssh_clipboard proxy`
// relays exactly one request frame from stdin to the daemon socket and
// exactly one response frame back to stdout (spec §4.3).
var proxyCmd = &cobra.Command{
	Use:    "proxy",
	Short:  "Relay one framed request/response pair between stdin/stdout and the local daemon",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		socketPath := proxySocketPath
		if socketPath == "" {
			socketPath = viper.GetString("socket-path")
		}
		socketPath = daemon.ResolveSocketPath(socketPath)

		maxSize := uint32(proxyMaxSize)
		if maxSize == 0 {
			maxSize = uint32(viper.GetInt64("max-size"))
		}
		ioTimeoutMs := proxyIOTimeoutMs
		if ioTimeoutMs == 0 {
			ioTimeoutMs = viper.GetInt("io-timeout-ms")
		}

		autostart := proxyAutostartDaemon || viper.GetBool("autostart-daemon")

		code := proxy.Run(cmd.Context(), proxy.Config{
			SocketPath:      socketPath,
			MaxSize:         maxSize,
			IOTimeout:       time.Duration(ioTimeoutMs) * time.Millisecond,
			AutostartDaemon: autostart,
			DaemonBin:       proxyDaemonBin,
		}, os.Stdin, os.Stdout)

		os.Exit(code)
		return nil
	},
}

func init() {
	proxyCmd.Flags().StringVar(&proxySocketPath, "socket-path", "", "override the Unix socket path")
	proxyCmd.Flags().Int64Var(&proxyMaxSize, "max-size", 0, "maximum clipboard payload size in bytes")
	proxyCmd.Flags().IntVar(&proxyIOTimeoutMs, "io-timeout-ms", 0, "per-connection I/O deadline")
	proxyCmd.Flags().BoolVar(&proxyAutostartDaemon, "autostart-daemon", false, "spawn a detached daemon if the socket is unreachable")
	proxyCmd.Flags().StringVar(&proxyDaemonBin, "daemon-bin", "", "executable to spawn when autostarting (default: re-exec self)")
}
