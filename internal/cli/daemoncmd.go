package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/app"
	"ssh-clipboard/internal/config"
	"ssh-clipboard/internal/daemon"
)

var (
	daemonSocketPath  string
	daemonMaxSize     int64
	daemonIOTimeoutMs int
	daemonWatchConfig bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the long-lived process that holds the clipboard cell",
	RunE: func(cmd *cobra.Command, args []string) error {
		socketPath := daemonSocketPath
		if socketPath == "" {
			socketPath = viper.GetString("socket-path")
		}
		socketPath = daemon.ResolveSocketPath(socketPath)

		ln, err := daemon.Listen(socketPath)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}

		maxSize := uint32(daemonMaxSize)
		if maxSize == 0 {
			maxSize = uint32(viper.GetInt64("max-size"))
		}
		ioTimeoutMs := daemonIOTimeoutMs
		if ioTimeoutMs == 0 {
			ioTimeoutMs = viper.GetInt("io-timeout-ms")
		}

		d := daemon.New(daemon.Config{
			SocketPath: socketPath,
			MaxSize:    maxSize,
			IOTimeout:  time.Duration(ioTimeoutMs) * time.Millisecond,
		}, ln)

		modules := []app.Module{
			app.ModuleFunc(d.Run),
		}
		if daemonWatchConfig {
			// An explicit --max-size/--io-timeout-ms flag pins that limit for
			// the process's lifetime; only the unpinned one tracks the config
			// file, matching the flag-beats-config precedence client commands
			// already apply in resolveMaxSize/resolveTimeoutMs.
			maxSizePinned := cmd.Flags().Changed("max-size")
			ioTimeoutPinned := cmd.Flags().Changed("io-timeout-ms")
			modules = append(modules, app.ModuleFunc(func(ctx context.Context) error {
				return watchConfigModule(ctx, d, maxSizePinned, ioTimeoutPinned)
			}))
		}

		a := app.New(app.WithModules(modules...))
		return a.Run(cmd.Context())
	},
}

// watchConfigModule applies viper's live-reloaded max-size/io-timeout-ms to
// the running daemon (spec ambient stack: restart-free config reload). It
// returns only when ctx is cancelled.
func watchConfigModule(ctx context.Context, d *daemon.Daemon, maxSizePinned, ioTimeoutPinned bool) error {
	config.WatchForChanges(func(e fsnotify.Event) {
		maxSize := uint32(viper.GetInt64("max-size"))
		ioTimeout := time.Duration(viper.GetInt("io-timeout-ms")) * time.Millisecond
		if maxSizePinned {
			maxSize = d.MaxSize()
		}
		if ioTimeoutPinned {
			ioTimeout = d.IOTimeout()
		}
		d.UpdateLimits(maxSize, ioTimeout)
	})
	<-ctx.Done()
	return ctx.Err()
}

func init() {
	daemonCmd.Flags().StringVar(&daemonSocketPath, "socket-path", "", "override the Unix socket path")
	daemonCmd.Flags().Int64Var(&daemonMaxSize, "max-size", 0, "maximum clipboard payload size in bytes")
	daemonCmd.Flags().IntVar(&daemonIOTimeoutMs, "io-timeout-ms", 0, "per-connection I/O deadline")
	daemonCmd.Flags().BoolVar(&daemonWatchConfig, "watch-config", true, "reload configuration on change without restarting")
}
