package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zone "github.com/lrstanley/bubblezone"

	"ssh-clipboard/internal/config"
	"ssh-clipboard/internal/log"
)

// version has no dedicated package in this tree (the teacher's
// internal/version, which root.go relied on, never shipped in the subset
// this repo was built from); a literal here is the direct substitute.
const version = "0.1.0"

var (
	cfgFile  string
	logLevel string

	rootCmd = &cobra.Command{
		Use:     "ssh_clipboard",
		Short:   "Transfer the interactive clipboard over an existing SSH connection",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(cfgFile); err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				viper.Set("log.level", logLevel)
			}
			return log.Init(viper.GetString("log.level"))
		},
	}
)

func init() {
	zone.NewGlobal()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.ssh_clipboard.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindEnv("log.level", "SSH_CLIPBOARD_LOG_LEVEL")

	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(peekCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(proxyCmd)
}

// Execute runs the root command; cmd/ssh_clipboard's main calls this and
// nothing else.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
