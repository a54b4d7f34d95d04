package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/habibuoy/pairchat/cli/internal/config"
	"github.com/habibuoy/pairchat/cli/internal/ui"
	"github.com/habibuoy/pairchat/internal/version"
)

var (
	flagServer      string
	flagIdleTimeout string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pairchat",
	Short: "Two-person chat over a websocket relay",
	Long: `pairchat pairs two people in a private room on a relay server and lets
them exchange text messages in real time from the terminal.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "relay server URL (env PAIRCHAT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&flagIdleTimeout, "idle-timeout", "", "server idle timeout, e.g. 5s (env PAIRCHAT_IDLE_TIMEOUT)")

	rootCmd.AddCommand(pairCmd, chatCmd, pingCmd, versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.PrintError(err.Error())
		stop()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	opts := config.Options{Server: flagServer}
	if flagIdleTimeout != "" {
		d, err := parseDuration(flagIdleTimeout)
		if err != nil {
			return nil, err
		}
		opts.IdleTimeout = d
	}
	return config.Load(opts)
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}
