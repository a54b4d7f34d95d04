package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/habibuoy/pairchat/cli/internal/relay"
	"github.com/habibuoy/pairchat/cli/internal/ui"
)

var flagPingEvery time.Duration

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Exercise the server heartbeat socket",
	Long: `Connect to the heartbeat socket, send "Ping" on an interval and print
everything the server sends until either side closes. Use --every larger
than the server idle timeout to watch the server drop the connection.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagPingEvery <= 0 {
			return fmt.Errorf("--every must be positive")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		conn, err := relay.Dial(cmd.Context(), cfg.HeartbeatURL(), relay.DialOptions{})
		if err != nil {
			return err
		}
		defer conn.Close()
		ui.PrintSuccess("Connected to " + cfg.HeartbeatURL())

		ticker := time.NewTicker(flagPingEvery)
		defer ticker.Stop()
		for {
			select {
			case line, ok := <-conn.Incoming():
				if !ok {
					if code, reason, ok := conn.CloseStatus(); ok {
						ui.PrintWarning(fmt.Sprintf("Server closed the connection (%d): %s", code, reason))
					} else {
						ui.PrintWarning("Connection lost")
					}
					return nil
				}
				fmt.Fprintf(ui.Output, "%s %s\n", ui.IconBeat, line)
			case <-ticker.C:
				if err := conn.Send("Ping"); err != nil {
					return err
				}
			case <-cmd.Context().Done():
				conn.Close()
				conn.Wait()
				return nil
			}
		}
	},
}

func init() {
	pingCmd.Flags().DurationVar(&flagPingEvery, "every", time.Second, "interval between pings")
}
