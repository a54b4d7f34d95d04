package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/habibuoy/pairchat/cli/internal/relay"
	"github.com/habibuoy/pairchat/cli/internal/ui"
)

var flagRoom string

var chatCmd = &cobra.Command{
	Use:     "chat <me> [peer]",
	Aliases: []string{"c"},
	Short:   "Open an interactive chat with a peer",
	Long: `Join the room shared with a peer and chat interactively. Without --room the
room is looked up (or created) from the two names first.

Examples:
  pairchat chat alice bob
  pairchat chat --room 3f2a... alice`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		me := args[0]

		roomID := flagRoom
		if roomID == "" {
			if len(args) < 2 {
				return fmt.Errorf("a peer name or --room is required")
			}
			roomID, err = pairRoom(cmd.Context(), cfg, me, args[1])
			if err != nil {
				return err
			}
		}

		stopSpinner := ui.RunConnectionSpinner("Connecting to room...")
		conn, err := relay.Dial(cmd.Context(), cfg.ChatURL(roomID, me), relay.DialOptions{PingPeriod: cfg.PingPeriod()})
		stopSpinner()
		if err != nil {
			return err
		}
		defer conn.Wait()
		defer conn.Close()

		go func() {
			<-cmd.Context().Done()
			conn.Close()
		}()

		model := ui.NewChatModel(me, roomID, conn.Incoming(), conn.Send, func() string {
			_, reason, _ := conn.CloseStatus()
			return reason
		})
		if err := ui.RunChat(model); err != nil {
			return err
		}
		if model.Closed() {
			ui.PrintWarning(model.Status())
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "join an existing room id instead of pairing")
}
