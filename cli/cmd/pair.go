package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/habibuoy/pairchat/cli/internal/config"
	"github.com/habibuoy/pairchat/cli/internal/relay"
	"github.com/habibuoy/pairchat/cli/internal/ui"
)

var pairCmd = &cobra.Command{
	Use:     "pair <me> <peer>",
	Aliases: []string{"p"},
	Short:   "Find or create the room shared by two people",
	Long: `Ask the relay for the room shared by two identities, creating it if this
is the first request for the pair. The order of the names does not matter.

Examples:
  pairchat pair alice bob
  pairchat pair --server https://relay.example.com alice bob`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		roomID, err := pairRoom(cmd.Context(), cfg, args[0], args[1])
		if err != nil {
			return err
		}
		ui.RoomInfo{RoomID: roomID, Members: []string{args[0], args[1]}, Server: cfg.Server}.Render()
		return nil
	},
}

func pairRoom(ctx context.Context, cfg *config.Config, me, peer string) (string, error) {
	if strings.TrimSpace(me) == "" || strings.TrimSpace(peer) == "" {
		return "", fmt.Errorf("both names are required")
	}

	stopSpinner := ui.RunConnectionSpinner("Pairing with " + peer + "...")
	defer stopSpinner()

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return relay.NewClient(cfg).Pair(ctx, me, peer)
}
