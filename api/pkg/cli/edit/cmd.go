package edit

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/client"
	"github.com/feedwire/feedwire/api/pkg/config"
)

var (
	url  string
	wait bool
)

var rootCmd = &cobra.Command{
	Use:   "edit [message-id] [text]",
	Short: "Replace the text of a published message",
	Long: `Replace the text of an existing message. The message keeps its place in
the feed; followers receive the updated version on their live stream.

Example:
  feedwire edit msg_01j9... "fixed the typo"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadCliConfig()
		if err != nil {
			return err
		}
		if url == "" {
			url = cfg.URL
		}

		apiClient, err := client.NewClient(url)
		if err != nil {
			return err
		}

		if wait {
			if err := apiClient.WaitReady(cmd.Context()); err != nil {
				return err
			}
		}

		msg, err := apiClient.Edit(cmd.Context(), args[0], args[1])
		if err != nil {
			return fmt.Errorf("failed to edit: %w", err)
		}

		fmt.Printf("✏️  edited %s\n", msg.ID)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&url, "url", "", "Backend URL (defaults to FEEDWIRE_URL)")
	rootCmd.Flags().BoolVar(&wait, "wait", false, "Wait for the backend to become ready before editing")
}

func New() *cobra.Command {
	return rootCmd
}
