package send

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/client"
	"github.com/feedwire/feedwire/api/pkg/config"
)

var (
	url    string
	author string
	wait   bool
)

var rootCmd = &cobra.Command{
	Use:   "send [text]",
	Short: "Publish a message to the feed",
	Long: `Publish a message through the backend. The backend assigns the id and
timestamp; everyone following the feed receives it on their live stream.

Examples:
  # Publish with an explicit author
  feedwire send --author alice "hello everyone"

  # Author can come from the environment instead
  FEEDWIRE_AUTHOR=alice feedwire send "hello everyone"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadCliConfig()
		if err != nil {
			return err
		}
		if url == "" {
			url = cfg.URL
		}
		if author == "" {
			author = cfg.Author
		}
		if author == "" {
			return fmt.Errorf("author is required (use --author or FEEDWIRE_AUTHOR)")
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

		msg, err := apiClient.Publish(cmd.Context(), author, args[0])
		if err != nil {
			return fmt.Errorf("failed to publish: %w", err)
		}

		fmt.Printf("📨 published %s\n", msg.ID)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&url, "url", "", "Backend URL (defaults to FEEDWIRE_URL)")
	rootCmd.Flags().StringVarP(&author, "author", "a", "", "Author name (defaults to FEEDWIRE_AUTHOR)")
	rootCmd.Flags().BoolVar(&wait, "wait", false, "Wait for the backend to become ready before publishing")
}

func New() *cobra.Command {
	return rootCmd
}
