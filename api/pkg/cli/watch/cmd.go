package watch

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/client"
	"github.com/feedwire/feedwire/api/pkg/config"
	"github.com/feedwire/feedwire/api/pkg/session"
	"github.com/feedwire/feedwire/api/pkg/types"
)

var (
	url       string
	transport string
	reconnect bool
	wait      bool
)

var rootCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Follow the live message feed",
	Aliases: []string{"w"},
	Long: `Connect to a feed backend, load the snapshot and print every change as it
arrives on the live stream.

Examples:
  # Follow the feed over websocket (the default transport)
  feedwire watch

  # Follow the feed over server-sent events
  feedwire watch --transport sse

  # Keep reconnecting when the stream drops
  feedwire watch --reconnect`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadCliConfig()
		if err != nil {
			return err
		}
		if url == "" {
			url = cfg.URL
		}
		if transport == "" {
			transport = cfg.Transport
		}

		// Ctrl-C stops the watcher cleanly
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		apiClient, err := client.NewClient(url)
		if err != nil {
			return err
		}

		if wait {
			if err := apiClient.WaitReady(ctx); err != nil {
				return err
			}
		}

		if !reconnect {
			return runSession(ctx, apiClient)
		}

		// Every attempt runs a fresh session: fresh snapshot, fresh
		// tracker. Reconciliation absorbs whatever the stream redelivers
		// after the gap.
		err = retry.Do(
			func() error {
				return runSession(ctx, apiClient)
			},
			retry.Attempts(0),
			retry.Delay(time.Second),
			retry.DelayType(retry.FixedDelay),
			retry.Context(ctx),
			retry.LastErrorOnly(true),
			retry.OnRetry(func(n uint, err error) {
				log.Warn().Err(err).Uint("retry_number", n).Msg("stream ended, reconnecting")
			}),
		)
		if ctx.Err() != nil {
			// stopped by the user
			return nil
		}
		return err
	},
}

// runSession follows the feed until the stream ends or ctx is canceled. A
// canceled context is a clean stop, a dead stream is an error so the
// reconnect loop can tell the two apart.
func runSession(ctx context.Context, apiClient *client.FeedClient) error {
	sess, err := session.New(session.Options{
		Client:    apiClient,
		URL:       apiClient.URL(),
		Transport: types.Transport(transport),
		OnChange:  printChange,
		OnStatus: func(status types.Status) {
			switch status {
			case types.StatusConnected:
				fmt.Printf("⚡ connected (%s)\n", transport)
			case types.StatusDisconnected:
				fmt.Println("🔌 disconnected")
			}
		},
	})
	if err != nil {
		return err
	}

	if err := sess.Start(ctx); err != nil {
		return err
	}

	fmt.Printf("📜 %d messages in the feed\n", len(sess.Messages()))

	done := make(chan struct{})
	go func() {
		sess.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		_ = sess.Stop()
		<-done
		return nil
	case <-done:
		return fmt.Errorf("stream disconnected")
	}
}

func printChange(mutation types.Mutation, msg types.Message) {
	switch mutation {
	case types.MutationAppended:
		fmt.Printf("💬 %s %s: %s\n", formatTimestamp(msg.Timestamp), msg.Author, msg.Text)
	case types.MutationUpdated:
		fmt.Printf("✏️  %s %s: %s\n", formatTimestamp(msg.Timestamp), msg.Author, msg.Text)
	case types.MutationDiscarded:
		// duplicates are suppressed silently
	}
}

func formatTimestamp(ts int64) string {
	if ts == 0 {
		return "--:--:--"
	}
	return time.Unix(ts, 0).Format("15:04:05")
}

func init() {
	rootCmd.Flags().StringVar(&url, "url", "", "Backend URL (defaults to FEEDWIRE_URL)")
	rootCmd.Flags().StringVarP(&transport, "transport", "t", "", "Live transport: websocket or sse (defaults to FEEDWIRE_TRANSPORT)")
	rootCmd.Flags().BoolVar(&reconnect, "reconnect", false, "Reconnect with a fresh snapshot when the stream drops")
	rootCmd.Flags().BoolVar(&wait, "wait", false, "Wait for the backend to become ready before connecting")
}

func New() *cobra.Command {
	return rootCmd
}
