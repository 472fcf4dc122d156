package feedwire

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/config"
	"github.com/feedwire/feedwire/api/pkg/pubsub"
	"github.com/feedwire/feedwire/api/pkg/server"
	"github.com/feedwire/feedwire/api/pkg/store"
	"github.com/feedwire/feedwire/api/pkg/system"
)

func newServeCmd() *cobra.Command {
	serveConfig, err := config.LoadServerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load server config")
	}

	envHelpText := generateEnvHelpText(&serveConfig, "")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the feed api server.",
		Long:  "Start the feed api server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd, &serveConfig)
		},
	}

	serveCmd.Long += "\n\nEnvironment Variables:\n\n" + envHelpText

	return serveCmd
}

func serve(cmd *cobra.Command, cfg *config.ServerConfig) error {
	system.SetupLogging(cfg.LogLevel)

	// Context ensures main goroutine waits until killed with ctrl+c:
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	messageStore, err := store.NewPebbleStore(cfg.Store.DataDir)
	if err != nil {
		return fmt.Errorf("failed to open message store: %w", err)
	}
	defer messageStore.Close()

	ps, err := pubsub.NewInMemoryNats()
	if err != nil {
		return fmt.Errorf("failed to start pubsub: %w", err)
	}
	defer ps.Close()

	apiServer, err := server.NewServer(cfg, messageStore, ps)
	if err != nil {
		return err
	}

	log.Info().Msgf("Feedwire server listening on %s:%d", cfg.WebServer.Host, cfg.WebServer.Port)

	return apiServer.ListenAndServe(ctx)
}
