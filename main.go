package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"com.aviebrantz.studio-site/pkg/api"
	"com.aviebrantz.studio-site/pkg/auth"
	"com.aviebrantz.studio-site/pkg/backend"
	"com.aviebrantz.studio-site/pkg/config"
	"com.aviebrantz.studio-site/pkg/core/store/contacts"
	"com.aviebrantz.studio-site/pkg/janitor"
	"com.aviebrantz.studio-site/pkg/logging"
	"com.aviebrantz.studio-site/pkg/metrics"
	"com.aviebrantz.studio-site/pkg/panel"
	"github.com/apex/log"
	"github.com/spf13/cobra"
	"gocloud.dev/pubsub"

	_ "gocloud.dev/pubsub/mempubsub"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:          "studio",
		Short:        "Serve the studio site and its admin panel",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "./config.yaml", "path to the YAML config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfigFromFile(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logCloser, err := logging.Setup(cfg.LogConfig)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer logCloser.Close()
	logger := log.WithField("module", "main")

	client, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Errorf("could not open backend: %v", err)
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("err closing backend: %v", err)
		}
	}()

	if c := cfg.ContactConfig; c != nil {
		seeded, err := client.SeedContact(ctx, contacts.Contact{Phone: c.Phone, WhatsApp: c.WhatsApp, Email: c.Email})
		if err != nil {
			logger.Warnf("could not seed contact details: %v", err)
		} else if seeded {
			logger.Info("contact details seeded")
		}
	}

	orphanTopic, err := pubsub.OpenTopic(ctx, cfg.EventsConfig.TopicURL)
	if err != nil {
		logger.Errorf("Err creating orphan topic :%v", err)
		return err
	}
	defer orphanTopic.Shutdown(context.Background())

	orphanSub, err := pubsub.OpenSubscription(ctx, subscriptionURL(cfg.EventsConfig))
	if err != nil {
		logger.Errorf("could not open orphan topic subscription :%v", err)
		return err
	}
	defer orphanSub.Shutdown(context.Background())

	if err := metrics.RegisterViews(); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	metricsServer, err := metrics.StartMetricsExporter(cfg.MetricsConfig.Port)
	if err != nil {
		return fmt.Errorf("start metrics exporter: %w", err)
	}
	defer metricsServer.Close()

	reporter := janitor.NewReporter(orphanTopic)
	worker := janitor.NewWorker(orphanSub, client.Files)
	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Warnf("janitor stopped: %v", err)
		}
	}()

	authService := auth.NewService(client.Sessions, auth.Options{
		AdminEmail:        cfg.AuthConfig.AdminEmail,
		AdminPasswordHash: cfg.AuthConfig.AdminPasswordHash,
		SessionSecret:     cfg.AuthConfig.SessionSecret,
		SessionTTL:        cfg.AuthConfig.SessionTTL,
	})
	panels := panel.NewRegistry(func() *panel.Panel {
		return panel.New(client.Projects, client.Files, reporter)
	})
	apiServer := api.NewServer(client, authService, panels, cfg.APIServerConfig)

	errc := make(chan error, 1)
	go func() { errc <- apiServer.Start() }()
	logger.Info("Server Started")

	select {
	case err := <-errc:
		logger.Errorf("api server stopped: %v", err)
		return err
	case <-ctx.Done():
	}

	if err := apiServer.Shutdown(); err != nil {
		logger.Warnf("err stopping api server: %v", err)
	}
	logger.Info("Server Stopped")
	return nil
}

// subscriptionURL derives the subscription of the orphan topic. The
// in-memory driver takes the ack deadline as a query parameter.
func subscriptionURL(cfg config.EventsConfig) string {
	if !strings.HasPrefix(cfg.TopicURL, "mem://") || cfg.AckDeadline <= 0 {
		return cfg.TopicURL
	}
	sep := "?"
	if strings.Contains(cfg.TopicURL, "?") {
		sep = "&"
	}
	return cfg.TopicURL + sep + "ackdeadline=" + cfg.AckDeadline.String()
}
