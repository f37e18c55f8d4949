// README: serve command; loads config, wires services, starts the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"slotwise/internal/config"
	httptransport "slotwise/internal/http"
	"slotwise/internal/infra"
	"slotwise/internal/logger"
	"slotwise/internal/maps"
	"slotwise/internal/metrics"
	"slotwise/internal/modules/booking"
	"slotwise/internal/modules/location"
	"slotwise/internal/modules/scheduling"
)

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	newLog := func(component string) zerolog.Logger {
		return logger.New(component, cfg.Logging.Level, cfg.Logging.Format)
	}
	log := newLog("main")

	policy, err := cfg.Scheduling.Policy()
	if err != nil {
		return err
	}
	orgPolicies, err := cfg.Scheduling.OrgPolicies()
	if err != nil {
		return err
	}
	policies, err := scheduling.NewStaticPolicies(policy, orgPolicies)
	if err != nil {
		return err
	}

	recorder, err := metrics.NewRecorder(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	slots, err := scheduling.NewService(policy,
		scheduling.WithPolicySource(policies),
		scheduling.WithObserver(recorder),
		scheduling.WithLogger(newLog("scheduling")),
	)
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN, log)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	bookingStore := booking.NewStore(dbPool)
	if err := bookingStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("booking schema: %w", err)
	}
	bookingSvc := booking.NewService(bookingStore, policies, newLog("booking"), recorder)

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return err
	}
	defer redisClient.Close()
	locationSvc := location.NewService(location.NewStore(redisClient), cfg.Redis.LastJobMaxAge)

	geocoder, err := maps.NewGeocoder(cfg.Maps.APIKey, maps.GeocoderOptions{
		CacheTTL: cfg.Maps.CacheTTL,
		Attempts: cfg.Maps.Attempts,
		Region:   cfg.Maps.Region,
		Logger:   newLog("geocoder"),
	})
	if err != nil {
		return err
	}
	if !geocoder.Enabled() {
		log.Info().Msg("maps api key not set; target_address disabled")
	}

	deps := httptransport.RouterDeps{
		Slots:       slots,
		Bookings:    bookingSvc,
		Locations:   locationSvc,
		Geocoder:    geocoder,
		MetricsPath: cfg.Metrics.Path,
		Logger:      newLog("http"),
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = promhttp.Handler()
	}
	if cfg.Firebase.ProjectID != "" {
		verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return fmt.Errorf("firebase init: %w", err)
		}
		deps.Verifier = verifier
	} else {
		log.Warn().Msg("firebase project id not set; api is unauthenticated")
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := httptransport.NewServer(cfg.HTTP, httptransport.NewRouter(deps), log)
	return server.Run(ctx)
}
