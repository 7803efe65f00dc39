package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/livetocode/vehicle-fleet-poc/internal/bus"
	"github.com/livetocode/vehicle-fleet-poc/internal/config"
	"github.com/livetocode/vehicle-fleet-poc/internal/dispatch"
	"github.com/livetocode/vehicle-fleet-poc/internal/httpserver"
	"github.com/livetocode/vehicle-fleet-poc/internal/identity"
	"github.com/livetocode/vehicle-fleet-poc/internal/logging"
	"github.com/livetocode/vehicle-fleet-poc/internal/scansession"
	"github.com/livetocode/vehicle-fleet-poc/internal/telemetry"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	configFlag := flag.String("config", "config.yaml", "path to the shared config file")
	protoFlag := flag.Bool("proto", false, "encode result rows as binary proto instead of JSON")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logging.FromBackground().Error().Err(err).Msg("config load failed")
		return 1
	}

	zl := logging.Build(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Console: strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
	}, os.Stdout)
	logging.SetBackground(zl)
	appLog := logging.NewSlog(&zl)

	zl.Info().
		Str("version", Version).
		Int("instance", config.InstanceIndex()).
		Str("config", cfg.String()).
		Msg("starting finder")

	telemetry.Init(prometheus.DefaultRegisterer, true)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, err := scansession.Build(ctx, cfg)
	if err != nil {
		zl.Error().Err(err).Msg("scan session build failed")
		return 1
	}

	conn, err := bus.Connect(cfg.Hub.Nats.Protocols)
	if err != nil {
		zl.Error().Err(err).Msg("bus connect failed")
		return 1
	}
	defer conn.Close()

	runner := &dispatch.Runner{
		Bus:      conn,
		Pub:      conn,
		Session:  session,
		Cfg:      cfg,
		Log:      &zl,
		Identity: identity.Build(),
		UseProto: *protoFlag,
	}
	if err := runner.Start(ctx); err != nil {
		zl.Error().Err(err).Msg("bus subscribe failed")
		return 1
	}

	if err := httpserver.Run(ctx, cfg.Finder.HTTPPort, appLog, runner); err != nil {
		zl.Error().Err(err).Msg("http server exited with error")
		return 1
	}
	zl.Info().Msg("finder stopped")
	return 0
}
