package server

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/mpapenbr/racebet/log"
	"github.com/mpapenbr/racebet/pkg/cmd/cmdutil"
	"github.com/mpapenbr/racebet/pkg/config"
	"github.com/mpapenbr/racebet/pkg/db/migrate"
	"github.com/mpapenbr/racebet/pkg/db/postgres"
	"github.com/mpapenbr/racebet/pkg/nickname"
	"github.com/mpapenbr/racebet/pkg/service"
	"github.com/mpapenbr/racebet/pkg/session"
	natstransport "github.com/mpapenbr/racebet/pkg/transport/nats"
	"github.com/mpapenbr/racebet/pkg/utils"
)

var migrateOnStart bool

//nolint:funlen
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "runs the race sessions of a room",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer()
		},
	}
	cmd.Flags().StringVar(&config.NatsURL,
		"nats-url",
		nats.DefaultURL,
		"URL of the NATS server")
	cmd.Flags().StringVar(&config.RoomID,
		"room",
		"lobby",
		"room served by this instance")
	cmd.Flags().StringVar(&config.SubjectPrefix,
		"subject-prefix",
		"racebet",
		"prefix of all NATS subjects")
	cmd.Flags().StringVar(&config.PresenceBucket,
		"presence-bucket",
		natstransport.DefaultPresenceBucket,
		"NATS KeyValue bucket holding room presence")
	cmd.Flags().DurationVar(&config.PresenceTTL,
		"presence-ttl",
		natstransport.DefaultPresenceTTL,
		"players are considered absent after this duration without chat activity")
	cmd.Flags().BoolVar(&migrateOnStart,
		"migrate",
		false,
		"apply database migrations on start")
	cmd.Flags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (\"stdout\" prints to console)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmdutil.AddSessionFlags(cmd)
	return cmd
}

//nolint:funlen,cyclop
func startServer() error {
	logger := cmdutil.NewLogger(config.LogLevel)
	sqlLogger := cmdutil.NewLogger(config.SQLLogLevel)
	log.ResetDefault(logger)

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("nats", config.NatsURL),
		log.String("room", config.RoomID),
	)

	settings, err := config.Settings()
	if err != nil {
		return err
	}
	catalog, err := config.Catalog()
	if err != nil {
		return err
	}

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	cmdutil.WaitForTCP(
		utils.ExtractFromDBURL(config.DB),
		utils.ExtractFromNatsURL(config.NatsURL))

	var telemetry *config.Telemetry
	tracers := []pgx.QueryTracer{postgres.NewMyTracer(sqlLogger, log.DebugLevel)}
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		if telemetry, err = config.SetupTelemetry(context.Background()); err == nil {
			tracers = append(tracers, postgres.NewOtlpTracer())
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}

	if migrateOnStart {
		if err = migrate.MigrateDb(config.DB); err != nil {
			log.Error("migration failed", log.ErrorField(err))
			return err
		}
	}

	log.Info("Starting server")
	pool := postgres.InitWithUrl(config.DB, postgres.WithTracer(tracers...))
	defer pool.Close()

	nc, err := nats.Connect(config.NatsURL,
		nats.Name("racebet"),
		nats.MaxReconnects(-1))
	if err != nil {
		log.Error("could not connect to NATS", log.ErrorField(err))
		return err
	}
	defer func() {
		if err := nc.Drain(); err != nil {
			log.Warn("could not drain NATS connection", log.ErrorField(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presence, err := natstransport.NewPresence(ctx, nc,
		config.PresenceBucket, config.PresenceTTL)
	if err != nil {
		log.Error("could not setup presence", log.ErrorField(err))
		return err
	}
	natsOpts := []natstransport.Option{natstransport.WithPrefix(config.SubjectPrefix)}

	ctrl, err := session.New(config.RoomID,
		session.Deps{
			Wallet:    service.InitWalletService(pool),
			Garage:    service.InitGarageService(pool),
			Presence:  presence,
			Nicknames: nickname.New(service.InitPlayerService(pool)),
			Transport: natstransport.NewTransport(nc, natsOpts...),
		},
		session.WithSettings(settings),
		session.WithCatalog(catalog),
		session.WithLogger(logger.Named("session")),
	)
	if err != nil {
		log.Error("could not create session controller", log.ErrorField(err))
		return err
	}

	forwarded := make(chan struct{})
	go func() {
		natstransport.NewEventPublisher(nc, natsOpts...).Forward(ctx, ctrl)
		close(forwarded)
	}()
	listener := natstransport.NewCommandListener(nc, config.RoomID, ctrl, natsOpts...).
		WithPresence(presence)
	listening := make(chan struct{})
	go func() {
		defer close(listening)
		if err := listener.Run(ctx); err != nil {
			log.Error("command listener stopped", log.ErrorField(err))
			stop()
		}
	}()

	log.Info("Server started", log.String("room", config.RoomID))
	setupGoRoutinesDump()

	<-ctx.Done()
	log.Debug("Got signal")
	<-listening
	ctrl.Close()
	<-forwarded
	if telemetry != nil {
		telemetry.Shutdown()
	}
	log.Info("Server terminated")
	return nil
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}
