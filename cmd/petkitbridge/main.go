// petkit-bridge mirrors PetKit cloud devices onto local infrastructure.
//
// It polls the vendor cloud for feeders, litter boxes, fitness trackers
// and water fountains, publishes their state over MQTT, records numeric
// attributes to InfluxDB, and exposes a REST API for reads and manual
// control. Sessions survive restarts via a local SQLite store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/petkit-bridge/migrations"

	"github.com/nerrad567/petkit-bridge/internal/api"
	"github.com/nerrad567/petkit-bridge/internal/coordinator"
	"github.com/nerrad567/petkit-bridge/internal/device"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/config"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/database"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/petkit-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/petkit-bridge/internal/petkit"
	"github.com/nerrad567/petkit-bridge/internal/sink"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting petkit-bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database and run migrations
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	registry := device.NewRegistry(log)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Wire the sinks before the first poll so nothing is missed
	var numbers *sink.Numbers
	if mqttClient != nil {
		publisher := sink.NewPublisher(mqttClient, registry, log)
		if startErr := publisher.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT publisher: %w", startErr)
		}

		numbers = sink.NewNumbers(mqttClient, log)
		if startErr := numbers.Start(); startErr != nil {
			return fmt.Errorf("starting input tracker: %w", startErr)
		}
	}
	if influxClient != nil {
		recorder := sink.NewRecorder(influxClient, registry, log)
		recorder.Start()
	}

	// Build accounts and restore or establish sessions
	store := petkit.NewSessionStore(db.DB)
	accounts := make([]*petkit.Account, 0, len(cfg.Accounts()))
	for _, accCfg := range cfg.Accounts() {
		client := petkit.NewClient(accCfg.APIBase, log)
		account := petkit.NewAccount(accCfg, client, store, log)
		if numbers != nil {
			account.SetNumberResolver(numbers.Resolve)
		}
		// An auth failure here is not fatal: the roster's re-login
		// path recovers once the vendor is reachable again.
		if authErr := account.CheckAuth(ctx, false); authErr != nil {
			log.Warn("authentication failed, polling will retry",
				"username", account.Username(),
				"error", authErr,
			)
		} else {
			log.Info("account authenticated", "username", account.Username())
		}
		accounts = append(accounts, account)
	}

	// Start the REST API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log,
			Registry: registry,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating api server: %w", apiErr)
		}
		server.Start()
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing api server", "error", closeErr)
			}
		}()
	} else {
		log.Info("api server disabled")
	}

	log.Info("initialisation complete, polling started")

	// One polling loop per account; all stop together on shutdown
	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		coord := coordinator.New(account, registry, log)
		g.Go(func() error { return coord.Run(gctx) })
	}

	if waitErr := g.Wait(); waitErr != nil && ctx.Err() == nil {
		return fmt.Errorf("polling loop failed: %w", waitErr)
	}

	log.Info("petkit-bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PETKIT_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PETKIT_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
