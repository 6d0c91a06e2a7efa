// Package app wires configuration into the SafetyRing components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ogulcanaydogan/SafetyRing/internal/config"
	"github.com/ogulcanaydogan/SafetyRing/internal/metrics"
	"github.com/ogulcanaydogan/SafetyRing/internal/server"
	"github.com/ogulcanaydogan/SafetyRing/internal/trigger"
	"github.com/ogulcanaydogan/SafetyRing/pkg/alertlog"
	"github.com/ogulcanaydogan/SafetyRing/pkg/channels"
	"github.com/ogulcanaydogan/SafetyRing/pkg/connectivity"
	"github.com/ogulcanaydogan/SafetyRing/pkg/engine"
	"github.com/ogulcanaydogan/SafetyRing/pkg/location"
	"github.com/ogulcanaydogan/SafetyRing/pkg/model"
	"github.com/ogulcanaydogan/SafetyRing/pkg/notify"
	"github.com/ogulcanaydogan/SafetyRing/pkg/queue"
	"github.com/ogulcanaydogan/SafetyRing/pkg/recipients"
	"github.com/ogulcanaydogan/SafetyRing/pkg/risk"
	"github.com/ogulcanaydogan/SafetyRing/pkg/settings"
	"github.com/ogulcanaydogan/SafetyRing/pkg/storage"
	"github.com/ogulcanaydogan/SafetyRing/pkg/templates"
)

// Stores are the persisted components, shared by the daemon and the CLI.
type Stores struct {
	Storage    storage.Storage
	Templates  *templates.Store
	Recipients *recipients.Registry
	Risk       *risk.Tracker
	Queue      *queue.Queue
	Log        *alertlog.Log
	Settings   *settings.Store
}

// Open opens the database and loads every store.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Stores, error) {
	if dir := filepath.Dir(cfg.Storage.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := storage.NewSQLite(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	s, err := load(ctx, db, cfg.Templates.SeedFile, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func load(ctx context.Context, db storage.Storage, seedFile string, logger *slog.Logger) (*Stores, error) {
	var seed []model.Template
	if seedFile != "" {
		var err error
		if seed, err = templates.LoadSeedFile(seedFile); err != nil {
			return nil, err
		}
	}

	s := &Stores{Storage: db}
	var err error
	if s.Templates, err = templates.NewStore(ctx, db, seed, logger); err != nil {
		return nil, err
	}
	if s.Recipients, err = recipients.NewRegistry(ctx, db, logger); err != nil {
		return nil, err
	}
	if s.Risk, err = risk.NewTracker(ctx, db, logger); err != nil {
		return nil, err
	}
	if s.Queue, err = queue.New(ctx, db); err != nil {
		return nil, err
	}
	if s.Log, err = alertlog.New(ctx, db); err != nil {
		return nil, err
	}
	if s.Settings, err = settings.NewStore(ctx, db, logger); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Stores) Close() error {
	return s.Storage.Close()
}

// BuildChannels creates the composer registry from config.
func BuildChannels(cfg config.ChannelsConfig) (*channels.Registry, error) {
	reg := channels.NewRegistry()

	var primary channels.Composer
	switch cfg.Primary.Backend {
	case "", "webhook":
		primary = channels.NewSMSGateway(cfg.Primary.URL, cfg.Primary.Secret)
	case "slack":
		primary = channels.NewSlack(cfg.Primary.URL, cfg.Primary.Channel)
	default:
		return nil, fmt.Errorf("unknown primary channel backend %q", cfg.Primary.Backend)
	}
	if err := reg.Register(model.ChannelPrimary, primary); err != nil {
		return nil, err
	}

	if cfg.Risky.Enabled {
		m, err := channels.NewMatrix(cfg.Risky.Homeserver, cfg.Risky.UserID, cfg.Risky.AccessToken, cfg.Risky.RoomMap())
		if err != nil {
			return nil, err
		}
		if err := reg.Register(model.ChannelRisky, m); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Daemon is the long-running alert service.
type Daemon struct {
	Stores   *Stores
	Engine   *engine.Engine
	Location *location.Tracker
	Metrics  *metrics.Metrics

	cfg    *config.Config
	probe  *connectivity.HTTPProbe
	ring   *trigger.Client
	server *http.Server
	logger *slog.Logger
}

// NewDaemon wires the engine and its collaborators around stores.
func NewDaemon(cfg *config.Config, stores *Stores, logger *slog.Logger) (*Daemon, error) {
	reg, err := BuildChannels(cfg.Channels)
	if err != nil {
		return nil, err
	}
	for _, ch := range reg.List() {
		if !reg.Usable(ch) {
			logger.Warn("channel configured but cannot send", "channel", ch)
		}
	}

	d := &Daemon{
		Stores:  stores,
		Metrics: metrics.New(),
		cfg:     cfg,
		logger:  logger,
	}

	var geocoder location.Geocoder
	if cfg.Geocoder.URL != "" {
		geocoder = location.NewHTTPGeocoder(cfg.Geocoder.URL, cfg.Geocoder.UserAgent)
	}
	d.Location = location.NewTracker(geocoder, config.Duration(cfg.Geocoder.CacheTTL, 10*time.Minute), logger)

	d.probe = connectivity.NewHTTPProbe(
		cfg.Connectivity.URL,
		config.Duration(cfg.Connectivity.Interval, 15*time.Second),
		config.Duration(cfg.Connectivity.Timeout, 5*time.Second),
		logger,
	)

	local := notify.NewLog(logger)
	notifier := notify.Multi{local}
	feedback := notify.MultiFeedback{local}
	if cfg.MQTT.Enabled {
		d.ring, err = trigger.NewClient(trigger.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      1,
		}, logger)
		if err != nil {
			return nil, err
		}
		ring := notify.NewRing(d.ring, cfg.MQTT.CommandTopic, logger)
		notifier = append(notifier, ring)
		feedback = append(feedback, ring)
	}

	d.Engine = engine.New(engine.Deps{
		Templates:    stores.Templates,
		Recipients:   stores.Recipients,
		Risk:         stores.Risk,
		Queue:        stores.Queue,
		Log:          stores.Log,
		Settings:     stores.Settings,
		Channels:     reg,
		Location:     d.Location,
		Connectivity: d.probe,
		Notifier:     notifier,
		Feedback:     feedback,
		Observer:     d.Metrics,
	}, logger, engine.WithTick(config.Duration(cfg.Alert.Tick, engine.DefaultTick)))

	api := server.NewServer(server.Deps{
		Engine:   d.Engine,
		Log:      stores.Log,
		Queue:    stores.Queue,
		Risk:     stores.Risk,
		Location: d.Location,
		Probe:    d.probe,
		Metrics:  d.Metrics.Handler(),
	}, logger)

	d.server = &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      api.Handler(),
		ReadTimeout:  config.Duration(cfg.Server.ReadTimeout, 10*time.Second),
		WriteTimeout: config.Duration(cfg.Server.WriteTimeout, 30*time.Second),
	}
	return d, nil
}

// Run serves until ctx is done, then shuts down gracefully. An armed
// countdown is dropped on shutdown.
func (d *Daemon) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if d.ring != nil {
		if err := d.ring.Connect(); err != nil {
			return fmt.Errorf("connect ring bridge: %w", err)
		}
		defer d.ring.Disconnect()

		bridge := trigger.NewBridge(d.Engine, d.Location, d.logger)
		if err := bridge.Subscribe(d.ring, d.cfg.MQTT.TriggerTopic, d.cfg.MQTT.LocationTopic); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		d.probe.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		d.Engine.Run(ctx)
	}()

	errCh := make(chan error, 1)
	go func() {
		d.logger.Info("safetyring started", "listen", d.cfg.Server.Listen)
		errCh <- d.server.ListenAndServe()
	}()

	var runErr error
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("serve api: %w", err)
		}
	case <-ctx.Done():
		d.logger.Info("shutting down")
		shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
		defer stop()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			runErr = fmt.Errorf("shutdown api: %w", err)
		}
	}

	d.Engine.Close()
	cancel()
	wg.Wait()
	return runErr
}
