package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	libdb "evtelemetry/backend/libs/db"
	libmqtt "evtelemetry/backend/libs/mqtt"
	libredis "evtelemetry/backend/libs/redis"
	"evtelemetry/backend/services/simulator-service/internal/config"
	httpserver "evtelemetry/backend/services/simulator-service/internal/http"
	"evtelemetry/backend/services/simulator-service/internal/http/handlers"
	"evtelemetry/backend/services/simulator-service/internal/metrics"
	"evtelemetry/backend/services/simulator-service/internal/publisher"
	redisstore "evtelemetry/backend/services/simulator-service/internal/redis"
	"evtelemetry/backend/services/simulator-service/internal/repository"
	"evtelemetry/backend/services/simulator-service/internal/simulation"
	"evtelemetry/backend/services/simulator-service/internal/topic"
	"evtelemetry/backend/services/simulator-service/internal/weather"
	"evtelemetry/backend/services/simulator-service/internal/ws"
)

// Engine variant names, also stored on every history session.
const (
	VariantPlain   = "plain"
	VariantCompare = "compare"
)

// App wires simulator-service dependencies.
type App struct {
	server      *httpserver.Server
	hub         *ws.Hub
	listener    *weather.Listener
	engines     []*simulation.Engine
	db          *sql.DB
	redisClient *redis.Client
	mqttClient  *libmqtt.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx := context.Background()
	a := &App{logger: logger}

	sqlDB, err := libdb.NewPostgresDB(ctx, cfg.Database.DSN, libdb.PoolOptions{MaxOpenConns: cfg.Database.MaxOpenConns})
	if err != nil {
		return nil, err
	}
	a.db = sqlDB

	if cfg.UseRedisIndex() {
		redisClient, err := libredis.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redisClient = redisClient
	}

	mqttClient, err := libmqtt.NewClient(libmqtt.Options{
		Broker:   cfg.MQTT.Broker,
		ClientID: cfg.MQTT.ClientID,
		Username: cfg.MQTT.Username,
		Password: cfg.MQTT.Password,
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.mqttClient = mqttClient

	qos := byte(cfg.MQTT.QoS)
	a.hub = ws.NewHub(cfg.PingInterval(), cfg.WriteTimeout(), logger)
	fanout := publisher.NewFanout(publisher.NewMQTTSink(mqttClient, qos, cfg.PublishTimeout()), a.hub)

	cars := repository.NewVehicleRepository(sqlDB, repository.TableCars)
	compare := repository.NewVehicleRepository(sqlDB, repository.TableCompare)
	history := repository.NewHistoryRepository(sqlDB)

	seed := cfg.Simulation.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	if cfg.Simulation.PlainEnabled {
		a.engines = append(a.engines, simulation.NewEngine(simulation.EngineOptions{
			Variant:   simulation.Variant{Name: VariantPlain, Namespace: topic.NamespacePlain},
			Vehicles:  cars,
			Model:     simulation.NewPlainModel(simulation.NewRandomSource(seed)),
			Sessions:  simulation.NewSessionTracker(VariantPlain, history, a.sessionIndex(cfg, VariantPlain, history), logger),
			Publisher: fanout,
			Interval:  cfg.TickInterval(),
			Logger:    logger,
		}))
	}

	if cfg.Simulation.CompareEnabled {
		cache := weather.NewCache(cfg.Simulation.DefaultAmbient)
		a.listener = weather.NewListener(cache, mqttClient, topic.NewBuilder(topic.NamespacePlain).WeatherWildcard(), qos, logger)
		a.engines = append(a.engines, simulation.NewEngine(simulation.EngineOptions{
			Variant:   simulation.Variant{Name: VariantCompare, Namespace: topic.NamespaceCompare},
			Vehicles:  compare,
			Model:     simulation.NewWeatherModel(simulation.NewRandomSource(seed + 1)),
			Ambient:   cache,
			Sessions:  simulation.NewSessionTracker(VariantCompare, history, a.sessionIndex(cfg, VariantCompare, history), logger),
			Publisher: fanout,
			Interval:  cfg.TickInterval(),
			Logger:    logger,
		}))
	}

	routes := httpserver.Routes{
		Cars:           handlers.NewVehiclesHandler(cars, logger),
		Car:            handlers.NewVehicleHandler(cars, logger),
		Compare:        handlers.NewVehiclesHandler(compare, logger),
		CompareVehicle: handlers.NewVehicleHandler(compare, logger),
		History:        handlers.NewHistoryListHandler(history, logger),
		HistorySession: handlers.NewHistorySessionHandler(history, logger),
		Health:         handlers.NewHealthHandler(sqlDB),
		Metrics:        metrics.Handler(),
		WebSocket:      a.hub.HandleWS,
	}
	a.server = httpserver.NewServer(cfg.HTTPAddress(), httpserver.NewRouter(routes), logger)

	logger.Info("simulator configured",
		zap.Int("engines", len(a.engines)),
		zap.Int64("seed", seed),
		zap.Bool("resume_sessions", cfg.Simulation.ResumeSessions),
		zap.Bool("redis_index", a.redisClient != nil),
	)
	return a, nil
}

// sessionIndex picks where the active-session index of a variant lives.
func (a *App) sessionIndex(cfg *config.Config, variant string, history *repository.HistoryRepository) simulation.SessionIndex {
	switch {
	case !cfg.Simulation.ResumeSessions:
		return simulation.NewMemoryIndex()
	case a.redisClient != nil:
		return redisstore.NewStore(a.redisClient, variant, cfg.ActiveSessionTTL())
	default:
		return simulation.NewResumingIndex(simulation.NewMemoryIndex(), history, variant)
	}
}

// Run starts the engines, the weather listener, the websocket hub and the HTTP server.
func (a *App) Run(ctx context.Context) error {
	if a.listener != nil {
		if err := a.listener.Start(); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.hub.Start(ctx) })
	g.Go(func() error { return a.server.Run(ctx) })
	for _, engine := range a.engines {
		engine := engine
		g.Go(func() error { return engine.Run(ctx) })
	}
	return g.Wait()
}

// Close releases resources.
func (a *App) Close() {
	if a.mqttClient != nil {
		a.mqttClient.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}
