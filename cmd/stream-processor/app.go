package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"fleetstream/internal/broker"
	"fleetstream/internal/config"
	"fleetstream/internal/constants"
	"fleetstream/internal/dlq"
	"fleetstream/internal/enrich"
	"fleetstream/internal/ingest"
	"fleetstream/internal/logger"
	"fleetstream/internal/persist"
	"fleetstream/internal/ratelimit"
	"fleetstream/internal/roadnet"
	"fleetstream/internal/route"
	"fleetstream/internal/validate"
	"fleetstream/pkg/circuitbreaker"
	"fleetstream/pkg/health"
	"fleetstream/pkg/metrics"
	"fleetstream/pkg/retry"
)

const serviceName = "stream-processor"

type App struct {
	cfg    *config.Config
	logger logger.Logger

	db          *sql.DB
	redisClient *redis.Client
	mongoClient *mongo.Client

	subscriber      *broker.MQTTSubscriber
	producer        *broker.KafkaProducer
	listenerFactory func(<-chan broker.InboundMessage) *ingest.Listener
	limiter         *ratelimit.Limiter
	roadnet         *roadnet.Provider
	sink            *dlq.Sink
	listener        *ingest.Listener
	consumers       []*persist.Consumer
	sources         []persist.Source
	httpServer      *http.Server
	checkers        *health.CheckerRegistry
}

func NewApp(configFile string) (*App, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	if sl, ok := log.(*logger.SugaredLogger); ok {
		sl.SetServiceName(serviceName)
	}

	return &App{
		cfg:      cfg,
		logger:   log,
		checkers: health.NewCheckerRegistry(),
	}, nil
}

func (a *App) Initialize(ctx context.Context) error {
	metrics.RegisterIngestMetrics()
	metrics.RegisterPersistMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	if err := a.initStorage(ctx); err != nil {
		return err
	}
	if err := a.initRoadnet(ctx); err != nil {
		return err
	}
	a.initPipeline()
	if err := a.initConsumers(); err != nil {
		return err
	}
	a.initHTTPServer()

	a.logger.Infow("application initialized",
		"kafka_brokers", a.cfg.Broker.Kafka.Brokers,
		"mqtt_broker", a.cfg.MQTT.BrokerURL,
		"batch_size", a.cfg.Pipeline.Batch.Size)
	return nil
}

func (a *App) initStorage(ctx context.Context) error {
	pg := a.cfg.Database.Postgres
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		pg.Host, pg.Port, pg.User, pg.Password, pg.DBName, pg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to ping postgres: %w", err)
	}
	a.db = db
	a.checkers.Register(health.NewPostgreSQLChecker(db))

	if a.cfg.Database.RunMigrations {
		if err := persist.RunMigrations(db); err != nil {
			return err
		}
		a.logger.Info("database migrations applied")
	}

	rd := a.cfg.Database.Redis
	a.redisClient = redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", rd.Host, rd.Port),
		Password: rd.Password,
		DB:       rd.DB,
	})
	if err := a.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	a.checkers.Register(health.NewRedisChecker(a.redisClient))

	if uri := a.cfg.Database.MongoDB.URI; uri != "" {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return fmt.Errorf("failed to connect to mongodb: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return fmt.Errorf("failed to ping mongodb: %w", err)
		}
		a.mongoClient = client
		a.checkers.Register(health.NewMongoDBChecker(client))
	}

	return nil
}

func (a *App) initRoadnet(ctx context.Context) error {
	var repo roadnet.Repository
	if a.mongoClient != nil {
		repo = roadnet.NewMongoRepository(a.mongoClient.Database(a.cfg.Database.MongoDB.Database))
	}
	a.roadnet = roadnet.NewProvider(repo, a.logger)

	if seeds := a.cfg.Pipeline.Roadnet.Segments; len(seeds) > 0 {
		segments := make([]roadnet.Segment, len(seeds))
		for i, s := range seeds {
			segments[i] = roadnet.Segment{
				SegmentID:  s.SegmentID,
				SpeedLimit: s.SpeedLimit,
				RoadType:   s.RoadType,
				TollZone:   s.TollZone,
				Lat:        s.Lat,
				Lon:        s.Lon,
			}
		}
		geofences := make([]roadnet.Geofence, len(a.cfg.Pipeline.Roadnet.Geofences))
		for i, g := range a.cfg.Pipeline.Roadnet.Geofences {
			geofences[i] = roadnet.Geofence{Name: g.Name, Lat: g.Lat, Lon: g.Lon, Radius: g.Radius}
		}
		a.roadnet.Seed(segments, geofences)
	}

	if a.mongoClient != nil {
		if err := a.roadnet.Refresh(ctx); err != nil {
			a.logger.Warnw("initial road network load failed, using seed data", "error", err)
		}
	}

	if a.roadnet.SegmentCount() == 0 {
		a.logger.Warn("no road segments loaded, map matching will be disabled")
	}
	return nil
}

func (a *App) initPipeline() {
	a.producer = broker.NewKafkaProducer(a.cfg.Broker.Kafka.Brokers, a.logger)
	a.sink = dlq.NewSink(a.producer, a.cfg.Broker.Kafka.Topics.DLQ, a.logger)

	engine := enrich.NewEngine(a.roadnet)
	validator := validate.New(engine, a.cfg.Pipeline.Validator.MaxFutureSkew)
	a.limiter = ratelimit.NewLimiter(
		a.cfg.Pipeline.RateLimit.MessagesPerWindow,
		a.cfg.Pipeline.RateLimit.Window,
		a.logger,
	)
	router := route.NewRouter(a.producer, a.cfg.Broker.Kafka.Topics)

	a.subscriber = broker.NewMQTTSubscriber(a.cfg.MQTT, a.logger)

	// The listener's channel is wired in Run once the subscriber connects.
	a.listenerFactory = func(messages <-chan broker.InboundMessage) *ingest.Listener {
		return ingest.NewListener(messages, a.limiter, validator, engine, router, a.sink, a.logger)
	}
}

func (a *App) initConsumers() error {
	kcfg := a.cfg.Broker.Kafka
	policy := retry.Policy{
		MaxAttempts:     kcfg.Retry.MaxAttempts,
		InitialInterval: kcfg.Retry.InitialInterval,
		MaxInterval:     kcfg.Retry.MaxInterval,
		Multiplier:      kcfg.Retry.Multiplier,
		MaxElapsedTime:  kcfg.Retry.MaxElapsedTime,
	}
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}

	makeBreaker := func(name string) *circuitbreaker.Wrapper {
		cfg := circuitbreaker.DefaultConfig(name)
		if cb := a.cfg.CircuitBreaker; cb.Enabled {
			if cb.MaxRequests > 0 {
				cfg.MaxRequests = cb.MaxRequests
			}
			if cb.Interval > 0 {
				cfg.Interval = cb.Interval
			}
			if cb.Timeout > 0 {
				cfg.Timeout = cb.Timeout
			}
		}
		return circuitbreaker.NewWrapper(cfg)
	}

	channels := []struct {
		topic string
		sink  persist.Sink
	}{
		{kcfg.Topics.Telemetry, persist.NewBreakerSink(persist.NewTelemetryStore(a.db), makeBreaker("telemetry-store"))},
		{kcfg.Topics.Events, persist.NewBreakerSink(persist.NewEventStore(a.db), makeBreaker("event-store"))},
		{kcfg.Topics.V2X, persist.NewBreakerSink(persist.NewV2XCache(a.redisClient), makeBreaker("v2x-cache"))},
		{kcfg.Topics.DLQ, persist.NewBreakerSink(persist.NewDLQStore(a.db), makeBreaker("dlq-store"))},
	}

	for _, ch := range channels {
		groupID := fmt.Sprintf("%s-%s", kcfg.GroupIDPrefix, ch.sink.Name())
		source := persist.NewKafkaSource(broker.NewKafkaReader(kcfg.Brokers, groupID, ch.topic))
		a.sources = append(a.sources, source)
		a.consumers = append(a.consumers, persist.NewConsumer(
			source,
			ch.sink,
			a.cfg.Pipeline.Batch.Size,
			a.cfg.Pipeline.Batch.FlushInterval,
			policy,
			a.logger,
		))
	}
	return nil
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		result := a.checkers.Check(c.Request.Context())
		status := http.StatusOK
		if result.Status != health.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status":    result.Status,
			"service":   serviceName,
			"timestamp": result.Timestamp,
			"checks":    result.Checks,
		})
	})

	engine.GET("/stats/dlq", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.sink.Stats())
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: engine,
	}
}

func (a *App) Run(ctx context.Context) error {
	messages, err := a.subscriber.Start(ctx)
	if err != nil {
		return err
	}
	a.listener = a.listenerFactory(messages)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.listener.Run(ctx)
	})

	for _, consumer := range a.consumers {
		consumer := consumer
		g.Go(func() error {
			return consumer.Run(ctx)
		})
	}

	g.Go(func() error {
		a.limiter.StartJanitor(ctx,
			a.cfg.Pipeline.RateLimit.CleanupInterval,
			a.cfg.Pipeline.RateLimit.IdleMaxAge)
		return nil
	})

	if a.mongoClient != nil && a.cfg.Pipeline.Roadnet.RefreshInterval > 0 {
		g.Go(func() error {
			a.roadnet.StartReloader(ctx, a.cfg.Pipeline.Roadnet.RefreshInterval)
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Infow("http server listening", "port", a.cfg.Server.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	if a.subscriber != nil {
		if err := a.subscriber.Close(); err != nil {
			a.logger.Warnw("failed to close mqtt subscriber", "error", err)
		}
	}
	for _, source := range a.sources {
		if err := source.Close(); err != nil {
			a.logger.Warnw("failed to close consumer source", "error", err)
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warnw("failed to close kafka producer", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warnw("failed to close postgres connection", "error", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnw("failed to close redis client", "error", err)
		}
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Warnw("failed to disconnect mongodb client", "error", err)
		}
	}

	_ = a.logger.Sync()
	a.logger.Info("shutdown complete")
}
