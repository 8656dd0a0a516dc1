package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"goldwatch-alarm/common/database"
	"goldwatch-alarm/common/mqtt"
	commonredis "goldwatch-alarm/common/redis"
	"goldwatch-alarm/internal/config"
	"goldwatch-alarm/internal/consumer"
	"goldwatch-alarm/internal/evaluator"
	"goldwatch-alarm/internal/feed"
	httpapi "goldwatch-alarm/internal/http"
	"goldwatch-alarm/internal/notifier"
	"goldwatch-alarm/internal/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlarmService 价格报警服务（整合各层）
type AlarmService struct {
	config      *config.Config
	db          *sql.DB // DBEnabled=false 时为 nil
	redisClient *redis.Client
	mqttClient  *mqtt.Client // MQTT 未配置时为 nil
	logger      *zap.Logger

	// 各层组件
	alarmsRepo   repository.AlarmsRepo
	priceCache   *feed.PriceCache
	feedClient   *feed.Client
	poller       *feed.Poller
	evaluator    *evaluator.Evaluator
	tickConsumer *consumer.TickConsumer
	perms        *notifier.PermissionManager
	notifier     *notifier.Notifier
	server       *Server
}

// NewAlarmService 创建价格报警服务
func NewAlarmService(cfg *config.Config, logger *zap.Logger) (*AlarmService, error) {
	// 1. 连接数据库（可选）
	var db *sql.DB
	var alarmsRepo repository.AlarmsRepo
	if cfg.DBEnabled {
		var err error
		db, err = database.NewPostgresDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		alarmsRepo = repository.NewPostgresAlarmsRepo(db, logger)
	} else {
		// 联调退路：内存仓库，重启后报警丢失
		logger.Warn("Database disabled, using in-memory alarm repository")
		alarmsRepo = repository.NewMemoryAlarmsRepo()
	}

	// 2. 连接 Redis
	redisClient := commonredis.NewRedisClient(&cfg.Redis)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 3. 连接 MQTT（可选：Broker 为空时系统通知通道关闭）
	var mqttClient *mqtt.Client
	if cfg.MQTT.Broker != "" {
		var err error
		mqttClient, err = mqtt.NewClient(&cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("failed to connect mqtt: %w", err)
		}
	} else {
		logger.Warn("MQTT broker not configured, system notification channel disabled")
	}

	// 4. 行情层
	feedClient := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.PricesPath, logger)
	priceCache := feed.NewPriceCache(cfg, redisClient, logger)
	poller := feed.NewPoller(cfg, feedClient, priceCache, redisClient, logger)

	// 5. 评估与通知层
	eval := evaluator.NewEvaluator(alarmsRepo, logger)
	perms := notifier.NewPermissionManager(cfg, redisClient, logger)
	var publisher notifier.Publisher
	if mqttClient != nil {
		publisher = mqttClient
	}
	notif := notifier.NewNotifier(cfg, perms, publisher, redisClient, logger)
	tickConsumer := consumer.NewTickConsumer(cfg, priceCache, redisClient, logger)

	// 6. HTTP 层
	router := httpapi.NewRouter(logger)
	router.RegisterAlarmRoutes(httpapi.NewAlarmHandler(alarmsRepo, logger))
	router.RegisterPriceRoutes(httpapi.NewPriceHandler(priceCache, logger))
	router.RegisterNotificationRoutes(httpapi.NewNotificationHandler(notif, perms, logger))
	router.RegisterAdminAlarmRoutes(httpapi.NewAdminAlarmHandler(alarmsRepo, logger))

	server := NewServer(cfg.HTTP.Addr, router, logger)

	return &AlarmService{
		config:       cfg,
		db:           db,
		redisClient:  redisClient,
		mqttClient:   mqttClient,
		logger:       logger,
		alarmsRepo:   alarmsRepo,
		priceCache:   priceCache,
		feedClient:   feedClient,
		poller:       poller,
		evaluator:    eval,
		tickConsumer: tickConsumer,
		perms:        perms,
		notifier:     notif,
		server:       server,
	}, nil
}

// Start 启动服务（阻塞直到 ctx 取消或 HTTP 服务出错）
func (s *AlarmService) Start(ctx context.Context) error {
	s.logger.Info("Starting goldwatch-alarm service",
		zap.String("trigger_mode", s.config.Alarm.TriggerMode),
		zap.Bool("db_enabled", s.config.DBEnabled),
		zap.Bool("mqtt_enabled", s.mqttClient != nil),
	)

	errChan := make(chan error, 3)

	// 行情轮询器
	go func() {
		if err := s.poller.Start(ctx); err != nil {
			errChan <- fmt.Errorf("price poller: %w", err)
		}
	}()

	// 行情消费者（评估 + 通知）
	go func() {
		if err := s.tickConsumer.Start(ctx, s.evaluator, s.notifier); err != nil {
			errChan <- fmt.Errorf("tick consumer: %w", err)
		}
	}()

	// HTTP 服务
	go func() {
		if err := s.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errChan:
		return err
	}
}

// Stop 停止服务
func (s *AlarmService) Stop() error {
	s.logger.Info("Stopping goldwatch-alarm service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()
	if err := s.server.Stop(shutdownCtx); err != nil {
		s.logger.Error("Failed to stop http server",
			zap.Error(err),
		)
	}

	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}

	if err := s.redisClient.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database",
				zap.Error(err),
			)
		}
	}

	return nil
}
