package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/config"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/hub"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/kafka"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/message"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/observability"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/platform/whatsapp"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/server"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/store"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/webhook"
	"github.com/pankajsahukumar/EchoConnectSocketServer/internal/websocket"
)

func main() {
	cfg := config.Load()

	// Observability
	observability.InitLogger(cfg.ServiceName)
	log := observability.Log

	if cfg.TracingEnabled {
		tp, err := observability.InitTracer(cfg.ServiceName, cfg.JaegerURL)
		if err != nil {
			log.Fatal("failed to initialize tracer", zap.Error(err))
		}
		defer tp.Shutdown(context.Background())
	}

	ctx, cancel := setupSignalHandler(log)
	defer cancel()

	redisClient := initRedis(ctx, cfg.RedisAddr, log)
	producer := initKafka(ctx, cfg.KafkaBrokers, log)

	st := store.New(redisClient)
	normalizer := message.NewNormalizer(st, st)
	waClient := whatsapp.NewClient(cfg.GraphAPIBase, cfg.WhatsAppToken, cfg.WhatsAppPhoneID)

	registry := websocket.NewRegistry()
	h := hub.New(registry, waClient, cfg.ServiceName)
	wsHandler := websocket.NewHandler(registry, h, cfg.ServiceName)

	whHandler := webhook.NewHandler(normalizer, producer, h, webhook.Topics{
		Raw:        cfg.RawEventTopic,
		EntryBatch: cfg.EntryBatchTopic,
		Message:    cfg.MessageTopic,
	}, cfg.VerifyToken, cfg.AgentUserID, cfg.ServiceName)

	obsSrv := initObservabilityServer(cfg, redisClient)
	mainSrv := server.New(cfg.HTTPPort, initMainRouter(wsHandler, whHandler), log)

	startServers(obsSrv, mainSrv, cfg, log)

	<-ctx.Done()
	performGracefulShutdown(obsSrv, mainSrv, producer, registry, log)
}

func setupSignalHandler(log *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, initiating shutdown", zap.String("signal", sig.String()))
		cancel()
	}()
	return ctx, cancel
}

func initRedis(ctx context.Context, addr string, log *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	return client
}

func initKafka(ctx context.Context, brokers []string, log *zap.Logger) *kafka.Producer {
	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		log.Fatal("failed to create kafka producer", zap.Error(err))
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := producer.Ping(pingCtx); err != nil {
		log.Fatal("failed to reach kafka brokers", zap.Error(err))
	}
	return producer
}

func initObservabilityServer(cfg *config.Config, rdb *redis.Client) *http.Server {
	mux := chi.NewRouter()
	mux.Use(observability.MetricsMiddleware(cfg.ServiceName))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Get("/health/live", observability.HealthLiveHandler)
	mux.Get("/health/ready", observability.HealthReadyHandler(rdb))
	return &http.Server{Addr: cfg.ObsHTTPAddr, Handler: mux}
}

func initMainRouter(wsHandler *websocket.Handler, whHandler *webhook.Handler) http.Handler {
	mux := chi.NewRouter()
	mux.Handle("/ws", wsHandler)
	mux.Get("/webhook", whHandler.Verify)
	mux.Post("/webhook", whHandler.Receive)
	return mux
}

func startServers(obsSrv *http.Server, mainSrv *server.Server, cfg *config.Config, log *zap.Logger) {
	go func() {
		log.Info("starting observability server", zap.String("addr", cfg.ObsHTTPAddr))
		if err := obsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("observability server error", zap.Error(err))
		}
	}()
	go func() {
		if err := mainSrv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server error", zap.Error(err))
		}
	}()
}

func performGracefulShutdown(obsSrv *http.Server, mainSrv *server.Server, producer *kafka.Producer, registry *websocket.Registry, log *zap.Logger) {
	log.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mainSrv.Shutdown(ctx); err != nil {
		log.Error("error during main server shutdown", zap.Error(err))
	}
	if err := obsSrv.Shutdown(ctx); err != nil {
		log.Error("error during observability server shutdown", zap.Error(err))
	}
	registry.CloseAll()
	producer.Close(ctx)
	log.Info("shutdown complete, exiting")
}
