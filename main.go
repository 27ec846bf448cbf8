package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/api"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/broker"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/config"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/iot"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/logger"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/notify"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository/memory"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository/postgresql"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/repository/supabase"
	"github.com/YukiTheBread/auto-parking-lot-system/internal/service"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()
	for _, w := range cfg.Warnings {
		log.Warn("config warning", zap.String("warning", w))
	}
	if len(cfg.Defaulted) > 0 {
		log.Info("config loaded", zap.Strings("defaulted_keys", cfg.Defaulted))
	}
	gin.SetMode(cfg.GinMode)

	// 2. Connect the store
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStartup()

	store, err := newStore(startupCtx, cfg)
	if err != nil {
		log.Fatal("failed to connect to store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	log.Info("store connected", zap.String("backend", cfg.StoreBackend))

	// 3. Lot event sinks
	hub := notify.NewWebSocketHub(log.Named("websocket"))
	hubCtx, cancelHub := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	fanout := notify.NewFanout(log.Named("notify"))
	fanout.Add("websocket", hub)

	if cfg.RMQURL != "" {
		rmq, err := broker.NewRMQueue(cfg.RMQURL, cfg.RMQQueueName)
		if err != nil {
			log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer rmq.Close()
		fanout.Add("rabbitmq", rmq)
		log.Info("publishing lot events to RabbitMQ", zap.String("queue", cfg.RMQQueueName))
	}

	// 4. AWS clients, only when a feature needs them
	var (
		sqsClient         *sqs.Client
		rekognitionClient *rekognition.Client
	)
	if cfg.AWSEnabled() {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(startupCtx, awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatal("failed to load AWS SDK config", zap.Error(err))
		}
		log.Info("AWS SDK config loaded", zap.String("region", cfg.AWSRegion))

		if cfg.SQSEventQueueURL != "" {
			sqsClient = sqs.NewFromConfig(awsSDKCfg)
		}
		if cfg.IoTMQTTEndpoint != "" {
			iotDataPlaneClient := iotdataplane.NewFromConfig(awsSDKCfg, func(o *iotdataplane.Options) {
				endpointWithSchema := cfg.IoTMQTTEndpoint
				if !strings.HasPrefix(endpointWithSchema, "https://") && !strings.HasPrefix(endpointWithSchema, "http://") {
					endpointWithSchema = "https://" + endpointWithSchema
				}
				o.BaseEndpoint = aws.String(endpointWithSchema)
			})
			fanout.Add("iot", iot.NewTopicPublisher(iotDataPlaneClient, cfg.IoTTopicPrefix))
			log.Info("publishing lot events to AWS IoT", zap.String("topic_prefix", cfg.IoTTopicPrefix))
		}
		if cfg.LPREnabled {
			rekognitionClient = rekognition.NewFromConfig(awsSDKCfg)
		}
	}

	// 5. Services
	parkingService := service.NewParkingService(store.Events, store.Status, store.Occupancy,
		log.Named("parking"), service.WithPublisher(fanout))

	var lprService *service.LPRService
	if rekognitionClient != nil {
		lprService, err = service.NewLPRService(rekognitionClient, cfg.LPRPlatePattern, log.Named("lpr"))
		if err != nil {
			log.Fatal("failed to initialise LPR", zap.Error(err))
		}
	}

	// 6. Gate message consumer
	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	if sqsClient == nil {
		log.Warn("SQS_EVENT_QUEUE_URL is not set, gate message consumer disabled")
	} else {
		sqsConsumer := iot.NewSQSConsumer(sqsClient, cfg.SQSEventQueueURL, parkingService, log.Named("sqs"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqsConsumer.Start(consumerCtx)
		}()
	}

	// 7. HTTP server
	router := api.SetupRouter(parkingService, lprService, hub, log, cfg.MetricsPath)
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe failed", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shut down", zap.Error(err))
	}
	cancelHub()

	if sqsClient != nil {
		done := make(chan struct{})
		go func() {
			defer close(done)
			wg.Wait()
		}()
		select {
		case <-done:
			log.Info("SQS consumer stopped")
		case <-time.After(5 * time.Second):
			log.Warn("SQS consumer did not stop in time")
		}
	}

	if err := store.Close(); err != nil {
		log.Warn("failed to close store", zap.Error(err))
	}
	log.Info("server exited")
}

func newStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgREST:
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
		if err != nil {
			return nil, err
		}
		return supabase.NewStore(client, cfg.StoreHTTPTimeout), nil
	case config.BackendMemory:
		return memory.New().Repositories(), nil
	default:
		db, err := postgresql.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return postgresql.NewStore(db), nil
	}
}
