package bootstrap

import (
	"context"
	"log"

	"academic-rag-be/internal/config"
	"academic-rag-be/internal/controller"
	"academic-rag-be/internal/handler"
	"academic-rag-be/internal/pkg/logger"
	"academic-rag-be/internal/repository/implementation"
	"academic-rag-be/internal/repository/memory"
	"academic-rag-be/internal/repository/unitofwork"
	"academic-rag-be/internal/service"
	"academic-rag-be/internal/websocket"
	"academic-rag-be/pkg/agent"
	"academic-rag-be/pkg/embedding"
	"academic-rag-be/pkg/llm/factory"
	"academic-rag-be/pkg/retrieval"

	pktNats "academic-rag-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController
	HealthController   controller.IHealthController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	TraceStreamHandler *handler.TraceStreamHandler
	WebSocketHub       *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// In-memory conversation window cache
	historyCache := memory.NewHistoryCache(cfg.Agent.ConversationWindow)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/trace_relay.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Retrieval path: query embedding then pgvector search
	chunkRepo := implementation.NewDocumentChunkRepository(db)
	vectorIndex := implementation.NewChunkVectorIndex(chunkRepo)
	retriever := retrieval.NewRetriever(embeddingProvider, vectorIndex)

	// 5. Services
	publisherService := service.NewPublisherService(cfg.App.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.IngestTopic,
		uowFactory,
		embeddingProvider,
		natsPub,
	)

	agentCfg := agent.Config{
		TopK:                cfg.Agent.TopK,
		SimilarityThreshold: cfg.Agent.SimilarityThreshold,
		GraderThreshold:     cfg.Agent.GraderThreshold,
		MaxRetries:          cfg.Agent.MaxRetries,
		ConversationWindow:  cfg.Agent.ConversationWindow,
		LLMTemperature:      cfg.Ai.LLMTemperature,
	}

	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		retriever,
		historyCache,
		wsHub,
		natsPub,
		agentCfg,
	)
	documentService := service.NewDocumentService(uowFactory, publisherService)
	healthService := service.NewHealthService(uowFactory, llmProvider, cfg.App.Environment)

	// Event audit worker
	eventLogService := service.NewEventLogService(natsSub, sysLogger)
	if natsSub != nil {
		go eventLogService.Start()
	}

	// Handler
	traceStreamHandler := handler.NewTraceStreamHandler(wsHub, wsLogger)

	// 6. Controllers
	return &Container{
		TraceStreamHandler: traceStreamHandler,
		WebSocketHub:       wsHub,
		ChatController:     controller.NewChatController(chatService),
		DocumentController: controller.NewDocumentController(documentService),
		HealthController:   controller.NewHealthController(healthService),

		ConsumerService: consumerService,
	}
}
