package bootstrap

import (
	"context"
	"log"

	"friendlist-be/internal/config"
	"friendlist-be/internal/controller"
	"friendlist-be/internal/dto"
	"friendlist-be/internal/handler"
	"friendlist-be/internal/pkg/logger"
	"friendlist-be/internal/repository/memory"
	"friendlist-be/internal/repository/unitofwork"
	"friendlist-be/internal/service"
	"friendlist-be/internal/websocket"
	"friendlist-be/pkg/auth"
	"friendlist-be/pkg/events"
	"friendlist-be/pkg/feed"
	"friendlist-be/pkg/grounding"
	"friendlist-be/pkg/llm"
	"friendlist-be/pkg/llm/factory"
	"friendlist-be/pkg/localstore"

	pktNats "friendlist-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	ItemController      controller.IItemController
	AssistantController controller.IAssistantController
	GroundingController controller.IGroundingController

	// Realtime feed and activity log
	FeedHandler  *handler.FeedHandler
	WebSocketHub *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil when the database could not
// be reached at startup; items are then kept in the local store only.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	c := &Container{Logger: sysLogger}

	var uowFactory unitofwork.RepositoryFactory
	if db != nil {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	} else {
		sysLogger.Warn("Bootstrap", "No database, items will use the local store", nil)
	}

	local, err := localstore.Open(cfg.App.LocalStorePath)
	if err != nil {
		sysLogger.Warn("Bootstrap", "Local store unreadable, starting empty", map[string]interface{}{"error": err.Error()})
		local, _ = localstore.Open("")
	}

	// 2. Event Bus
	itemFeed := feed.New(feed.NewPubSub(), feed.DefaultTopic, sysLogger)

	var publisher events.Publisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		publisher = natsPub
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		rdb = nil
	}

	// 3. Services
	itemService := service.NewItemService(service.ItemServiceDeps{
		UowFactory: uowFactory,
		Local:      local,
		Feed:       itemFeed,
		Events:     publisher,
		Logger:     sysLogger,
		OnClose: []func(){func() {
			if natsPub != nil {
				natsPub.Close()
			}
		}},
	})

	llmProvider, err := factory.NewLLMProvider(factory.Params{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.LLMModel,
		GrokAPIKey:    cfg.Keys.Grok,
		GrokBaseURL:   cfg.Ai.GrokBaseURL,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		Timeout:       cfg.Ai.Timeout,
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	scraper := grounding.NewScraper(0)
	places := grounding.NewPlacesClient(cfg.Keys.GooglePlaces, 0)
	grounder := grounding.NewGrounder(scraper, places, sysLogger)

	assistantService := service.NewAssistantService(
		memory.NewConversationRepository(cfg.App.ConversationTTL),
		itemService,
		grounder,
		llmProvider,
		sysLogger,
		llm.WithTemperature(cfg.Ai.Temperature),
		llm.WithMaxTokens(cfg.Ai.MaxTokens),
		llm.WithWebSearch(cfg.Ai.EnableSearch),
	)
	groundingService := service.NewGroundingService(scraper, places, llmProvider, sysLogger)

	issuer := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	authService := service.NewAuthService(cfg.Auth.SharedPassword, cfg.Auth.SharedPasswordHash, issuer, publisher, sysLogger)

	// 4. Realtime: list snapshots fan out through the hub
	hubCtx, stopHub := context.WithCancel(context.Background())
	wsLogger := logger.NewIsolatedLogger(cfg.App.FeedLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(hubCtx)

	unsubscribe, err := itemService.Subscribe(func(items []*dto.ItemResponse) {
		wsHub.Publish(items)
	})
	if err != nil {
		log.Printf("[WARN] Failed to subscribe hub to item feed: %v", err)
		unsubscribe = func() {}
	}

	activityService := service.NewActivityService(sysLogger)
	if natsSub != nil {
		if err := natsSub.Subscribe(service.ActivitySubject, service.ActivityDurable, activityService.Handle); err != nil {
			log.Printf("[WARN] Failed to subscribe to item events: %v", err)
		}
	}

	c.closers = append(c.closers,
		unsubscribe,
		stopHub,
		func() {
			if natsSub != nil {
				natsSub.Close()
			}
		},
		func() { _ = itemService.Close() },
		func() {
			if rdb != nil {
				_ = rdb.Close()
			}
		},
		func() { _ = sysLogger.Sync() },
	)

	// 5. Controllers
	c.AuthController = controller.NewAuthController(authService)
	c.ItemController = controller.NewItemController(itemService, issuer)
	c.AssistantController = controller.NewAssistantController(assistantService, issuer)
	c.GroundingController = controller.NewGroundingController(groundingService)
	c.FeedHandler = handler.NewFeedHandler(itemService, activityService, wsHub, issuer, wsLogger)
	c.WebSocketHub = wsHub

	return c
}

// Close releases the bus, cache and hub resources in reverse dependency order.
func (c *Container) Close() {
	for _, fn := range c.closers {
		fn()
	}
}
