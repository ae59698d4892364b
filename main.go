package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"shopassist/internal/api"
	"shopassist/internal/catalog"
	"shopassist/internal/config"
	"shopassist/internal/service/ai"
	"shopassist/internal/service/chat"
	"shopassist/internal/storage"
)

func main() {
	cfgPath := os.Getenv("SHOPASSIST_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	var handler *api.Handler
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		// Keep the process (and the health probe) up; every data
		// endpoint answers 503 until the store is reachable again.
		log.Printf("WARNING: could not connect to the document store: %v", err)
		handler = api.NewHandler(nil, nil)
	} else {
		defer store.Close(ctx)

		provider := cfg.BasicConfig.OracleProvider
		if provider == "" {
			provider = "gemini"
		}
		oracle, err := ai.NewService(cfg, provider, "")
		if err != nil {
			log.Fatalf("init ai service: %v", err)
		}

		executor := catalog.NewExecutor(store)
		chatService := chat.NewService(store, executor, oracle)
		handler = api.NewHandler(chatService, store)
	}

	router := gin.Default()
	handler.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8000"
	}

	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
