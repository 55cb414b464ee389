package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krishisakhi/krishisakhi/internal/api"
	"github.com/krishisakhi/krishisakhi/internal/capture"
	"github.com/krishisakhi/krishisakhi/internal/config"
	"github.com/krishisakhi/krishisakhi/internal/core"
	"github.com/krishisakhi/krishisakhi/internal/crops"
	"github.com/krishisakhi/krishisakhi/internal/farm"
	"github.com/krishisakhi/krishisakhi/internal/llm"
	"github.com/krishisakhi/krishisakhi/internal/metrics"
	"github.com/krishisakhi/krishisakhi/internal/nav"
	"github.com/krishisakhi/krishisakhi/internal/speech"
	"github.com/krishisakhi/krishisakhi/internal/store"
	"github.com/krishisakhi/krishisakhi/internal/weather"
)

// Default community groups seeded on first start.
var defaultFarmerGroups = []store.FarmerGroup{
	{Name: "Kochi Rice Farmers", District: "Kochi", Description: "Paddy cultivation and water management"},
	{Name: "Thrissur Vegetable Growers", District: "Thrissur", Description: "Vegetable farming and market coordination"},
	{Name: "Palakkad Coconut Collective", District: "Palakkad", Description: "Coconut farming and value-added products"},
	{Name: "Alappuzha Organic Farmers", District: "Alappuzha", Description: "Organic methods and certification"},
	{Name: "Kozhikode Spice Growers", District: "Kozhikode", Description: "Pepper, ginger and turmeric cultivation"},
}

func main() {
	// Load configuration
	config.LoadConfig()

	// Setup logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if config.AppConfig.LogLevel == "DEBUG" {
		log.Println("Service starting in DEBUG mode")
	}

	// Initialize database store
	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer dbStore.Close()

	if err := dbStore.SeedFarmerGroups(defaultFarmerGroups); err != nil {
		log.Fatalf("Failed to seed farmer groups: %v", err)
	}

	// Initialize the text-generation provider
	provider, err := llm.NewProvider(config.AppConfig)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}
	if closer, ok := provider.(interface{ Close() }); ok {
		defer closer.Close()
	}
	log.Printf("Using LLM provider: %s", provider.Name())

	m := metrics.New()

	// Conversation engine and voice pipeline
	conversationService := core.NewConversationService(dbStore, provider, m,
		config.AppConfig.MaxHistoryWindow, config.AppConfig.MaxResponseTokens)
	assistantService := core.NewAssistantService(
		capture.NewManager(),
		speech.NewTranscriber(config.AppConfig.SpeechToTextURL, config.AppConfig.HuggingFaceToken),
		conversationService,
		speech.NewSynthesizer(config.AppConfig.TextToSpeechURL, config.AppConfig.ElevenLabsAPIKey, config.AppConfig.DefaultVoiceID),
		speech.NewPlayer(),
		nav.NewRouter(),
		m,
	)

	// Farm diary, weather and crop planning
	farmService := farm.NewService(dbStore)
	weatherClient := weather.NewClient(config.AppConfig.WeatherAPIURL)
	cropRecommender := crops.NewRecommender(config.AppConfig.CropRecommenderURL)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(dbStore, conversationService, assistantService, farmService, weatherClient, cropRecommender)
	router := api.NewRouter(apiHandler, m)

	// Start HTTP server
	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // the voice pipeline chains three vendor calls
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		log.Printf("Starting server on %s. Press Ctrl+C to quit.", serverAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", serverAddr, err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give active connections time to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting gracefully")
}
