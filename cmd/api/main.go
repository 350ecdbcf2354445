package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/lethphd/bayarea-urbansim/internal/api/handlers"
	"github.com/lethphd/bayarea-urbansim/internal/api/middleware"
	"github.com/lethphd/bayarea-urbansim/internal/config"
	"github.com/lethphd/bayarea-urbansim/internal/persistence"
)

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/settings.yaml"
	}
	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", cfgPath, err)
	}

	// Persistence is optional; without DB_PATH runs are not stored.
	var db *persistence.DB
	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		db, err = persistence.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open database %s: %v", dbPath, err)
		}
		defer db.Close()
		log.Printf("Persisting runs to %s", dbPath)
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.ErrorHandler())

	simulateHandler := handlers.NewSimulateHandler(cfg, dataDir, db)
	rankHandler := handlers.NewRankHandler(cfg, dataDir)
	scenariosHandler := handlers.NewScenariosHandler(cfg)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/simulate", simulateHandler.RunSimulation)
		api.GET("/runs/:id/events", simulateHandler.GetRunEvents)

		api.GET("/rank", rankHandler.RankParcels)
		api.GET("/scenarios", scenariosHandler.ListScenarios)
	}

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s (scenario default %q)", addr, cfg.DefaultScenario)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
