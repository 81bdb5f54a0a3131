package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"foodgram/internal/api"
	"foodgram/internal/media"
	"foodgram/internal/membership"
	"foodgram/internal/recipe"
	"foodgram/internal/shopping"
	"foodgram/internal/user"
)

// Config represents the application configuration, read from the
// environment (a .env file is loaded when present).
type Config struct {
	DatabaseURL string
	JWTSecret   string
	Port        string
	MediaDir    string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Port:        os.Getenv("PORT"),
		MediaDir:    os.Getenv("MEDIA_DIR"),
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.MediaDir == "" {
		cfg.MediaDir = "./media"
	}
	return cfg
}

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		panic("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		panic("JWT_SECRET is not set")
	}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("failed to connect to database: %w", err))
	}

	// Users first: recipes and membership tables reference it.
	userStore, err := user.NewPostgresStore(db)
	if err != nil {
		panic(fmt.Errorf("error creating user store: %w", err))
	}
	recipeStore, err := recipe.NewPostgresStore(db)
	if err != nil {
		panic(fmt.Errorf("error creating recipe store: %w", err))
	}
	cartStore, err := membership.NewStore(db, membership.Cart)
	if err != nil {
		panic(fmt.Errorf("error creating cart store: %w", err))
	}
	favoriteStore, err := membership.NewStore(db, membership.Favorite)
	if err != nil {
		panic(fmt.Errorf("error creating favorite store: %w", err))
	}

	aggregator := shopping.NewAggregator(cartStore, recipeStore)
	mediaStore := media.NewStore(cfg.MediaDir)

	handler := api.NewHandler(recipeStore, cartStore, favoriteStore, userStore, aggregator, mediaStore, []byte(cfg.JWTSecret))

	r := gin.Default()

	// Configure CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8081"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.RegisterRoutes(r, handler)
	r.Static("/media", cfg.MediaDir)

	r.Run(":" + cfg.Port)
}
