package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"kaiwa/internal/config"
	"kaiwa/internal/database"
	"kaiwa/internal/handler"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  .env file not found, using default values: %v", err)
	}

	// 環境変数を読み込み
	cfg := config.Load()

	// データベース接続を初期化
	db, err := database.Init(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer db.Close()

	// ハンドラー初期化
	h := handler.New(db, cfg)

	router := h.SetupRouter()

	// CORS対応
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS", "PUT"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "user-id"},
		ExposedHeaders:   []string{"Content-Length"},
		MaxAge:           300,
		AllowCredentials: true,
	})

	httpHandler := c.Handler(router)

	fmt.Println("========================================")
	fmt.Println("  Kaiwa Messenger Server")
	fmt.Println("========================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Server: http://localhost:%s\n", cfg.ServerPort)
	fmt.Printf("  WebSocket: ws://localhost:%s/api/ws\n", cfg.ServerPort)
	if cfg.DBName != "" {
		fmt.Printf("  Database: %s@%s:%s/%s\n", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	fmt.Printf("  Storage: %s\n", cfg.StoragePath)
	fmt.Printf("  Allowed Origins: %v\n", cfg.AllowedOrigins)
	fmt.Println("========================================")
	log.Println("🚀 Server started successfully")
	log.Fatal(http.ListenAndServe(":"+cfg.ServerPort, httpHandler))
}
