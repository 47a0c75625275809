package main

import (
	"log"
	"net/http"
	"os/exec"
	"runtime"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"seikyu/config"
	"seikyu/loader"
	"seikyu/payload"
)

func main() {
	log.Println("Connecting to database...")
	dbConn, err := sqlx.Open("sqlite3", "./seikyu.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		log.Fatalf("db open error: %v", err)
	}
	defer dbConn.Close()
	log.Println("Database connection successful.")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Printf("WARN: Failed to load config file: %v. Using defaults.", err)
		cfg = config.GetConfig()
	}

	if err := loader.InitDatabase(dbConn); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	log.Println("Database initialization complete.")

	// ペイロードキャッシュはRedisが設定されている場合のみ有効
	var store *payload.Store
	if cfg.RedisAddr != "" {
		kv, err := payload.NewRedisKV(cfg.RedisAddr)
		if err != nil {
			log.Printf("WARN: Redis unavailable (%v). Payload cache disabled.", err)
		} else {
			defer kv.Close()
			store = payload.NewStore(kv, cfg.PayloadMaxEntryBytes)
			log.Printf("Payload cache enabled (redis: %s).", cfg.RedisAddr)
		}
	} else {
		log.Println("Payload cache disabled (redisAddr not set).")
	}

	mux := http.NewServeMux()

	SetupRoutes(mux, dbConn, store)

	port := ":8080"
	log.Printf("Starting server on http://localhost%s", port)

	openBrowser("http://localhost:8080")

	if err := http.ListenAndServe(port, mux); err != nil {
		log.Fatalf("server start error: %v", err)
	}
}

func openBrowser(url string) {
	var err error
	switch runtime.GOOS {
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = exec.Command("xdg-open", url).Start()
	}
	if err != nil {
		log.Printf("failed to open browser: %v", err)
	}
}
