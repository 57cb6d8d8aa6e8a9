package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"slack-gpt-sessions/internal/config"
	"slack-gpt-sessions/internal/infra/db"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	// ---- Config ----
	// only the database section has to be valid here
	cfg, err := config.LoadDatabaseConfig(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	total, err := store.Tokens().Total(ctx)
	if err != nil {
		log.Fatalf("read token counter: %v", err)
	}
	fmt.Printf("schema ready on %s; token counter at %d.\n", cfg.Database.Driver, total)
}
