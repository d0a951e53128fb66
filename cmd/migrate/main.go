package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"standings-backend/internal/config"
	"standings-backend/internal/models"
	"standings-backend/internal/store"
)

// migrate copies the persisted tournaments of APP_USERNAME from the
// MIGRATE_FROM backend (default: file) to the configured STORE_BACKEND.
func main() {
	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	srcOpts := cfg.StoreOptions()
	srcOpts.Backend = os.Getenv("MIGRATE_FROM")
	if srcOpts.Backend == "" {
		srcOpts.Backend = "file"
	}
	dstOpts := cfg.StoreOptions()
	if srcOpts.Backend == dstOpts.Backend {
		log.Fatalf("Source and destination are both %s", dstOpts.Backend)
	}

	src, err := store.Open(ctx, srcOpts)
	if err != nil {
		log.Fatalf("Failed to open source: %v", err)
	}
	defer src.Close()

	dst, err := store.Open(ctx, dstOpts)
	if err != nil {
		log.Fatalf("Failed to open destination: %v", err)
	}
	defer dst.Close()

	key := store.Key(cfg.Username)
	fmt.Printf("Migrating %s: %s -> %s\n\n", key, srcOpts.Describe(), dstOpts.Describe())

	data, err := src.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("Nothing to migrate.")
		return
	}
	if err != nil {
		log.Fatalf("Failed to read source: %v", err)
	}

	var tournaments []models.Tournament
	if err := json.Unmarshal(data, &tournaments); err != nil {
		log.Fatalf("Source value is malformed, refusing to copy it: %v", err)
	}

	fmt.Printf("Tournaments: %d\n", len(tournaments))
	for _, t := range tournaments {
		players := 0
		for _, team := range t.Teams {
			players += len(team.Players)
		}
		fmt.Printf("  %s (%s)\n", t.Name, t.ID)
		fmt.Printf("    Teams: %d, Players: %d\n", len(t.Teams), players)
	}

	if _, err := dst.Get(ctx, key); err == nil {
		if os.Getenv("MIGRATE_FORCE") != "true" {
			log.Fatalf("Destination already holds %s; set MIGRATE_FORCE=true to overwrite", key)
		}
		fmt.Println("\nOverwriting existing destination value.")
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Fatalf("Failed to check destination: %v", err)
	}

	// copy the original bytes so nothing is lost to re-encoding
	if err := dst.Set(ctx, key, data); err != nil {
		log.Fatalf("Failed to write destination: %v", err)
	}
	fmt.Printf("\nDone. Migrated %d tournament(s).\n", len(tournaments))
}
