// Command loader is the one-shot ETL job that bulk-loads the dataset CSVs
// into the document store, clearing each collection before reload. The
// runtime server never depends on it.
package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"shopassist/internal/config"
	"shopassist/internal/ingest"
	"shopassist/internal/storage"
)

func main() {
	cfgPath := os.Getenv("SHOPASSIST_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	dataDir := cfg.BasicConfig.DataDir
	if dataDir == "" {
		dataDir = "./data"
	}
	if _, err := os.Stat(dataDir); err != nil {
		log.Fatalf("data directory %s not found: %v", dataDir, err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("open document store: %v", err)
	}
	defer store.Close(ctx)

	for _, file := range ingest.SortedFiles() {
		collection := ingest.CollectionFiles[file]
		path := filepath.Join(dataDir, file)

		docs, err := ingest.ReadRecords(path)
		if err != nil {
			if os.IsNotExist(err) {
				log.Printf("WARNING: %s not found, skipping", file)
				continue
			}
			log.Fatalf("parse %s: %v", file, err)
		}

		count, err := store.ReloadCollection(ctx, collection, docs)
		if err != nil {
			log.Fatalf("load %s into %s: %v", file, collection, err)
		}
		log.Printf("loaded %d documents into %s", count, collection)
	}
}
