package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"annotator/internal/config"
	"annotator/internal/logger"
	"annotator/internal/repository/sqlite"
	"annotator/internal/service"
	"annotator/internal/service/websocket"
)

// Rebuilds the annotation index of a dataset without starting the server.
func main() {
	cfg := config.Load()
	datasetDir := flag.String("dir", "", "Dataset directory containing images/ and labels/")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Parse()

	if *datasetDir == "" {
		flag.Usage()
		os.Exit(2)
	}
	cfg.DatabasePath = *dbPath

	fmt.Printf("Indexing %s into database %s\n", *datasetDir, *dbPath)

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	logs := logger.NewLogger(cfg)
	defer logs.Close()

	manager := service.NewManager(sqlite.NewImageRepository(db), sqlite.NewAnnotationRepository(db),
		nil, nil, websocket.NewHubService(logs), cfg, logs)

	result, err := manager.SetDirectory(context.Background(), *datasetDir, false)
	if err != nil {
		log.Fatalf("Failed to index dataset: %v", err)
	}
	fmt.Printf("✅ Indexed %d images (%d with labels)\n", result.ImagesCount, result.ExistingLabels)
	if summary := result.FileTypes.Summary(); summary != "" {
		fmt.Printf("   File types: %s\n", summary)
	}

	// Show stats
	stats, err := manager.Stats()
	if err == nil {
		fmt.Printf("\n📊 Database Statistics:\n")
		fmt.Printf("   Total images: %d\n", stats.TotalImages)
		fmt.Printf("   Total annotations: %d\n", stats.TotalAnnotations)
		fmt.Printf("   Total size: %d bytes\n", stats.TotalSizeBytes)
		fmt.Printf("   Completion: %.1f%%\n", stats.CompletionRate)
		fmt.Printf("   Per class:\n")
		for _, c := range stats.ClassDistribution {
			fmt.Printf("      - %s: %d\n", c.ClassName, c.Count)
		}
	}
}
