package main

import (
	"log"

	_ "github.com/joho/godotenv/autoload"

	"github.com/marcus/quote-desk/internal/api"
	"github.com/marcus/quote-desk/internal/auth"
	"github.com/marcus/quote-desk/internal/config"
	"github.com/marcus/quote-desk/internal/credstore"
	"github.com/marcus/quote-desk/internal/mapping"
	"github.com/marcus/quote-desk/internal/quotes"
	"github.com/marcus/quote-desk/internal/upstream"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := credstore.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open credential store: %v", err)
	}
	defer store.Close()

	fields, err := mapping.LoadFieldMap(cfg.FieldMapPath)
	if err != nil {
		log.Fatalf("Failed to load field map: %v", err)
	}

	authSvc := auth.NewService(store, cfg)
	gateway := upstream.NewGateway(cfg, authSvc)
	repo := upstream.NewRepository(gateway)
	quoteSvc := quotes.NewService(repo, mapping.NewMapper(fields), cfg.FormID, cfg.SeriesIDs)

	srv := api.NewServer(cfg, quoteSvc, authSvc)
	log.Printf("Server starting on port %s...", cfg.ListenPort)
	if err := srv.Start(cfg.ListenPort); err != nil {
		log.Fatal(err)
	}
}
