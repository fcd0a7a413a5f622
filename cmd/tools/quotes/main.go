package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/marcus/quote-desk/internal/auth"
	"github.com/marcus/quote-desk/internal/config"
	"github.com/marcus/quote-desk/internal/credstore"
	"github.com/marcus/quote-desk/internal/mapping"
	"github.com/marcus/quote-desk/internal/quotes"
	"github.com/marcus/quote-desk/internal/upstream"
)

func main() {
	statsOnly := flag.Bool("stats", false, "print status counts instead of the quote table")
	query := flag.String("q", "", "filter quotes by search term")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	store, err := credstore.Open(cfg.DataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	fields, err := mapping.LoadFieldMap(cfg.FieldMapPath)
	if err != nil {
		log.Fatal(err)
	}

	authSvc := auth.NewService(store, cfg)
	repo := upstream.NewRepository(upstream.NewGateway(cfg, authSvc))
	svc := quotes.NewService(repo, mapping.NewMapper(fields), cfg.FormID, cfg.SeriesIDs)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if *statsOnly {
		stats, err := svc.Stats(ctx)
		if err != nil {
			fatal(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Total", "Pending", "Processing", "Approved", "Denied", "Est. Cost"})
		t.AppendRow(table.Row{stats.Total, stats.Pending, stats.Processing, stats.Approved, stats.Denied, fmt.Sprintf("$%.2f", stats.TotalEstimatedCost)})
		t.Render()
		return
	}

	list, err := svc.Search(ctx, *query)
	if err != nil {
		fatal(err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"ID", "Client", "Project", "Status", "Comments", "Submitted"})

	for _, q := range list {
		desc := q.ProjectDescription
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		t.AppendRow(table.Row{q.ID, q.ClientName, desc, q.Status, len(q.Comments), q.SubmittedAt.Format("2006-01-02")})
	}
	t.Render()
}

// fatal explains an expired-credential failure instead of dumping it; the CLI
// cannot run the browser redirect itself.
func fatal(err error) {
	var reauth *auth.ReauthRequiredError
	if errors.As(err, &reauth) {
		log.Fatalf("Upstream authorization required. Open this URL in a browser:\n  %s", reauth.LoginURL)
	}
	if strings.Contains(err.Error(), "connection refused") {
		log.Fatalf("Could not reach upstream: %v", err)
	}
	log.Fatal(err)
}
