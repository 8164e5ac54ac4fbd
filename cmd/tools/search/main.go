// cmd/tools/search/main.go
//
// Full-text search over indexed emails.
//
//	search -query "take home" [-category assignment] [-size 10]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/JanKonradK/Saturnus-Magister/internal/common/config"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/database"
	"github.com/JanKonradK/Saturnus-Magister/internal/common/logger"
	"github.com/JanKonradK/Saturnus-Magister/internal/models"
	"github.com/JanKonradK/Saturnus-Magister/internal/search"
)

func main() {
	query := flag.String("query", "", "free-text query")
	category := flag.String("category", "", "optional category filter")
	size := flag.Int("size", 10, "maximum hits")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: search -query <text> [-category <category>] [-size <n>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch connection failed", zap.Error(err))
	}

	indexer := search.NewIndexer(es.Client, cfg.Database.Elasticsearch.Index, log)
	results, err := indexer.Search(ctx, *query, models.EmailCategory(*category), *size)
	if err != nil {
		zapLog.Fatal("search failed", zap.Error(err))
	}

	if len(results) == 0 {
		fmt.Println("no hits")
		return
	}
	for _, r := range results {
		company := r.Company
		if company == "" {
			company = "-"
		}
		fmt.Printf("%5.2f  %-18s %-20s %s\n", r.Score, r.Category, company, r.Subject)
	}
}
