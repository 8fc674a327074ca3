// Command importer pulls expansions and cards from the upstream catalog into
// the local database. Flags may be combined; expansions always run first.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dom/tcg-collection/internal/catalog"
	"github.com/dom/tcg-collection/internal/config"
	"github.com/dom/tcg-collection/internal/logging"
	"github.com/dom/tcg-collection/internal/repository/postgres"
	"github.com/dom/tcg-collection/internal/service"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		expansions = flag.Bool("expansions", false, "import every expansion from the catalog")
		cards      = flag.String("cards", "", "import cards for one expansion (external id or name)")
		allCards   = flag.Bool("all-cards", false, "import cards for every imported expansion")
		bulk       = flag.Bool("bulk", false, "insert new cards only, skipping ones already stored")
	)
	flag.Parse()

	if !*expansions && *cards == "" && !*allCards {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfg, err := config.LoadImporter()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, cleanup := logging.New(cfg.Environment)
	defer cleanup()

	db, err := postgres.NewConnection(cfg.DatabaseURL, logging.GormLogLevel(cfg.Environment))
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	repos := postgres.NewRepositories(db)

	importer := service.NewImportService(catalog.NewClient(cfg.Catalog, logger), repos.Expansion, repos.Card, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, importer, *expansions, *cards, *allCards, service.ImportOptions{Bulk: *bulk}); err != nil {
		logger.Error("import failed", zap.Error(err))
		cleanup()
		os.Exit(1)
	}
}

func run(ctx context.Context, importer *service.ImportService, expansions bool, cards string, allCards bool, opts service.ImportOptions) error {
	if expansions {
		result, err := importer.ImportExpansions(ctx)
		if err != nil {
			return fmt.Errorf("import expansions: %w", err)
		}
		printResult("expansions", result)
	}

	if cards != "" {
		expansion, err := importer.ResolveExpansion(ctx, cards)
		if err != nil {
			return err
		}
		result, err := importer.ImportCardsForExpansion(ctx, expansion.ExternalID, opts)
		if err != nil {
			return fmt.Errorf("import cards for %s: %w", expansion.ExternalID, err)
		}
		printResult("cards "+expansion.ExternalID, result)
	}

	if allCards {
		result, err := importer.ImportAllCards(ctx, opts)
		if err != nil {
			return fmt.Errorf("import all cards: %w", err)
		}
		printResult(fmt.Sprintf("cards (%d expansions)", result.Expansions), &result.Totals)
		for id, reason := range result.Failures {
			fmt.Printf("  failed %s: %s\n", id, reason)
		}
	}

	return nil
}

func printResult(label string, r *service.ImportResult) {
	fmt.Printf("%s: created=%d updated=%d skipped=%d failed=%d\n", label, r.Created, r.Updated, r.Skipped, r.Failed)
}
