// Command reset-user runs the lifecycle reset for one user against the
// database directly, for operators without API access.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ad/go-workshop-core/internal/db"
	"github.com/ad/go-workshop-core/internal/models"
	"github.com/ad/go-workshop-core/internal/services"
	"github.com/ad/go-workshop-core/internal/storage"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./workshop.db"
	}
	reportsDir := os.Getenv("REPORTS_DIR")
	if reportsDir == "" {
		reportsDir = "./reports"
	}

	userID := flag.Int64("user", 0, "id of the user to reset")
	scope := flag.String("scope", string(models.ScopeFullWipe), "full_wipe or holistic_reports_only")
	flag.Parse()

	if err := run(context.Background(), os.Stdout, dbPath, reportsDir, *userID, *scope); err != nil {
		log.Fatal(err)
	}
}

// run exits non-zero only when the reset could not start; category
// failures are part of the printed report.
func run(ctx context.Context, out io.Writer, dbPath, reportsDir string, userID int64, scopeName string) error {
	if userID <= 0 {
		return fmt.Errorf("-user is required")
	}
	scope, err := models.ParseResetScope(scopeName)
	if err != nil {
		return err
	}

	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	dbQueue := db.NewDBQueue(database)
	defer dbQueue.Close()

	files, err := storage.NewLocalStore(reportsDir)
	if err != nil {
		return err
	}

	engine := services.NewResetEngine(db.NewUserRepository(dbQueue), db.NewResetRepository(dbQueue), files, services.LogNotifier{})
	log.Printf("Resetting user %d (%s)...", userID, scope)
	report, err := engine.ResetUser(ctx, models.Actor{Role: models.RoleAdmin}, userID, scope)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return err
	}
	if failed := report.Err(); failed != nil {
		log.Printf("Reset finished with failures: %v", failed)
	} else {
		log.Println("Reset completed successfully!")
	}
	return nil
}
