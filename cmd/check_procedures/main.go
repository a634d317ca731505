// Command check_procedures verifies that the database a deployment points at
// exposes every stored procedure the game calls.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"telegram_clicker/internal/db"
	"telegram_clicker/internal/logger"
	"telegram_clicker/internal/repository"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		logger.Fatal("connect", "error", err)
	}
	defer pool.Close()

	missing, err := repository.MissingProcedures(ctx, pool)
	if err != nil {
		logger.Fatal("query procedures", "error", err)
	}

	for _, name := range repository.Procedures {
		status := "ok"
		for _, m := range missing {
			if m == name {
				status = "MISSING"
			}
		}
		fmt.Printf("%-24s %s\n", name, status)
	}
	if len(missing) > 0 {
		os.Exit(1)
	}
}
