// app is the operator command line. With arguments it runs one command and
// exits; without arguments it opens the interactive till.
//
// Usage: app [sales|sale|delete-sale|stock|low-stock|customers|stats|daily|report] ...
package main

import (
	"bufio"
	"context"
	"errors"
	"log"
	"os"

	"pos-backend/internal/adapters/cli"
	"pos-backend/internal/adapters/repl"
	"pos-backend/internal/app"
	"pos-backend/internal/cache"
	"pos-backend/internal/config"
	"pos-backend/internal/db"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	// Writes from the CLI must still invalidate the server's dashboard cache.
	var dashboard *cache.Cache
	if cfg.RedisURL != "" {
		dashboard, err = cache.New(ctx, cfg.RedisURL, cfg.DashboardCacheTTL)
		if err != nil {
			log.Printf("Warning: redis unavailable, dashboard cache will not be invalidated: %v", err)
		} else {
			defer dashboard.Close()
		}
	}

	svc := app.NewAppService(app.NewServices(pool), dashboard, cfg.ReportTimeout)

	if len(os.Args) > 1 {
		if err := cli.Run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
			if errors.Is(err, cli.ErrUsage) {
				log.Fatal(err)
			}
			log.Fatalf("Error: %v", err)
		}
		return
	}

	var session *app.UserSession
	if email := os.Getenv("POS_OPERATOR_EMAIL"); email != "" {
		session, err = svc.Login(ctx, email, os.Getenv("POS_OPERATOR_PASSWORD"))
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
	}
	if err := repl.Run(ctx, svc, bufio.NewReader(os.Stdin), os.Stdout, session); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
