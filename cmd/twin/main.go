/*
main.go - Commerce twin entry point

PURPOSE:
  Runs a local stand-in for the commerce platform so the loyalty engine
  and a local storefront can be developed without network access.

COMMAND-LINE FLAGS:
  -port   HTTP port (default: 9090)
  -db     SQLite database path (default: twin.db, ":memory:" supported)
  -admin  Admin token for seeding and initialization (default: twin-admin)

EXAMPLES:
  # Throwaway in-memory platform
  ./twin -db=":memory:"

  # Seed a customer, then point the engine at http://localhost:9090/graphql
  curl -X POST localhost:9090/admin/customers \
    -H 'X-Admin-Token: twin-admin' \
    -d '{"id":"cust-1","access_token":"tok-1","email":"dev@example.com"}'
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meridian/loyalty-engine/twin"
)

func main() {
	port := flag.Int("port", 9090, "HTTP port")
	dbPath := flag.String("db", "twin.db", "SQLite database path")
	adminToken := flag.String("admin", "twin-admin", "admin token")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	store, err := twin.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	server := twin.NewServer(store, *adminToken, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	logger.Info("commerce twin listening", zap.Int("port", *port), zap.String("db", *dbPath))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed: %v", err)
	}
}
