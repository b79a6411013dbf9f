// seed applies the schema and inserts a few identities into the local dev
// database so the magic-link flow can be exercised end to end.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/cvforge/auth-service/internal/infrastructure/postgres"
)

type identitySpec struct {
	email string
	name  string
}

var identities = []identitySpec{
	{"alice@example.com", "Alice Johnson"},
	{"bob@example.com", "Bob Miller"},
	{"carol@example.com", "Carol Nguyen"},
	{"seed@test.local", "Seed User"},
}

func main() {
	ctx := context.Background()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalf("schema: %v", err)
	}

	for _, ident := range identities {
		_, err := pool.Exec(ctx,
			`INSERT INTO identities (email, name) VALUES ($1, $2)
			ON CONFLICT (email) DO NOTHING`,
			ident.email, ident.name,
		)
		if err != nil {
			log.Fatalf("insert identity %s: %v", ident.email, err)
		}
		fmt.Printf("seeded %s\n", ident.email)
	}

	fmt.Println("done")
}
