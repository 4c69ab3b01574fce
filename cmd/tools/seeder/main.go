package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	ensureSchema(ctx, pool)
	seedCategories(ctx, pool)
	seedProducts(ctx, pool)
	seedKits(ctx, pool)

	log.Println("Seeding completed successfully!")
}

func ensureSchema(ctx context.Context, pool *pgxpool.Pool) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			image_url TEXT,
			category_id UUID REFERENCES categories(id),
			price_regular BIGINT NOT NULL,
			price_special BIGINT NOT NULL DEFAULT 0,
			special_price_min_qty INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
		`CREATE TABLE IF NOT EXISTS kits (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			description TEXT,
			image_url TEXT,
			price_regular BIGINT NOT NULL,
			price_special BIGINT NOT NULL DEFAULT 0,
			special_price_min_qty INT NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE
		)`,
	}
	log.Println("Ensuring schema...")
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
	}
}

func seedCategories(ctx context.Context, pool *pgxpool.Pool) {
	categories := []struct {
		Name string
		Slug string
	}{
		{"Laços", "lacos"},
		{"Fitas", "fitas"},
		{"Tiaras", "tiaras"},
		{"Presilhas", "presilhas"},
		{"Aviamentos", "aviamentos"},
	}

	log.Println("Seeding categories...")
	for _, c := range categories {
		_, err := pool.Exec(ctx, `
			INSERT INTO categories (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO NOTHING;
		`, c.Name, c.Slug)
		if err != nil {
			log.Printf("Failed to seed category %s: %v", c.Slug, err)
		}
	}
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) {
	products := []struct {
		Name         string
		Slug         string
		Category     string
		PriceRegular int64
		PriceSpecial int64
		MinQty       int
	}{
		{"Laço Gorgurão Pequeno", "laco-gorgurao-pequeno", "lacos", 1450, 1200, 100},
		{"Laço Gorgurão Médio", "laco-gorgurao-medio", "lacos", 1890, 1550, 100},
		{"Laço Cetim Duplo", "laco-cetim-duplo", "lacos", 2200, 1800, 50},
		{"Fita Cetim 10mm (10m)", "fita-cetim-10mm", "fitas", 900, 700, 50},
		{"Fita Gorgurão 22mm (10m)", "fita-gorgurao-22mm", "fitas", 1350, 1100, 50},
		{"Fita Gorgurão Estampada (10m)", "fita-gorgurao-estampada", "fitas", 1690, 1400, 50},
		{"Tiara Encapada Fina", "tiara-encapada-fina", "tiaras", 1200, 950, 60},
		{"Tiara Encapada com Laço", "tiara-encapada-laco", "tiaras", 2450, 2000, 60},
		{"Presilha Bico de Pato 4,5cm", "presilha-bico-pato-45", "presilhas", 480, 350, 200},
		{"Presilha Tic Tac Infantil", "presilha-tic-tac", "presilhas", 390, 280, 200},
		{"Botão Pérola 10mm (pct 50)", "botao-perola-10mm", "aviamentos", 1150, 0, 0},
		{"Elástico de Cabelo Colorido", "elastico-cabelo-colorido", "aviamentos", 250, 180, 300},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (name, slug, category_id, price_regular, price_special, special_price_min_qty)
			SELECT $1, $2, c.id, $4, $5, $6 FROM categories c WHERE c.slug = $3
			ON CONFLICT (slug) DO UPDATE SET
				price_regular = EXCLUDED.price_regular,
				price_special = EXCLUDED.price_special,
				special_price_min_qty = EXCLUDED.special_price_min_qty;
		`, p.Name, p.Slug, p.Category, p.PriceRegular, p.PriceSpecial, p.MinQty)
		if err != nil {
			log.Printf("Failed to seed product %s: %v", p.Slug, err)
		}
	}
}

func seedKits(ctx context.Context, pool *pgxpool.Pool) {
	kits := []struct {
		Name         string
		Slug         string
		Description  string
		PriceRegular int64
		PriceSpecial int64
		MinQty       int
	}{
		{"Kit Revenda Iniciante", "kit-revenda-iniciante", "30 laços sortidos para começar a revender", 39900, 34900, 5},
		{"Kit Escola Volta às Aulas", "kit-escola", "50 presilhas e laços em cores lisas", 49900, 42900, 5},
		{"Kit Festa Junina", "kit-festa-junina", "Laços xadrez e fitas temáticas", 44900, 0, 0},
	}

	log.Println("Seeding kits...")
	for _, k := range kits {
		_, err := pool.Exec(ctx, `
			INSERT INTO kits (name, slug, description, price_regular, price_special, special_price_min_qty)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (slug) DO UPDATE SET
				price_regular = EXCLUDED.price_regular,
				price_special = EXCLUDED.price_special,
				special_price_min_qty = EXCLUDED.special_price_min_qty;
		`, k.Name, k.Slug, k.Description, k.PriceRegular, k.PriceSpecial, k.MinQty)
		if err != nil {
			log.Printf("Failed to seed kit %s: %v", k.Slug, err)
		}
	}
}
