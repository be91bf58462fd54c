package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/stemsi/certify-backend/internal/app"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/logger"
	"github.com/stemsi/certify-backend/internal/model"
)

var names = []string{
	"Budi Santoso", "Siti Aminah", "Andi Pratama", "Rina Wati", "Joko Susilo",
	"Ayu Lestari", "Dodi Kusuma", "Eka Putri", "Fahri Hamzah", "Gita Savitri",
	"Hendra Gunawan", "Ika Sari", "Lukman Hakim", "Maya Septiana", "Nanda Pratama",
	"Oki Setiana", "Putri Dian", "Rafi Ahmad", "Toni Setiawan", "Wahyu Hidayat",
}

func main() {
	count := flag.Int("n", 20, "number of candidate accounts to seed")
	password := flag.String("password", "pemilu2026", "password for every seeded account")
	domain := flag.String("domain", "example.com", "email domain of seeded accounts")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *count < 1 || *count > len(names) {
		fmt.Printf("Error: -n must be between 1 and %d\n", len(names))
		os.Exit(2)
	}

	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer rt.Close()

	svc := app.NewServices(ctx, cfg, rt.Store, nil, log)

	fmt.Printf("=== Seeding %d Candidates ===\n", *count)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Email", "Name", "Status"})

	successCount := 0
	for i := 0; i < *count; i++ {
		name := names[i]
		email := fmt.Sprintf("%s@%s", strings.ReplaceAll(strings.ToLower(name), " ", "."), *domain)

		status := "created"
		if _, exists := svc.Admin.UserByEmail(email); exists {
			status = "updated"
		}
		if _, err := svc.Auth.EnsureAccount(ctx, email, name, model.RoleUser, *password); err != nil {
			status = "error: " + err.Error()
		} else {
			successCount++
		}
		table.Append([]string{email, name, status})
	}

	table.Render()
	fmt.Printf("\nSeed completed! %d/%d accounts ready.\n", successCount, *count)
}
