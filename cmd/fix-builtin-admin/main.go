package main

import (
	"context"
	"fmt"
	"syscall"

	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/app"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/logger"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/repository"
	"golang.org/x/term"
)

// Restores the built-in administrator: admin role, unblocked, and a
// password when none is stored.
func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Open Store ────────────────────────────────────────────────────
	rt, err := app.Open(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer rt.Close()

	svc := app.NewServices(ctx, cfg, rt.Store, nil, log)
	users := repository.NewUserRepository(rt.Store)
	email := cfg.BuiltinAdminEmail

	fmt.Println("=== Fix Built-in Administrator ===")
	fmt.Printf("Account: %s\n", email)

	// 1. Make sure a credential exists.
	if _, ok := users.GetCredential(ctx, email); !ok {
		fmt.Print("No password stored. Enter Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil || len(bytePassword) < 6 {
			fmt.Println("Error: Password must be at least 6 characters")
			return
		}
		if _, err := svc.Auth.EnsureAccount(ctx, email, "Administrator", model.RoleAdmin, string(bytePassword)); err != nil {
			log.Fatal().Err(err).Msg("Failed to store credential")
		}
		fmt.Println("Password stored.")
	}

	// 2. Restore the admin role.
	user, ok := svc.Admin.UserByEmail(email)
	if !ok || user.Role != model.RoleAdmin {
		if _, err := svc.Admin.Dispatch(ctx, admin.UpsertUser{User: model.AdminUserRecord{Email: email, Role: model.RoleAdmin}}); err != nil {
			log.Fatal().Err(err).Msg("Failed to restore admin role")
		}
		user, _ = svc.Admin.UserByEmail(email)
		fmt.Println("Admin role restored.")
	}

	// 3. Unblock.
	if user.IsBlocked {
		if _, err := svc.Admin.Dispatch(ctx, admin.ToggleUserBlock{ID: user.ID}); err != nil {
			log.Fatal().Err(err).Msg("Failed to unblock account")
		}
		fmt.Println("Account unblocked.")
	}

	fmt.Println("\nSuccess! The built-in administrator can sign in.")
}
