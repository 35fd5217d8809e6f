// Command divvy-init prepares a fresh installation: it runs the SQLite
// migrations and creates the first profile so the API is immediately usable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"divvy/internal/auth"
	"divvy/internal/config"
	"divvy/internal/core"
	"divvy/internal/storage"
	"divvy/internal/store"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "", "email for the first profile")
	displayName := flag.String("name", "", "display name for the first profile")
	password := flag.String("password", "", "password for the first profile (min 8 characters)")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration: %v", err)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		log.Fatalf("initialize storage: %v", err)
	}
	defer repo.Close()

	fmt.Printf("Database ready at %s\n", cfg.SQLiteDBPath)

	if *email == "" {
		fmt.Println("No -email given, skipping profile creation.")
		return
	}
	if *displayName == "" || *password == "" {
		log.Fatal("-name and -password are required together with -email")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	profile := core.Profile{
		Email:        strings.ToLower(strings.TrimSpace(*email)),
		DisplayName:  strings.TrimSpace(*displayName),
		PasswordHash: hash,
	}

	ctx := context.Background()
	if err := repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			fmt.Printf("Profile %s already exists, nothing to do.\n", profile.Email)
			return
		}
		log.Fatalf("create profile: %v", err)
	}

	fmt.Printf("Created profile %s (%s)\n", profile.Email, profile.DisplayName)
}
