package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/stemsi/certifypro-backend/internal/config"
	"github.com/stemsi/certifypro-backend/internal/database"
	"github.com/stemsi/certifypro-backend/internal/logger"
	"github.com/stemsi/certifypro-backend/internal/model"
	"github.com/stemsi/certifypro-backend/internal/repository"
	"github.com/stemsi/certifypro-backend/internal/service"
	"github.com/stemsi/certifypro-backend/internal/validator"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	validator.Setup()

	if cfg.StorageDriver != config.StorageDriverPostgres {
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("create-user needs STORAGE_DRIVER=postgres")
	}

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Service ────────────────────────────────────────────
	// Accounts created here are not logged in, so markers stay in memory.
	userRepo := repository.NewPostgresUserRepository(pool)
	authService := service.NewAuthService(cfg, userRepo, repository.NewMemorySessionMarkerRepository(), log)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	req := &model.RegisterRequest{
		FirstName: prompt(reader, "Enter First Name: "),
		LastName:  prompt(reader, "Enter Last Name (optional): "),
		Email:     prompt(reader, "Enter Email: "),
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	fmt.Println() // Newline after password input
	req.Password = string(bytePassword)

	if fields := validator.Struct(req); fields != nil {
		for field, msg := range fields {
			fmt.Printf("Error: %s: %s\n", field, msg)
		}
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	user, err := authService.CreateUser(ctx, req)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateRegistration) {
			fmt.Printf("Error: a user with email %s already exists\n", service.NormalizeEmail(req.Email))
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create user")
	}

	fmt.Printf("\nSuccess! User '%s' (%s) created with ID: %s\n", user.FullName(), user.Email, user.ID)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
