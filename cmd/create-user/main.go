package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/database"
	"github.com/traindesk/traindesk-backend/internal/logger"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/service"
	"golang.org/x/term"
)

// Seeding tool: creates a user record and prints a signed JWT for it, so
// local environments work without the platform's identity service.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	authService := service.NewAuthService(cfg)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Create New User ===")

	fmt.Print("Enter Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	fmt.Print("Enter Email: ")
	email, _ := reader.ReadString('\n')
	email = strings.TrimSpace(email)
	if email == "" {
		fmt.Println("Error: Email is required")
		return
	}

	fmt.Print("Enter Role (candidate/proctor, default candidate): ")
	roleStr, _ := reader.ReadString('\n')
	roleStr = strings.TrimSpace(roleStr)
	role := model.RoleCandidate
	switch roleStr {
	case "", string(model.RoleCandidate):
	case string(model.RoleProctor):
		role = model.RoleProctor
	default:
		fmt.Println("Error: Role must be candidate or proctor")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		fmt.Println("\nError reading password")
		return
	}
	password := string(bytePassword)
	fmt.Println()
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	hash, err := authService.HashPassword(password)
	if err != nil {
		fmt.Printf("Error: hashing password: %v\n", err)
		return
	}

	userID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO users (id, name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4, $5)`,
		userID, name, email, hash, role,
	)
	if err != nil {
		fmt.Printf("Error: inserting user: %v\n", err)
		return
	}

	token, err := authService.GenerateToken(userID, role, name)
	if err != nil {
		fmt.Printf("Error: generating token: %v\n", err)
		return
	}

	fmt.Println("User created successfully")
	fmt.Printf("  ID:    %s\n", userID)
	fmt.Printf("  Role:  %s\n", role)
	fmt.Printf("  Token: %s\n", token)
}
