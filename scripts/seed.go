//go:build ignore

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/hugh/go-pools/internal/auth"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database"
	"github.com/hugh/go-pools/internal/database/models"
	"github.com/hugh/go-pools/pkg/config"
	"github.com/hugh/go-pools/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.MigrateUp(cfg.Database.URL(), logger); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)
	ctx := context.Background()

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin1234"
	}

	resp, err := authService.Register(ctx, auth.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Site",
		LastName:  "Admin",
	})
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			fmt.Printf("Admin user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create admin user: %v", err)
	}

	if err := db.Model(resp.User).Update("role", models.RoleAdmin).Error; err != nil {
		log.Fatalf("failed to grant admin role: %v", err)
	}

	// A demo board so a fresh install has something to look at
	boardService := boards.NewService(db, logger)
	actor := boards.Actor{UserID: resp.User.ID, Email: resp.User.Email, GlobalAdmin: true}
	board, err := boardService.CreateBoard(ctx, actor, "Demo Squares", models.BoardTypeSquares)
	if err != nil {
		log.Fatalf("failed to create demo board: %v", err)
	}

	fmt.Printf("Admin user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Demo board: %s\n", board.ID)
}
