// Package main provides role management utilities for TalentHub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"talenthub/internal/bootstrap"
	"talenthub/internal/cache"
	"talenthub/internal/config"
	"talenthub/internal/models"
	"talenthub/internal/repository"
	"talenthub/internal/service"

	"github.com/joho/godotenv"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>       - Promote user to admin")
	fmt.Println("  go run ./cmd/admin demote <user_id>        - Demote admin to user")
	fmt.Println("  go run ./cmd/admin grant-super <user_id>   - Make user a super admin")
	fmt.Println("  go run ./cmd/admin show <user_id>          - Print a user")
	fmt.Println("  go run ./cmd/admin list-admins             - List admins and super admins")
	fmt.Println("  go run ./cmd/admin list-users [limit]      - List users")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: could not read .env: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	users := service.NewUserService(repository.NewUserRepository(repository.Handles{
		DB:    rt.DB,
		Read:  rt.ReadDB,
		Cache: cache.New(rt.Redis),
	}))

	switch cmd := os.Args[1]; cmd {
	case "promote":
		setRole(ctx, users, models.RoleAdmin)
	case "demote":
		setRole(ctx, users, models.RoleUser)
	case "grant-super":
		setRole(ctx, users, models.RoleSuperAdmin)
	case "show":
		user, err := users.GetUserByID(ctx, userIDArg())
		if err != nil {
			log.Fatalf("Failed to load user: %v", err)
		}
		printUser(*user)
		fmt.Printf("admin request: %s\n", user.AdminRequest.Status)
	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to fetch admins: %v", err)
		}
		printTable("Current Admins", admins)
	case "list-users":
		limit := 50
		if len(os.Args) > 2 {
			if limit, err = strconv.Atoi(os.Args[2]); err != nil {
				log.Fatalf("Invalid limit %q", os.Args[2])
			}
		}
		list, err := users.ListUsers(ctx, limit, 0)
		if err != nil {
			log.Fatalf("Failed to fetch users: %v", err)
		}
		printTable("Users", list)
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func userIDArg() uint {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 32)
	if err != nil || id == 0 {
		log.Fatalf("Invalid user ID %q", os.Args[2])
	}
	return uint(id)
}

func setRole(ctx context.Context, users *service.UserService, role models.Role) {
	id := userIDArg()
	current, err := users.GetUserByID(ctx, id)
	if err != nil {
		log.Fatalf("Failed to load user %d: %v", id, err)
	}
	if current.Role == role {
		fmt.Printf("User %s (ID: %d) is already %s\n", current.Name, current.ID, role)
		return
	}

	user, err := users.SetRole(ctx, id, role)
	if err != nil {
		log.Fatalf("Failed to change role: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d) is now %s\n", user.Name, user.ID, user.Role)
}

func printUser(u models.User) {
	fmt.Printf("ID: %d | Name: %s | Email: %s | Role: %s\n", u.ID, u.Name, u.Email, u.Role)
}

func printTable(title string, users []models.User) {
	if len(users) == 0 {
		fmt.Println("No matching users found")
		return
	}
	fmt.Printf("\n📋 %s:\n", title)
	fmt.Println("─────────────────────────────────────")
	for _, u := range users {
		printUser(u)
	}
	fmt.Println("─────────────────────────────────────")
}
