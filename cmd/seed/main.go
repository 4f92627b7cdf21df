package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/oksasatya/user-account-api/config"
	"github.com/oksasatya/user-account-api/pkg/helpers"
)

type seedUser struct {
	Name     string
	Email    string
	Password string
	IsAdmin  bool
}

var sampleUsers = []seedUser{
	{Name: "Admin User", Email: "admin@example.com", Password: "password123", IsAdmin: true},
	{Name: "John Doe", Email: "john@example.com", Password: "password123"},
	{Name: "Jane Doe", Email: "jane@example.com", Password: "password123"},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	destroy := len(os.Args) > 1 && os.Args[1] == "-d"

	if _, err := db.Exec(`DELETE FROM users`); err != nil {
		log.Fatalf("failed to clear users: %v", err)
	}
	if destroy {
		fmt.Println("data destroyed")
		return
	}

	for _, su := range sampleUsers {
		hash, err := helpers.HashPassword(su.Password)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}
		var id string
		err = db.QueryRow(`
			INSERT INTO users (name, email, password_hash, is_admin)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, su.Name, su.Email, hash, su.IsAdmin).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", su.Email, err)
		}
		fmt.Printf("seeded user: id=%s email=%s admin=%v\n", id, su.Email, su.IsAdmin)
	}
	fmt.Println("data imported")
}
