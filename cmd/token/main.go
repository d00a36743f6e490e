package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/reelboard/reelboard/internal/auth"
	"github.com/reelboard/reelboard/internal/models"
)

// token mints a signed access token for a user, for testing against a
// running server without going through /login.
func main() {
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "signing secret (defaults to JWT_SECRET)")
	userID := flag.String("user", "", "user UUID (random if omitted)")
	name := flag.String("name", "test user", "display name")
	role := flag.String("role", "editor", "user role")
	flag.Parse()

	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Usage: token -secret <jwt-secret> [-user <uuid>] [-name <name>] [-role <role>]")
		os.Exit(1)
	}

	if !models.ValidRole(models.Role(*role)) {
		fmt.Fprintf(os.Stderr, "Unknown role: %s\n", *role)
		os.Exit(1)
	}

	id := *userID
	if id == "" {
		id = uuid.New().String()
	} else if _, err := uuid.Parse(id); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user id: %v\n", err)
		os.Exit(1)
	}

	signed, err := auth.New(*secret).Issue(id, *name, models.Role(*role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User:  %s\n", id)
	fmt.Printf("Role:  %s\n", *role)
	fmt.Printf("Token: %s\n", signed)
}
