//go:build ignore

package main

import (
	"fmt"
	"os"

	"notes-portal/internal/auth"
)

// Prints a bcrypt hash for ADMIN_PASSWORD_HASH.
//
//	go run scripts/hash_admin_password.go 's3cret'
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/hash_admin_password.go <password>")
		os.Exit(2)
	}

	hash, err := auth.HashPassword(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
