package main

import (
	"fmt"
	"os"

	"deptinbox/backend/internal/service"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: hash-password <password>")
		os.Exit(1)
	}

	password := os.Args[1]
	if len(password) < 8 {
		fmt.Println("Invalid password: must be at least 8 characters")
		os.Exit(1)
	}

	hash, err := service.HashPassword(password)
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
	fmt.Fprintln(os.Stderr, "\nSet it as DEPTINBOX_ADMIN_PASSWORD_HASH, together with a DEPTINBOX_ADMIN_JWT_SECRET of at least 32 characters.")
}
