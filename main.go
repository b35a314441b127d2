package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"aaswap/cmd"
)

func main() {
	// A .env file is a convenience for local development, not a requirement.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
