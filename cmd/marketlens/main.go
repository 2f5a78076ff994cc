package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"marketlens/internal/cli"
)

func main() {
	// Optional .env for local development; real deployments set env vars
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
