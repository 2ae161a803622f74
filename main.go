package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/TriB-P/mediabox-sub008/internal/cli"
)

func main() {
	// .env is optional; real environment variables take precedence.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
