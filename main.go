package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/makola-community/makola/pkg/cli"
)

var version = "dev"

func main() {
	// .env is optional; flags and the environment take effect without it
	_ = godotenv.Load()

	if err := cli.Run(context.Background(), os.Args, version); err != nil {
		os.Exit(1)
	}
}
