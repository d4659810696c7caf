package main

import (
	"context"
	"os"

	"github.com/casualjim/stdinbridge/cmd/stdinbridge/commands"
	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := commands.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
