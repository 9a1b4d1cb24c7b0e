package main

import (
	"context"

	"dividend-backend/cmd/dividend-cli/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
