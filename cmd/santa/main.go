package main

import (
	"fmt"
	"os"

	"github.com/open-builders/secret-santa-bot/internal/cli"
)

// @title           Secret Santa Bot API
// @version         1.0
// @description     Organizer API of the Secret Santa bot. All endpoints require Telegram init data of an admin.

// @BasePath  /api/v1

// @securityDefinitions.apikey TelegramInitData
// @in header
// @name X-Telegram-Init-Data
// @description Telegram Mini App init data string

// @tag.name admin
// @tag.description Distribution trigger and participant overview

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
