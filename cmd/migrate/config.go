package main

import (
	"fmt"
	"strings"

	"librarydesk/internal/platform/migrations"
)

func parseCommand(raw string) (migrations.Command, error) {
	switch cmd := migrations.Command(strings.ToLower(strings.TrimSpace(raw))); cmd {
	case migrations.CommandUp, migrations.CommandDown, migrations.CommandStatus:
		return cmd, nil
	default:
		return "", fmt.Errorf("unknown command: %s. Use: up, down, status", raw)
	}
}
