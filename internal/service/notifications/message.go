package notifications

import (
	"fmt"
	"strings"

	"github.com/open-builders/secret-santa-bot/internal/domain/participant"
)

const (
	placeholder       = "-"
	wishesPlaceholder = "not specified"
)

// BuildAssignmentMessage tells a giver who they are buying a gift for.
func BuildAssignmentMessage(recipient *participant.Participant) string {
	var b strings.Builder
	b.WriteString("🎅 You are the Secret Santa for: ")
	b.WriteString(orDefault(recipient.DisplayName(), placeholder))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Telegram: %s (id: %d)\n", handle(recipient.Username), recipient.ID))
	b.WriteString("Group: ")
	b.WriteString(orDefault(recipient.Group, placeholder))
	b.WriteString("\n")
	b.WriteString("Room: ")
	b.WriteString(orDefault(recipient.Room, placeholder))
	b.WriteString("\n")
	b.WriteString("Wishes: ")
	b.WriteString(orDefault(recipient.Wishes, wishesPlaceholder))
	return b.String()
}

// BuildProfileMessage renders a participant's own record and, when a run has
// happened, the recipient snapshot stored on it.
func BuildProfileMessage(p *participant.Participant) string {
	var b strings.Builder
	b.WriteString("Your registration:\n")
	b.WriteString("Name: ")
	b.WriteString(orDefault(p.DisplayName(), placeholder))
	b.WriteString("\nGroup: ")
	b.WriteString(orDefault(p.Group, placeholder))
	b.WriteString("\nRoom: ")
	b.WriteString(orDefault(p.Room, placeholder))
	b.WriteString("\nWishes: ")
	b.WriteString(orDefault(p.Wishes, wishesPlaceholder))
	if a := p.Assigned; a != nil {
		b.WriteString("\n\nYou are the Secret Santa for: ")
		b.WriteString(orDefault(a.FullName, placeholder))
		b.WriteString(fmt.Sprintf("\nTelegram: %s (id: %d)", handle(a.Username), a.ID))
		b.WriteString("\nGroup: ")
		b.WriteString(orDefault(a.Group, placeholder))
		b.WriteString("\nRoom: ")
		b.WriteString(orDefault(a.Room, placeholder))
		b.WriteString("\nWishes: ")
		b.WriteString(orDefault(a.Wishes, wishesPlaceholder))
	} else {
		b.WriteString("\n\nThe draw has not happened yet.")
	}
	return b.String()
}

func handle(username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if username == "" {
		return placeholder
	}
	return "@" + username
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
