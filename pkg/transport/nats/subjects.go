package nats

import (
	"fmt"
	"strings"
	"time"
)

const defaultPrefix = "racebet"

type (
	// ChatMessage is a line posted to a room.
	ChatMessage struct {
		RoomID string    `json:"roomId"`
		Text   string    `json:"text"`
		Time   time.Time `json:"time"`
	}
	// ChatLine is a line typed by a player, commands included.
	ChatLine struct {
		PlayerID string `json:"playerId"`
		Text     string `json:"text"`
	}
)

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// token makes s usable as a single subject token.
func token(s string) string {
	if s == "" {
		return "_"
	}
	return tokenReplacer.Replace(s)
}

func messagesSubject(prefix, roomID string) string {
	return fmt.Sprintf("%s.room.%s.messages", prefix, token(roomID))
}

func commandsSubject(prefix, roomID string) string {
	return fmt.Sprintf("%s.room.%s.commands", prefix, token(roomID))
}

func eventsSubject(prefix, roomID string) string {
	return fmt.Sprintf("%s.race.%s.events", prefix, token(roomID))
}

func presenceKey(roomID, playerID string) string {
	return token(roomID) + "." + token(playerID)
}
