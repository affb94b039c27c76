package nats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "racebet.room.lobby.messages", messagesSubject("racebet", "lobby"))
	assert.Equal(t, "x.room.a_b_c.commands", commandsSubject("x", "a.b c"))
	assert.Equal(t, "racebet.race.__.events", eventsSubject("racebet", "*>"))
	assert.Equal(t, "racebet.room._.messages", messagesSubject("racebet", ""))
	assert.Equal(t, "lobby.p_1", presenceKey("lobby", "p.1"))
}
