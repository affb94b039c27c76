package command

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mpapenbr/racebet/pkg/model"
)

const Prefix = "!race"

type Kind string

const (
	KindStart  Kind = "start"
	KindEnter  Kind = "enter"
	KindTire   Kind = "tire"
	KindMode   Kind = "mode"
	KindStatus Kind = "status"
	KindTracks Kind = "tracks"
	KindHelp   Kind = "help"
)

// ErrNotACommand is returned for chat lines not addressed to the race bot.
var ErrNotACommand = errors.New("not a race command")

// ValidationError is a malformed command. Msg is meant for the user.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

type Command struct {
	Kind Kind
	// track name for start, car name for enter
	Arg  string
	Tire model.Tire
	Mode model.Mode
}

// Parse reads a chat line like "!race enter Red Arrow".
//
//nolint:cyclop
func Parse(line string) (*Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.EqualFold(fields[0], Prefix) {
		return nil, ErrNotACommand
	}
	if len(fields) == 1 {
		return &Command{Kind: KindStart}, nil
	}
	kind := Kind(strings.ToLower(fields[1]))
	rest := strings.Join(fields[2:], " ")
	switch kind {
	case KindStart:
		return &Command{Kind: KindStart, Arg: rest}, nil
	case KindEnter:
		if rest == "" {
			return nil, &ValidationError{Msg: "usage: !race enter <car name>"}
		}
		return &Command{Kind: KindEnter, Arg: rest}, nil
	case KindTire:
		t, err := model.ParseTire(rest)
		if err != nil {
			return nil, &ValidationError{
				Msg: fmt.Sprintf("unknown tire %q, use soft, medium or hard", rest),
			}
		}
		return &Command{Kind: KindTire, Tire: t}, nil
	case KindMode:
		m, err := model.ParseMode(rest)
		if err != nil {
			return nil, &ValidationError{
				Msg: fmt.Sprintf("unknown mode %q, use push, normal or save", rest),
			}
		}
		return &Command{Kind: KindMode, Mode: m}, nil
	case KindStatus, KindTracks, KindHelp:
		return &Command{Kind: kind}, nil
	default:
		return nil, &ValidationError{
			Msg: fmt.Sprintf("unknown command %q, try !race help", fields[1]),
		}
	}
}

func Help() string {
	return strings.Join([]string{
		"!race [start] [track] - open a new race",
		"!race enter <car>     - enter one of your cars",
		"!race tire <soft|medium|hard>",
		"!race mode <push|normal|save>",
		"!race status          - show the current race",
		"!race tracks          - list the tracks",
	}, "\n")
}
