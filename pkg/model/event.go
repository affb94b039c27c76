package model

type EventKind string

const (
	EventTurn     EventKind = "turn"
	EventFinished EventKind = "finished"
)

// Standing is one row of a ranked snapshot.
type Standing struct {
	Position  int     `json:"position"`
	Name      string  `json:"name"`
	OwnerID   string  `json:"ownerId,omitempty"`
	CarID     int64   `json:"carId,omitempty"`
	TeamLabel string  `json:"teamLabel,omitempty"`
	Progress  float64 `json:"progress"`
	Failed    bool    `json:"failed"`
	Reason    string  `json:"reason,omitempty"`
	FailedAt  int     `json:"failedAt,omitempty"` // leg of the failure
	Bot       bool    `json:"bot"`
}

type Payout struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	OwnerID  string `json:"ownerId"`
	Amount   int64  `json:"amount"`
}

type PoolInfo struct {
	Gross int64 `json:"gross"`
	Rake  int64 `json:"rake"`
	Net   int64 `json:"net"`
}

// RaceEvent is published on the race broadcast.
type RaceEvent struct {
	Kind      EventKind  `json:"kind"`
	RoomID    string     `json:"roomId"`
	RaceID    string     `json:"raceId"`
	Track     string     `json:"track"`
	Leg       int        `json:"leg,omitempty"`
	TotalLegs int        `json:"totalLegs,omitempty"`
	Standings []Standing `json:"standings"`
	Callouts  []string   `json:"callouts,omitempty"`
	Payouts   []Payout   `json:"payouts,omitempty"`
	Pool      *PoolInfo  `json:"pool,omitempty"`
}
