package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is the lifecycle state of an innings.
type Status string

// Innings lifecycle states.
const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusEnded      Status = "ended"
)

// InningsKey identifies one innings of a match.
type InningsKey struct {
	MatchID   string `json:"match_id" msgpack:"match_id"`
	InningsNo int    `json:"innings_no" msgpack:"innings_no"`
}

// String renders the key as match/innings.
func (k InningsKey) String() string {
	return k.MatchID + "/" + strconv.Itoa(k.InningsNo)
}

// Validate checks that the key names a match and a positive innings number.
func (k InningsKey) Validate() error {
	if strings.TrimSpace(k.MatchID) == "" {
		return fmt.Errorf("%w: missing match id", ErrValidation)
	}
	if k.InningsNo < 1 {
		return fmt.Errorf("%w: innings number must be positive", ErrValidation)
	}
	return nil
}
