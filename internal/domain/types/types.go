// Package types contains read shapes shared by the service and the HTTP API.
package types

import (
	"time"

	"github.com/okian/wicket/internal/domain/model"
	"github.com/okian/wicket/internal/domain/scoring"
)

// Scoreboard is the synchronous view of one innings.
type Scoreboard struct {
	Key      model.InningsKey `json:"key"`
	Status   model.Status     `json:"status"`
	Snapshot scoring.Snapshot `json:"snapshot"`
}

// InningsView summarises an innings without its log.
type InningsView struct {
	Key        model.InningsKey `json:"key"`
	Status     model.Status     `json:"status"`
	Deliveries int              `json:"deliveries"`
	NextOver   int              `json:"next_over"`
	NextBall   int              `json:"next_ball"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	EndedAt    *time.Time       `json:"ended_at,omitempty"`
}
