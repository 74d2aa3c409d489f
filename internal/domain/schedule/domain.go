package schedule

import (
	"errors"
	"time"

	"mangawatch/internal/domain/notify"
)

type Kind string

const (
	KindOneShot   Kind = "ONE_SHOT"
	KindRecurring Kind = "RECURRING"
)

var (
	ErrKindMismatch = errors.New("schedule: kind does not match fire_at/cron_expr")
	ErrNoTargets    = errors.New("schedule: no delivery targets")
)

// Definition is one stored schedule. Exactly one of FireAt/CronExpr is
// set, consistent with Kind. The core reads definitions; creation and
// deletion belong to the command/UI layer.
type Definition struct {
	ID          int64           `json:"id"`
	Kind        Kind            `json:"kind"`
	FireAt      *time.Time      `json:"fire_at,omitempty"`
	CronExpr    string          `json:"cron_expr,omitempty"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	CreatedBy   int64           `json:"created_by"`
	Targets     []notify.Target `json:"targets"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (d *Definition) Validate() error {
	switch d.Kind {
	case KindOneShot:
		if d.FireAt == nil || d.CronExpr != "" {
			return ErrKindMismatch
		}
	case KindRecurring:
		if d.CronExpr == "" || d.FireAt != nil {
			return ErrKindMismatch
		}
	default:
		return ErrKindMismatch
	}
	if len(d.Targets) == 0 {
		return ErrNoTargets
	}
	return nil
}

// DueOccurrence identifies one firing instance of a definition at one
// evaluator run. Ephemeral, never persisted.
type DueOccurrence struct {
	ScheduleID int64
	At         time.Time
}
