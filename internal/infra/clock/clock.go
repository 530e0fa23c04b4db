package clock

import (
	"time"

	"mealplan-subscription/internal/domain/ports/adapter"
)

var _ adapter.Clock = (*System)(nil)

// System is the production clock: UTC wall time.
type System struct{}

func NewSystem() *System { return &System{} }

func (System) Now() time.Time { return time.Now().UTC() }
