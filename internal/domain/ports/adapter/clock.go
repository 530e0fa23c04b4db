package adapter

import "time"

// Clock supplies the current time. Injected so the entitlement evaluator
// and renewal processor stay deterministic under test; nothing below the
// usecase layer reads the system clock directly.
type Clock interface {
	Now() time.Time
}
