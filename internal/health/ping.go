package health

import "context"

// HealthPinger is implemented by storage adapters that can probe their
// backing store directly (DB drivers ping the connection). A nil return
// means healthy; adapters without it are probed through a usage read.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
