package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord aliases the go-users activity record so command handlers and
// host applications share one type.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink captures maintenance events such as schema cache flushes.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}
