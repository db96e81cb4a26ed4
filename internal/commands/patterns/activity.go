package patternscmd

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-patternbuilder/internal/adapters/noop"
	"github.com/goliatone/go-patternbuilder/pkg/interfaces"
	"github.com/google/uuid"
)

const activityChannel = "patternbuilder"

// Options are shared by the pattern command handlers.
type Options struct {
	Logger   interfaces.Logger
	Activity interfaces.ActivitySink
	Clock    func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Activity == nil {
		o.Activity = noop.ActivitySink()
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

func (o Options) record(ctx context.Context, actor, verb, objectType, objectID string, data map[string]any) error {
	record := interfaces.ActivityRecord{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    activityChannel,
		Data:       data,
		OccurredAt: o.Clock(),
	}
	if id, err := uuid.Parse(strings.TrimSpace(actor)); err == nil {
		record.ActorID = id
	}
	return o.Activity.Log(ctx, record)
}

func validActor(value any) error {
	actor, _ := value.(string)
	if strings.TrimSpace(actor) == "" {
		return nil
	}
	if _, err := uuid.Parse(strings.TrimSpace(actor)); err != nil {
		return errInvalidActor
	}
	return nil
}
