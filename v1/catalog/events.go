package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DeletionEvent is the message body deletion publishers send: the removed
// identities of one entity. Integral numbers decode as int64.
type DeletionEvent struct {
	Entity     string    `json:"entity"`
	IDs        []any     `json:"ids"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewDeletionEvent stamps a deletion of ids with the current UTC time.
func NewDeletionEvent(entity string, ids []any) DeletionEvent {
	return DeletionEvent{Entity: entity, IDs: ids, OccurredAt: time.Now().UTC()}
}

// DecodeDeletion parses an encoded DeletionEvent.
func DecodeDeletion(body []byte) (*DeletionEvent, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var ev DeletionEvent
	if err := dec.Decode(&ev); err != nil {
		return nil, fmt.Errorf("decode deletion event: %w", err)
	}
	if ev.Entity == "" {
		return nil, fmt.Errorf("decode deletion event: missing entity")
	}
	for i, id := range ev.IDs {
		n, ok := id.(json.Number)
		if !ok {
			continue
		}
		if v, err := n.Int64(); err == nil {
			ev.IDs[i] = v
		} else if f, err := n.Float64(); err == nil {
			ev.IDs[i] = f
		}
	}
	return &ev, nil
}

// Publishers fans a deletion out to every publisher. All are tried; their
// errors are joined.
type Publishers []DeletionPublisher

func (p Publishers) PublishDeletion(ctx context.Context, entity string, ids []any) error {
	var errs []error
	for _, pub := range p {
		if err := pub.PublishDeletion(ctx, entity, ids); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
