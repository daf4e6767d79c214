package collection

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gocloud.dev/docstore"
	"gocloud.dev/gcerrors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
)

// Record is a typed document stored in a named collection. WithID
// returns a copy of the record keyed by id.
type Record[T any] interface {
	Validate() error
	WithID(id string) T
}

// Accessor gives a named docstore collection the create/get/list/remove
// contract. It adds no caching or retries on top of the store.
type Accessor[T Record[T]] struct {
	name  string
	coll  *docstore.Collection
	newID func() string
}

// NewAccessor wraps coll; name is only used in errors and logs.
func NewAccessor[T Record[T]](name string, coll *docstore.Collection) *Accessor[T] {
	return &Accessor[T]{
		name:  name,
		coll:  coll,
		newID: uuid.NewString,
	}
}

func (a *Accessor[T]) Name() string {
	return a.name
}

// Create validates rec, stores it under a fresh id and returns the id.
func (a *Accessor[T]) Create(ctx context.Context, rec T) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("create %s: %w", a.name, err)
	}

	id := a.newID()
	doc := rec.WithID(id)
	if err := a.coll.Create(ctx, &doc); err != nil {
		return "", fmt.Errorf("create %s: %w", a.name, err)
	}
	return id, nil
}

func (a *Accessor[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, fmt.Errorf("get %s: empty id: %w", a.name, ErrNotFound)
	}

	doc := zero.WithID(id)
	err := a.coll.Get(ctx, &doc)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return zero, fmt.Errorf("get %s %q: %w", a.name, id, ErrNotFound)
		}
		return zero, fmt.Errorf("get %s %q: %w", a.name, id, err)
	}
	return doc, nil
}

// List returns every record in store order.
func (a *Accessor[T]) List(ctx context.Context) ([]T, error) {
	iter := a.coll.Query().Get(ctx)
	defer iter.Stop()

	records := make([]T, 0)
	for {
		var doc T
		err := iter.Next(ctx, &doc)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, fmt.Errorf("list %s: %w", a.name, err)
		}
		records = append(records, doc)
	}
	return records, nil
}

// Remove deletes the record and only returns nil once the store has
// acknowledged the delete. Missing ids fail with ErrNotFound.
func (a *Accessor[T]) Remove(ctx context.Context, id string) error {
	doc, err := a.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	if err := a.coll.Delete(ctx, &doc); err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return fmt.Errorf("remove %s %q: %w", a.name, id, ErrNotFound)
		}
		return fmt.Errorf("remove %s %q: %w", a.name, id, err)
	}
	return nil
}
