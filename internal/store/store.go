// Package store persists fitted models as compressed snapshots.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/sartorproj/goforecast/forecaster"
)

// ErrNotFound is returned when no model has the requested ID.
var ErrNotFound = errors.New("model not found")

// Info describes a stored model without its parameters.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	NObs      int       `json:"n_obs"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

// Record is a stored model.
type Record struct {
	Info
	Snapshot *forecaster.Snapshot
}

// Store provides read/write access to fitted models.
type Store interface {
	// Put stores rec, replacing any record with the same ID.
	Put(ctx context.Context, rec *Record) error
	// Get returns ErrNotFound if the ID is unknown.
	Get(ctx context.Context, id string) (*Record, error)
	// Delete returns ErrNotFound if the ID is unknown.
	Delete(ctx context.Context, id string) error
	// List returns all models, newest first.
	List(ctx context.Context) ([]Info, error)
	Count(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
	Close()
}

// NewID returns a fresh model ID.
func NewID() string {
	return uuid.NewString()
}

// NewRecord wraps a model snapshot with a fresh ID.
func NewRecord(name string, snap *forecaster.Snapshot) *Record {
	return &Record{
		Info: Info{
			ID:        NewID(),
			Name:      name,
			CreatedAt: time.Now().UTC(),
			NObs:      len(snap.Timestamps),
			Start:     snap.Start,
			End:       snap.End,
		},
		Snapshot: snap,
	}
}

// validID reports whether id is a well-formed UUID.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
