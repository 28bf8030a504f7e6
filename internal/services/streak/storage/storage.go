// Package storage defines persistence contracts for experiment records.
package storage

import (
	"context"
	"errors"

	"github.com/louisbranch/longrun/internal/services/streak/domain"
)

var (
	// ErrNotFound indicates a requested experiment record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates an experiment with the same ID already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// ExperimentPage stores one page of experiment records.
type ExperimentPage struct {
	Experiments   []domain.Experiment
	NextPageToken string
}

// ExperimentStore persists experiment records.
type ExperimentStore interface {
	CreateExperiment(ctx context.Context, experiment domain.Experiment) error
	GetExperiment(ctx context.Context, id string) (domain.Experiment, error)
	ListExperiments(ctx context.Context, pageSize int, pageToken string) (ExperimentPage, error)
	RecentExperiments(ctx context.Context, limit int) ([]domain.Experiment, error)
}
