package catalog

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrFetch          = errors.New("fetch failed")
	ErrSprite         = errors.New("sprite unavailable")
	ErrUnresolvedTag  = errors.New("unresolved tag")
	ErrSentinelInsert = errors.New("sentinel insert failed")
	ErrNotFound       = errors.New("not found")
)

// UnresolvedTagError names the association that could not be resolved.
type UnresolvedTagError struct {
	EntityID int
	TagName  string
}

func (e *UnresolvedTagError) Error() string {
	return fmt.Sprintf("entity %d references unknown tag %q", e.EntityID, e.TagName)
}

// Is makes errors.Is(err, ErrUnresolvedTag) match.
func (e *UnresolvedTagError) Is(target error) bool {
	return target == ErrUnresolvedTag
}

// FailureClass says what a pipeline error does to the run.
type FailureClass int

// Failure classes.
const (
	// ClassSkip drops the entity and lets the run continue.
	ClassSkip FailureClass = iota
	// ClassFatal aborts the run before anything is written.
	ClassFatal
)

func (c FailureClass) String() string {
	if c == ClassFatal {
		return "fatal"
	}
	return "skip"
}

// Policy classifies per-entity errors.
type Policy struct {
	// StrictSprites makes a missing sprite abort the run. Sprites are expected
	// to be provisioned for every ID in range before ingesting.
	StrictSprites bool
}

// Classify returns the failure class of err.
func (p Policy) Classify(err error) FailureClass {
	switch {
	case err == nil:
		return ClassSkip
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassFatal
	case errors.Is(err, ErrSprite):
		if p.StrictSprites {
			return ClassFatal
		}
		return ClassSkip
	case errors.Is(err, ErrUnresolvedTag), errors.Is(err, ErrSentinelInsert):
		return ClassFatal
	default:
		return ClassSkip
	}
}
