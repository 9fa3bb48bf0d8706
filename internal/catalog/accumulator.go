package catalog

import "sort"

// Accumulator collects worker results for one run. It is not safe for
// concurrent use: exactly one goroutine (the dispatcher's collector) owns it,
// and it may only be read as complete after every worker has exited.
type Accumulator struct {
	entities []EntityRow
	tags     []TagType
	tagIndex map[string]struct{}
	pending  []PendingAssociation
	failed   []int
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{tagIndex: make(map[string]struct{})}
}

// Add records a successfully transformed entity and its tags. A tag whose name
// is already known keeps the URL it was first seen with.
func (a *Accumulator) Add(row EntityRow, tags []TagType) {
	a.entities = append(a.entities, row)
	for _, t := range tags {
		if _, ok := a.tagIndex[t.Name]; !ok {
			a.tagIndex[t.Name] = struct{}{}
			a.tags = append(a.tags, t)
		}
		a.pending = append(a.pending, PendingAssociation{EntityID: row.ExternalID, TagName: t.Name})
	}
}

// AddFailure records an entity that was skipped.
func (a *Accumulator) AddFailure(entityID int) {
	a.failed = append(a.failed, entityID)
}

// Succeeded is the number of entities accumulated so far.
func (a *Accumulator) Succeeded() int { return len(a.entities) }

// FailedIDs returns the skipped entity IDs in ascending order.
func (a *Accumulator) FailedIDs() []int {
	out := append([]int(nil), a.failed...)
	sort.Ints(out)
	return out
}

// Batch copies the accumulated state into a Batch ready for the writer. The
// sentinel row is left for the caller to fill in.
func (a *Accumulator) Batch() Batch {
	return Batch{
		Entities:     append([]EntityRow(nil), a.entities...),
		Tags:         append([]TagType(nil), a.tags...),
		Associations: append([]PendingAssociation(nil), a.pending...),
	}
}
