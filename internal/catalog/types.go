package catalog

import (
	"time"

	"github.com/google/uuid"
)

// FetchJob is one unit of work in the ingest queue.
type FetchJob struct {
	URL      string
	EntityID int
}

// NamedResource is the {name, url} reference the remote API uses for every
// linked object.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// TypeSlot links a creature to one of its types.
type TypeSlot struct {
	Slot int           `json:"slot"`
	Type NamedResource `json:"type"`
}

// StatEntry is one base stat as reported by the remote API.
type StatEntry struct {
	BaseStat int           `json:"base_stat"`
	Effort   int           `json:"effort"`
	Stat     NamedResource `json:"stat"`
}

// AbilitySlot is decoded for completeness but never persisted.
type AbilitySlot struct {
	Ability  NamedResource `json:"ability"`
	IsHidden bool          `json:"is_hidden"`
	Slot     int           `json:"slot"`
}

// MoveEntry is decoded for completeness but never persisted.
type MoveEntry struct {
	Move NamedResource `json:"move"`
}

// RawRecord is the decoded payload of GET /api/v2/pokemon/{id}.
type RawRecord struct {
	ID             int           `json:"id"`
	Name           string        `json:"name"`
	Types          []TypeSlot    `json:"types"`
	Stats          []StatEntry   `json:"stats"`
	BaseExperience int           `json:"base_experience"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	Abilities      []AbilitySlot `json:"abilities"`
	Moves          []MoveEntry   `json:"moves"`
}

// Sprites holds the pre-rendered terminal art for one creature.
type Sprites struct {
	Large string
	Small string
}

// EntityRow is one row of the pokemon table.
type EntityRow struct {
	ExternalID     int    `json:"pokemon_id"`
	Name           string `json:"name"`
	LargeSprite    string `json:"large,omitempty"`
	SmallSprite    string `json:"small,omitempty"`
	BaseExperience int    `json:"base_experience"`
	Height         int    `json:"height"`
	Weight         int    `json:"weight"`
	HP             int    `json:"hp"`
	Attack         int    `json:"attack"`
	Defense        int    `json:"defense"`
	SpecialAttack  int    `json:"special_attack"`
	SpecialDefense int    `json:"special_defense"`
	Speed          int    `json:"speed"`
}

// TagType is one entry of the type taxonomy. Name is the identity.
type TagType struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PendingAssociation links an entity to a tag by name, before the tag has a
// generated key.
type PendingAssociation struct {
	EntityID int
	TagName  string
}

// EntityTagAssociation is one row of the pokemon_type join table.
type EntityTagAssociation struct {
	EntityID  int
	TagTypeID int
}

// Entry is a catalog row as read back for display.
type Entry struct {
	ID int `json:"id"`
	EntityRow
	Types []string `json:"types"`
}

// Result is what a worker emits for every job it dequeues.
type Result struct {
	Job  FetchJob
	Row  EntityRow
	Tags []TagType
	Err  error
}

// Batch is everything the writer persists in one run.
type Batch struct {
	Entities     []EntityRow
	Sentinel     EntityRow
	Tags         []TagType
	Associations []PendingAssociation
}

// WriteResult reports the row counts of a committed write.
type WriteResult struct {
	Entities     int
	Tags         int
	Associations int
}

// RunReport summarizes one ingest run.
type RunReport struct {
	RunID        uuid.UUID `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Requested    int       `json:"requested"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	Tags         int       `json:"tags"`
	Associations int       `json:"associations"`
	FailedIDs    []int     `json:"failed_ids,omitempty"`
	Committed    bool      `json:"committed"`
	Error        string    `json:"error,omitempty"`
}
