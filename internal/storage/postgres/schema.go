package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// ptype.name carries no unique constraint: the accumulator dedups within a
// run, and a forced re-run appends a second copy of the taxonomy.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS pokemon (
	id SERIAL PRIMARY KEY,
	pokemon_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	large TEXT NOT NULL DEFAULT '',
	small TEXT NOT NULL DEFAULT '',
	base_experience INTEGER NOT NULL DEFAULT 0,
	height INTEGER NOT NULL DEFAULT 0,
	weight INTEGER NOT NULL DEFAULT 0,
	hp INTEGER NOT NULL DEFAULT 0,
	attack INTEGER NOT NULL DEFAULT 0,
	defense INTEGER NOT NULL DEFAULT 0,
	special_attack INTEGER NOT NULL DEFAULT 0,
	special_defense INTEGER NOT NULL DEFAULT 0,
	speed INTEGER NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS pokemon_pokemon_id_idx ON pokemon (pokemon_id)`,
	`CREATE INDEX IF NOT EXISTS pokemon_name_idx ON pokemon (lower(name))`,
	`CREATE TABLE IF NOT EXISTS ptype (
	id SERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	url TEXT NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS pokemon_type (
	id SERIAL PRIMARY KEY,
	pokemon_id INTEGER NOT NULL,
	type_id INTEGER NOT NULL REFERENCES ptype (id)
)`,
	`CREATE INDEX IF NOT EXISTS pokemon_type_pokemon_id_idx ON pokemon_type (pokemon_id)`,
}

// EnsureSchema creates the catalog tables if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	s.logger.Info("schema ready", zap.Int("statements", len(schemaStatements)))
	return nil
}
