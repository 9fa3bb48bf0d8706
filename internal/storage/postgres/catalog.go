package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/termdex/internal/catalog"
)

const entitySelect = `SELECT id, pokemon_id, name, large, small, base_experience, height, weight,
	hp, attack, defense, special_attack, special_defense, speed
FROM pokemon`

// Lookup finds a creature by numeric ID or by case-insensitive name. A miss
// returns the sentinel row; catalog.ErrNotFound means even that is absent.
func (s *Store) Lookup(ctx context.Context, term string) (catalog.Entry, error) {
	term = strings.TrimSpace(term)
	var (
		entry catalog.Entry
		err   error
	)
	if id, convErr := strconv.Atoi(term); convErr == nil {
		entry, err = s.entityBy(ctx, "pokemon_id = $1", id)
	} else {
		entry, err = s.entityBy(ctx, "lower(name) = lower($1)", term)
	}
	if errors.Is(err, catalog.ErrNotFound) {
		entry, err = s.entityBy(ctx, "pokemon_id = $1", catalog.SentinelExternalID)
	}
	if err != nil {
		return catalog.Entry{}, err
	}

	types, err := s.TypesFor(ctx, entry.ExternalID)
	if err != nil {
		return catalog.Entry{}, err
	}
	entry.Types = types
	return entry, nil
}

// TypesFor returns the type names attached to a creature, in insertion order.
func (s *Store) TypesFor(ctx context.Context, externalID int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT t.name
FROM pokemon_type pt
JOIN ptype t ON t.id = pt.type_id
WHERE pt.pokemon_id = $1
ORDER BY pt.id`, externalID)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	types := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan type: %w", err)
		}
		types = append(types, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	return types, nil
}

// CountEntities returns the number of rows in the pokemon table, sentinel included.
func (s *Store) CountEntities(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM pokemon`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return int(n), nil
}

func (s *Store) entityBy(ctx context.Context, where string, arg any) (catalog.Entry, error) {
	var (
		id, externalID, exp, height, weight int32
		hp, atk, def, spAtk, spDef, speed   int32
		e                                   catalog.Entry
	)
	err := s.pool.QueryRow(ctx, entitySelect+" WHERE "+where+" ORDER BY id LIMIT 1", arg).Scan(
		&id, &externalID, &e.Name, &e.LargeSprite, &e.SmallSprite,
		&exp, &height, &weight,
		&hp, &atk, &def, &spAtk, &spDef, &speed,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("lookup entity: %w", err)
	}
	e.ID = int(id)
	e.ExternalID = int(externalID)
	e.BaseExperience, e.Height, e.Weight = int(exp), int(height), int(weight)
	e.HP, e.Attack, e.Defense = int(hp), int(atk), int(def)
	e.SpecialAttack, e.SpecialDefense, e.Speed = int(spAtk), int(spDef), int(speed)
	return e, nil
}
