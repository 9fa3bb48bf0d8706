package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
	"github.com/JakeFAU/termdex/internal/metrics"
)

var (
	entityTable      = pgx.Identifier{"pokemon"}
	associationTable = pgx.Identifier{"pokemon_type"}

	entityColumns = []string{
		"pokemon_id", "name", "large", "small",
		"base_experience", "height", "weight",
		"hp", "attack", "defense", "special_attack", "special_defense", "speed",
	}
	associationColumns = []string{"pokemon_id", "type_id"}
)

const (
	insertEntitySQL = `INSERT INTO pokemon (
	pokemon_id, name, large, small, base_experience, height, weight,
	hp, attack, defense, special_attack, special_defense, speed
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`

	insertTagsSQL = `INSERT INTO ptype (name, url)
SELECT * FROM unnest($1::text[], $2::text[])
RETURNING id, name`
)

// Write persists batch in one transaction: entities and the sentinel row,
// then the taxonomy, then the associations resolved against the taxonomy's
// generated IDs. Any failure rolls back everything written so far.
func (s *Store) Write(ctx context.Context, batch catalog.Batch) (catalog.WriteResult, error) {
	var res catalog.WriteResult

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return res, fmt.Errorf("begin ingest transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	if res.Entities, err = s.writeEntities(ctx, tx, batch); err != nil {
		s.logger.Error("entity phase failed", zap.Error(err))
		return catalog.WriteResult{}, err
	}

	ids, err := s.writeTags(ctx, tx, batch.Tags)
	if err != nil {
		s.logger.Error("taxonomy phase failed", zap.Error(err))
		return catalog.WriteResult{}, err
	}
	res.Tags = len(ids)

	if res.Associations, err = s.writeAssociations(ctx, tx, batch.Associations, ids); err != nil {
		s.logger.Error("association phase failed", zap.Error(err))
		return catalog.WriteResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return catalog.WriteResult{}, fmt.Errorf("commit ingest transaction: %w", err)
	}
	committed = true
	return res, nil
}

func (s *Store) writeEntities(ctx context.Context, tx pgx.Tx, batch catalog.Batch) (int, error) {
	start := time.Now()
	n := 0
	if len(batch.Entities) > 0 {
		copied, err := tx.CopyFrom(ctx, entityTable, entityColumns,
			pgx.CopyFromSlice(len(batch.Entities), func(i int) ([]any, error) {
				return entityValues(batch.Entities[i]), nil
			}),
		)
		if err != nil {
			return 0, fmt.Errorf("copy entities: %w", err)
		}
		n = int(copied)
	}

	// The sentinel goes in on its own so its failure is distinguishable.
	if _, err := tx.Exec(ctx, insertEntitySQL, entityValues(batch.Sentinel)...); err != nil {
		return 0, fmt.Errorf("%w: %w", catalog.ErrSentinelInsert, err)
	}

	elapsed := time.Since(start)
	metrics.ObserveWritePhase("entities", "pokemon", n+1, elapsed)
	s.logger.Info("entities written", zap.Int("rows", n), zap.Bool("sentinel", true), zap.Duration("duration", elapsed))
	return n, nil
}

func (s *Store) writeTags(ctx context.Context, tx pgx.Tx, tags []catalog.TagType) (map[string]int, error) {
	ids := make(map[string]int, len(tags))
	if len(tags) == 0 {
		return ids, nil
	}
	start := time.Now()

	names := make([]string, len(tags))
	urls := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
		urls[i] = t.URL
	}

	rows, err := tx.Query(ctx, insertTagsSQL, names, urls)
	if err != nil {
		return nil, fmt.Errorf("insert taxonomy: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id   int32
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan taxonomy row: %w", err)
		}
		ids[name] = int(id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("insert taxonomy rows: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ObserveWritePhase("taxonomy", "ptype", len(ids), elapsed)
	s.logger.Info("taxonomy written", zap.Int("rows", len(ids)), zap.Duration("duration", elapsed))
	return ids, nil
}

func (s *Store) writeAssociations(
	ctx context.Context,
	tx pgx.Tx,
	pending []catalog.PendingAssociation,
	ids map[string]int,
) (int, error) {
	if len(pending) == 0 {
		return 0, nil
	}
	start := time.Now()

	rows, err := associationRows(pending, ids)
	if err != nil {
		return 0, err
	}

	copied, err := tx.CopyFrom(ctx, associationTable, associationColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy associations: %w", err)
	}

	elapsed := time.Since(start)
	metrics.ObserveWritePhase("associations", "pokemon_type", int(copied), elapsed)
	s.logger.Info("associations written", zap.Int64("rows", copied), zap.Duration("duration", elapsed))
	return int(copied), nil
}

// associationRows resolves pending links against the taxonomy IDs returned by
// the insert and lays them out in associationColumns order.
func associationRows(pending []catalog.PendingAssociation, ids map[string]int) ([][]any, error) {
	assocs, err := catalog.ResolveAssociations(pending, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve associations: %w", err)
	}
	rows := make([][]any, 0, len(assocs))
	for _, a := range assocs {
		rows = append(rows, []any{int32(a.EntityID), int32(a.TagTypeID)})
	}
	return rows, nil
}

func entityValues(r catalog.EntityRow) []any {
	return []any{
		int32(r.ExternalID), r.Name, r.LargeSprite, r.SmallSprite,
		int32(r.BaseExperience), int32(r.Height), int32(r.Weight),
		int32(r.HP), int32(r.Attack), int32(r.Defense),
		int32(r.SpecialAttack), int32(r.SpecialDefense), int32(r.Speed),
	}
}
