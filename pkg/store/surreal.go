package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lovelink/pkg/relationship"
	"lovelink/pkg/surreal"
)

// Querier is the part of the surreal client the store uses
type Querier interface {
	Query(ctx context.Context, sql string, vars map[string]interface{}) (interface{}, error)
}

// SurrealStore keeps one record per profile in a SurrealDB table
type SurrealStore struct {
	client Querier
	table  string
}

type surrealRow struct {
	IntimacyLevel        int   `json:"intimacy_level"`
	TotalDateCount       int   `json:"total_date_count"`
	UnlockedInfiniteMode bool  `json:"unlocked_infinite_mode"`
	InfiniteDateCount    int   `json:"infinite_date_count"`
	ResetEpoch           int   `json:"reset_epoch"`
	LastUpdated          int64 `json:"last_updated"`
}

// NewSurrealStore returns a store over table, "relationships" when empty
func NewSurrealStore(client Querier, table string) (*SurrealStore, error) {
	if table == "" {
		table = "relationships"
	}
	if err := surreal.ValidateIdentifier(table); err != nil {
		return nil, err
	}
	return &SurrealStore{client: client, table: table}, nil
}

// InitSchema defines the relationship table
func (s *SurrealStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		DEFINE TABLE IF NOT EXISTS %[1]s SCHEMAFULL;
		DEFINE FIELD IF NOT EXISTS intimacy_level ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS total_date_count ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS unlocked_infinite_mode ON %[1]s TYPE bool;
		DEFINE FIELD IF NOT EXISTS infinite_date_count ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS reset_epoch ON %[1]s TYPE int;
		DEFINE FIELD IF NOT EXISTS last_updated ON %[1]s TYPE int;
	`, s.table)
	_, err := s.client.Query(ctx, query, nil)
	return err
}

func (s *SurrealStore) Fetch(ctx context.Context, id string) (relationship.Profile, error) {
	query := fmt.Sprintf(`SELECT * FROM type::thing("%s", $id);`, s.table)
	result, err := s.client.Query(ctx, query, map[string]interface{}{"id": id})
	if err != nil {
		return relationship.Profile{}, fmt.Errorf("failed to fetch relationship %s: %w", id, err)
	}

	rows, ok := result.([]interface{})
	if !ok || len(rows) == 0 {
		return relationship.Profile{}, ErrNotFound
	}

	row, ok := rows[0].(map[string]interface{})
	if !ok {
		return relationship.Profile{}, fmt.Errorf("unexpected row format: %T", rows[0])
	}
	// The record id does not survive JSON and is not needed
	delete(row, "id")

	data, err := json.Marshal(row)
	if err != nil {
		return relationship.Profile{}, fmt.Errorf("failed to marshal row: %w", err)
	}
	var r surrealRow
	if err := json.Unmarshal(data, &r); err != nil {
		return relationship.Profile{}, fmt.Errorf("failed to decode relationship %s: %w", id, err)
	}

	p := relationship.Profile{
		ID:                   id,
		IntimacyScore:        r.IntimacyLevel,
		TotalDateCount:       r.TotalDateCount,
		InfiniteModeUnlocked: r.UnlockedInfiniteMode,
		InfiniteDateCount:    r.InfiniteDateCount,
		ResetEpoch:           r.ResetEpoch,
	}
	if r.LastUpdated > 0 {
		p.UpdatedAt = time.Unix(r.LastUpdated, 0)
	}
	return p, nil
}

func (s *SurrealStore) Update(ctx context.Context, p relationship.Profile) error {
	query := fmt.Sprintf(`
		UPSERT type::thing("%s", $id) MERGE {
			intimacy_level: $intimacy_level,
			total_date_count: $total_date_count,
			unlocked_infinite_mode: $unlocked_infinite_mode,
			infinite_date_count: $infinite_date_count,
			reset_epoch: $reset_epoch,
			last_updated: time::unix()
		};
	`, s.table)
	_, err := s.client.Query(ctx, query, map[string]interface{}{
		"id":                     p.ID,
		"intimacy_level":         p.IntimacyScore,
		"total_date_count":       p.TotalDateCount,
		"unlocked_infinite_mode": p.InfiniteModeUnlocked,
		"infinite_date_count":    p.InfiniteDateCount,
		"reset_epoch":            p.ResetEpoch,
	})
	if err != nil {
		return fmt.Errorf("failed to update relationship %s: %w", p.ID, err)
	}
	return nil
}
