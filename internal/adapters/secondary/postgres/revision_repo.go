package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-promotion-service/internal/core/domain"
	ports "model-promotion-service/internal/core/ports/output"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the revision table when it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

type revisionRepo struct {
	pool *pgxpool.Pool
}

// NewRevisionRepository creates a new configuration revision repository
func NewRevisionRepository(pool *pgxpool.Pool) ports.RevisionRepository {
	return &revisionRepo{pool: pool}
}

const revisionColumns = `id, created_at, environment, model_name, revision, config, commit_sha, author, superseded_at`

// Record supersedes the active revision of the record, if any, and inserts
// rev as the next revision. rev.Revision is set on success.
func (r *revisionRepo) Record(ctx context.Context, rev *domain.ConfigRevision) error {
	payload, err := json.Marshal(rev.Config)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialize writers of the same record on the active row.
		if _, err := tx.Exec(ctx, `
			SELECT id FROM environment_config_revision
			WHERE environment = $1 AND model_name = $2 AND superseded_at IS NULL
			FOR UPDATE
		`, string(rev.Environment), rev.ModelName); err != nil {
			return fmt.Errorf("lock active revision: %w", err)
		}

		var next int
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(revision), 0) + 1 FROM environment_config_revision
			WHERE environment = $1 AND model_name = $2
		`, string(rev.Environment), rev.ModelName).Scan(&next); err != nil {
			return fmt.Errorf("next revision: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			UPDATE environment_config_revision SET superseded_at = $3
			WHERE environment = $1 AND model_name = $2 AND superseded_at IS NULL
		`, string(rev.Environment), rev.ModelName, rev.CreatedAt); err != nil {
			return fmt.Errorf("supersede revision: %w", err)
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO environment_config_revision (id, created_at, environment, model_name, revision, config, commit_sha, author)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			rev.ID,
			rev.CreatedAt,
			string(rev.Environment),
			rev.ModelName,
			next,
			payload,
			nullableString(rev.CommitSHA),
			nullableString(rev.Author),
		); err != nil {
			return fmt.Errorf("insert environment_config_revision: %w", err)
		}

		rev.Revision = next
		return nil
	})
}

func (r *revisionRepo) Current(ctx context.Context, env domain.Environment, modelName string) (*domain.ConfigRevision, error) {
	query := `SELECT ` + revisionColumns + `
		FROM environment_config_revision
		WHERE environment = $1 AND model_name = $2 AND superseded_at IS NULL`
	rev, err := scanRevision(r.pool.QueryRow(ctx, query, string(env), modelName))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("get current revision: %w", err)
	}
	return rev, nil
}

func (r *revisionRepo) GetByRevision(ctx context.Context, env domain.Environment, modelName string, revision int) (*domain.ConfigRevision, error) {
	query := `SELECT ` + revisionColumns + `
		FROM environment_config_revision
		WHERE environment = $1 AND model_name = $2 AND revision = $3`
	rev, err := scanRevision(r.pool.QueryRow(ctx, query, string(env), modelName, revision))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRevisionNotFound
		}
		return nil, fmt.Errorf("get revision: %w", err)
	}
	return rev, nil
}

func (r *revisionRepo) History(ctx context.Context, filter ports.RevisionFilter) ([]*domain.ConfigRevision, int, error) {
	conditions := []string{"environment = $1"}
	args := []interface{}{string(filter.Environment)}
	argIdx := 2

	if filter.ModelName != "" {
		conditions = append(conditions, fmt.Sprintf("model_name = $%d", argIdx))
		args = append(args, filter.ModelName)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM environment_config_revision WHERE %s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count revisions: %w", err)
	}

	dataQuery := fmt.Sprintf(`
		SELECT %s
		FROM environment_config_revision
		WHERE %s
		ORDER BY created_at DESC, revision DESC
		LIMIT $%d OFFSET $%d
	`, revisionColumns, whereClause, argIdx, argIdx+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*domain.ConfigRevision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan revision: %w", err)
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate revisions: %w", err)
	}

	return revisions, total, nil
}

func scanRevision(row pgx.Row) (*domain.ConfigRevision, error) {
	var rev domain.ConfigRevision
	var env string
	var payload []byte
	var commitSHA, author *string

	err := row.Scan(
		&rev.ID, &rev.CreatedAt, &env, &rev.ModelName, &rev.Revision,
		&payload, &commitSHA, &author, &rev.SupersededAt,
	)
	if err != nil {
		return nil, err
	}

	rev.Environment = domain.Environment(env)
	if commitSHA != nil {
		rev.CommitSHA = *commitSHA
	}
	if author != nil {
		rev.Author = *author
	}

	var cfg domain.EnvironmentConfig
	if err := json.Unmarshal(payload, &cfg); err != nil {
		return nil, fmt.Errorf("decode config of revision %d: %w", rev.Revision, err)
	}
	rev.Config = &cfg

	return &rev, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
