package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/bookbot/internal/model"
	"github.com/xxxsen/bookbot/internal/pkg/dbutil"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
	"github.com/xxxsen/bookbot/internal/pkg/timeutil"
)

var sessionColumns = []string{"id", "temperature", "top_p", "max_tokens", "active", "ctime", "mtime"}

type SessionRepo struct {
	db *sql.DB
}

func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*model.Session, error) {
	sqlStr, args, err := builder.BuildSelect("sessions", map[string]interface{}{"id": sessionID}, sessionColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	var item model.Session
	if err := row.Scan(&item.ID, &item.Options.Temperature, &item.Options.TopP, &item.Options.MaxTokens,
		&item.Active, &item.Ctime, &item.Mtime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// LoadOptions reports false when the session has no stored row.
func (r *SessionRepo) LoadOptions(ctx context.Context, sessionID string) (model.GenerationOptions, bool, error) {
	item, err := r.Get(ctx, sessionID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return model.GenerationOptions{}, false, nil
		}
		return model.GenerationOptions{}, false, err
	}
	return item.Options, true, nil
}

func (r *SessionRepo) SaveOptions(ctx context.Context, sessionID string, opts model.GenerationOptions) error {
	const query = `
		INSERT INTO sessions (id, temperature, top_p, max_tokens, active, ctime, mtime)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			temperature = EXCLUDED.temperature,
			top_p = EXCLUDED.top_p,
			max_tokens = EXCLUDED.max_tokens,
			mtime = EXCLUDED.mtime
	`
	now := timeutil.NowUnix()
	_, err := r.db.ExecContext(ctx, query, sessionID, opts.Temperature, opts.TopP, opts.MaxTokens, now, now)
	return err
}

// SetActive records whether a session should be posting after a restart.
// A new row starts from the default options.
func (r *SessionRepo) SetActive(ctx context.Context, sessionID string, active bool) error {
	const query = `
		INSERT INTO sessions (id, temperature, top_p, max_tokens, active, ctime, mtime)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			active = EXCLUDED.active,
			mtime = EXCLUDED.mtime
	`
	defaults := model.DefaultGenerationOptions()
	now := timeutil.NowUnix()
	_, err := r.db.ExecContext(ctx, query, sessionID, defaults.Temperature, defaults.TopP, defaults.MaxTokens, active, now, now)
	return err
}

func (r *SessionRepo) ListActive(ctx context.Context) ([]string, error) {
	where := map[string]interface{}{"active": true, "_orderby": "ctime asc"}
	sqlStr, args, err := builder.BuildSelect("sessions", where, []string{"id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
