package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/bookbot/internal/model"
	"github.com/xxxsen/bookbot/internal/pkg/dbutil"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
)

var postColumns = []string{
	"id", "session_id", "kind", "seed", "continuation", "temperature", "top_p", "max_tokens", "fallback", "ctime",
}

type PostRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{db: db}
}

func (r *PostRepo) Create(ctx context.Context, post *model.Post) error {
	data := map[string]interface{}{
		"id":           post.ID,
		"session_id":   post.SessionID,
		"kind":         string(post.Kind),
		"seed":         post.Seed,
		"continuation": post.Continuation,
		"temperature":  post.Options.Temperature,
		"top_p":        post.Options.TopP,
		"max_tokens":   post.Options.MaxTokens,
		"fallback":     post.Fallback,
		"ctime":        post.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("posts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// Record stores a delivered post.
func (r *PostRepo) Record(ctx context.Context, post *model.Post) error {
	return r.Create(ctx, post)
}

// ListBySession returns the newest posts first.
func (r *PostRepo) ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]model.Post, error) {
	where := map[string]interface{}{"session_id": sessionID, "_orderby": "ctime desc"}
	if limit > 0 {
		if offset < 0 {
			offset = 0
		}
		where["_limit"] = []uint{uint(offset), uint(limit)}
	}
	sqlStr, args, err := builder.BuildSelect("posts", where, postColumns)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.Post, 0)
	for rows.Next() {
		var item model.Post
		var kind string
		if err := rows.Scan(&item.ID, &item.SessionID, &kind, &item.Seed, &item.Continuation,
			&item.Options.Temperature, &item.Options.TopP, &item.Options.MaxTokens, &item.Fallback, &item.Ctime); err != nil {
			return nil, err
		}
		item.Kind = model.PostKind(kind)
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *PostRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	sqlStr, args := dbutil.Finalize("SELECT COUNT(*) FROM posts WHERE session_id=?", []interface{}{sessionID})
	var count int64
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteBefore drops posts created before the given unix millisecond.
func (r *PostRepo) DeleteBefore(ctx context.Context, before int64) (int64, error) {
	sqlStr, args, err := builder.BuildDelete("posts", map[string]interface{}{"ctime <": before})
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
