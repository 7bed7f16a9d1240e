package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/hrvault/internal/model"
)

var (
	ErrShareLinkNotFound = errors.New("share link not found")
	ErrShareLinkUnusable = errors.New("share link is revoked, expired or exhausted")
)

type ShareLinkRepository interface {
	ByToken(token string) (*model.ShareLink, error)
	Redeem(token string, now time.Time) (*model.ShareLink, error)
}

type shareLinkRepository struct {
	db *sqlx.DB
}

func NewShareLinkRepository(db *sqlx.DB) ShareLinkRepository {
	return &shareLinkRepository{db: db}
}

func (r *shareLinkRepository) ByToken(token string) (*model.ShareLink, error) {
	link := &model.ShareLink{}
	query := `SELECT * FROM share_links WHERE token = $1`

	err := r.db.Get(link, query, token)
	if err == sql.ErrNoRows {
		return nil, ErrShareLinkNotFound
	}

	return link, err
}

// Redeem atomically counts one download against the link and returns it.
// Only usable links are matched, so concurrent redemptions can never push
// download_count past max_downloads.
func (r *shareLinkRepository) Redeem(token string, now time.Time) (*model.ShareLink, error) {
	var link model.ShareLink

	query := `
		UPDATE share_links
		SET download_count = download_count + 1
		WHERE token = $1
		AND is_active = TRUE
		AND (expires_at IS NULL OR expires_at > $2)
		AND (max_downloads IS NULL OR download_count < max_downloads)
		RETURNING *
	`

	err := r.db.Get(&link, query, token, now)
	if err == sql.ErrNoRows {
		// Tell a missing token apart from one that is no longer usable.
		_, lookupErr := r.ByToken(token)
		if lookupErr != nil {
			return nil, lookupErr
		}
		return nil, ErrShareLinkUnusable
	}
	if err != nil {
		return nil, err
	}

	return &link, nil
}
