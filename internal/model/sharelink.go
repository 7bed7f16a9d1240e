package model

import (
	"fmt"
	"time"
)

type ShareLink struct {
	ID            string     `db:"id" json:"id"`
	FileID        string     `db:"file_id" json:"fileId"`
	Token         string     `db:"token" json:"token"`
	ExpiresAt     *time.Time `db:"expires_at" json:"expiresAt,omitempty"`       // nil = never expires
	MaxDownloads  *int       `db:"max_downloads" json:"maxDownloads,omitempty"` // nil = unlimited
	DownloadCount int        `db:"download_count" json:"downloadCount"`         // only ever incremented server-side
	IsActive      bool       `db:"is_active" json:"isActive"`
	CreatedBy     *string    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
}

const (
	ShareLinkStatusActive    = "active"
	ShareLinkStatusExpired   = "expired"
	ShareLinkStatusExhausted = "exhausted"
	ShareLinkStatusRevoked   = "revoked"
)

func (l *ShareLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

func (l *ShareLink) IsExhausted() bool {
	return l.MaxDownloads != nil && l.DownloadCount >= *l.MaxDownloads
}

// IsUsable reports whether the link may still be redeemed at now.
func (l *ShareLink) IsUsable(now time.Time) bool {
	return l.IsActive && !l.IsExpired(now) && !l.IsExhausted()
}

func (l *ShareLink) Status(now time.Time) string {
	switch {
	case !l.IsActive:
		return ShareLinkStatusRevoked
	case l.IsExpired(now):
		return ShareLinkStatusExpired
	case l.IsExhausted():
		return ShareLinkStatusExhausted
	default:
		return ShareLinkStatusActive
	}
}

// ExpiryPolicy is the closed set of lifetimes a share link can be issued with.
type ExpiryPolicy string

const (
	Expiry1Day   ExpiryPolicy = "1d"
	Expiry7Days  ExpiryPolicy = "7d"
	Expiry30Days ExpiryPolicy = "30d"
	Expiry90Days ExpiryPolicy = "90d"
	ExpiryNever  ExpiryPolicy = "never"
)

var expiryDurations = map[ExpiryPolicy]time.Duration{
	Expiry1Day:   24 * time.Hour,
	Expiry7Days:  7 * 24 * time.Hour,
	Expiry30Days: 30 * 24 * time.Hour,
	Expiry90Days: 90 * 24 * time.Hour,
	ExpiryNever:  0,
}

func ParseExpiryPolicy(s string) (ExpiryPolicy, error) {
	p := ExpiryPolicy(s)
	if _, ok := expiryDurations[p]; !ok {
		return "", fmt.Errorf("unknown expiry policy %q", s)
	}
	return p, nil
}

// ExpiresAt returns the absolute expiry for a link issued at now, or nil for ExpiryNever.
func (p ExpiryPolicy) ExpiresAt(now time.Time) *time.Time {
	d := expiryDurations[p]
	if d == 0 {
		return nil
	}
	t := now.Add(d)
	return &t
}

// DownloadLimitPolicy is the closed set of redemption limits. Zero means unlimited.
type DownloadLimitPolicy int

const (
	DownloadLimitUnlimited DownloadLimitPolicy = 0
	DownloadLimit1         DownloadLimitPolicy = 1
	DownloadLimit5         DownloadLimitPolicy = 5
	DownloadLimit10        DownloadLimitPolicy = 10
)

func ParseDownloadLimitPolicy(s string) (DownloadLimitPolicy, error) {
	switch s {
	case "unlimited", "":
		return DownloadLimitUnlimited, nil
	case "1":
		return DownloadLimit1, nil
	case "5":
		return DownloadLimit5, nil
	case "10":
		return DownloadLimit10, nil
	}
	return 0, fmt.Errorf("unknown download limit %q", s)
}

func (p DownloadLimitPolicy) MaxDownloads() *int {
	if p == DownloadLimitUnlimited {
		return nil
	}
	n := int(p)
	return &n
}

func (p ExpiryPolicy) Valid() bool {
	_, ok := expiryDurations[p]
	return ok
}

func (p DownloadLimitPolicy) Valid() bool {
	switch p {
	case DownloadLimitUnlimited, DownloadLimit1, DownloadLimit5, DownloadLimit10:
		return true
	}
	return false
}
