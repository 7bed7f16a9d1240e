package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
)

const (
	TableShareLinks = "share_links"
	TableVaultFiles = "vault_files"
	TableAuditLogs  = "vault_audit_logs"

	sharedPathPrefix = "/vault/shared/"
)

// ShareLinkService issues, lists and revokes share links for vault files.
// It holds no state of its own; the gateway is the source of truth.
type ShareLinkService struct {
	gw     gateway.Gateway
	origin string
	now    func() time.Time
	log    *slog.Logger
}

func NewShareLinkService(gw gateway.Gateway, origin string) *ShareLinkService {
	return &ShareLinkService{
		gw:     gw,
		origin: strings.TrimSuffix(origin, "/"),
		now:    time.Now,
		log:    logger.Component("sharelink"),
	}
}

// ActiveLinks returns the active links of a file, newest first.
func (s *ShareLinkService) ActiveLinks(ctx context.Context, fileID string) ([]*model.ShareLink, error) {
	var links []*model.ShareLink
	err := s.gw.Query(ctx, &links, TableShareLinks, gateway.Query{
		Filters: []gateway.Filter{
			gateway.Eq("file_id", fileID),
			gateway.Eq("is_active", true),
		},
		OrderBy:    "created_at",
		Descending: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}

	active := make([]*model.ShareLink, 0, len(links))
	for _, link := range links {
		if link.IsActive {
			active = append(active, link)
		}
	}
	return active, nil
}

// Link looks up a single link by id, active or not.
func (s *ShareLinkService) Link(ctx context.Context, linkID string) (*model.ShareLink, error) {
	var links []*model.ShareLink
	err := s.gw.Query(ctx, &links, TableShareLinks, gateway.Query{
		Filters: []gateway.Filter{gateway.Eq("id", linkID)},
		Limit:   1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get share link: %w", err)
	}
	if len(links) == 0 {
		return nil, ErrLinkNotFound
	}
	return links[0], nil
}

type shareTokenRequest struct {
	FileID string `json:"fileId"`
}

type shareTokenResult struct {
	Token string `json:"token"`
}

// CreateLink issues a new link for fileID.
//
// The token is requested first; nothing is written unless it arrives. The
// insert and the file's shared flag are separate writes: a failed insert
// orphans the token and fails the call, a failed flag update is only logged.
func (s *ShareLinkService) CreateLink(ctx context.Context, fileID string, expiry model.ExpiryPolicy, limit model.DownloadLimitPolicy) (*model.ShareLink, error) {
	if !expiry.Valid() || !limit.Valid() {
		return nil, ErrInvalidSharePolicy
	}

	var token shareTokenResult
	err := s.gw.Invoke(ctx, ProcGenerateShareToken, shareTokenRequest{FileID: fileID}, &token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenGenerationFailed, err)
	}
	if token.Token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrTokenGenerationFailed)
	}

	now := s.now().UTC()
	row := gateway.Row{
		"file_id":        fileID,
		"token":          token.Token,
		"download_count": 0,
		"is_active":      true,
		"created_at":     now,
	}
	if expiresAt := expiry.ExpiresAt(now); expiresAt != nil {
		row["expires_at"] = *expiresAt
	}
	if maxDownloads := limit.MaxDownloads(); maxDownloads != nil {
		row["max_downloads"] = *maxDownloads
	}
	if identity := s.gw.CurrentUser(ctx); identity != nil {
		row["created_by"] = identity.ID
	}

	link := &model.ShareLink{}
	err = s.gw.Insert(ctx, link, TableShareLinks, row)
	if err != nil {
		s.log.Error("share token orphaned, link insert failed", "error", err, "file_id", fileID)
		return nil, fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
	}
	shareLinksCreated.Inc()

	err = s.gw.Update(ctx, TableVaultFiles,
		[]gateway.Filter{gateway.Eq("id", fileID)},
		gateway.Row{"is_shared": true},
	)
	if err != nil {
		s.log.Warn("share link created but file not flagged as shared",
			"error", fmt.Errorf("%w: %w", ErrFileUpdateFailed, err),
			"file_id", fileID,
			"link_id", link.ID,
		)
	}

	return link, nil
}

// RevokeLink deactivates a link. The row is kept for auditing and revoking
// an inactive or unknown link is a no-op.
func (s *ShareLinkService) RevokeLink(ctx context.Context, linkID string) error {
	err := s.gw.Update(ctx, TableShareLinks,
		[]gateway.Filter{gateway.Eq("id", linkID)},
		gateway.Row{"is_active": false},
	)
	if err != nil {
		return fmt.Errorf("failed to revoke share link: %w", err)
	}
	shareLinksRevoked.Inc()
	return nil
}

// ShareURL is the public URL for a token.
func (s *ShareLinkService) ShareURL(token string) (string, error) {
	if token == "" {
		return "", ErrMissingToken
	}
	return s.origin + sharedPathPrefix + token, nil
}

// Now exposes the service clock so callers judge usability consistently.
func (s *ShareLinkService) Now() time.Time {
	return s.now()
}
