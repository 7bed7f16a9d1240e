package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/hrvault/internal/ctxkeys"
	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/logger"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/repository"
	"github.com/templui/hrvault/internal/storage"
	"github.com/templui/hrvault/internal/validation"
)

const (
	ProcGenerateShareToken = "generate-share-token"
	ProcVaultUpload        = "vault-upload"
	ProcRedeemShareLink    = "redeem-share-link"

	shareTokenBytes = 32
)

type VaultUploadRequest struct {
	FileName     string             `json:"fileName"`
	MediaType    string             `json:"mediaType"`
	Size         int64              `json:"size"`
	Content      []byte             `json:"content"`
	ResourceType model.ResourceType `json:"resourceType"`
}

type RedeemRequest struct {
	Token string `json:"token"`
}

type RedeemResult struct {
	FileID       string             `json:"fileId"`
	FileName     string             `json:"fileName"`
	ResourceType model.ResourceType `json:"resourceType"`
	URL          string             `json:"url"`
	LinkID       string             `json:"linkId"`
	Downloads    int                `json:"downloads"`
}

// VaultProcedures implements the server-side procedures reachable through
// Gateway.Invoke.
type VaultProcedures struct {
	files       repository.FileRepository
	links       repository.ShareLinkRepository
	storage     storage.Storage
	constraints validation.FileConstraints
	cache       *FileCache
	now         func() time.Time
	log         *slog.Logger
}

func NewVaultProcedures(files repository.FileRepository, links repository.ShareLinkRepository, store storage.Storage, constraints validation.FileConstraints, cache *FileCache) *VaultProcedures {
	return &VaultProcedures{
		files:       files,
		links:       links,
		storage:     store,
		constraints: constraints,
		cache:       cache,
		now:         time.Now,
		log:         logger.Component("procedures"),
	}
}

func RegisterVaultProcedures(procs *gateway.Procedures, vp *VaultProcedures) {
	procs.Register(ProcGenerateShareToken, gateway.Typed(vp.GenerateShareToken))
	procs.Register(ProcVaultUpload, gateway.Typed(vp.Upload))
	procs.Register(ProcRedeemShareLink, gateway.Typed(vp.Redeem))
}

func (vp *VaultProcedures) GenerateShareToken(ctx context.Context, _ shareTokenRequest) (any, error) {
	b := make([]byte, shareTokenBytes)
	_, err := rand.Read(b)
	if err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return shareTokenResult{Token: hex.EncodeToString(b)}, nil
}

func (vp *VaultProcedures) Upload(ctx context.Context, req VaultUploadRequest) (any, error) {
	identity := ctxkeys.Identity(ctx)
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	size := int64(len(req.Content))
	err := vp.constraints.Validate(req.FileName, req.MediaType, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	rt := req.ResourceType
	if !rt.Valid() {
		rt = model.ResourceTypeDocument
	}

	fileID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(req.FileName))
	filename := fileID + ext
	key := fmt.Sprintf("vault/%s/%ss/%s", identity.ID, rt, filename)

	err = vp.storage.Save(ctx, key, bytes.NewReader(req.Content), size, req.MediaType)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &model.VaultFile{
		ID:           fileID,
		UserID:       identity.ID,
		ResourceType: rt,
		Filename:     filename,
		OriginalName: req.FileName,
		MimeType:     req.MediaType,
		Size:         size,
		StoragePath:  key,
		CreatedAt:    vp.now().UTC(),
	}
	err = vp.files.Create(file)
	if err != nil {
		if delErr := vp.storage.Delete(ctx, key); delErr != nil {
			vp.log.Error("failed to clean up stored object", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to save file record: %w", err)
	}
	vp.cache.Set(file)

	url, err := vp.storage.DownloadURL(ctx, key, file.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download url: %w", err)
	}

	vp.log.Info("file uploaded", "file_id", file.ID, "user_id", identity.ID, "size", size)
	return model.UploadResult{FileID: file.ID, URL: url, UploadedAt: file.CreatedAt}, nil
}

// Redeem counts one download against a share link and hands out a short
// lived URL to the file. Expiry and download limits are enforced here.
func (vp *VaultProcedures) Redeem(ctx context.Context, req RedeemRequest) (any, error) {
	if req.Token == "" {
		return nil, ErrMissingToken
	}

	link, err := vp.links.Redeem(req.Token, vp.now().UTC())
	switch {
	case errors.Is(err, repository.ErrShareLinkNotFound):
		shareRedemptions.WithLabelValues("not_found").Inc()
		return nil, ErrLinkNotFound
	case errors.Is(err, repository.ErrShareLinkUnusable):
		shareRedemptions.WithLabelValues("unusable").Inc()
		return nil, ErrLinkUnusable
	case err != nil:
		return nil, fmt.Errorf("failed to redeem share link: %w", err)
	}

	file, err := vp.file(link.FileID)
	if err != nil {
		return nil, err
	}

	url, err := vp.storage.DownloadURL(ctx, file.StoragePath, file.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download url: %w", err)
	}

	shareRedemptions.WithLabelValues("ok").Inc()
	return RedeemResult{
		FileID:       file.ID,
		FileName:     file.OriginalName,
		ResourceType: file.ResourceType,
		URL:          url,
		LinkID:       link.ID,
		Downloads:    link.DownloadCount,
	}, nil
}

func (vp *VaultProcedures) file(id string) (*model.VaultFile, error) {
	if f, ok := vp.cache.Get(id); ok {
		return f, nil
	}
	f, err := vp.files.ByID(id)
	if err != nil {
		return nil, err
	}
	vp.cache.Set(f)
	return f, nil
}
