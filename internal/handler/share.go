package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/templui/hrvault/internal/ctxkeys"
	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/service"
)

type ShareHandler struct {
	vault *service.VaultService
	links *service.ShareLinkService
	audit *service.AuditLogger
	email *service.EmailService
	gw    gateway.Gateway
}

func NewShareHandler(vault *service.VaultService, links *service.ShareLinkService, audit *service.AuditLogger, email *service.EmailService, gw gateway.Gateway) *ShareHandler {
	return &ShareHandler{
		vault: vault,
		links: links,
		audit: audit,
		email: email,
		gw:    gw,
	}
}

type linkView struct {
	*model.ShareLink
	URL    string `json:"url"`
	Status string `json:"status"`
	Usable bool   `json:"usable"`
}

type linksResponse struct {
	Links []linkView `json:"links"`
}

type createdLinkResponse struct {
	Link  linkView   `json:"link"`
	Links []linkView `json:"links"`
}

func (h *ShareHandler) view(link *model.ShareLink, now time.Time) linkView {
	url, _ := h.links.ShareURL(link.Token)
	return linkView{
		ShareLink: link,
		URL:       url,
		Status:    link.Status(now),
		Usable:    link.IsUsable(now),
	}
}

// activeViews re-reads the link list from the store after a change.
func (h *ShareHandler) activeViews(r *http.Request, fileID string) ([]linkView, error) {
	links, err := h.links.ActiveLinks(r.Context(), fileID)
	if err != nil {
		return nil, err
	}
	now := h.links.Now()
	views := make([]linkView, 0, len(links))
	for _, l := range links {
		views = append(views, h.view(l, now))
	}
	return views, nil
}

func (h *ShareHandler) List(w http.ResponseWriter, r *http.Request) {
	file, err := h.vault.Owned(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.activeViews(r, file.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksResponse{Links: views})
}

type createLinkRequest struct {
	Expiry        string `json:"expiry"`
	DownloadLimit string `json:"downloadLimit"`
}

func (h *ShareHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	err := decodeJSON(r, &req)
	if err != nil {
		writeBadRequest(w, "Invalid request body.")
		return
	}

	expiry, err := model.ParseExpiryPolicy(req.Expiry)
	if err != nil {
		writeError(w, r, errors.Join(service.ErrInvalidSharePolicy, err))
		return
	}
	limit, err := model.ParseDownloadLimitPolicy(req.DownloadLimit)
	if err != nil {
		writeError(w, r, errors.Join(service.ErrInvalidSharePolicy, err))
		return
	}

	file, err := h.vault.Owned(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	link, err := h.links.CreateLink(r.Context(), file.ID, expiry, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.audit.LogShare(r.Context(), file.ResourceType, file.ID, file.OriginalName, map[string]any{
		"linkId":        link.ID,
		"expiry":        string(expiry),
		"downloadLimit": int(limit),
	})

	views, err := h.activeViews(r, file.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdLinkResponse{Link: h.view(link, h.links.Now()), Links: views})
}

// ownedLink loads a link and checks it belongs to a file of the caller.
func (h *ShareHandler) ownedLink(r *http.Request) (*model.VaultFile, *model.ShareLink, error) {
	file, err := h.vault.Owned(r.Context(), r.PathValue("id"))
	if err != nil {
		return nil, nil, err
	}
	link, err := h.links.Link(r.Context(), r.PathValue("linkID"))
	if err != nil {
		return nil, nil, err
	}
	if link.FileID != file.ID {
		return nil, nil, service.ErrLinkNotFound
	}
	return file, link, nil
}

func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	file, link, err := h.ownedLink(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.links.RevokeLink(r.Context(), link.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	views, err := h.activeViews(r, file.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, linksResponse{Links: views})
}

type emailLinkRequest struct {
	To string `json:"to"`
}

func (h *ShareHandler) Email(w http.ResponseWriter, r *http.Request) {
	var req emailLinkRequest
	err := decodeJSON(r, &req)
	if err != nil || strings.TrimSpace(req.To) == "" {
		writeBadRequest(w, "Recipient address is required.")
		return
	}

	file, link, err := h.ownedLink(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !link.IsUsable(h.links.Now()) {
		writeError(w, r, service.ErrLinkUnusable)
		return
	}

	url, err := h.links.ShareURL(link.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var sender string
	if identity := ctxkeys.Identity(r.Context()); identity != nil {
		sender = identity.Email
	}
	err = h.email.SendShareLinkEmail(r.Context(), req.To, sender, file, link, url)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.audit.LogShare(r.Context(), file.ResourceType, file.ID, file.OriginalName, map[string]any{
		"linkId":  link.ID,
		"channel": "email",
	})
	w.WriteHeader(http.StatusAccepted)
}

const (
	defaultQRSize = 256
	maxQRSize     = 1024
)

// QRCode renders the share URL of a link as a PNG, for printing on notices.
// ?size=256 or ?size=256x256 picks the edge length in pixels.
func (h *ShareHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	_, link, err := h.ownedLink(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	url, err := h.links.ShareURL(link.Token)
	if err != nil {
		writeError(w, r, err)
		return
	}

	size := parseQRSize(r.URL.Query().Get("size"))
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// parseQRSize accepts "200" or "200x200" and clamps to maxQRSize.
func parseQRSize(s string) int {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "x"); i > 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return defaultQRSize
	}
	return min(n, maxQRSize)
}

// Redeem is the public endpoint behind a share URL. It counts the download
// and redirects to a short lived storage URL.
func (h *ShareHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var res service.RedeemResult
	err := h.gw.Invoke(r.Context(), service.ProcRedeemShareLink, service.RedeemRequest{Token: r.PathValue("token")}, &res)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) || errors.Is(err, service.ErrLinkUnusable) {
			h.audit.LogAccessDenied(r.Context(), model.ResourceTypeDocument, "", deniedReason(err))
		}
		writeError(w, r, err)
		return
	}

	h.audit.LogDownload(r.Context(), res.ResourceType, res.FileID, res.FileName, map[string]any{
		"via":    "share_link",
		"linkId": res.LinkID,
		"ip":     ctxkeys.ClientIP(r.Context()),
	})

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, res)
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

func deniedReason(err error) string {
	if errors.Is(err, service.ErrLinkUnusable) {
		return "share link unusable"
	}
	return "share link not found"
}
