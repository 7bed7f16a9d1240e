package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/templui/hrvault/internal/gateway"
	"github.com/templui/hrvault/internal/model"
	"github.com/templui/hrvault/internal/service"
)

const (
	maxUploadFiles    = 20
	multipartMemory   = 32 << 20
	multipartOverhead = 1 << 20
)

type VaultHandler struct {
	vault     *service.VaultService
	audit     *service.AuditLogger
	gw        gateway.Gateway
	uploadCfg service.UploadConfig
}

func NewVaultHandler(vault *service.VaultService, audit *service.AuditLogger, gw gateway.Gateway, uploadCfg service.UploadConfig) *VaultHandler {
	return &VaultHandler{
		vault:     vault,
		audit:     audit,
		gw:        gw,
		uploadCfg: uploadCfg,
	}
}

type filesResponse struct {
	Files []*model.VaultFile `json:"files"`
}

func (h *VaultHandler) Search(w http.ResponseWriter, r *http.Request) {
	rt := model.ResourceType(r.URL.Query().Get("type"))
	if rt != "" && !rt.Valid() {
		writeBadRequest(w, "Unknown resource type.")
		return
	}

	files, err := h.vault.Search(r.Context(), service.SearchFilter{
		Query:        r.URL.Query().Get("q"),
		ResourceType: rt,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, filesResponse{Files: files})
}

func (h *VaultHandler) File(w http.ResponseWriter, r *http.Request) {
	file, err := h.vault.File(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (h *VaultHandler) Download(w http.ResponseWriter, r *http.Request) {
	url, err := h.vault.DownloadURL(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *VaultHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.vault.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// uploadResponse reports the sent batch in Summary. Rejected counts files
// that failed validation at selection and were never sent.
type uploadResponse struct {
	Files    []model.UploadFile    `json:"files"`
	Summary  service.UploadSummary `json:"summary"`
	Rejected int                   `json:"rejected"`
	Message  string                `json:"message,omitempty"`
}

// Upload takes a multipart batch under the "files" field. Every file gets
// its own status in the response; the request only fails as a whole when
// the caller is not signed in.
func (h *VaultHandler) Upload(w http.ResponseWriter, r *http.Request) {
	limit := h.uploadCfg.Constraints.MaxSize*maxUploadFiles + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	err := r.ParseMultipartForm(multipartMemory)
	if err != nil {
		writeBadRequest(w, "Upload is too large or malformed.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeBadRequest(w, "No files selected.")
		return
	}
	if len(headers) > maxUploadFiles {
		writeBadRequest(w, "Too many files in one upload.")
		return
	}

	rt := model.ResourceType(r.FormValue("resourceType"))
	if rt == "" {
		rt = model.ResourceTypeDocument
	}
	if !rt.Valid() {
		writeBadRequest(w, "Unknown resource type.")
		return
	}

	inputs := make([]service.UploadInput, 0, len(headers))
	for _, fh := range headers {
		in, err := h.readUpload(fh)
		if err != nil {
			writeError(w, r, err)
			return
		}
		inputs = append(inputs, in)
	}

	orchestrator := service.NewUploadOrchestrator(h.gw, h.uploadCfg)
	var rejected int
	for _, f := range orchestrator.Select(inputs...) {
		if f.Status == model.UploadStatusError {
			rejected++
		}
	}

	summary, err := orchestrator.UploadPending(r.Context(), service.UploadOptions{ResourceType: rt})
	files := orchestrator.Files()
	for _, f := range files {
		if f.Status == model.UploadStatusSuccess && f.Result != nil {
			h.audit.LogUpload(r.Context(), rt, f.Result.FileID, f.Name, map[string]any{
				"size":      f.Size,
				"mediaType": f.MediaType,
			})
		}
	}

	resp := uploadResponse{Files: files, Summary: summary, Rejected: rejected}
	if errors.Is(err, service.ErrUnauthenticated) {
		resp.Message = service.UserMessage(err)
		writeJSON(w, http.StatusUnauthorized, resp)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if summary.Succeeded == 0 {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// readUpload reads a part into memory. Oversized parts are not read; the
// orchestrator rejects them on size alone.
func (h *VaultHandler) readUpload(fh *multipart.FileHeader) (service.UploadInput, error) {
	in := service.UploadInput{
		Name:      fh.Filename,
		MediaType: fh.Header.Get("Content-Type"),
		Size:      fh.Size,
	}
	if fh.Size > h.uploadCfg.Constraints.MaxSize {
		return in, nil
	}

	f, err := fh.Open()
	if err != nil {
		return in, err
	}
	defer f.Close()

	in.Content, err = io.ReadAll(f)
	if err != nil {
		return in, err
	}
	return in, nil
}
