package rest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/usecase"
	"github.com/Abdurahmanit/GroupProject/room-service/internal/platform/logger"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultMaxUploadBytes = 32 << 20

// ListingHandler serves the catalog and the owner write workflows.
type ListingHandler struct {
	catalog        *usecase.CatalogUsecase
	listings       *usecase.ListingUsecase
	maxUploadBytes int64
	logger         *logger.Logger
}

func NewListingHandler(catalog *usecase.CatalogUsecase, listings *usecase.ListingUsecase, maxUploadBytes int64, log *logger.Logger) *ListingHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
	}
	return &ListingHandler{
		catalog:        catalog,
		listings:       listings,
		maxUploadBytes: maxUploadBytes,
		logger:         log.Named("ListingHandler"),
	}
}

// HandleSearch serves GET /api/listings. Failures keep the page shape, with
// an empty item list next to the error.
func (h *ListingHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := domain.FilterCriteria{
		Location:         q.Get("location"),
		PropertyType:     q.Get("property_type"),
		TenantPreference: q.Get("tenant_preference"),
	}
	page := 1
	if raw := strings.TrimSpace(q.Get("page")); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			writeSearchError(w, http.StatusBadRequest, "page must be a positive integer", page)
			return
		}
		page = p
	}
	if raw := strings.TrimSpace(q.Get("max_price")); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeSearchError(w, http.StatusBadRequest, "max_price must be a number", page)
			return
		}
		if math.IsNaN(price) || math.IsInf(price, 0) {
			writeSearchError(w, http.StatusBadRequest, "max_price must be a finite number", page)
			return
		}
		criteria.MaxPrice = &price
	}

	res, err := h.catalog.Search(r.Context(), criteria, page)
	if err != nil {
		status, msg := h.failure("search", err)
		writeSearchError(w, status, msg, page)
		return
	}
	RespondWithJSON(w, http.StatusOK, toSearchResponse(res))
}

// HandleGetListing serves GET /api/listings/{id}.
func (h *ListingHandler) HandleGetListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.catalog.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "get listing", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(l))
}

// HandleOwnerListings serves GET /api/owner/listings.
func (h *ListingHandler) HandleOwnerListings(w http.ResponseWriter, r *http.Request) {
	ls, err := h.catalog.ListOwnerListings(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		h.writeError(w, "owner listings", err)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponses(ls))
}

// HandleCreateListing serves POST /api/listings.
func (h *ListingHandler) HandleCreateListing(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.writeError(w, "create listing", err)
		return
	}
	defer form.RemoveAll()

	fields, err := decodeListingFields(firstValue(form, "listing"))
	if err != nil {
		h.writeError(w, "create listing", err)
		return
	}
	files, err := readImages(form)
	if err != nil {
		h.writeError(w, "create listing", err)
		return
	}

	l, err := h.listings.CreateListing(r.Context(), middleware.UserIDFromContext(r.Context()), fields, files)
	if err != nil {
		h.writeWriteError(w, "create listing", err, l)
		return
	}
	RespondWithJSON(w, http.StatusCreated, toListingResponse(l))
}

// HandleUpdateListing serves PUT /api/listings/{id}.
func (h *ListingHandler) HandleUpdateListing(w http.ResponseWriter, r *http.Request) {
	form, err := h.parseForm(w, r)
	if err != nil {
		h.writeError(w, "update listing", err)
		return
	}
	defer form.RemoveAll()

	fields, err := decodeListingFields(firstValue(form, "listing"))
	if err != nil {
		h.writeError(w, "update listing", err)
		return
	}
	files, err := readImages(form)
	if err != nil {
		h.writeError(w, "update listing", err)
		return
	}

	l, err := h.listings.UpdateListing(r.Context(), middleware.UserIDFromContext(r.Context()),
		chi.URLParam(r, "id"), fields, deletedPhotoIDs(form), files)
	if err != nil {
		h.writeWriteError(w, "update listing", err, l)
		return
	}
	RespondWithJSON(w, http.StatusOK, toListingResponse(l))
}

// HandleDeleteListing serves DELETE /api/listings/{id}?confirm=true.
func (h *ListingHandler) HandleDeleteListing(w http.ResponseWriter, r *http.Request) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	err := h.listings.DeleteListing(r.Context(), middleware.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), confirmed)
	if err != nil {
		h.writeError(w, "delete listing", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ListingHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.Form, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &domain.ValidationError{Field: "images", Reason: fmt.Sprintf("request exceeds %d bytes", h.maxUploadBytes)}
		}
		return nil, &domain.ValidationError{Field: "body", Reason: "must be multipart/form-data"}
	}
	return r.MultipartForm, nil
}

func firstValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// deletedPhotoIDs accepts repeated fields as well as comma-separated lists.
func deletedPhotoIDs(form *multipart.Form) []string {
	var ids []string
	for _, v := range form.Value["deleted_photo_ids"] {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func readImages(form *multipart.Form) ([]domain.UploadFile, error) {
	headers := form.File["images"]
	files := make([]domain.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %q: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %q: %w", fh.Filename, err)
		}
		files = append(files, domain.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}

// writeWriteError answers 207 for partially committed workflows so the
// client learns which steps to retry.
func (h *ListingHandler) writeWriteError(w http.ResponseWriter, op string, err error, l *domain.Listing) {
	var pw *domain.PartialWriteError
	if errors.As(err, &pw) {
		h.logger.Warn("Partial write", zap.String("operation", op), zap.String("listing_id", pw.ListingID), zap.Error(err))
		RespondWithJSON(w, http.StatusMultiStatus, toPartialWriteResponse(pw, l))
		return
	}
	h.writeError(w, op, err)
}

func (h *ListingHandler) writeError(w http.ResponseWriter, op string, err error) {
	status, msg := h.failure(op, err)
	WriteJSONError(w, status, msg)
}

// failure logs err and returns the status and client-facing message for it.
func (h *ListingHandler) failure(op string, err error) (int, string) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("operation", op), zap.Error(err))
	} else {
		h.logger.Debug("Request rejected", zap.String("operation", op), zap.Int("status", status), zap.Error(err))
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return status, msg
}
