package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
)

type photoResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type listingResponse struct {
	ID               string          `json:"id"`
	OwnerID          string          `json:"owner_id"`
	Title            string          `json:"title"`
	Location         string          `json:"location"`
	Price            float64         `json:"price"`
	PropertyType     string          `json:"property_type"`
	TenantPreference string          `json:"tenant_preference"`
	ContactNumber    string          `json:"contact_number"`
	Description      string          `json:"description,omitempty"`
	Photos           []photoResponse `json:"photos"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type searchResponse struct {
	TotalCount  int               `json:"total_count"`
	TotalPages  int               `json:"total_pages"`
	Page        int               `json:"page"`
	PageSize    int               `json:"page_size"`
	StartItem   int               `json:"start_item"`
	EndItem     int               `json:"end_item"`
	HasPrev     bool              `json:"has_prev"`
	HasNext     bool              `json:"has_next"`
	PageNumbers []int             `json:"page_numbers"`
	Items       []listingResponse `json:"items"`
}

// searchErrorResponse is a failed search: the error plus an empty page.
type searchErrorResponse struct {
	Error string `json:"error"`
	searchResponse
}

type stepFailureResponse struct {
	Step  string `json:"step"`
	Error string `json:"error"`
}

// partialWriteResponse is sent with 207 when some workflow steps committed.
type partialWriteResponse struct {
	Error     string                `json:"error"`
	ListingID string                `json:"listing_id"`
	Succeeded []string              `json:"succeeded"`
	Failed    []stepFailureResponse `json:"failed"`
	Warnings  []string              `json:"warnings,omitempty"`
	Listing   *listingResponse      `json:"listing,omitempty"`
}

func toListingResponse(l *domain.Listing) listingResponse {
	resp := listingResponse{
		ID:               l.ID,
		OwnerID:          l.OwnerID,
		Title:            l.Title,
		Location:         l.Location,
		Price:            l.Price,
		PropertyType:     string(l.PropertyType),
		TenantPreference: string(l.TenantPreference),
		ContactNumber:    l.ContactNumber,
		Description:      l.Description,
		Photos:           make([]photoResponse, len(l.Photos)),
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
	for i, p := range l.Photos {
		resp.Photos[i] = photoResponse{ID: p.ID, URL: p.URL}
	}
	return resp
}

func toListingResponses(ls []*domain.Listing) []listingResponse {
	out := make([]listingResponse, len(ls))
	for i, l := range ls {
		out[i] = toListingResponse(l)
	}
	return out
}

func toSearchResponse(r *domain.SearchResult) searchResponse {
	return searchResponse{
		TotalCount:  r.TotalCount,
		TotalPages:  r.TotalPages(),
		Page:        r.Window.Page,
		PageSize:    r.Window.Limit(),
		StartItem:   r.StartItem(),
		EndItem:     r.EndItem(),
		HasPrev:     r.HasPrev(),
		HasNext:     r.HasNext(),
		PageNumbers: r.PageNumbers(),
		Items:       toListingResponses(r.Items),
	}
}

func toPartialWriteResponse(pw *domain.PartialWriteError, l *domain.Listing) partialWriteResponse {
	resp := partialWriteResponse{
		Error:     pw.Error(),
		ListingID: pw.ListingID,
		Succeeded: make([]string, len(pw.Succeeded)),
		Failed:    make([]stepFailureResponse, len(pw.Failed)),
	}
	for i, s := range pw.Succeeded {
		resp.Succeeded[i] = string(s)
	}
	for i, f := range pw.Failed {
		resp.Failed[i] = stepFailureResponse{Step: string(f.Step), Error: f.Err.Error()}
	}
	for _, w := range pw.Warnings {
		resp.Warnings = append(resp.Warnings, w.Error())
	}
	if l != nil {
		lr := toListingResponse(l)
		resp.Listing = &lr
	}
	return resp
}

// RespondWithJSON writes payload with the given status.
func RespondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteJSONError(w http.ResponseWriter, status int, msg string) {
	RespondWithJSON(w, status, map[string]string{"error": msg})
}

func writeSearchError(w http.ResponseWriter, status int, msg string, page int) {
	empty := &domain.SearchResult{Items: []*domain.Listing{}, Window: domain.NewPageWindow(page)}
	RespondWithJSON(w, status, searchErrorResponse{Error: msg, searchResponse: toSearchResponse(empty)})
}

// statusFor maps a usecase error to its HTTP status.
func statusFor(err error) int {
	var storeErr *domain.StoreWriteError
	var objectErr *domain.ObjectWriteError
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound
	case errors.As(err, &storeErr), errors.As(err, &objectErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
