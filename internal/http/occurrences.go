package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestaozabele/zeladoria/internal/access"
	httpmiddleware "github.com/gestaozabele/zeladoria/internal/http/middleware"
	"github.com/gestaozabele/zeladoria/internal/occurrence"
	"github.com/gestaozabele/zeladoria/internal/query"
	"github.com/gestaozabele/zeladoria/internal/service"
	"github.com/gestaozabele/zeladoria/internal/store"
)

// ListOccurrences lista ocorrências visíveis com filtros da query string.
func (h *Handler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	limit, offset := parsePaging(q)

	result, err := h.service.List(r.Context(), viewer, filterFromQuery(q), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(result.Total))
	WriteJSON(w, http.StatusOK, result)
}

// CreateOccurrence abre nova ocorrência.
func (h *Handler) CreateOccurrence(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	var payload struct {
		ServiceType       string     `json:"service_type"`
		Priority          string     `json:"priority"`
		OccurrenceType    string     `json:"occurrence_type"`
		Description       string     `json:"description"`
		Observations      string     `json:"observations"`
		Address           string     `json:"address"`
		Neighborhood      string     `json:"neighborhood"`
		TerritoryID       string     `json:"territory_id"`
		Latitude          *flexFloat `json:"latitude"`
		Longitude         *flexFloat `json:"longitude"`
		PublicEquipmentID string     `json:"public_equipment_id"`
		RegionalID        string     `json:"regional_id"`
		FiscalID          string     `json:"fiscal_id"`
		EstimatedHours    *flexFloat `json:"estimated_hours"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "payload inválido", nil)
		return
	}

	view, err := h.service.Create(r.Context(), viewer, service.CreateInput{
		ServiceType:       payload.ServiceType,
		Priority:          payload.Priority,
		OccurrenceType:    payload.OccurrenceType,
		Description:       payload.Description,
		Observations:      payload.Observations,
		Address:           payload.Address,
		Neighborhood:      payload.Neighborhood,
		TerritoryID:       payload.TerritoryID,
		Latitude:          payload.Latitude.ptr(),
		Longitude:         payload.Longitude.ptr(),
		PublicEquipmentID: payload.PublicEquipmentID,
		RegionalID:        payload.RegionalID,
		FiscalID:          payload.FiscalID,
		EstimatedHours:    payload.EstimatedHours.ptr(),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	WriteJSON(w, http.StatusCreated, view)
}

// GetOccurrence devolve a ocorrência com ações e transições disponíveis.
func (h *Handler) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	view, err := h.service.Get(r.Context(), viewer, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// TransitionOccurrence aplica um passo do ciclo de vida.
func (h *Handler) TransitionOccurrence(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	t, err := occurrence.ParseTransition(chi.URLParam(r, "transition"))
	if err != nil {
		WriteError(w, http.StatusNotFound, CodeNotFound, "transição desconhecida", nil)
		return
	}

	var payload struct {
		Reason           string     `json:"reason"`
		CompanyID        string     `json:"company_id"`
		TeamID           string     `json:"team_id"`
		ScheduledDate    string     `json:"scheduled_date"`
		ScheduledTime    string     `json:"scheduled_time"`
		EstimatedHours   *flexFloat `json:"estimated_hours"`
		ActualHours      *flexFloat `json:"actual_hours"`
		Notes            string     `json:"notes"`
		CompanyConfirmed bool       `json:"company_confirmed"`
		InspectionDate   string     `json:"inspection_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, http.StatusBadRequest, CodeValidation, "payload inválido", nil)
		return
	}

	scheduled, err := parseDate(payload.ScheduledDate, h.location)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "scheduled_date inválida", nil)
		return
	}
	inspection, err := parseDate(payload.InspectionDate, h.location)
	if err != nil {
		WriteError(w, http.StatusBadRequest, CodeValidation, "inspection_date inválida", nil)
		return
	}

	view, err := h.service.Transition(r.Context(), viewer, chi.URLParam(r, "id"), t, occurrence.TransitionInput{
		Reason:           payload.Reason,
		CompanyID:        payload.CompanyID,
		TeamID:           payload.TeamID,
		ScheduledDate:    scheduled,
		ScheduledTime:    payload.ScheduledTime,
		EstimatedHours:   payload.EstimatedHours.ptr(),
		ActualHours:      payload.ActualHours.ptr(),
		Notes:            payload.Notes,
		CompanyConfirmed: payload.CompanyConfirmed,
		InspectionDate:   inspection,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, view)
}

// ExportOccurrences gera CSV com os mesmos filtros da listagem.
func (h *Handler) ExportOccurrences(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	n, err := h.service.ExportCSV(r.Context(), viewer, filterFromQuery(r.URL.Query()), &buf)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("ocorrencias-%s.csv", time.Now().In(h.location).Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("X-Total-Count", strconv.Itoa(n))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// TeamSnapshots mostra a ocupação atual das equipes.
func (h *Handler) TeamSnapshots(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	snaps, err := h.service.TeamSnapshots(r.Context(), viewer)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"teams": snaps})
}

// DashboardStats resume as ocorrências visíveis para o painel.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), viewer, filterFromQuery(r.URL.Query()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// MyActions devolve as ações gerais do usuário autenticado.
func (h *Handler) MyActions(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.viewer(w, r)
	if !ok {
		return
	}

	actions, err := h.service.ViewerActions(viewer)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"role":    viewer.Role,
		"subrole": viewer.Subrole,
		"actions": actions,
	})
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (access.Viewer, bool) {
	viewer, ok := httpmiddleware.GetViewer(r.Context())
	if !ok {
		WriteError(w, http.StatusUnauthorized, CodeAuth, "usuário não identificado", nil)
	}
	return viewer, ok
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrUnauthorizedRole), errors.Is(err, service.ErrForbidden):
		WriteError(w, http.StatusForbidden, CodeForbidden, "permissão negada", nil)
	case errors.Is(err, service.ErrNotFound):
		WriteError(w, http.StatusNotFound, CodeNotFound, "ocorrência não encontrada", nil)
	case errors.Is(err, occurrence.ErrInvalidTransition):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, store.ErrImmutableField), errors.Is(err, store.ErrAlreadyExists):
		WriteError(w, http.StatusConflict, CodeConflict, err.Error(), nil)
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, occurrence.ErrMissingInput),
		errors.Is(err, occurrence.ErrInvalidOccurrence),
		errors.Is(err, occurrence.ErrUnknownTransition):
		WriteError(w, http.StatusBadRequest, CodeValidation, err.Error(), nil)
	default:
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("falha ao processar requisição")
		WriteError(w, http.StatusInternalServerError, CodeInternal, "erro interno", nil)
	}
}

func filterFromQuery(q url.Values) query.Filter {
	get := func(key string) string { return strings.TrimSpace(q.Get(key)) }
	return query.Filter{
		SearchTerm:        get("search"),
		Status:            get("status"),
		Priority:          get("priority"),
		RegionalName:      get("regional"),
		Neighborhood:      get("neighborhood"),
		ServiceType:       get("service_type"),
		OccurrenceType:    get("occurrence_type"),
		CompanyID:         get("company_id"),
		TeamID:            get("team_id"),
		DateFrom:          get("date_from"),
		DateTo:            get("date_to"),
		SortByUpdatedDesc: get("sort") == "updated_desc",
	}
}

func parsePaging(q url.Values) (int, int) {
	var limit, offset int
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("limit"))); err == nil {
		limit = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(q.Get("offset"))); err == nil {
		offset = v
	}
	return limit, offset
}

func parseDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// flexFloat aceita número JSON ou texto com vírgula decimal ("3,5").
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.ReplaceAll(strings.TrimSpace(unquoted), ",", ".")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("número inválido: %s", string(b))
	}
	*f = flexFloat(v)
	return nil
}

func (f *flexFloat) ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}
