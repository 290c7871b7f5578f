package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"otadmin/models"
	"otadmin/services"
)

// AdminHandler serves the reference data around overtime entries: the triple
// day calendar, decision reasons, employees and the audit trail.
type AdminHandler struct {
	triple    *services.TripleDayRegistry
	reasons   *services.ReasonCatalog
	employees *services.EmployeeDirectory
	audit     *services.AuditRecorder
	log       *slog.Logger
}

func NewAdminHandler(
	triple *services.TripleDayRegistry,
	reasons *services.ReasonCatalog,
	employees *services.EmployeeDirectory,
	audit *services.AuditRecorder,
	log *slog.Logger,
) *AdminHandler {
	return &AdminHandler{triple: triple, reasons: reasons, employees: employees, audit: audit, log: log}
}

func (h *AdminHandler) ListTripleDays(w http.ResponseWriter, r *http.Request) {
	days, err := h.triple.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": days})
}

type tripleDayRequest struct {
	Date string `json:"date"`
	Note string `json:"note,omitempty"`
}

func (h *AdminHandler) CreateTripleDay(w http.ResponseWriter, r *http.Request) {
	var req tripleDayRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	day, err := h.triple.Create(r.Context(), req.Date, req.Note)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	h.log.InfoContext(r.Context(), "triple day flagged", "date", day.Date, "actor", actorFrom(r).UserID)
	writeJSON(w, http.StatusCreated, day)
}

func (h *AdminHandler) DeleteTripleDay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.triple.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.audit.List(r.Context(), services.AuditFilter{
		EntityType:  q.Get("entityType"),
		EntityID:    q.Get("entityId"),
		ActorUserID: uint(max(queryInt(r, "actorUserId"), 0)),
		Page:        queryInt(r, "page"),
		Limit:       queryInt(r, "limit"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) ListReasons(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var active *bool
	if v, err := strconv.ParseBool(q.Get("active")); err == nil {
		active = &v
	}
	items, err := h.reasons.List(r.Context(), models.DecisionType(q.Get("type")), active)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *AdminHandler) CreateReason(w http.ResponseWriter, r *http.Request) {
	var req services.ReasonInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reason, err := h.reasons.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, reason)
}

func (h *AdminHandler) DeleteReason(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.reasons.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	page, err := h.employees.List(r.Context(), r.URL.Query().Get("search"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *AdminHandler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp, err := h.employees.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, emp)
}

func (h *AdminHandler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req services.EmployeeInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	emp, err := h.employees.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, emp)
}
