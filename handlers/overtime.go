package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"otadmin/models"
	"otadmin/services"
)

type OvertimeHandler struct {
	ot    *services.OvertimeService
	stats *services.StatsService
	log   *slog.Logger
}

func NewOvertimeHandler(ot *services.OvertimeService, stats *services.StatsService, log *slog.Logger) *OvertimeHandler {
	return &OvertimeHandler{ot: ot, stats: stats, log: log}
}

func (h *OvertimeHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := services.ListFilter{
		EmployeeID: uint(max(queryInt(r, "employeeId"), 0)),
		Status:     models.Status(q.Get("status")),
		From:       q.Get("from"),
		To:         q.Get("to"),
		Page:       queryInt(r, "page"),
		Limit:      queryInt(r, "limit"),
	}

	page, err := h.ot.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// CreateBulk answers 201 when every row was inserted and 207 when some rows
// were skipped as duplicates or refused by the database.
func (h *OvertimeHandler) CreateBulk(w http.ResponseWriter, r *http.Request) {
	var req services.BulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.ot.CreateBulk(r.Context(), req, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	status := http.StatusCreated
	if res.Duplicates > 0 || res.Failed > 0 {
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

func (h *OvertimeHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var patch services.EntryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.ot.UpdateEntry(r.Context(), id, patch, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *OvertimeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// An empty body approves the computed minutes as they are.
	var req services.ApproveRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.ot.ApproveEntry(r.Context(), id, req, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *OvertimeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req rejectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entry, err := h.ot.RejectEntry(r.Context(), id, req.Reason, actorFrom(r))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *OvertimeHandler) DayStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.DayStats(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *OvertimeHandler) WeekStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	stats, err := h.stats.RangeStats(r.Context(), q.Get("from"), q.Get("to"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"from": q.Get("from"), "to": q.Get("to"), "items": stats})
}

func (h *OvertimeHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	summary, err := h.stats.Summary(r.Context(), services.SummaryRequest{
		Scope:  services.Scope(q.Get("scope")),
		Anchor: q.Get("anchor"),
		From:   q.Get("from"),
		To:     q.Get("to"),
	})
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *OvertimeHandler) NotificationCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.ot.PendingCount(r.Context())
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pending": count})
}

func (h *OvertimeHandler) PendingNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.ot.PendingNotifications(r.Context(), queryInt(r, "limit"))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
