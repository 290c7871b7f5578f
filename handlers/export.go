package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"otadmin/otcalc"
)

var sixty = decimal.NewFromInt(60)

// ExportCSV streams approved entries. The window is either from/to or a
// calendar month given as month/year.
func (h *OvertimeHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	from, to, err := exportWindow(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.ot.ApprovedBetween(r.Context(), from, to)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	filename := fmt.Sprintf("overtime_%s_%s.csv", from, to)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	writer.Write([]string{
		"Employee ID", "Employee", "Date", "Shift", "In", "Out",
		"Normal Minutes", "Double Minutes", "Triple Minutes", "Total Minutes", "Total Hours",
		"Override", "Decision Reason",
	})

	total := decimal.Zero
	for _, e := range entries {
		empID, name := "", ""
		if e.Employee != nil {
			empID, name = e.Employee.EmpID, e.Employee.Name
		}
		hours := decimal.NewFromInt(int64(e.ApprovedTotalMinutes)).Div(sixty)
		total = total.Add(hours)

		writer.Write([]string{
			empID,
			name,
			e.WorkDate,
			e.Shift,
			e.InTime,
			e.OutTime,
			strconv.Itoa(e.ApprovedNormalMinutes),
			strconv.Itoa(e.ApprovedDoubleMinutes),
			strconv.Itoa(e.ApprovedTripleMinutes),
			strconv.Itoa(e.ApprovedTotalMinutes),
			hours.StringFixed(2),
			strconv.FormatBool(e.IsApprovedOverride),
			e.DecisionReason,
		})
	}
	writer.Write([]string{"", "Total", "", "", "", "", "", "", "", "", total.StringFixed(2), "", ""})
}

func exportWindow(r *http.Request) (string, string, error) {
	q := r.URL.Query()
	if q.Get("month") == "" && q.Get("year") == "" {
		from, to := q.Get("from"), q.Get("to")
		if from == "" || to == "" {
			return "", "", fmt.Errorf("from and to, or month and year, are required")
		}
		return from, to, nil
	}

	month, err := strconv.Atoi(q.Get("month"))
	if err != nil || month < 1 || month > 12 {
		return "", "", fmt.Errorf("invalid month")
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		return "", "", fmt.Errorf("invalid year")
	}

	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return otcalc.FormatDate(start), otcalc.FormatDate(start.AddDate(0, 1, -1)), nil
}
