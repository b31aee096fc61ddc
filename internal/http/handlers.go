package http

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/report"

	"golang.org/x/sync/errgroup"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	// ?user= (or short ?u=) preselects the author for shared links.
	user := strings.TrimSpace(r.URL.Query().Get("user"))
	if user == "" {
		user = strings.TrimSpace(r.URL.Query().Get("u"))
	}
	if user == "" {
		user = s.cfg.DefaultUser
	}

	data := struct {
		User              string
		Today             string
		ExpenseCategories []string
		IncomeCategories  []string
	}{
		User:              user,
		Today:             time.Now().Format("2006-01-02"),
		ExpenseCategories: s.cfg.Suggestions(core.Expenses),
		IncomeCategories:  s.cfg.Suggestions(core.Income),
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	s.handleAppend(w, r, core.Expenses)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	s.handleAppend(w, r, core.Income)
}

func (s *Server) handleAppend(w http.ResponseWriter, r *http.Request, t core.Table) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Parse form error", "error", err, "method", r.Method, "url", r.URL.Path)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Formato de solicitud no válido</div>`))
		return
	}

	fecha := strings.TrimSpace(r.Form.Get("fecha"))
	if fecha == "" {
		fecha = time.Now().Format("2006-01-02")
	}

	amount, err := core.ParseAmount(r.Form.Get("monto"))
	if err != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`<div class="error">Monto no válido: debe ser mayor a 0</div>`))
		return
	}

	user := sanitizeInput(r.Form.Get("usuario"))
	if user == "" {
		user = s.cfg.DefaultUser
	}

	rec := core.Record{
		Date:     core.ParseDate(fecha),
		Category: sanitizeInput(r.Form.Get("categoria")),
		Amount:   amount,
		Note:     sanitizeInput(r.Form.Get("nota")),
		Tags:     sanitizeInput(r.Form.Get("tags")),
		User:     user,
	}

	saved, _, err := s.ledger.Append(r.Context(), t, rec)
	if err != nil {
		if errors.Is(err, core.ErrInvalidDate) || errors.Is(err, core.ErrEmptyCategory) || errors.Is(err, core.ErrInvalidAmount) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`<div class="error">Verifica monto (&gt;0), categoría y fecha</div>`))
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Record append error", "error", err, "table", t.String())
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<div class="error">Error al guardar el registro</div>`))
		return
	}

	w.Header().Set("HX-Trigger", `{"record:created": {"table": "`+t.SheetName()+`", "id": `+strconv.FormatInt(saved.ID, 10)+`}}`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`<div class="success">Registrado (#` + strconv.FormatInt(saved.ID, 10) + `): ` +
		template.HTMLEscapeString(saved.Category) +
		` — $` + template.HTMLEscapeString(saved.Amount.StringFixed(2)) +
		` (` + template.HTMLEscapeString(saved.User) + `)</div>`))
}

// recordRow is the template view of a ledger record.
type recordRow struct {
	ID        int64
	Fecha     string
	Categoria string
	Monto     string
	Nota      string
	Tags      string
	Usuario   string
}

func toRecordRows(records []core.Record) []recordRow {
	rows := make([]recordRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordRow{
			ID:        r.ID,
			Fecha:     r.Date.ISO(),
			Categoria: r.Category,
			Monto:     r.Amount.StringFixed(2),
			Nota:      r.Note,
			Tags:      r.Tags,
			Usuario:   r.User,
		})
	}
	return rows
}

// handleHistorico renders the filtered history partial for one table.
func (s *Server) handleHistorico(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	q := r.URL.Query()

	tabla := q.Get("tabla")
	if tabla == "" {
		tabla = "gastos"
	}
	t, err := core.ParseTable(tabla)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`<div class="error">Tabla desconocida</div>`))
		return
	}

	f := report.Filter{
		Categories: q["categoria"],
		Users:      q["usuario"],
	}
	if v := strings.TrimSpace(q.Get("desde")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			f.From = d
		}
	}
	if v := strings.TrimSpace(q.Get("hasta")); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			f.To = d
		}
	}

	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="error">Error al cargar el histórico</div>`))
		return
	}

	snap := s.ledger.Load(r.Context(), t)
	records := report.Apply(snap.Records, f)

	data := struct {
		Tabla    string
		Rows     []recordRow
		Count    int
		Excluded int
	}{
		Tabla:    t.SheetName(),
		Rows:     toRecordRows(records),
		Count:    len(records),
		Excluded: snap.Excluded,
	}

	if err := s.templates.ExecuteTemplate(w, "historico.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error", "error", err, "template", "historico.html")
		_, _ = w.Write([]byte(`<div class="error">Error al cargar el histórico</div>`))
	}
}

// Template views of the report sections.
type (
	summaryRow struct {
		Mes      string
		Gastos   string
		Ingresos string
		Balance  string
		Dentro   string
		Ahorro   string
		Deficit  string
		Negative bool
	}

	shareRow struct {
		Categoria string
		Monto     string
		Share     string
	}

	tagRow struct {
		Tag   string
		Monto string
	}

	monthOption struct {
		Value    string
		Selected bool
	}

	deltaView struct {
		Actual   string
		Anterior string
		Gastos   string
		Ingresos string
		Balance  string
	}
)

func toSummaryRows(rows []report.MonthRow) []summaryRow {
	out := make([]summaryRow, 0, len(rows))
	for _, r := range rows {
		within, savings, deficit := r.Decompose()
		out = append(out, summaryRow{
			Mes:      r.Month,
			Gastos:   r.Expenses.StringFixed(2),
			Ingresos: r.Income.StringFixed(2),
			Balance:  r.Balance.StringFixed(2),
			Dentro:   within.StringFixed(2),
			Ahorro:   savings.StringFixed(2),
			Deficit:  deficit.StringFixed(2),
			Negative: r.Balance.IsNegative(),
		})
	}
	return out
}

func toShareRows(shares []report.CategoryShare) []shareRow {
	out := make([]shareRow, 0, len(shares))
	for _, s := range shares {
		out = append(out, shareRow{
			Categoria: s.Category,
			Monto:     s.Amount.StringFixed(2),
			Share:     fmt.Sprintf("%.1f%%", s.Share),
		})
	}
	return out
}

// inBuckets restricts records to those whose month bucket is selected.
// A nil selection keeps everything.
func inBuckets(records []core.Record, selected []string) []core.Record {
	if len(selected) == 0 {
		return records
	}
	sel := make(map[string]struct{}, len(selected))
	for _, m := range selected {
		sel[m] = struct{}{}
	}
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		b, ok := r.Date.Bucket()
		if !ok {
			continue
		}
		if _, in := sel[b]; in {
			out = append(out, r)
		}
	}
	return out
}

// loadTables reads both tables, concurrently since the spreadsheet
// backend pays a network round trip per table.
func (s *Server) loadTables(r *http.Request) (expenses, income []core.Record, excluded int) {
	g, ctx := errgroup.WithContext(r.Context())
	var expExcluded, incExcluded int
	g.Go(func() error {
		snap := s.ledger.Load(ctx, core.Expenses)
		expenses, expExcluded = snap.Records, snap.Excluded
		return nil
	})
	g.Go(func() error {
		snap := s.ledger.Load(ctx, core.Income)
		income, incExcluded = snap.Records, snap.Excluded
		return nil
	})
	_ = g.Wait()
	return expenses, income, expExcluded + incExcluded
}

// handleReportes renders the monthly report partial: summary table,
// category distribution, trend, top categories and tags, and the
// month-over-month comparison.
func (s *Server) handleReportes(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if s.templates == nil {
		_, _ = w.Write([]byte(`<div class="error">Error al cargar los reportes</div>`))
		return
	}
	q := r.URL.Query()

	expenses, income, excluded := s.loadTables(r)

	months := report.Months(expenses, income)
	selected := q["mes"]

	selSet := make(map[string]struct{}, len(selected))
	for _, m := range selected {
		selSet[m] = struct{}{}
	}
	monthOpts := make([]monthOption, 0, len(months))
	for _, m := range months {
		_, sel := selSet[m]
		monthOpts = append(monthOpts, monthOption{Value: m, Selected: sel})
	}

	// The download link carries the current selection so the CSV covers
	// the same period as the rendered report.
	csvQuery := ""
	if len(selected) > 0 {
		csvQuery = "?" + url.Values{"mes": selected}.Encode()
	}

	ventana := 12
	if v := strings.TrimSpace(q.Get("ventana")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			ventana = n
		}
	}

	summary := report.MonthlySummary(expenses, income, selected)
	totalExp, totalInc, totalBal := report.Totals(summary)

	delta, hasDelta := report.Compare(expenses, income)

	data := struct {
		Months    []monthOption
		CSVQuery  string
		Resumen   []summaryRow
		TotalG    string
		TotalI    string
		TotalB    string
		GastosCat []shareRow
		IngresCat []shareRow
		Tendencia []summaryRow
		TopCat    []shareRow
		TopTags   []tagRow
		Delta     deltaView
		HasDelta  bool
		Excluded  int
	}{
		Months:    monthOpts,
		CSVQuery:  csvQuery,
		Resumen:   toSummaryRows(summary),
		TotalG:    totalExp.StringFixed(2),
		TotalI:    totalInc.StringFixed(2),
		TotalB:    totalBal.StringFixed(2),
		GastosCat: toShareRows(report.CategoryBreakdown(expenses, selected)),
		IngresCat: toShareRows(report.CategoryBreakdown(income, selected)),
		Tendencia: toSummaryRows(report.Trend(expenses, income, ventana)),
		TopCat:    toShareRows(report.TopCategories(report.CategoryBreakdown(expenses, selected), 10)),
		HasDelta:  hasDelta,
		Excluded:  excluded,
	}
	for _, t := range report.TopTags(inBuckets(expenses, selected), 10) {
		data.TopTags = append(data.TopTags, tagRow{Tag: t.Tag, Monto: t.Amount.StringFixed(2)})
	}
	if hasDelta {
		data.Delta = deltaView{
			Actual:   delta.Latest,
			Anterior: delta.Previous,
			Gastos:   delta.ExpensesDelta.StringFixed(2),
			Ingresos: delta.IncomeDelta.StringFixed(2),
			Balance:  delta.BalanceDelta.StringFixed(2),
		}
	}

	if err := s.templates.ExecuteTemplate(w, "reportes.html", data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution error", "error", err, "template", "reportes.html")
		_, _ = w.Write([]byte(`<div class="error">Error al cargar los reportes</div>`))
	}
}

// handleSummaryCSV streams the monthly summary as resumen.csv.
func (s *Server) handleSummaryCSV(w http.ResponseWriter, r *http.Request) {
	expenses, income, _ := s.loadTables(r)
	rows := report.MonthlySummary(expenses, income, r.URL.Query()["mes"])

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="resumen.csv"`)
	if err := report.WriteSummaryCSV(w, rows); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "CSV export error", "error", err)
	}
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	// Remove control characters except tab, newline, carriage return
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
