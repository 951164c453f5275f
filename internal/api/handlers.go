package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/ingestion"
	"github.com/folhapay/remittance/internal/layout"
	"github.com/folhapay/remittance/internal/paysheet"
	"github.com/folhapay/remittance/internal/remittance"
)

const maxUpload = 32 << 20

// RemittanceQueries reads stored remittance files.
type RemittanceQueries interface {
	GetRemittance(ctx context.Context, id string) (*domain.RemittanceFile, error)
	ListRemittances(ctx context.Context, tenant string) ([]domain.RemittanceFile, error)
	Records(ctx context.Context, fileID string) ([]domain.RemittanceRecord, error)
	Content(ctx context.Context, id string) (string, []byte, error)
}

// ReturnQueries reads stored return files and their results.
type ReturnQueries interface {
	GetReturn(ctx context.Context, id string) (*domain.ReturnFile, error)
	ResultsByReturn(ctx context.Context, returnFileID string) ([]domain.ReconciliationResult, error)
	LatestResults(ctx context.Context, remittanceFileID string) ([]domain.ReconciliationResult, error)
}

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	remittances *remittance.Service
	ingestion   *ingestion.Service
	files       RemittanceQueries
	returns     ReturnQueries
	catalogue   domain.BankCatalogue
	registry    *layout.Registry
	logger      *slog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a service error onto an HTTP status.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownBank), errors.Is(err, domain.ErrUnsupportedLayout):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFieldOverflow),
		errors.Is(err, domain.ErrMissingRequiredField),
		errors.Is(err, domain.ErrMalformedField),
		errors.Is(err, domain.ErrInvalidValue),
		errors.Is(err, domain.ErrMalformedFile),
		errors.Is(err, domain.ErrReconciliationCountMismatch),
		errors.Is(err, domain.ErrCorruptFile),
		errors.Is(err, domain.ErrEmptyPayments),
		errors.Is(err, paysheet.ErrNoRows):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
		}
	}
	return t, nil
}

func (h *Handlers) writeAttachment(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("write attachment", "file", name, "error", err)
	}
}

// --- remittances ---

type createRemittanceRequest struct {
	Tenant      string                  `json:"tenant"`
	BankCode    string                  `json:"bank_code"`
	PaymentDate string                  `json:"payment_date"`
	Payments    []domain.PayrollPayment `json:"payments"`
}

func (h *Handlers) CreateRemittance(w http.ResponseWriter, r *http.Request) {
	var req createRemittanceRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxUpload)).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Tenant == "" || req.BankCode == "" {
		h.writeError(w, http.StatusBadRequest, "tenant and bank_code are required")
		return
	}
	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	f, err := h.remittances.Generate(r.Context(), req.Tenant, req.BankCode, req.Payments, paymentDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, f)
}

// ImportRemittance builds a remittance from an uploaded CSV or XLSX paysheet.
func (h *Handlers) ImportRemittance(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	tenant, bankCode := r.FormValue("tenant"), r.FormValue("bank_code")
	if tenant == "" || bankCode == "" {
		h.writeError(w, http.StatusBadRequest, "tenant and bank_code are required")
		return
	}
	paymentDate, err := parseDate(r.FormValue("payment_date"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	payments, err := paysheet.Load(header.Filename, data)
	if err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	f, err := h.remittances.Generate(r.Context(), tenant, bankCode, payments, paymentDate)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, f)
}

func (h *Handlers) ListRemittances(w http.ResponseWriter, r *http.Request) {
	files, err := h.files.ListRemittances(r.Context(), r.URL.Query().Get("tenant"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if files == nil {
		files = []domain.RemittanceFile{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"remittances": files,
		"total":       len(files),
	})
}

func (h *Handlers) GetRemittance(w http.ResponseWriter, r *http.Request) {
	f, err := h.files.GetRemittance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, f)
}

func (h *Handlers) ListRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.files.GetRemittance(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	records, err := h.files.Records(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	})
}

func (h *Handlers) DownloadRemittance(w http.ResponseWriter, r *http.Request) {
	name, content, err := h.files.Content(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeAttachment(w, name, "text/plain; charset=iso-8859-1", content)
}

// RemittanceStatus summarizes the latest result per record. The status is
// derived on every call and never stored.
func (h *Handlers) RemittanceStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, err := h.files.GetRemittance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	latest, err := h.returns.LatestResults(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	counts := make(map[domain.SettlementStatus]int)
	for _, res := range latest {
		counts[res.Status]++
	}
	if latest == nil {
		latest = []domain.ReconciliationResult{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"file_id":   f.ID,
		"file_name": f.FileName,
		"status":    domain.SummarizeStatus(latest),
		"payments":  f.DeclaredCount,
		"answered":  len(latest),
		"counts":    counts,
		"results":   latest,
	})
}

type simulateReturnRequest struct {
	Outcomes  map[string]string `json:"outcomes"`
	SettledOn string            `json:"settled_on"`
}

// SimulateReturn renders the return file the bank would send for a stored
// remittance. It stores nothing.
func (h *Handlers) SimulateReturn(w http.ResponseWriter, r *http.Request) {
	var req simulateReturnRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpload)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
			return
		}
	}
	settledOn, err := parseDate(req.SettledOn)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	f, err := h.files.GetRemittance(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if settledOn.IsZero() {
		settledOn = f.PaymentDate
	}
	if f.FileName, f.Content, err = h.files.Content(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	data, err := remittance.Respond(f, req.Outcomes, settledOn)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeAttachment(w, remittance.ReturnFileName(f.FileName), "text/plain; charset=iso-8859-1", data)
}

// --- returns ---

func (h *Handlers) IngestReturn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	tenant, bankCode := r.FormValue("tenant"), r.FormValue("bank_code")
	if tenant == "" || bankCode == "" {
		h.writeError(w, http.StatusBadRequest, "tenant and bank_code are required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestion.IngestReturn(r.Context(), tenant, bankCode, header.Filename, data)
	if err != nil {
		if result != nil {
			// Corrupt files are stored; report both the record and the reason.
			h.writeJSON(w, statusFor(err), map[string]any{"error": err.Error(), "result": result})
			return
		}
		h.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if !result.AlreadyIngested {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, result)
}

func (h *Handlers) GetReturn(w http.ResponseWriter, r *http.Request) {
	rf, err := h.returns.GetReturn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rf)
}

func (h *Handlers) returnResults(r *http.Request) (*domain.ReturnFile, []domain.ReconciliationResult, error) {
	id := chi.URLParam(r, "id")
	rf, err := h.returns.GetReturn(r.Context(), id)
	if err != nil {
		return nil, nil, err
	}
	results, err := h.returns.ResultsByReturn(r.Context(), id)
	return rf, results, err
}

func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	rf, results, err := h.returnResults(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if results == nil {
		results = []domain.ReconciliationResult{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"return_file_id": rf.ID,
		"status":         rf.Status,
		"results":        results,
		"total":          len(results),
	})
}

func (h *Handlers) ExportResults(w http.ResponseWriter, r *http.Request) {
	rf, results, err := h.returnResults(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data, err := paysheet.ResultsXLSX(results)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	name := strings.TrimSuffix(rf.FileName, ".RET") + "-results.xlsx"
	h.writeAttachment(w, name, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// --- reference data ---

func (h *Handlers) ListLayouts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"layouts": h.registry.Describe()})
}

func (h *Handlers) ListBanks(w http.ResponseWriter, r *http.Request) {
	banks := h.catalogue.Banks()
	type bankView struct {
		BankCode string         `json:"bank_code"`
		BankName string         `json:"bank_name"`
		Layout   domain.Variant `json:"layout"`
	}
	out := make([]bankView, 0, len(banks))
	for _, b := range banks {
		out = append(out, bankView{BankCode: b.BankCode, BankName: b.BankName, Layout: b.Layout})
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"banks": out})
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
