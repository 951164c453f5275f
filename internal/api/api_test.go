package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/folhapay/remittance/internal/config"
	"github.com/folhapay/remittance/internal/currency"
	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/ingestion"
	"github.com/folhapay/remittance/internal/reconciliation"
	"github.com/folhapay/remittance/internal/remittance"
	"github.com/folhapay/remittance/internal/repository"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	catalogue, err := config.NewCatalogue(domain.BankConfig{
		BankCode:     "001",
		BankName:     "BANCO DO BRASIL",
		Agency:       "1234",
		AgencyDigit:  "5",
		Account:      "98765",
		AccountDigit: "0",
		CompanyCode:  "CONV123",
		Layout:       domain.LayoutCNAB240,
		CompanyName:  "ACME LTDA",
		Document:     "12.345.678/0001-90",
	})
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	remRepo := repository.NewRemittanceRepo(db)
	retRepo := repository.NewReturnRepo(db)
	resRepo := repository.NewResultRepo(db)
	index := repository.NewIndexCache(remRepo, 100, time.Minute)

	recon := reconciliation.NewService(nil, index, resRepo, logger)
	queries := struct {
		*repository.ReturnRepo
		*repository.ResultRepo
	}{retRepo, resRepo}

	srv := httptest.NewServer(NewRouter(Deps{
		Remittances: remittance.NewService(remRepo, catalogue, nil, logger),
		Ingestion:   ingestion.NewService(retRepo, catalogue, nil, recon, logger),
		Files:       remRepo,
		Returns:     queries,
		Catalogue:   catalogue,
		Logger:      logger,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func postFile(t *testing.T, url string, fields map[string]string, name string, data []byte) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(data)
	mw.Close()

	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func payrollRequest(names ...string) map[string]any {
	var payments []domain.PayrollPayment
	for i, n := range names {
		payments = append(payments, domain.PayrollPayment{
			EmployeeID:          "E-" + n,
			BeneficiaryName:     n,
			BeneficiaryDocument: "123.456.789-09",
			BankCode:            "001",
			Agency:              "4321",
			Account:             "12345-6",
			Amount:              currency.Amount(150000 + 100*i),
		})
	}
	return map[string]any{
		"tenant":       "acme",
		"bank_code":    "001",
		"payment_date": "2024-06-05",
		"payments":     payments,
	}
}

func TestAPI_RemittanceLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1"

	resp := doJSON(t, http.MethodPost, base+"/remittances", payrollRequest("Jane Doe", "John Roe"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var file domain.RemittanceFile
	decodeBody(t, resp, &file)
	if file.FileSequence != 1 || file.DeclaredCount != 2 || len(file.Records) != 2 {
		t.Fatalf("created file = %+v", file)
	}

	resp, _ = http.Get(base + "/remittances/" + file.ID + "/download")
	content := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !strings.Contains(resp.Header.Get("Content-Disposition"), file.FileName) {
		t.Fatalf("download: status %d disposition %q", resp.StatusCode, resp.Header.Get("Content-Disposition"))
	}
	if got := bytes.Count(content, []byte("\r\n")); got != file.DeclaredLines {
		t.Errorf("download has %d lines, want %d", got, file.DeclaredLines)
	}

	rejected := file.Records[1].ControlNumber
	resp = doJSON(t, http.MethodPost, base+"/remittances/"+file.ID+"/simulate-return", map[string]any{
		"outcomes":   map[string]string{rejected: "AG"},
		"settled_on": "2024-06-05",
	})
	ret := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("simulate-return: status %d: %s", resp.StatusCode, ret)
	}

	fields := map[string]string{"tenant": "acme", "bank_code": "001"}
	resp = postFile(t, base+"/returns/ingest", fields, remittance.ReturnFileName(file.FileName), ret)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("ingest: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var ingested ingestion.IngestResult
	decodeBody(t, resp, &ingested)
	if ingested.Counts[domain.StatusSettled] != 1 || ingested.Counts[domain.StatusRejected] != 1 {
		t.Errorf("ingest counts = %v", ingested.Counts)
	}

	resp = postFile(t, base+"/returns/ingest", fields, "again.RET", ret)
	var again ingestion.IngestResult
	decodeBody(t, resp, &again)
	if resp.StatusCode != http.StatusOK || !again.AlreadyIngested || again.ReturnFileID != ingested.ReturnFileID {
		t.Errorf("re-ingest: status %d result %+v", resp.StatusCode, again)
	}

	resp, _ = http.Get(base + "/remittances/" + file.ID + "/status")
	var status struct {
		Status   domain.RemittanceStatus `json:"status"`
		Answered int                     `json:"answered"`
	}
	decodeBody(t, resp, &status)
	if status.Status != domain.RemittancePartial || status.Answered != 2 {
		t.Errorf("status = %+v", status)
	}

	resp, _ = http.Get(base + "/returns/" + ingested.ReturnFileID + "/results")
	var results struct {
		Results []domain.ReconciliationResult `json:"results"`
	}
	decodeBody(t, resp, &results)
	if len(results.Results) != 2 || results.Results[1].ControlNumber != rejected || results.Results[1].Status != domain.StatusRejected {
		t.Errorf("results = %+v", results.Results)
	}

	resp, _ = http.Get(base + "/returns/" + ingested.ReturnFileID + "/results.xlsx")
	xlsx := readBody(t, resp)
	if resp.StatusCode != http.StatusOK || !bytes.HasPrefix(xlsx, []byte("PK")) {
		t.Errorf("results.xlsx: status %d, %d bytes", resp.StatusCode, len(xlsx))
	}

	resp, _ = http.Get(base + "/remittances?tenant=acme")
	var list struct {
		Total int `json:"total"`
	}
	decodeBody(t, resp, &list)
	if list.Total != 1 {
		t.Errorf("list total = %d", list.Total)
	}
}

func TestAPI_ImportPaysheet(t *testing.T) {
	srv := newTestServer(t)
	csv := "employee_id,name,cpf,bank,agency,account,amount\nE-1,Jane Doe,123.456.789-09,001,4321,12345-6,1500.00\n"
	fields := map[string]string{"tenant": "acme", "bank_code": "001", "payment_date": "2024-06-05"}

	resp := postFile(t, srv.URL+"/api/v1/remittances/import", fields, "folha.csv", []byte(csv))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("import: status %d: %s", resp.StatusCode, readBody(t, resp))
	}
	var file domain.RemittanceFile
	decodeBody(t, resp, &file)
	if file.DeclaredTotal != 150000 || file.DeclaredCount != 1 {
		t.Errorf("imported file = %+v", file)
	}
}

func TestAPI_Errors(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1"

	longName := payrollRequest(strings.Repeat("X", 31))
	unknownBank := payrollRequest("Jane Doe")
	unknownBank["bank_code"] = "999"
	empty := payrollRequest()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"name overflow", http.MethodPost, "/remittances", longName, http.StatusUnprocessableEntity},
		{"unknown bank", http.MethodPost, "/remittances", unknownBank, http.StatusBadRequest},
		{"no payments", http.MethodPost, "/remittances", empty, http.StatusUnprocessableEntity},
		{"missing tenant", http.MethodPost, "/remittances", map[string]any{"bank_code": "001"}, http.StatusBadRequest},
		{"unknown file", http.MethodGet, "/remittances/nope", nil, http.StatusNotFound},
		{"unknown download", http.MethodGet, "/remittances/nope/download", nil, http.StatusNotFound},
		{"unknown return", http.MethodGet, "/returns/nope/results", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, base+tt.path, tt.body)
			body := readBody(t, resp)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d: %s", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestAPI_MalformedReturn(t *testing.T) {
	srv := newTestServer(t)
	fields := map[string]string{"tenant": "acme", "bank_code": "001"}
	resp := postFile(t, srv.URL+"/api/v1/returns/ingest", fields, "junk.RET", []byte("not a cnab file\r\n"))
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422: %s", resp.StatusCode, body)
	}
}

func TestAPI_ReferenceEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := http.Get(srv.URL + "/api/v1/layouts")
	var layouts struct {
		Layouts []struct {
			Variant    domain.Variant `json:"variant"`
			LineLength int            `json:"line_length"`
		} `json:"layouts"`
	}
	decodeBody(t, resp, &layouts)
	if len(layouts.Layouts) != 2 || layouts.Layouts[0].LineLength != 240 || layouts.Layouts[1].LineLength != 400 {
		t.Errorf("layouts = %+v", layouts)
	}

	resp, _ = http.Get(srv.URL + "/api/v1/banks")
	var banks struct {
		Banks []struct {
			BankCode string `json:"bank_code"`
		} `json:"banks"`
	}
	decodeBody(t, resp, &banks)
	if len(banks.Banks) != 1 || banks.Banks[0].BankCode != "001" {
		t.Errorf("banks = %+v", banks)
	}

	resp, _ = http.Get(srv.URL + "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp, _ = http.Get(srv.URL + "/metrics")
	if body := readBody(t, resp); !bytes.Contains(body, []byte("remit_http_requests_total")) {
		t.Error("metrics endpoint does not expose HTTP counters")
	}
}
