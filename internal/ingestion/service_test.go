package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/folhapay/remittance/internal/domain"
	"github.com/folhapay/remittance/internal/reconciliation"
	"github.com/folhapay/remittance/internal/remittance"
)

type memStore struct {
	byHash  map[string]string
	returns []*domain.ReturnFile
}

func (s *memStore) ReturnIDByHash(_ context.Context, tenant, hash string) (string, bool, error) {
	id, ok := s.byHash[tenant+"|"+hash]
	return id, ok, nil
}

func (s *memStore) SaveReturn(_ context.Context, rf *domain.ReturnFile) error {
	if s.byHash == nil {
		s.byHash = map[string]string{}
	}
	s.byHash[rf.Tenant+"|"+rf.ContentHash] = rf.ID
	s.returns = append(s.returns, rf)
	return nil
}

func (s *memStore) GetReturn(_ context.Context, id string) (*domain.ReturnFile, error) {
	for _, rf := range s.returns {
		if rf.ID == id {
			stored := *rf
			// The repository keeps only code and layout of the bank.
			stored.Bank = domain.BankConfig{BankCode: rf.Bank.BankCode, Layout: rf.Bank.Layout}
			return &stored, nil
		}
	}
	return nil, fmt.Errorf("return file %s: %w", id, domain.ErrNotFound)
}

// failingReconciler fails its first calls, then delegates.
type failingReconciler struct {
	next     Reconciler
	failures int
	calls    int
}

func (f *failingReconciler) Apply(ctx context.Context, rf *domain.ReturnFile) ([]domain.ReconciliationResult, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("index db unavailable")
	}
	return f.next.Apply(ctx, rf)
}

type catalogue map[string]domain.BankConfig

func (c catalogue) Bank(code string) (domain.BankConfig, error) {
	if b, ok := c[code]; ok {
		return b, nil
	}
	return domain.BankConfig{}, fmt.Errorf("bank %s: %w", code, domain.ErrUnknownBank)
}

func (c catalogue) Banks() []domain.BankConfig { return nil }

type knownControls domain.ControlSet

func (k knownControls) Known(_ context.Context, _ string, controls []string) (domain.ControlSet, error) {
	out := domain.ControlSet{}
	for _, c := range controls {
		if _, ok := k[c]; ok {
			out[c] = struct{}{}
		}
	}
	return out, nil
}

type memResults struct {
	saved map[string]domain.ReconciliationResult
}

func (m *memResults) SaveResults(_ context.Context, results []domain.ReconciliationResult) ([]domain.ReconciliationResult, error) {
	if m.saved == nil {
		m.saved = map[string]domain.ReconciliationResult{}
	}
	var inserted []domain.ReconciliationResult
	for _, r := range results {
		key := r.ReturnFileID + "/" + r.ControlNumber
		if _, ok := m.saved[key]; !ok {
			m.saved[key] = r
			inserted = append(inserted, r)
		}
	}
	return inserted, nil
}

func newTestService(t *testing.T, known ...string) (*Service, *memStore, *memResults) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{}
	results := &memResults{}
	recon := reconciliation.NewService(nil, knownControls(domain.NewControlSet(known...)), results, logger)
	svc := NewService(store, catalogue{"001": testBank(domain.LayoutCNAB240)}, NewParser(), recon, logger)
	return svc, store, results
}

func TestService_IngestReturn(t *testing.T) {
	f := build(t, domain.LayoutCNAB240, payment("Ana", 100), payment("Bruno", 200), payment("Carla", 300))
	ret, err := remittance.Respond(f, map[string]string{f.Records[1].ControlNumber: "01"}, payday)
	if err != nil {
		t.Fatal(err)
	}
	// Carla's record is unknown to the store.
	svc, store, results := newTestService(t, f.Records[0].ControlNumber, f.Records[1].ControlNumber)

	ctx := context.Background()
	res, err := svc.IngestReturn(ctx, "acme", "001", "CB280501000007.RET", ret)
	if err != nil {
		t.Fatalf("IngestReturn: %v", err)
	}
	if res.AlreadyIngested || res.Status != domain.IntegrityParsed {
		t.Errorf("result = %+v", res)
	}
	if res.Records != 3 || res.Results != 3 {
		t.Errorf("records %d results %d, want 3 and 3", res.Records, res.Results)
	}
	want := map[domain.SettlementStatus]int{domain.StatusSettled: 1, domain.StatusRejected: 1, domain.StatusUnmatched: 1}
	for status, n := range want {
		if res.Counts[status] != n {
			t.Errorf("%s count = %d, want %d", status, res.Counts[status], n)
		}
	}
	if len(store.returns) != 1 || store.returns[0].FileName != "CB280501000007.RET" {
		t.Errorf("stored returns = %d", len(store.returns))
	}

	again, err := svc.IngestReturn(ctx, "acme", "001", "copy.RET", ret)
	if err != nil {
		t.Fatalf("second IngestReturn: %v", err)
	}
	if !again.AlreadyIngested || again.ReturnFileID != res.ReturnFileID || again.Status != domain.IntegrityParsed {
		t.Errorf("second ingest = %+v", again)
	}
	if again.Results != 3 || again.Counts[domain.StatusRejected] != 1 {
		t.Errorf("second ingest results = %d, counts %v", again.Results, again.Counts)
	}
	if len(store.returns) != 1 || len(results.saved) != 3 {
		t.Errorf("duplicate ingest stored %d returns and %d results", len(store.returns), len(results.saved))
	}
}

func TestService_IngestCorrupt(t *testing.T) {
	f := build(t, domain.LayoutCNAB240, payment("Ana", 100))
	ret, err := remittance.Respond(f, nil, payday)
	if err != nil {
		t.Fatal(err)
	}
	ret = editLines(ret, func(l [][]byte) [][]byte {
		copy(l[4][17:23], []byte("000009"))
		return l
	})
	svc, store, results := newTestService(t, f.Records[0].ControlNumber)

	res, err := svc.IngestReturn(context.Background(), "acme", "001", "bad.RET", ret)
	if !errors.Is(err, domain.ErrReconciliationCountMismatch) {
		t.Fatalf("got %v, want ErrReconciliationCountMismatch", err)
	}
	if res == nil || res.Status != domain.IntegrityCorrupt || res.Results != 0 {
		t.Errorf("result = %+v", res)
	}
	if len(store.returns) != 1 || store.returns[0].Status != domain.IntegrityCorrupt {
		t.Error("corrupt file should be stored as CORRUPT")
	}
	if len(results.saved) != 0 {
		t.Errorf("corrupt file produced %d results", len(results.saved))
	}
}

func TestService_IngestErrors(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.IngestReturn(ctx, "acme", "999", "x.RET", []byte("x")); !errors.Is(err, domain.ErrUnknownBank) {
		t.Errorf("unknown bank: got %v", err)
	}
	if _, err := svc.IngestReturn(ctx, "acme", "001", "x.RET", []byte("garbage\r\n")); !errors.Is(err, domain.ErrMalformedFile) {
		t.Errorf("garbage: got %v", err)
	}
}

func TestService_RetryAfterReconcileFailure(t *testing.T) {
	f := build(t, domain.LayoutCNAB240, payment("Ana", 100), payment("Bruno", 200))
	ret, err := remittance.Respond(f, nil, payday)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := &memStore{}
	results := &memResults{}
	known := knownControls(domain.NewControlSet(f.Records[0].ControlNumber, f.Records[1].ControlNumber))
	recon := &failingReconciler{next: reconciliation.NewService(nil, known, results, logger), failures: 1}
	svc := NewService(store, catalogue{"001": testBank(domain.LayoutCNAB240)}, NewParser(), recon, logger)

	ctx := context.Background()
	if _, err := svc.IngestReturn(ctx, "acme", "001", "a.RET", ret); err == nil {
		t.Fatal("first ingest succeeded, want reconcile error")
	}
	if len(store.returns) != 1 || len(results.saved) != 0 {
		t.Fatalf("after failure: %d returns, %d results", len(store.returns), len(results.saved))
	}

	res, err := svc.IngestReturn(ctx, "acme", "001", "a.RET", ret)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.AlreadyIngested || res.Results != 2 || res.Counts[domain.StatusSettled] != 2 {
		t.Errorf("retry result = %+v", res)
	}
	if recon.calls != 2 || len(results.saved) != 2 || len(store.returns) != 1 {
		t.Errorf("calls %d, results %d, returns %d", recon.calls, len(results.saved), len(store.returns))
	}
}

func TestService_IdempotencyPerTenant(t *testing.T) {
	f := build(t, domain.LayoutCNAB240, payment("Ana", 100))
	ret, err := remittance.Respond(f, nil, payday)
	if err != nil {
		t.Fatal(err)
	}
	svc, store, results := newTestService(t, f.Records[0].ControlNumber)
	ctx := context.Background()

	acme, err := svc.IngestReturn(ctx, "acme", "001", "a.RET", ret)
	if err != nil {
		t.Fatal(err)
	}
	globex, err := svc.IngestReturn(ctx, "globex", "001", "a.RET", ret)
	if err != nil {
		t.Fatal(err)
	}
	if globex.AlreadyIngested || globex.ReturnFileID == acme.ReturnFileID {
		t.Errorf("globex got %+v, acme id %s", globex, acme.ReturnFileID)
	}
	if len(store.returns) != 2 || len(results.saved) != 2 {
		t.Errorf("stored %d returns and %d results, want 2 and 2", len(store.returns), len(results.saved))
	}
}

func TestService_ReuploadCorrupt(t *testing.T) {
	f := build(t, domain.LayoutCNAB240, payment("Ana", 100))
	ret, err := remittance.Respond(f, nil, payday)
	if err != nil {
		t.Fatal(err)
	}
	ret = editLines(ret, func(l [][]byte) [][]byte {
		copy(l[4][17:23], []byte("000009"))
		return l
	})
	svc, _, results := newTestService(t, f.Records[0].ControlNumber)
	ctx := context.Background()
	if _, err := svc.IngestReturn(ctx, "acme", "001", "bad.RET", ret); err == nil {
		t.Fatal("corrupt file accepted")
	}

	res, err := svc.IngestReturn(ctx, "acme", "001", "bad.RET", ret)
	if !errors.Is(err, domain.ErrCorruptFile) {
		t.Fatalf("got %v, want ErrCorruptFile", err)
	}
	if res == nil || !res.AlreadyIngested || res.Status != domain.IntegrityCorrupt {
		t.Errorf("result = %+v", res)
	}
	if len(results.saved) != 0 {
		t.Errorf("corrupt re-upload produced %d results", len(results.saved))
	}
}
