package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/db"
	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/migrations"
	"github.com/Simplici0/laserquote/internal/quote"
	"github.com/Simplici0/laserquote/internal/settings"
	"github.com/Simplici0/laserquote/internal/store"
	"github.com/Simplici0/laserquote/web"
)

func setupServer(t *testing.T) (*server, http.Handler) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "server-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	if err := migrations.Up(database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	pages, err := web.Load()
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}

	settingsRepo := settings.NewRepository(database)
	svc := quote.NewService(cat, history.NewRepository(store.NewMemory()), quote.WithSettings(settingsRepo))
	srv := &server{
		quotes:   svc,
		catalog:  cat,
		settings: settingsRepo,
		pages:    pages,
		limiter:  newClientLimiter(100, 100),
		logger:   zap.NewNop(),
	}
	return srv, srv.routes()
}

func referenceValues() url.Values {
	form := url.Values{}
	form.Set("machine_id", "co2/1390/100w")
	form.Set("quantity", "1")
	form.Set("water_cooler_id", "cw3000")
	form.Add("accessory_ids", "rotary")
	form.Set("international_shipping", "200")
	form.Set("domestic_shipping", "100")
	form.Set("other_fees", "50")
	form.Set("exchange_rate", "6.5")
	return form
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func TestHomeRendersCatalog(t *testing.T) {
	_, h := setupServer(t)

	rr := get(t, h, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`value="co2/1390/100w"`, "CW-3000", "Rotary attachment", "Spare focus lens", `value="6.5"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("home page missing %q", want)
		}
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestQuoteRendersBreakdown(t *testing.T) {
	_, h := setupServer(t)

	rr := postForm(t, h, "/quote", referenceValues())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"12650.00 CNY", "1946.15 USD", "300.00 CNY"} {
		if !strings.Contains(body, want) {
			t.Fatalf("breakdown missing %q", want)
		}
	}
	if !strings.Contains(body, `value="rotary" checked`) {
		t.Fatalf("expected selected accessory to stay checked")
	}
}

func TestQuoteWarnsAboutUnknownSelections(t *testing.T) {
	_, h := setupServer(t)

	form := referenceValues()
	form.Set("water_cooler_id", "cw9999")
	rr := postForm(t, h, "/quote", form)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "cw9999") {
		t.Fatalf("expected warning about unknown water cooler")
	}
	if !strings.Contains(rr.Body.String(), "11850.00 CNY") {
		t.Fatalf("expected total without the unknown cooler")
	}
}

func TestQuoteTextExport(t *testing.T) {
	_, h := setupServer(t)

	rr := postForm(t, h, "/quote/text", referenceValues())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Total: 1946.15 USD (rate 6.5)") {
		t.Fatalf("unexpected text export:\n%s", rr.Body.String())
	}
}

func TestHistorySaveListAndClear(t *testing.T) {
	_, h := setupServer(t)

	rr := postForm(t, h, "/history", referenceValues())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Quote saved to history.") {
		t.Fatalf("expected success notice")
	}

	rr = get(t, h, "/history")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "12650.00 CNY / 1946.15 USD") {
		t.Fatalf("history page missing entry:\n%s", rr.Body.String())
	}

	rr = postForm(t, h, "/history/clear", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); !strings.HasPrefix(loc, "/history?success=") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	rr = get(t, h, "/history")
	if !strings.Contains(rr.Body.String(), "No saved quotes yet.") {
		t.Fatalf("expected empty history after clear")
	}
}

func TestTemplateLifecycle(t *testing.T) {
	srv, h := setupServer(t)

	form := referenceValues()
	rr := postForm(t, h, "/templates", form)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without a name, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Template name is required.") {
		t.Fatalf("expected name error")
	}

	form.Set("template_name", "Standard 1390")
	rr = postForm(t, h, "/templates", form)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}

	list, err := srv.quotes.Templates(context.Background())
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one template, got %+v, err=%v", list, err)
	}
	id := list[0].ID

	rr = get(t, h, "/templates")
	if !strings.Contains(rr.Body.String(), "Standard 1390") {
		t.Fatalf("templates page missing template")
	}

	rr = get(t, h, "/templates/"+id)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "12650.00 CNY") {
		t.Fatalf("loaded template should be calculated")
	}

	rr = postForm(t, h, "/templates/"+id+"/delete", url.Values{})
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if rr = get(t, h, "/templates/"+id); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
	if rr = postForm(t, h, "/templates/"+id+"/delete", url.Values{}); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting twice, got %d", rr.Code)
	}
}

func TestSettingsUpdateChangesDefaultRate(t *testing.T) {
	_, h := setupServer(t)

	bad := url.Values{}
	bad.Set("default_exchange_rate", "0")
	bad.Set("local_currency", "CNY")
	bad.Set("foreign_currency", "USD")
	if rr := postForm(t, h, "/settings", bad); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero rate, got %d", rr.Code)
	}
	bad.Set("default_exchange_rate", "1e2000000")
	if rr := postForm(t, h, "/settings", bad); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized rate, got %d", rr.Code)
	}

	good := url.Values{}
	good.Set("default_exchange_rate", "8")
	good.Set("local_currency", "cny")
	good.Set("foreign_currency", "eur")
	good.Set("history_limit", "5")
	rr := postForm(t, h, "/settings", good)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Settings saved.") {
		t.Fatalf("expected success notice")
	}

	form := referenceValues()
	form.Del("exchange_rate")
	rr = postForm(t, h, "/quote", form)
	if !strings.Contains(rr.Body.String(), "1581.25 EUR") {
		t.Fatalf("expected quote to use the new default rate:\n%s", rr.Body.String())
	}
}

func TestSettingsPageExplainsRateFallback(t *testing.T) {
	_, h := setupServer(t)

	rr := get(t, h, "/settings")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "leaves the exchange rate empty or enters zero") {
		t.Fatalf("expected the fallback note on the settings page")
	}
}

func TestAPIQuote(t *testing.T) {
	_, h := setupServer(t)

	body := `{"machineId":"co2/1390/100w","quantity":"50"}`
	req := httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Display struct {
			MachineUnitPrice  string `json:"machine_unit_price"`
			GrandTotalLocal   string `json:"grand_total_local"`
			GrandTotalForeign string `json:"grand_total_foreign"`
		} `json:"display"`
		Total   string `json:"total"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Display.MachineUnitPrice != "9500.00" || resp.Display.GrandTotalLocal != "475000.00" {
		t.Fatalf("unexpected display: %+v", resp.Display)
	}
	if resp.Total != "475000.00 CNY / 73076.92 USD" {
		t.Fatalf("unexpected total %q", resp.Total)
	}
}

func TestAPIQuoteAcceptsNumericFields(t *testing.T) {
	_, h := setupServer(t)

	body := `{"machineId":"co2/1390/100w","quantity":50,"otherFees":0,"exchangeRate":6.5}`
	req := httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Total string `json:"total"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != "475000.00 CNY / 73076.92 USD" {
		t.Fatalf("unexpected total %q", resp.Total)
	}
}

func TestAPIRejectsUnknownFields(t *testing.T) {
	_, h := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(`{"machineId":"co2/1390/100w","colour":"red"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAPIRejectsBadJSON(t *testing.T) {
	_, h := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/quote", strings.NewReader(`{"machineId":`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var e jsonError
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil || e.Error != "invalid_json" {
		t.Fatalf("unexpected error payload %q", rr.Body.String())
	}
}

func TestAPIHistory(t *testing.T) {
	_, h := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/history", strings.NewReader(`{"machineId":"co2/1390/100w","quantity":"1"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = get(t, h, "/api/history")
	var list []history.Entry
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(list) != 1 || list[0].TotalDisplay != "10000.00 CNY / 1538.46 USD" {
		t.Fatalf("unexpected history %+v", list)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/history", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = get(t, h, "/api/history")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", rr.Body.String())
	}
}

func TestAPICatalogAndTemplates(t *testing.T) {
	_, h := setupServer(t)

	rr := get(t, h, "/api/catalog")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp catalogResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(resp.Series) != 3 || resp.Currency.Foreign != "USD" {
		t.Fatalf("unexpected catalog: %+v", resp)
	}
	if got := resp.Series[0].Models[1].Powers[0].Machine.ID; got != "co2/1390/100w" {
		t.Fatalf("unexpected machine id %q", got)
	}

	rr = get(t, h, "/api/templates")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty templates, got %s", rr.Body.String())
	}
}

func TestAPIRateLimit(t *testing.T) {
	srv, _ := setupServer(t)
	srv.limiter = newClientLimiter(1, 2)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	srv.limiter.now = func() time.Time { return fixed }
	h := srv.routes()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, get(t, h, "/api/templates").Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status codes %v", codes)
	}

	if rr := get(t, h, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("pages must not be rate limited, got %d", rr.Code)
	}
}

func TestClientLimiterSeparatesClients(t *testing.T) {
	l := newClientLimiter(1, 1)
	if !l.allow("10.0.0.1") || l.allow("10.0.0.1") {
		t.Fatalf("expected the second call of the same client to be limited")
	}
	if !l.allow("10.0.0.2") {
		t.Fatalf("expected a different client to have its own bucket")
	}
}
