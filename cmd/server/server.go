package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/pricing"
	"github.com/Simplici0/laserquote/internal/quote"
	"github.com/Simplici0/laserquote/internal/settings"
	"github.com/Simplici0/laserquote/web"
)

type settingsStore interface {
	Get(ctx context.Context) (settings.Settings, error)
	Update(ctx context.Context, s settings.Settings) error
}

type server struct {
	quotes   *quote.Service
	catalog  *catalog.Catalog
	settings settingsStore
	pages    *web.Pages
	limiter  *clientLimiter
	logger   *zap.Logger
}

type baseViewData struct {
	ErrorMessage   string
	SuccessMessage string
	Warnings       []string
}

type productOption struct {
	ID    string
	Name  string
	Price string
}

type machineGroup struct {
	Series   string
	Machines []productOption
}

type homeViewData struct {
	baseViewData
	Form                history.Form
	MachineGroups       []machineGroup
	WaterCoolers        []productOption
	Accessories         []productOption
	OtherAccessories    []productOption
	Templates           []history.Template
	Currency            catalog.Currency
	DefaultExchangeRate string
	Result              *quote.Result
	Summary             string
}

type historyViewData struct {
	baseViewData
	Entries []history.Entry
}

type templatesViewData struct {
	baseViewData
	Templates []history.Template
}

type settingsForm struct {
	DefaultExchangeRate string
	LocalCurrency       string
	ForeignCurrency     string
	HistoryLimit        string
}

type settingsViewData struct {
	baseViewData
	Settings settingsForm
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging(s.logger))

	r.Handle("/static/*", http.StripPrefix("/static/", web.Static()))
	r.Get("/healthz", s.handleHealth)

	r.Get("/", s.handleHome)
	r.Post("/quote", s.handleQuote)
	r.Post("/quote/text", s.handleQuoteText)
	r.Get("/history", s.handleHistoryList)
	r.Post("/history", s.handleHistorySave)
	r.Post("/history/clear", s.handleHistoryClear)
	r.Get("/templates", s.handleTemplatesList)
	r.Post("/templates", s.handleTemplateSave)
	r.Get("/templates/{id}", s.handleTemplateLoad)
	r.Post("/templates/{id}/delete", s.handleTemplateDelete)
	r.Get("/settings", s.handleSettingsForm)
	r.Post("/settings", s.handleSettingsSubmit)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Get("/catalog", s.handleAPICatalog)
		r.Post("/quote", s.handleAPIQuote)
		r.Get("/history", s.handleAPIHistory)
		r.Post("/history", s.handleAPIHistorySave)
		r.Delete("/history", s.handleAPIHistoryClear)
		r.Get("/templates", s.handleAPITemplates)
	})

	return r
}

// renderTemplate buffers the page so that a template error still yields a clean 500.
func (s *server) renderTemplate(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := s.pages.Render(&buf, page, data); err != nil {
		s.logger.Error("render_failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, jsonError{Error: message, Details: details})
}

func baseFromCollector(notes *quote.Collector) baseViewData {
	return baseViewData{
		ErrorMessage:   strings.Join(notes.Messages(quote.LevelError), " "),
		SuccessMessage: strings.Join(notes.Messages(quote.LevelSuccess), " "),
		Warnings:       notes.Messages(quote.LevelWarning),
	}
}

func baseFromQuery(r *http.Request) baseViewData {
	return baseViewData{
		ErrorMessage:   r.URL.Query().Get("error"),
		SuccessMessage: r.URL.Query().Get("success"),
	}
}

func parseQuoteForm(r *http.Request) history.Form {
	return history.Form{
		MachineID:             strings.TrimSpace(r.FormValue("machine_id")),
		Quantity:              strings.TrimSpace(r.FormValue("quantity")),
		WaterCoolerID:         strings.TrimSpace(r.FormValue("water_cooler_id")),
		AccessoryIDs:          nonEmpty(r.Form["accessory_ids"]),
		OtherAccessoryIDs:     nonEmpty(r.Form["other_accessory_ids"]),
		InternationalShipping: strings.TrimSpace(r.FormValue("international_shipping")),
		DomesticShipping:      strings.TrimSpace(r.FormValue("domestic_shipping")),
		OtherFees:             strings.TrimSpace(r.FormValue("other_fees")),
		ExchangeRate:          strings.TrimSpace(r.FormValue("exchange_rate")),
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func productOptions(products []pricing.Product) []productOption {
	out := make([]productOption, 0, len(products))
	for _, p := range products {
		out = append(out, productOption{ID: p.ID, Name: p.DisplayName, Price: pricing.Money(p.FlatPrice())})
	}
	return out
}

func (s *server) machineGroups() []machineGroup {
	var groups []machineGroup
	for _, series := range s.catalog.Series() {
		g := machineGroup{Series: series.Name}
		for _, model := range s.catalog.Models(series.ID) {
			for _, power := range s.catalog.Powers(series.ID, model.ID) {
				m, err := s.catalog.Machine(catalog.MachineID(series.ID, model.ID, power.ID))
				if err != nil {
					continue
				}
				g.Machines = append(g.Machines, productOption{
					ID:    m.ID,
					Name:  model.Name + " " + power.Name,
					Price: priceRange(m.Tiers),
				})
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// priceRange renders "from X" for tiered machines and the plain price otherwise.
func priceRange(tiers []pricing.Tier) string {
	if len(tiers) == 0 {
		return pricing.Money(pricing.ResolvePrice(1, tiers))
	}
	lowest := tiers[0].UnitPrice
	for _, t := range tiers[1:] {
		if t.UnitPrice.LessThan(lowest) {
			lowest = t.UnitPrice
		}
	}
	first := pricing.ResolvePrice(1, tiers)
	if lowest.Equal(first) {
		return pricing.Money(first)
	}
	return pricing.Money(first) + ", bulk from " + pricing.Money(lowest)
}
