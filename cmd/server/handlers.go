package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/quote"
	"github.com/Simplici0/laserquote/internal/settings"
)

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	notes := &quote.Collector{}
	ctx := quote.WithNotifier(r.Context(), notes)
	s.renderHome(w, r.WithContext(ctx), http.StatusOK, baseFromQuery(r), history.Form{}, nil, notes)
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	notes := &quote.Collector{}
	r = r.WithContext(quote.WithNotifier(r.Context(), notes))
	form := parseQuoteForm(r)
	result := s.quotes.Calculate(r.Context(), form)
	s.renderHome(w, r, http.StatusOK, baseViewData{}, form, &result, notes)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	result := s.quotes.Calculate(r.Context(), parseQuoteForm(r))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="quote.txt"`)
	_, _ = fmt.Fprint(w, quote.Summary(result))
}

func (s *server) handleHistorySave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	notes := &quote.Collector{}
	r = r.WithContext(quote.WithNotifier(r.Context(), notes))
	form := parseQuoteForm(r)
	result := s.quotes.Calculate(r.Context(), form)

	// A storage failure is already in notes; the quote is still shown.
	_, _ = s.quotes.SaveToHistory(r.Context(), result)
	s.renderHome(w, r, http.StatusOK, baseViewData{}, form, &result, notes)
}

func (s *server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	notes := &quote.Collector{}
	ctx := quote.WithNotifier(r.Context(), notes)

	entries, _ := s.quotes.History(ctx)
	base := baseFromQuery(r)
	if msg := notes.First(quote.LevelError); msg != "" {
		base.ErrorMessage = msg
	}
	s.renderTemplate(w, http.StatusOK, "history.html", historyViewData{baseViewData: base, Entries: entries})
}

func (s *server) handleHistoryClear(w http.ResponseWriter, r *http.Request) {
	notes := &quote.Collector{}
	ctx := quote.WithNotifier(r.Context(), notes)

	if err := s.quotes.ClearHistory(ctx); err != nil {
		http.Redirect(w, r, "/history?error="+url.QueryEscape(notes.First(quote.LevelError)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/history?success="+url.QueryEscape(notes.First(quote.LevelSuccess)), http.StatusSeeOther)
}

func (s *server) handleTemplatesList(w http.ResponseWriter, r *http.Request) {
	notes := &quote.Collector{}
	ctx := quote.WithNotifier(r.Context(), notes)

	list, _ := s.quotes.Templates(ctx)
	base := baseFromQuery(r)
	if msg := notes.First(quote.LevelError); msg != "" {
		base.ErrorMessage = msg
	}
	s.renderTemplate(w, http.StatusOK, "templates.html", templatesViewData{baseViewData: base, Templates: list})
}

func (s *server) handleTemplateSave(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	notes := &quote.Collector{}
	r = r.WithContext(quote.WithNotifier(r.Context(), notes))
	form := parseQuoteForm(r)

	if _, err := s.quotes.SaveTemplate(r.Context(), r.FormValue("template_name"), form); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, quote.ErrTemplateName) {
			status = http.StatusBadRequest
		}
		s.renderHome(w, r, status, baseViewData{}, form, nil, notes)
		return
	}

	http.Redirect(w, r, "/templates?success="+url.QueryEscape(notes.First(quote.LevelSuccess)), http.StatusSeeOther)
}

func (s *server) handleTemplateLoad(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tpl, err := s.quotes.Template(r.Context(), id)
	if errors.Is(err, history.ErrTemplateNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		http.Error(w, "failed to load template", http.StatusInternalServerError)
		return
	}

	notes := &quote.Collector{}
	r = r.WithContext(quote.WithNotifier(r.Context(), notes))
	result := s.quotes.Calculate(r.Context(), tpl.Form)
	base := baseViewData{SuccessMessage: fmt.Sprintf("Template %q loaded.", tpl.Name)}
	s.renderHome(w, r, http.StatusOK, base, tpl.Form, &result, notes)
}

func (s *server) handleTemplateDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	notes := &quote.Collector{}
	ctx := quote.WithNotifier(r.Context(), notes)

	if err := s.quotes.DeleteTemplate(ctx, id); err != nil {
		if errors.Is(err, history.ErrTemplateNotFound) {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/templates?error="+url.QueryEscape(notes.First(quote.LevelError)), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/templates?success="+url.QueryEscape(notes.First(quote.LevelSuccess)), http.StatusSeeOther)
}

func (s *server) handleSettingsForm(w http.ResponseWriter, r *http.Request) {
	current, err := s.settings.Get(r.Context())
	if err != nil {
		http.Error(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, http.StatusOK, "settings.html", settingsViewData{
		baseViewData: baseFromQuery(r),
		Settings:     toSettingsForm(current),
	})
}

func (s *server) handleSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	form := settingsForm{
		DefaultExchangeRate: strings.TrimSpace(r.FormValue("default_exchange_rate")),
		LocalCurrency:       strings.ToUpper(strings.TrimSpace(r.FormValue("local_currency"))),
		ForeignCurrency:     strings.ToUpper(strings.TrimSpace(r.FormValue("foreign_currency"))),
		HistoryLimit:        strings.TrimSpace(r.FormValue("history_limit")),
	}

	parsed, validationErr := parseSettingsForm(form)
	if validationErr == nil {
		validationErr = parsed.Validate()
	}
	if validationErr != nil {
		s.renderTemplate(w, http.StatusBadRequest, "settings.html", settingsViewData{
			baseViewData: baseViewData{ErrorMessage: validationErr.Error()},
			Settings:     form,
		})
		return
	}

	if err := s.settings.Update(r.Context(), parsed); err != nil {
		s.logger.Error("settings_update_failed", zap.Error(err))
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	s.renderTemplate(w, http.StatusOK, "settings.html", settingsViewData{
		baseViewData: baseViewData{SuccessMessage: "Settings saved."},
		Settings:     toSettingsForm(parsed),
	})
}

func parseSettingsForm(form settingsForm) (settings.Settings, error) {
	rate, err := decimal.NewFromString(form.DefaultExchangeRate)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("default_exchange_rate must be numeric")
	}

	limit := 0
	if form.HistoryLimit != "" {
		limit, err = strconv.Atoi(form.HistoryLimit)
		if err != nil {
			return settings.Settings{}, fmt.Errorf("history_limit must be a whole number")
		}
	}

	return settings.Settings{
		DefaultExchangeRate: rate,
		LocalCurrency:       form.LocalCurrency,
		ForeignCurrency:     form.ForeignCurrency,
		HistoryLimit:        limit,
	}, nil
}

func toSettingsForm(s settings.Settings) settingsForm {
	return settingsForm{
		DefaultExchangeRate: s.DefaultExchangeRate.String(),
		LocalCurrency:       s.LocalCurrency,
		ForeignCurrency:     s.ForeignCurrency,
		HistoryLimit:        strconv.Itoa(s.HistoryLimit),
	}
}

func (s *server) renderHome(w http.ResponseWriter, r *http.Request, status int, base baseViewData, form history.Form, result *quote.Result, notes *quote.Collector) {
	templates, _ := s.quotes.Templates(r.Context())

	collected := baseFromCollector(notes)
	if collected.ErrorMessage != "" {
		base.ErrorMessage = collected.ErrorMessage
	}
	if collected.SuccessMessage != "" {
		base.SuccessMessage = collected.SuccessMessage
	}
	base.Warnings = append(base.Warnings, collected.Warnings...)

	defaults := settings.Defaults()
	if current, err := s.settings.Get(r.Context()); err == nil {
		defaults = current
	} else {
		s.logger.Warn("settings_unavailable", zap.Error(err))
	}

	data := homeViewData{
		baseViewData:        base,
		Form:                form,
		MachineGroups:       s.machineGroups(),
		WaterCoolers:        productOptions(s.catalog.WaterCoolers()),
		Accessories:         productOptions(s.catalog.Accessories()),
		OtherAccessories:    productOptions(s.catalog.OtherAccessories()),
		Templates:           templates,
		DefaultExchangeRate: defaults.DefaultExchangeRate.String(),
		Currency:            s.catalog.Currency(),
		Result:              result,
	}
	if result != nil {
		data.Currency = result.Currency
		data.Summary = quote.Summary(*result)
	} else {
		data.Currency.Local, data.Currency.Foreign = defaults.LocalCurrency, defaults.ForeignCurrency
	}

	s.renderTemplate(w, status, "home.html", data)
}
