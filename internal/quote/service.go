// Package quote connects the pricing core to the catalog, the user's raw input and the
// persisted history. Presentation layers call into Service; Service reaches back only
// through the Observer and Notifier interfaces.
package quote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/pricing"
	"github.com/Simplici0/laserquote/internal/settings"
)

// ErrTemplateName is returned when a template is saved without a name.
var ErrTemplateName = errors.New("template name is required")

// Catalog is the subset of *catalog.Catalog the service needs.
type Catalog interface {
	Machine(id string) (pricing.Product, error)
	WaterCooler(id string) (pricing.Product, error)
	Accessory(id string) (pricing.Product, error)
	OtherAccessory(id string) (pricing.Product, error)
	Currency() catalog.Currency
}

// SettingsSource provides the editable defaults.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Result is one calculated quote.
type Result struct {
	Form      history.Form             `json:"form"`
	Input     pricing.QuoteInput       `json:"-"`
	Breakdown pricing.Breakdown        `json:"breakdown"`
	Display   pricing.BreakdownDisplay `json:"display"`
	Currency  catalog.Currency         `json:"currency"`
	Warnings  []string                 `json:"warnings,omitempty"`
}

// TotalDisplay renders the grand total in both currencies.
func (r Result) TotalDisplay() string {
	return fmt.Sprintf("%s %s / %s %s",
		r.Display.GrandTotalLocal, r.Currency.Local,
		r.Display.GrandTotalForeign, r.Currency.Foreign)
}

// Service builds quotes from raw forms and persists history and templates.
type Service struct {
	catalog      Catalog
	repo         *history.Repository
	settings     SettingsSource
	observers    []Observer
	notifier     Notifier
	historyLimit int
	now          func() time.Time
	logger       *zap.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithObserver registers an observer for calculated quotes.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observers = append(s.observers, o) }
}

// WithDefaultNotifier sets the notifier used when the context carries none.
func WithDefaultNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithSettings sets the source of defaults. Without it the catalog currency and the
// built-in exchange rate are used.
func WithSettings(src SettingsSource) Option {
	return func(s *Service) { s.settings = src }
}

// WithHistoryLimit bounds the history length, overriding the settings value when positive.
func WithHistoryLimit(n int) Option {
	return func(s *Service) { s.historyLimit = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(c Catalog, repo *history.Repository, opts ...Option) *Service {
	s := &Service{
		catalog: c,
		repo:    repo,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = LogNotifier{Logger: s.logger}
	}
	return s
}

func (s *Service) defaults(ctx context.Context) settings.Settings {
	d := settings.Defaults()
	cur := s.catalog.Currency()
	d.LocalCurrency, d.ForeignCurrency = cur.Local, cur.Foreign
	if s.settings == nil {
		return d
	}

	got, err := s.settings.Get(ctx)
	if err != nil {
		s.logger.Warn("settings_unavailable", zap.Error(err))
		return d
	}
	return got
}

func (s *Service) notify(ctx context.Context, level Level, format string, args ...any) {
	n := Notification{Level: level, Message: fmt.Sprintf(format, args...)}
	if ctxN := notifierFrom(ctx); ctxN != nil {
		ctxN.Notify(ctx, n)
		return
	}
	s.notifier.Notify(ctx, n)
}

// Build resolves the ids of a form against the catalog and coerces its numbers. Unknown
// ids are dropped and reported in the returned warnings.
func (s *Service) Build(ctx context.Context, form history.Form) (pricing.QuoteInput, []string) {
	return s.build(form, s.defaults(ctx))
}

func (s *Service) build(form history.Form, d settings.Settings) (pricing.QuoteInput, []string) {
	var warnings []string
	in := pricing.QuoteInput{
		Quantity:              pricing.ParseQuantity(form.Quantity),
		InternationalShipping: pricing.ParseAmount(form.InternationalShipping),
		DomesticShipping:      pricing.ParseAmount(form.DomesticShipping),
		OtherFees:             pricing.ParseAmount(form.OtherFees),
		ExchangeRate:          pricing.ParseExchangeRate(form.ExchangeRate, d.DefaultExchangeRate),
	}

	if id := strings.TrimSpace(form.MachineID); id != "" {
		if p, err := s.catalog.Machine(id); err != nil {
			warnings = append(warnings, err.Error())
		} else {
			in.Machine = &p
		}
	}
	if id := strings.TrimSpace(form.WaterCoolerID); id != "" {
		if p, err := s.catalog.WaterCooler(id); err != nil {
			warnings = append(warnings, err.Error())
		} else {
			in.WaterCooler = &p
		}
	}

	in.Accessories, warnings = resolveAll(form.AccessoryIDs, s.catalog.Accessory, warnings)
	in.OtherAccessories, warnings = resolveAll(form.OtherAccessoryIDs, s.catalog.OtherAccessory, warnings)

	return in, warnings
}

func resolveAll(ids []string, lookup func(string) (pricing.Product, error), warnings []string) ([]pricing.Product, []string) {
	var out []pricing.Product
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		p, err := lookup(id)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}
		out = append(out, p)
	}
	return out, warnings
}

// Calculate prices a raw form and tells every observer about the result. Nothing is
// persisted.
func (s *Service) Calculate(ctx context.Context, form history.Form) Result {
	d := s.defaults(ctx)
	in, warnings := s.build(form, d)
	b := pricing.Calculate(in)

	r := Result{
		Form:      form,
		Input:     in,
		Breakdown: b,
		Display:   b.Display(),
		Currency:  catalog.Currency{Local: d.LocalCurrency, Foreign: d.ForeignCurrency},
		Warnings:  warnings,
	}

	for _, w := range warnings {
		s.notify(ctx, LevelWarning, "ignored selection: %s", w)
	}
	for _, o := range s.observers {
		o.QuoteCalculated(ctx, r)
	}
	return r
}

// SaveToHistory appends the quote to the history list. A storage failure is reported
// through the notifier and returned; the quote itself is unaffected.
func (s *Service) SaveToHistory(ctx context.Context, r Result) (history.Entry, error) {
	limit := s.historyLimit
	if limit <= 0 {
		limit = s.defaults(ctx).HistoryLimit
	}

	entry := history.NewEntry(s.now(), r.TotalDisplay(), Summary(r))
	if _, err := s.repo.AppendHistory(ctx, entry, limit); err != nil {
		s.logger.Warn("history_append_failed", zap.Error(err))
		s.notify(ctx, LevelError, "Could not save the quote to history.")
		return history.Entry{}, err
	}

	s.logger.Info("history_appended", zap.String("id", entry.ID), zap.String("total", entry.TotalDisplay))
	s.notify(ctx, LevelSuccess, "Quote saved to history.")
	return entry, nil
}

// History returns the saved quotes, newest first.
func (s *Service) History(ctx context.Context) ([]history.Entry, error) {
	list, err := s.repo.History(ctx)
	if err != nil {
		s.logger.Warn("history_load_failed", zap.Error(err))
		s.notify(ctx, LevelError, "Could not load the quote history.")
		return []history.Entry{}, err
	}
	return list, nil
}

// ClearHistory removes every saved quote.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.repo.ClearHistory(ctx); err != nil {
		s.logger.Warn("history_clear_failed", zap.Error(err))
		s.notify(ctx, LevelError, "Could not clear the quote history.")
		return err
	}
	s.logger.Info("history_cleared")
	s.notify(ctx, LevelSuccess, "History cleared.")
	return nil
}

// SaveTemplate stores form under name, replacing a template with the same name.
func (s *Service) SaveTemplate(ctx context.Context, name string, form history.Form) (history.Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		s.notify(ctx, LevelError, "Template name is required.")
		return history.Template{}, ErrTemplateName
	}

	tpl := history.NewTemplate(s.now(), name, form)
	if err := s.repo.SaveTemplate(ctx, tpl); err != nil {
		s.logger.Warn("template_save_failed", zap.Error(err))
		s.notify(ctx, LevelError, "Could not save template %q.", name)
		return history.Template{}, err
	}

	s.logger.Info("template_saved", zap.String("id", tpl.ID), zap.String("name", name))
	s.notify(ctx, LevelSuccess, "Template %q saved.", name)
	return tpl, nil
}

// Templates lists the saved templates, newest first.
func (s *Service) Templates(ctx context.Context) ([]history.Template, error) {
	list, err := s.repo.Templates(ctx)
	if err != nil {
		s.logger.Warn("template_load_failed", zap.Error(err))
		s.notify(ctx, LevelError, "Could not load templates.")
		return []history.Template{}, err
	}
	return list, nil
}

// Template returns a single template.
func (s *Service) Template(ctx context.Context, id string) (history.Template, error) {
	return s.repo.Template(ctx, id)
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		if !errors.Is(err, history.ErrTemplateNotFound) {
			s.logger.Warn("template_delete_failed", zap.Error(err))
		}
		s.notify(ctx, LevelError, "Could not delete the template.")
		return err
	}
	s.notify(ctx, LevelSuccess, "Template deleted.")
	return nil
}
