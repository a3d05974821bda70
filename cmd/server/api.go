package main

import (
	"encoding/json"
	"net/http"

	"github.com/Simplici0/laserquote/internal/catalog"
	"github.com/Simplici0/laserquote/internal/history"
	"github.com/Simplici0/laserquote/internal/pricing"
	"github.com/Simplici0/laserquote/internal/quote"
)

const maxBodyBytes = 1 << 20

type catalogPower struct {
	catalog.Option
	Machine pricing.Product `json:"machine"`
}

type catalogModel struct {
	catalog.Option
	Powers []catalogPower `json:"powers"`
}

type catalogSeries struct {
	catalog.Option
	Models []catalogModel `json:"models"`
}

type catalogResponse struct {
	Currency         catalog.Currency  `json:"currency"`
	Series           []catalogSeries   `json:"series"`
	WaterCoolers     []pricing.Product `json:"water_coolers"`
	Accessories      []pricing.Product `json:"accessories"`
	OtherAccessories []pricing.Product `json:"other_accessories"`
}

type quoteResponse struct {
	quote.Result
	Total   string `json:"total"`
	Summary string `json:"summary"`
}

type historySaveResponse struct {
	Quote quoteResponse `json:"quote"`
	Entry history.Entry `json:"entry"`
}

func newQuoteResponse(r quote.Result) quoteResponse {
	return quoteResponse{Result: r, Total: r.TotalDisplay(), Summary: quote.Summary(r)}
}

func (s *server) handleAPICatalog(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{
		Currency:         s.catalog.Currency(),
		Series:           []catalogSeries{},
		WaterCoolers:     s.catalog.WaterCoolers(),
		Accessories:      s.catalog.Accessories(),
		OtherAccessories: s.catalog.OtherAccessories(),
	}
	for _, series := range s.catalog.Series() {
		cs := catalogSeries{Option: series}
		for _, model := range s.catalog.Models(series.ID) {
			cm := catalogModel{Option: model}
			for _, power := range s.catalog.Powers(series.ID, model.ID) {
				m, err := s.catalog.Machine(catalog.MachineID(series.ID, model.ID, power.ID))
				if err != nil {
					continue
				}
				cm.Powers = append(cm.Powers, catalogPower{Option: power, Machine: m})
			}
			cs.Models = append(cs.Models, cm)
		}
		resp.Series = append(resp.Series, cs)
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeForm(w http.ResponseWriter, r *http.Request) (history.Form, bool) {
	var form history.Form
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&form); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return history.Form{}, false
	}
	return form, true
}

func (s *server) handleAPIQuote(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(s.quotes.Calculate(r.Context(), form)))
}

func (s *server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	list, err := s.quotes.History(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleAPIHistorySave(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	result := s.quotes.Calculate(r.Context(), form)
	entry, err := s.quotes.SaveToHistory(r.Context(), result)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, historySaveResponse{Quote: newQuoteResponse(result), Entry: entry})
}

func (s *server) handleAPIHistoryClear(w http.ResponseWriter, r *http.Request) {
	if err := s.quotes.ClearHistory(r.Context()); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "history_unavailable", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAPITemplates(w http.ResponseWriter, r *http.Request) {
	list, err := s.quotes.Templates(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "templates_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, list)
}
