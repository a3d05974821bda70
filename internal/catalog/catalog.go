// Package catalog loads the machine, water cooler and accessory price lists.
//
// A catalog is an HCL document:
//
//	currency { local = "CNY"  foreign = "USD" }
//	series "co2" {
//	  name = "CO2 Laser Cutter"
//	  model "1390" {
//	    name = "1390"
//	    power "100w" {
//	      name = "100W"
//	      tier { min = 1  max = 9  price = "10000" }
//	      tier { min = 10 price = "9500" }
//	    }
//	  }
//	}
//	water_cooler "cw5000" { name = "CW-5000"  price = "1500" }
//	accessory "rotary" { name = "Rotary"  price = "1500" }
//	other_accessory "lens" { name = "Lens"  price = "150" }
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/laserquote/internal/pricing"
)

//go:embed default.hcl
var defaultSource []byte

// ErrUnknownProduct is returned when an id is not part of the catalog.
var ErrUnknownProduct = errors.New("unknown product")

type document struct {
	Currency         *currencyBlock `hcl:"currency,block"`
	Series           []seriesBlock  `hcl:"series,block"`
	WaterCoolers     []flatBlock    `hcl:"water_cooler,block"`
	Accessories      []flatBlock    `hcl:"accessory,block"`
	OtherAccessories []flatBlock    `hcl:"other_accessory,block"`
}

type currencyBlock struct {
	Local   string `hcl:"local"`
	Foreign string `hcl:"foreign"`
}

type seriesBlock struct {
	ID     string       `hcl:"id,label"`
	Name   string       `hcl:"name"`
	Models []modelBlock `hcl:"model,block"`
}

type modelBlock struct {
	ID     string       `hcl:"id,label"`
	Name   string       `hcl:"name"`
	Powers []powerBlock `hcl:"power,block"`
}

type powerBlock struct {
	ID    string      `hcl:"id,label"`
	Name  string      `hcl:"name"`
	Tiers []tierBlock `hcl:"tier,block"`
}

type tierBlock struct {
	Min   int    `hcl:"min"`
	Max   *int   `hcl:"max,optional"`
	Price string `hcl:"price"`
}

type flatBlock struct {
	ID    string `hcl:"id,label"`
	Name  string `hcl:"name"`
	Price string `hcl:"price"`
}

// Option is a selectable entry of the series/model/power cascade.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Currency names the local and foreign currencies the prices are quoted in.
type Currency struct {
	Local   string `json:"local"`
	Foreign string `json:"foreign"`
}

type model struct {
	Option
	powers []Option
}

type series struct {
	Option
	models []model
}

// Catalog is an immutable, validated price list. It is safe for concurrent use.
type Catalog struct {
	currency         Currency
	series           []series
	machines         map[string]pricing.Product
	waterCoolers     []pricing.Product
	accessories      []pricing.Product
	otherAccessories []pricing.Product
	byKind           map[kind]map[string]pricing.Product
	warnings         []string
}

type kind int

const (
	kindWaterCooler kind = iota
	kindAccessory
	kindOtherAccessory
)

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse("default.hcl", defaultSource)
}

// Load reads a catalog file. The extension selects native HCL (.hcl) or JSON (.json) syntax.
func Load(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(filepath.Base(path), src)
}

// Open loads the catalog at path, or the embedded default when path is empty.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return Load(path)
}

// Parse decodes and validates a catalog document.
func Parse(filename string, src []byte) (*Catalog, error) {
	var doc document
	if err := hclsimple.Decode(filename, src, nil, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", filename, err)
	}
	return build(doc)
}

func build(doc document) (*Catalog, error) {
	c := &Catalog{
		currency: Currency{Local: "CNY", Foreign: "USD"},
		machines: make(map[string]pricing.Product),
		byKind: map[kind]map[string]pricing.Product{
			kindWaterCooler:    {},
			kindAccessory:      {},
			kindOtherAccessory: {},
		},
	}
	if doc.Currency != nil {
		c.currency = Currency{Local: doc.Currency.Local, Foreign: doc.Currency.Foreign}
	}

	for _, ss := range doc.Series {
		s := series{Option: Option{ID: ss.ID, Name: ss.Name}}
		for _, ms := range ss.Models {
			m := model{Option: Option{ID: ms.ID, Name: ms.Name}}
			for _, ps := range ms.Powers {
				id := MachineID(ss.ID, ms.ID, ps.ID)
				if _, dup := c.machines[id]; dup {
					return nil, fmt.Errorf("duplicate machine %q", id)
				}
				tiers, err := buildTiers(id, ps.Tiers)
				if err != nil {
					return nil, err
				}
				for _, problem := range pricing.ValidateTiers(tiers) {
					c.warnings = append(c.warnings, fmt.Sprintf("%s: %s", id, problem))
				}
				c.machines[id] = pricing.Product{
					ID:          id,
					DisplayName: strings.Join([]string{ss.Name, ms.Name, ps.Name}, " "),
					Tiers:       tiers,
				}
				m.powers = append(m.powers, Option{ID: ps.ID, Name: ps.Name})
			}
			s.models = append(s.models, m)
		}
		c.series = append(c.series, s)
	}

	var err error
	if c.waterCoolers, err = c.addFlat(kindWaterCooler, "water cooler", doc.WaterCoolers); err != nil {
		return nil, err
	}
	if c.accessories, err = c.addFlat(kindAccessory, "accessory", doc.Accessories); err != nil {
		return nil, err
	}
	if c.otherAccessories, err = c.addFlat(kindOtherAccessory, "other accessory", doc.OtherAccessories); err != nil {
		return nil, err
	}

	return c, nil
}

func buildTiers(id string, blocks []tierBlock) ([]pricing.Tier, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("machine %q has no price tiers", id)
	}
	tiers := make([]pricing.Tier, 0, len(blocks))
	for i, ts := range blocks {
		price, err := parsePrice(ts.Price)
		if err != nil {
			return nil, fmt.Errorf("machine %q tier %d: %w", id, i+1, err)
		}
		tiers = append(tiers, pricing.Tier{Min: ts.Min, Max: ts.Max, UnitPrice: price})
	}
	return tiers, nil
}

func (c *Catalog) addFlat(k kind, label string, blocks []flatBlock) ([]pricing.Product, error) {
	products := make([]pricing.Product, 0, len(blocks))
	for _, fs := range blocks {
		if _, dup := c.byKind[k][fs.ID]; dup {
			return nil, fmt.Errorf("duplicate %s %q", label, fs.ID)
		}
		price, err := parsePrice(fs.Price)
		if err != nil {
			return nil, fmt.Errorf("%s %q: %w", label, fs.ID, err)
		}
		p := pricing.FlatProduct(fs.ID, fs.Name, price)
		c.byKind[k][fs.ID] = p
		products = append(products, p)
	}
	return products, nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("price %q is not a number", raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("price %q is negative", raw)
	}
	if !pricing.InBounds(d) {
		return decimal.Zero, fmt.Errorf("price %q is out of range", raw)
	}
	return d, nil
}

// MachineID joins the cascade ids into a machine product id.
func MachineID(seriesID, modelID, powerID string) string {
	return seriesID + "/" + modelID + "/" + powerID
}

// Currency returns the currencies the catalog is priced in.
func (c *Catalog) Currency() Currency { return c.currency }

// Warnings lists tier tables that are gapped, overlapping or otherwise unusual.
func (c *Catalog) Warnings() []string { return append([]string(nil), c.warnings...) }

// Series lists the machine series in catalog order.
func (c *Catalog) Series() []Option {
	out := make([]Option, 0, len(c.series))
	for _, s := range c.series {
		out = append(out, s.Option)
	}
	return out
}

// Models lists the models of a series.
func (c *Catalog) Models(seriesID string) []Option {
	for _, s := range c.series {
		if s.ID != seriesID {
			continue
		}
		out := make([]Option, 0, len(s.models))
		for _, m := range s.models {
			out = append(out, m.Option)
		}
		return out
	}
	return nil
}

// Powers lists the power variants of a model.
func (c *Catalog) Powers(seriesID, modelID string) []Option {
	for _, s := range c.series {
		if s.ID != seriesID {
			continue
		}
		for _, m := range s.models {
			if m.ID == modelID {
				return append([]Option(nil), m.powers...)
			}
		}
	}
	return nil
}

// Machine looks up a machine by its series/model/power id.
func (c *Catalog) Machine(id string) (pricing.Product, error) {
	p, ok := c.machines[id]
	if !ok {
		return pricing.Product{}, fmt.Errorf("machine %q: %w", id, ErrUnknownProduct)
	}
	return p, nil
}

// Machines lists every machine sorted by id.
func (c *Catalog) Machines() []pricing.Product {
	out := make([]pricing.Product, 0, len(c.machines))
	for _, p := range c.machines {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// WaterCooler looks up a water cooler by id.
func (c *Catalog) WaterCooler(id string) (pricing.Product, error) {
	return c.lookup(kindWaterCooler, "water cooler", id)
}

// Accessory looks up an accessory by id.
func (c *Catalog) Accessory(id string) (pricing.Product, error) {
	return c.lookup(kindAccessory, "accessory", id)
}

// OtherAccessory looks up an other accessory by id.
func (c *Catalog) OtherAccessory(id string) (pricing.Product, error) {
	return c.lookup(kindOtherAccessory, "other accessory", id)
}

func (c *Catalog) lookup(k kind, label, id string) (pricing.Product, error) {
	p, ok := c.byKind[k][id]
	if !ok {
		return pricing.Product{}, fmt.Errorf("%s %q: %w", label, id, ErrUnknownProduct)
	}
	return p, nil
}

// WaterCoolers lists water coolers in catalog order.
func (c *Catalog) WaterCoolers() []pricing.Product { return append([]pricing.Product(nil), c.waterCoolers...) }

// Accessories lists accessories in catalog order.
func (c *Catalog) Accessories() []pricing.Product { return append([]pricing.Product(nil), c.accessories...) }

// OtherAccessories lists other accessories in catalog order.
func (c *Catalog) OtherAccessories() []pricing.Product {
	return append([]pricing.Product(nil), c.otherAccessories...)
}
