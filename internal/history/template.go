package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Form is a quote form as typed by the user. Amounts stay raw strings so that a
// template restores exactly what was entered.
type Form struct {
	MachineID             string   `json:"machineId"`
	Quantity              string   `json:"quantity"`
	WaterCoolerID         string   `json:"waterCoolerId,omitempty"`
	AccessoryIDs          []string `json:"accessoryIds,omitempty"`
	OtherAccessoryIDs     []string `json:"otherAccessoryIds,omitempty"`
	InternationalShipping string   `json:"internationalShipping,omitempty"`
	DomesticShipping      string   `json:"domesticShipping,omitempty"`
	OtherFees             string   `json:"otherFees,omitempty"`
	ExchangeRate          string   `json:"exchangeRate,omitempty"`
}

// UnmarshalJSON accepts the quantity, shipping, fee and rate fields as JSON strings or
// numbers. Unknown fields are rejected.
func (f *Form) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}

	type plain Form
	var in struct {
		plain
		Quantity              looseString `json:"quantity"`
		InternationalShipping looseString `json:"internationalShipping"`
		DomesticShipping      looseString `json:"domesticShipping"`
		OtherFees             looseString `json:"otherFees"`
		ExchangeRate          looseString `json:"exchangeRate"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return err
	}

	*f = Form(in.plain)
	f.Quantity = string(in.Quantity)
	f.InternationalShipping = string(in.InternationalShipping)
	f.DomesticShipping = string(in.DomesticShipping)
	f.OtherFees = string(in.OtherFees)
	f.ExchangeRate = string(in.ExchangeRate)
	return nil
}

// looseString decodes a JSON string or number into its text.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = looseString(v)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected a string or a number, got %s", data)
	}
	*s = looseString(n)
	return nil
}

// Template is a named, saved Form.
type Template struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	Form      Form   `json:"form"`
}

// NewTemplate creates a template with a fresh id.
func NewTemplate(now time.Time, name string, form Form) Template {
	return Template{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now.Format(TimestampLayout),
		Form:      form,
	}
}

// upsertTemplate puts tpl in front, replacing any template with the same name.
func upsertTemplate(list []Template, tpl Template) []Template {
	out := make([]Template, 0, len(list)+1)
	out = append(out, tpl)
	for _, t := range list {
		if t.Name == tpl.Name {
			continue
		}
		out = append(out, t)
	}
	return out
}
