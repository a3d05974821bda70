package history

import (
	"encoding/json"
	"testing"
)

func TestFormAcceptsNumbers(t *testing.T) {
	var f Form
	src := `{"machineId":"co2/1390/100w","quantity":5,"otherFees":12.5,"domesticShipping":"100","exchangeRate":7,"accessoryIds":["rotary"]}`
	if err := json.Unmarshal([]byte(src), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.MachineID != "co2/1390/100w" || f.Quantity != "5" || f.OtherFees != "12.5" || f.DomesticShipping != "100" || f.ExchangeRate != "7" {
		t.Fatalf("unexpected form: %+v", f)
	}
	if len(f.AccessoryIDs) != 1 || f.AccessoryIDs[0] != "rotary" {
		t.Fatalf("unexpected accessories: %v", f.AccessoryIDs)
	}
}

func TestFormRejectsUnknownFieldsAndBadTypes(t *testing.T) {
	for _, src := range []string{
		`{"machineId":"x","colour":"red"}`,
		`{"quantity":true}`,
		`{"otherFees":{"amount":1}}`,
		`{"machineId":5}`,
	} {
		var f Form
		if err := json.Unmarshal([]byte(src), &f); err == nil {
			t.Fatalf("expected error for %s, got %+v", src, f)
		}
	}
}

func TestFormRoundTripsThroughTemplate(t *testing.T) {
	tpl := Template{ID: "t1", Name: "bulk", Form: Form{MachineID: "co2/1390/100w", Quantity: "100", OtherFees: "50"}}
	raw, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Template
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Form.Quantity != "100" || got.Form.OtherFees != "50" || got.Form.MachineID != "co2/1390/100w" {
		t.Fatalf("unexpected form: %+v", got.Form)
	}
}
