package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go-inventory-ledger/internal/model"
)

type addForm struct {
	BatchID string `validate:"required,batchid"`
	Expiry  string `validate:"required,yearmonth"`
	Qty     int    `validate:"gte=1"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name  string
		form  addForm
		field string
		tag   string
	}{
		{name: "valid", form: addForm{BatchID: "B-001", Expiry: "2025-12", Qty: 1}},
		{name: "missing batch id", form: addForm{Expiry: "2025-12", Qty: 1}, field: "addForm.BatchID", tag: "required"},
		{name: "batch id with spaces", form: addForm{BatchID: "B 001", Expiry: "2025-12", Qty: 1}, field: "addForm.BatchID", tag: "batchid"},
		{name: "bad month", form: addForm{BatchID: "B-001", Expiry: "2025-13", Qty: 1}, field: "addForm.Expiry", tag: "yearmonth"},
		{name: "full date", form: addForm{BatchID: "B-001", Expiry: "2025-12-01", Qty: 1}, field: "addForm.Expiry", tag: "yearmonth"},
		{name: "zero quantity", form: addForm{BatchID: "B-001", Expiry: "2025-12"}, field: "addForm.Qty", tag: "gte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateStruct(tt.form)
			if tt.tag == "" {
				assert.Empty(t, errs)
				return
			}
			if assert.Len(t, errs, 1) {
				assert.Equal(t, tt.field, errs[0].FailedField)
				assert.Equal(t, tt.tag, errs[0].Tag)
			}
		})
	}
}

func TestValidateStruct_InventoryItem(t *testing.T) {
	item := model.InventoryItem{BatchID: "B-002", Details: model.ItemDetails{Name: "Ibuprofen", Qty: -1, Expiry: "2026-01"}}
	errs := ValidateStruct(item)
	if assert.Len(t, errs, 1) {
		assert.Equal(t, "InventoryItem.Details.Qty", errs[0].FailedField)
	}

	item.Details.Qty = 0
	item.Details.Expiry = ""
	assert.Empty(t, ValidateStruct(item))
}

func TestFirstError(t *testing.T) {
	assert.Equal(t, "", FirstError(addForm{BatchID: "B-1", Expiry: "2030-01", Qty: 3}))
	assert.Equal(t, "Validation failed: field 'addForm.Qty' failed on tag 'gte=1'", FirstError(addForm{BatchID: "B-1", Expiry: "2030-01"}))
}
