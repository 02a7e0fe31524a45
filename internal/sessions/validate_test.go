package sessions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemInput(t *testing.T) {
	tests := []struct {
		name      string
		inName    string
		inPrice   string
		inQty     string
		want      NewItem
		wantField string
	}{
		{
			name:   "valid input is normalized",
			inName: "  Oat Milk ", inPrice: " 3.499 ", inQty: "2",
			want: NewItem{Name: "Oat Milk", Price: 3.5, Quantity: 2},
		},
		{
			name:   "empty quantity defaults to one",
			inName: "Bread", inPrice: "2", inQty: "",
			want: NewItem{Name: "Bread", Price: 2, Quantity: 1},
		},
		{
			name:   "free item",
			inName: "Sample", inPrice: "0", inQty: "1",
			want: NewItem{Name: "Sample", Price: 0, Quantity: 1},
		},
		{name: "unparsable price", inName: "Bread", inPrice: "two", inQty: "1", wantField: "price"},
		{name: "empty price", inName: "Bread", inPrice: "", inQty: "1", wantField: "price"},
		{name: "NaN price", inName: "Bread", inPrice: "NaN", inQty: "1", wantField: "price"},
		{name: "negative price", inName: "Bread", inPrice: "-1", inQty: "1", wantField: "price"},
		{name: "fractional quantity", inName: "Bread", inPrice: "1", inQty: "1.5", wantField: "quantity"},
		{name: "zero quantity", inName: "Bread", inPrice: "1", inQty: "0", wantField: "quantity"},
		{name: "missing name", inName: "", inPrice: "1", inQty: "1", wantField: "name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseItemInput(tt.inName, tt.inPrice, tt.inQty)
			if tt.wantField != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantField, verr.Field)
				assert.ErrorIs(t, err, ErrInvalidItem)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := itemError("quantity", "must be at least 1")
	assert.Equal(t, "quantity: must be at least 1", err.Error())
}
