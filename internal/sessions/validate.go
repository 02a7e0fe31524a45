package sessions

import (
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/carttrack/internal/calculator"
)

// NewItem carries the user-supplied fields of an item before it gets an ID.
type NewItem struct {
	Name     string
	Price    float64
	Quantity int
}

// ValidateItem checks the fields of a new item and returns it normalized:
// the name trimmed and the price rounded to two decimals.
func ValidateItem(in NewItem) (NewItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return NewItem{}, itemError("name", "must not be empty")
	}
	if math.IsNaN(in.Price) || math.IsInf(in.Price, 0) {
		return NewItem{}, itemError("price", "must be a number")
	}
	if in.Price < 0 {
		return NewItem{}, itemError("price", "must not be negative")
	}
	if in.Quantity < 1 {
		return NewItem{}, itemError("quantity", "must be at least 1")
	}
	in.Price = calculator.RoundPrice(in.Price)
	return in, nil
}

// ParseItemInput converts raw text-field input into a validated NewItem.
// An empty quantity defaults to 1, matching the entry form's initial value.
func ParseItemInput(name, price, quantity string) (NewItem, error) {
	p, err := strconv.ParseFloat(strings.TrimSpace(price), 64)
	if err != nil {
		return NewItem{}, itemError("price", "must be a number")
	}

	q := 1
	if qs := strings.TrimSpace(quantity); qs != "" {
		q, err = strconv.Atoi(qs)
		if err != nil {
			return NewItem{}, itemError("quantity", "must be a whole number")
		}
	}

	return ValidateItem(NewItem{Name: name, Price: p, Quantity: q})
}
