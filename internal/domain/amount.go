package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Amount is a monetary value. The backend serializes amounts inconsistently
// (sometimes a JSON number, sometimes a decimal string), so Amount accepts
// both forms on decode and always emits a number on encode. Coercion happens
// here and nowhere else; by the time a value reaches UI state or arithmetic
// it is already numeric.
type Amount float64

// UnmarshalJSON accepts 350000000, "350000000" and "350000000.50".
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = 0
		return nil
	}

	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return fmt.Errorf("amount: empty string")
		}
		f, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("amount: cannot parse %q: %w", str, err)
		}
		*a = Amount(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = Amount(f)
	return nil
}

// MarshalJSON always emits a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(a))
}

// Float64 returns the plain numeric value.
func (a Amount) Float64() float64 { return float64(a) }

// SumAmounts totals a slice of line items. Safe against NaN propagation
// because every Amount was coerced at decode time.
func SumAmounts(items []LineItem) float64 {
	var total float64
	for _, it := range items {
		total += float64(it.Amount)
	}
	return total
}
