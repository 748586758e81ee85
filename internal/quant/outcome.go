package quant

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
)

// Outcome is a statistical sub-result that is either computed or not
// applicable for a stated reason. The zero value is not applicable with an
// empty reason.
type Outcome[T any] struct {
	value  *T
	reason string
}

// Computed wraps a computed value.
func Computed[T any](v T) Outcome[T] { return Outcome[T]{value: &v} }

// NotApplicable records why a value could not be computed.
func NotApplicable[T any](reason string) Outcome[T] { return Outcome[T]{reason: reason} }

// Get returns the value and whether it was computed.
func (o Outcome[T]) Get() (T, bool) {
	if o.value == nil {
		var zero T
		return zero, false
	}
	return *o.value, true
}

// Reason returns the not-applicable reason, or "" when computed.
func (o Outcome[T]) Reason() string { return o.reason }

// MarshalJSON renders the value, or the reason as a JSON string.
func (o Outcome[T]) MarshalJSON() ([]byte, error) {
	if o.value == nil {
		return json.Marshal(o.reason)
	}
	return json.Marshal(*o.value)
}

// UnmarshalJSON accepts either form.
func (o *Outcome[T]) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			var probe T
			// a string-typed T still decodes as a value
			if _, isString := any(probe).(string); !isString {
				*o = NotApplicable[T](s)
				return nil
			}
		}
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*o = Computed(v)
	return nil
}

// Common not-applicable reasons.
const (
	ReasonOneCity       = "N/A (only 1 city)"
	ReasonOneCuisine    = "N/A (only 1 cuisine)"
	ReasonOneRestaurant = "N/A (only 1 restaurant)"
	ReasonFewGroups     = "N/A (not enough groups)"
	ReasonInsufficient  = "N/A (insufficient data)"
	ReasonConstant      = "N/A (constant input)"
	ReasonNoData        = "N/A (no data)"
)

// Float is a float64 that encodes NaN as null and infinities as "+Inf"/"-Inf".
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	switch {
	case math.IsNaN(v):
		return []byte("null"), nil
	case math.IsInf(v, 1):
		return []byte(`"+Inf"`), nil
	case math.IsInf(v, -1):
		return []byte(`"-Inf"`), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case "null":
		*f = Float(math.NaN())
		return nil
	case `"+Inf"`:
		*f = Float(math.Inf(1))
		return nil
	case `"-Inf"`:
		*f = Float(math.Inf(-1))
		return nil
	}
	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*f = Float(v)
	return nil
}
