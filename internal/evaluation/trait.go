package evaluation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the value kind a trait is judged on.
type Kind int

const (
	kindUnknown Kind = iota
	// KindBoolean traits are answered with yes/no.
	KindBoolean
	// KindScore traits are answered with a number on the 0-10 scale.
	KindScore
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindScore:
		return "score"
	default:
		return "unknown"
	}
}

// ParseKind parses the textual kind used in job files.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "boolean", "bool":
		return KindBoolean, nil
	case "score", "numeric":
		return KindScore, nil
	default:
		return kindUnknown, fmt.Errorf("unknown trait kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Trait is one evaluation dimension of a job. Traits are never mutated once a run starts.
type Trait struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Kind        Kind   `json:"kind" yaml:"kind"`
	Required    bool   `json:"required" yaml:"required"`
}

// Value is the raw answer of a trait evaluator: a boolean, a number, or
// an answer that could not be interpreted at all.
type Value struct {
	kind Kind
	b    bool
	n    float64
	raw  string
}

// BoolValue wraps a boolean answer.
func BoolValue(b bool) Value { return Value{kind: KindBoolean, b: b} }

// ScoreValue wraps a numeric answer.
func ScoreValue(n float64) Value { return Value{kind: KindScore, n: n} }

// InvalidValue keeps the raw text of an answer that could not be interpreted.
func InvalidValue(raw string) Value { return Value{raw: raw} }

// Kind reports which variant the value holds. Invalid values report "unknown".
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload and whether the value is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBoolean }

// Number returns the numeric payload and whether the value is a number.
func (v Value) Number() (float64, bool) { return v.n, v.kind == KindScore }

// Valid reports whether the value holds a boolean or a number.
func (v Value) Valid() bool { return v.kind == KindBoolean || v.kind == KindScore }

// Truthy is true for a boolean true or for a number above zero once clamped.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindBoolean:
		return v.b
	case KindScore:
		return !math.IsNaN(v.n) && v.n > 0
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindScore:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	default:
		return v.raw
	}
}

// MarshalJSON encodes the value as a JSON bool, number, or the raw string
// for invalid answers. NaN and infinities are encoded as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBoolean:
		return json.Marshal(v.b)
	case KindScore:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return json.Marshal(v.String())
		}
		return json.Marshal(v.n)
	default:
		return json.Marshal(v.raw)
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	switch typed := decoded.(type) {
	case bool:
		*v = BoolValue(typed)
	case float64:
		*v = ScoreValue(typed)
	case string:
		*v = InvalidValue(typed)
	case nil:
		*v = Value{}
	default:
		*v = InvalidValue(string(data))
	}
	return nil
}

// MarshalYAML renders the value with its natural YAML type.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindBoolean:
		return v.b, nil
	case KindScore:
		return v.n, nil
	default:
		return v.raw, nil
	}
}

// Judgment is the raw output of a trait evaluator.
type Judgment struct {
	Value     Value
	Rationale string
}

// FitVerdict is the holistic compatibility judgment, scored 0-4.
type FitVerdict struct {
	Score     int    `json:"score" yaml:"score"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

const (
	MinFitScore = 0
	MaxFitScore = 4
)

func (f FitVerdict) clamped() FitVerdict {
	if f.Score < MinFitScore {
		f.Score = MinFitScore
	}
	if f.Score > MaxFitScore {
		f.Score = MaxFitScore
	}
	return f
}
