package recipe

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Defaults substituted for absent or malformed fields of model output.
const (
	DefaultID         = "local-vision"
	DefaultTitle      = "AI Image Recipe"
	DefaultImage      = "https://images.unsplash.com/photo-1504674900247-0877df9cc836?w=1080&q=80&auto=format&fit=crop"
	DefaultCookTime   = 25
	DefaultServings   = 2
	DefaultDifficulty = DifficultyEasy
	DefaultCalories   = 420
	DefaultCost       = 12
	DefaultTag        = "Image-based"
)

// DefaultNutrition is used field by field when nutrition values are missing.
var DefaultNutrition = Nutrition{
	Protein: 20,
	Carbs:   40,
	Fat:     10,
	Fiber:   5,
	Sugar:   6,
	Sodium:  320,
}

// Status tags whether model output yielded a JSON object.
type Status string

const (
	// StatusOK means a JSON object was recovered; individual fields may still be defaulted.
	StatusOK Status = "ok"
	// StatusDefault means nothing usable was found and the record is all defaults.
	StatusDefault Status = "default"
)

// Source records which parse step produced the object.
type Source string

const (
	// SourceDirect is a successful parse of the whole text.
	SourceDirect Source = "direct"
	// SourceExtracted is a successful parse of the outermost braces.
	SourceExtracted Source = "extracted"
	// SourceNone means neither step produced an object.
	SourceNone Source = "none"
)

// Result is the outcome of Coerce. Record is always fully populated.
type Result struct {
	Record    Recipe
	Status    Status
	Source    Source
	Defaulted []string
}

// Option adjusts a single Coerce call.
type Option func(*coerceConfig)

type coerceConfig struct {
	fallbackID func() string
}

// WithFallbackID sets how the id is produced when the output carries none.
// fn is only called in that case; an empty result keeps DefaultID.
func WithFallbackID(fn func() string) Option {
	return func(c *coerceConfig) {
		if fn != nil {
			c.fallbackID = fn
		}
	}
}

func (c coerceConfig) defaultID() string {
	if c.fallbackID != nil {
		if id := c.fallbackID(); id != "" {
			return id
		}
	}
	return DefaultID
}

// objectPattern is greedy on purpose: first '{' to last '}'.
var objectPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// Coerce turns free-form model output into a recipe. It never fails: whatever cannot be
// parsed or has the wrong type is replaced by the documented default.
func Coerce(raw, fallbackTag string, opts ...Option) Result {
	var cfg coerceConfig
	for _, o := range opts {
		o(&cfg)
	}

	data, source := parseObject(raw)
	c := &coercer{data: data}

	fallbackTags := []string{DefaultTag}
	if tag := strings.TrimSpace(fallbackTag); tag != "" {
		fallbackTags = []string{tag}
	}

	nutrition := c.object("nutrition")
	nc := &coercer{data: nutrition, prefix: "nutrition."}

	rec := Recipe{
		ID:           c.textFunc("id", cfg.defaultID),
		Title:        c.text("title", DefaultTitle),
		Image:        c.text("image", DefaultImage),
		CookTime:     c.integer("cookTime", DefaultCookTime),
		Servings:     c.integer("servings", DefaultServings),
		Difficulty:   c.text("difficulty", DefaultDifficulty),
		Calories:     c.integer("calories", DefaultCalories),
		Cost:         c.integer("cost", DefaultCost),
		Ingredients:  c.list("ingredients", []string{}),
		Instructions: c.list("instructions", []string{}),
		Nutrition: Nutrition{
			Protein: nc.integer("protein", DefaultNutrition.Protein),
			Carbs:   nc.integer("carbs", DefaultNutrition.Carbs),
			Fat:     nc.integer("fat", DefaultNutrition.Fat),
			Fiber:   nc.integer("fiber", DefaultNutrition.Fiber),
			Sugar:   nc.integer("sugar", DefaultNutrition.Sugar),
			Sodium:  nc.integer("sodium", DefaultNutrition.Sodium),
		},
		Tags: c.list("tags", fallbackTags),
	}

	status := StatusOK
	if source == SourceNone {
		status = StatusDefault
	}

	return Result{
		Record:    rec,
		Status:    status,
		Source:    source,
		Defaulted: append(c.defaulted, nc.defaulted...),
	}
}

// parseObject tries the whole text, then the outermost brace span.
// A top-level value that is not an object counts as a failed parse.
func parseObject(raw string) (map[string]any, Source) {
	if obj, ok := decodeObject(raw); ok {
		return obj, SourceDirect
	}
	if span := objectPattern.FindString(raw); span != "" {
		if obj, ok := decodeObject(span); ok {
			return obj, SourceExtracted
		}
	}
	return map[string]any{}, SourceNone
}

func decodeObject(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	obj, ok := v.(map[string]any)
	return obj, ok
}

type coercer struct {
	data      map[string]any
	prefix    string
	defaulted []string
}

func (c *coercer) miss(key string) {
	c.defaulted = append(c.defaulted, c.prefix+key)
}

// text accepts non-empty strings; numbers are rendered, anything else falls back.
func (c *coercer) text(key, def string) string {
	switch v := c.data[key].(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	c.miss(key)
	return def
}

// textFunc is text with a default computed only when needed.
func (c *coercer) textFunc(key string, def func() string) string {
	if v := c.text(key, ""); v != "" {
		return v
	}
	return def()
}

func (c *coercer) integer(key string, def int) int {
	if n, ok := ToInt(c.data[key]); ok {
		return n
	}
	c.miss(key)
	return def
}

// list accepts a non-empty array (scalars are stringified, other elements dropped)
// or a single non-empty string.
func (c *coercer) list(key string, def []string) []string {
	switch v := c.data[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := scalarString(item); ok {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	case string:
		if strings.TrimSpace(v) != "" {
			return []string{v}
		}
	}
	c.miss(key)
	return def
}

func (c *coercer) object(key string) map[string]any {
	if m, ok := c.data[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, x != ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// ToInt converts a JSON scalar to the nearest integer, rounding halves to even.
// Strings are parsed as floats after trimming; NaN and infinities are rejected.
func ToInt(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	r := math.RoundToEven(f)
	if r > math.MaxInt32 || r < math.MinInt32 {
		return 0, false
	}
	return int(r), true
}

// String renders a short summary for logs.
func (r Result) String() string {
	return fmt.Sprintf("status=%s source=%s defaulted=%d", r.Status, r.Source, len(r.Defaulted))
}
