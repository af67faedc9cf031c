package records

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Outcome is the result of coercing one raw value.
type Outcome int

const (
	// Parsed means the value converted cleanly.
	Parsed Outcome = iota
	// Missing means the source had no value (absent, null or NaN).
	Missing
	// Invalid means a value was present but could not be converted; it became null.
	Invalid
	// Defaulted means a missing or invalid value was replaced by a default.
	Defaulted
)

func (o Outcome) String() string {
	switch o {
	case Parsed:
		return "parsed"
	case Missing:
		return "missing"
	case Invalid:
		return "invalid"
	case Defaulted:
		return "defaulted"
	}
	return "unknown"
}

// FieldCounts tallies outcomes for one field.
type FieldCounts struct {
	Parsed    int
	Missing   int
	Invalid   int
	Defaulted int
}

// Report accumulates coercion outcomes keyed by "entity.field".
// It is not safe for concurrent use.
type Report struct {
	counts map[string]*FieldCounts
}

func NewReport() *Report {
	return &Report{counts: make(map[string]*FieldCounts)}
}

// Record adds one outcome for field.
func (r *Report) Record(field string, o Outcome) {
	if r == nil {
		return
	}
	c, ok := r.counts[field]
	if !ok {
		c = &FieldCounts{}
		r.counts[field] = c
	}
	switch o {
	case Parsed:
		c.Parsed++
	case Missing:
		c.Missing++
	case Invalid:
		c.Invalid++
	case Defaulted:
		c.Defaulted++
	}
}

// Get returns the counts for field (zero value if never recorded).
func (r *Report) Get(field string) FieldCounts {
	if c, ok := r.counts[field]; ok {
		return *c
	}
	return FieldCounts{}
}

// Fields returns the recorded field names in sorted order.
func (r *Report) Fields() []string {
	names := make([]string, 0, len(r.counts))
	for name := range r.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LogValue lists only the fields that had a non-parsed outcome.
func (r *Report) LogValue() slog.Value {
	var attrs []slog.Attr
	for _, name := range r.Fields() {
		c := r.counts[name]
		if c.Missing == 0 && c.Invalid == 0 && c.Defaulted == 0 {
			continue
		}
		attrs = append(attrs, slog.String(name,
			fmt.Sprintf("missing=%d invalid=%d defaulted=%d", c.Missing, c.Invalid, c.Defaulted)))
	}
	return slog.GroupValue(attrs...)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Float coerces a loosely typed value to float64.
func Float(v any) (mo.Option[float64], Outcome) {
	switch x := v.(type) {
	case nil:
		return mo.None[float64](), Missing
	case float64:
		if math.IsNaN(x) {
			return mo.None[float64](), Missing
		}
		return mo.Some(x), Parsed
	case float32:
		if math.IsNaN(float64(x)) {
			return mo.None[float64](), Missing
		}
		return mo.Some(float64(x)), Parsed
	case int:
		return mo.Some(float64(x)), Parsed
	case int32:
		return mo.Some(float64(x)), Parsed
	case int64:
		return mo.Some(float64(x)), Parsed
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return mo.None[float64](), Invalid
		}
		return mo.Some(f), Parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return mo.None[float64](), Missing
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return mo.None[float64](), Invalid
		}
		return mo.Some(f), Parsed
	}
	return mo.None[float64](), Invalid
}

// Int coerces a loosely typed value to int64. Floats must be integral and
// inside the int64 range.
func Int(v any) (mo.Option[int64], Outcome) {
	switch x := v.(type) {
	case int:
		return mo.Some(int64(x)), Parsed
	case int32:
		return mo.Some(int64(x)), Parsed
	case int64:
		return mo.Some(x), Parsed
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return mo.None[int64](), Missing
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return mo.Some(n), Parsed
		}
	}
	f, outcome := Float(v)
	if outcome != Parsed {
		return mo.None[int64](), outcome
	}
	n := f.MustGet()
	if n != math.Trunc(n) || n >= int64Bound || n < -int64Bound {
		return mo.None[int64](), Invalid
	}
	return mo.Some(int64(n)), Parsed
}

// int64Bound is 2^63, the first float64 beyond the int64 range.
const int64Bound = float64(1 << 63)

// Int32 is Int limited to the range of a PostgreSQL INTEGER column. Values
// outside it are invalid.
func Int32(v any) (mo.Option[int64], Outcome) {
	n, outcome := Int(v)
	if outcome != Parsed {
		return n, outcome
	}
	if x := n.MustGet(); x < math.MinInt32 || x > math.MaxInt32 {
		return mo.None[int64](), Invalid
	}
	return n, Parsed
}

// String coerces a loosely typed value to a string. Empty strings are missing.
func String(v any) (mo.Option[string], Outcome) {
	switch x := v.(type) {
	case nil:
		return mo.None[string](), Missing
	case string:
		if x == "" {
			return mo.None[string](), Missing
		}
		return mo.Some(x), Parsed
	case float64:
		if math.IsNaN(x) {
			return mo.None[string](), Missing
		}
		return mo.Some(strconv.FormatFloat(x, 'f', -1, 64)), Parsed
	case int, int32, int64:
		return mo.Some(fmt.Sprint(x)), Parsed
	case primitive.ObjectID:
		return mo.Some(x.Hex()), Parsed
	}
	return mo.None[string](), Invalid
}

// Time coerces a loosely typed value to a UTC time.
func Time(v any) (mo.Option[time.Time], Outcome) {
	switch x := v.(type) {
	case nil:
		return mo.None[time.Time](), Missing
	case time.Time:
		return mo.Some(x.UTC()), Parsed
	case primitive.DateTime:
		return mo.Some(x.Time().UTC()), Parsed
	case float64:
		if math.IsNaN(x) {
			return mo.None[time.Time](), Missing
		}
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return mo.None[time.Time](), Missing
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return mo.Some(t.UTC()), Parsed
			}
		}
	}
	return mo.None[time.Time](), Invalid
}

func ptr[T any](o mo.Option[T]) *T {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}
