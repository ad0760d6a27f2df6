package query

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/adamwoolhether/vjmap/internal/validate"
)

// ErrNilParameter is returned when a nil variant pointer is validated.
var ErrNilParameter = errors.New("query parameter must not be nil")

// entry is one candidate wire field. Unset entries are dropped by compact.
type entry struct {
	key string
	val any
	set bool
}

func opt[T any](key string, p *T) entry {
	if p == nil {
		return entry{key: key}
	}
	return entry{key: key, val: *p, set: true}
}

func val(key string, v any) entry {
	return entry{key: key, val: v, set: true}
}

// Encode flattens p into the mapping sent as the queryFeatures body.
// Unset optional fields are omitted; the querytype tag is always present.
func Encode(p Parameter) map[string]any {
	p, ok := deref(p)
	if !ok {
		return nil
	}

	var entries []entry
	switch q := p.(type) {
	case Point:
		entries = append(baseEntries(q.Base),
			val("querytype", TypePoint),
			val("x", q.X),
			val("y", q.Y),
			opt("pixelsize", q.PixelSize),
			opt("condition", q.Condition),
			opt("maxGeomBytesSize", q.MaxGeomBytesSize),
			opt("pixelToGeoLength", q.PixelToGeoLength),
		)
	case Rect:
		entries = append(baseEntries(q.Base),
			val("querytype", TypeRect),
			opt("x1", q.X1),
			opt("y1", q.Y1),
			opt("x2", q.X2),
			opt("y2", q.Y2),
			opt("condition", q.Condition),
			opt("maxGeomBytesSize", q.MaxGeomBytesSize),
		)
	case Expr:
		entries = append(baseEntries(q.Base),
			val("querytype", TypeExpr),
			val("expr", q.Expr),
			opt("beginpos", q.BeginPos),
		)
	case Condition:
		entries = append(baseEntries(q.Base),
			val("querytype", TypeCondition),
			val("condition", q.Condition),
			val("bounds", q.Bounds.String()),
			opt("beginpos", q.BeginPos),
			opt("includegeom", q.IncludeGeom),
			opt("realgeom", q.RealGeom),
			opt("isContains", q.IsContains),
		)
	}

	return compact(entries)
}

// Validate checks p against the field constraints of its variant.
func Validate(p Parameter) error {
	p, ok := deref(p)
	if !ok {
		return ErrNilParameter
	}

	return validate.Check(p)
}

func baseEntries(b Base) []entry {
	return []entry{
		opt("zoom", b.Zoom),
		opt("mapid", b.MapID),
		opt("version", b.Version),
		opt("layername", b.Layer),
		opt("maxReturnCount", b.Limit),
		opt("fields", b.Fields),
		opt("geom", b.Geom),
		opt("simplifyTolerance", b.SimplifyTolerance),
		opt("useCache", b.UseCache),
		opt("toMapCoordinate", b.ToMapCoordinate),
	}
}

func compact(entries []entry) map[string]any {
	m := make(map[string]any, len(entries))
	for _, e := range entries {
		if e.set {
			m[e.key] = e.val
		}
	}
	return m
}

// deref unwraps pointer variants so callers may pass either form.
func deref(p Parameter) (Parameter, bool) {
	switch q := p.(type) {
	case nil:
		return nil, false
	case *Point:
		if q == nil {
			return nil, false
		}
		return *q, true
	case *Rect:
		if q == nil {
			return nil, false
		}
		return *q, true
	case *Expr:
		if q == nil {
			return nil, false
		}
		return *q, true
	case *Condition:
		if q == nil {
			return nil, false
		}
		return *q, true
	}
	return p, true
}

// String renders b the way the service expects it inside a condition
// query: a JSON array literal with every number carrying a fraction or
// exponent, e.g. "[1.0, 2.0, 3.0, 4.0]". A nil Bounds renders as "".
func (b *Bounds) String() string {
	if b == nil {
		return ""
	}

	parts := make([]string, len(b))
	for i, f := range b {
		parts[i] = formatFloat(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatFloat uses the shortest round-trip form and switches to
// exponent notation outside [1e-4, 1e16), matching the service's own
// JSON encoder.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
