// Package query models the feature query parameters accepted by the
// map service's queryFeatures command.
//
// A query is one of four variants: [Point], [Rect], [Expr] or
// [Condition]. Each embeds the shared [Base] fields and is identified on
// the wire by its querytype tag. Optional fields are pointers; a nil
// field is left out of the payload, while a set zero value is sent.
//
//	q := query.NewCondition("name='wall'",
//		query.WithLimit(100),
//		query.WithGeom(true),
//	)
//	q.Bounds = &query.Bounds{0, 0, 1000, 1000}
//	payload := query.Encode(q)
package query

import "encoding/json"

// Wire values of the querytype discriminator.
const (
	TypePoint     = "point"
	TypeRect      = "rect"
	TypeExpr      = "expresion" // service spelling, do not correct
	TypeCondition = "condition"
)

// Parameter is implemented only by the variants in this package.
type Parameter interface {
	QueryType() string
	isParameter()
}

// Base holds the fields shared by every query variant.
type Base struct {
	Zoom              *int    `wire:"zoom" validate:"omitnil,gte=0"`
	MapID             *string `wire:"mapid"`
	Version           *string `wire:"version"`
	Layer             *string `wire:"layername"`
	Limit             *int    `wire:"maxReturnCount"`
	Fields            *string `wire:"fields"`
	Geom              *bool   `wire:"geom"`
	SimplifyTolerance *bool   `wire:"simplifyTolerance"`
	UseCache          *bool   `wire:"useCache"`
	ToMapCoordinate   *bool   `wire:"toMapCoordinate"`
}

// DefaultBase returns the shared fields with the service defaults
// applied: zoom 1, empty fields, useCache false.
func DefaultBase() Base {
	return Base{
		Zoom:     Ptr(1),
		Fields:   Ptr(""),
		UseCache: Ptr(false),
	}
}

func newBase(opts []Option) Base {
	b := DefaultBase()
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Point selects features around a single map coordinate.
type Point struct {
	Base

	X                float64  `wire:"x"`
	Y                float64  `wire:"y"`
	PixelSize        *int     `wire:"pixelsize"`
	Condition        *string  `wire:"condition"`
	MaxGeomBytesSize *int     `wire:"maxGeomBytesSize"`
	PixelToGeoLength *float64 `wire:"pixelToGeoLength"`
}

// NewPoint builds a point query at x, y with a 5 pixel pick radius.
func NewPoint(x, y float64, opts ...Option) Point {
	return Point{
		Base:      newBase(opts),
		X:         x,
		Y:         y,
		PixelSize: Ptr(5),
	}
}

// Rect selects features inside a rectangle. All four corners should be
// set for the query to be meaningful.
type Rect struct {
	Base

	X1               *float64 `wire:"x1"`
	Y1               *float64 `wire:"y1"`
	X2               *float64 `wire:"x2"`
	Y2               *float64 `wire:"y2"`
	Condition        *string  `wire:"condition"`
	MaxGeomBytesSize *int     `wire:"maxGeomBytesSize"`
}

// NewRect builds a rectangle query spanning (x1, y1)-(x2, y2).
func NewRect(x1, y1, x2, y2 float64, opts ...Option) Rect {
	return Rect{
		Base: newBase(opts),
		X1:   Ptr(x1),
		Y1:   Ptr(y1),
		X2:   Ptr(x2),
		Y2:   Ptr(y2),
	}
}

// Expr selects features with a service-side expression.
type Expr struct {
	Base

	Expr     string `wire:"expr" validate:"required"`
	BeginPos *int   `wire:"beginpos" validate:"omitnil,gte=0"`
}

// NewExpr builds an expression query.
func NewExpr(expr string, opts ...Option) Expr {
	return Expr{
		Base: newBase(opts),
		Expr: expr,
	}
}

// Bounds is a spatial filter as x1, y1, x2, y2.
type Bounds [4]float64

// Condition selects features by attribute predicate, optionally limited
// to Bounds.
type Condition struct {
	Base

	Condition   string  `wire:"condition" validate:"required"`
	Bounds      *Bounds `wire:"bounds"`
	BeginPos    *int    `wire:"beginpos" validate:"omitnil,gte=0"`
	IncludeGeom *bool   `wire:"includegeom"`
	RealGeom    *bool   `wire:"realgeom"`
	IsContains  *bool   `wire:"isContains"`
}

// NewCondition builds a condition query.
func NewCondition(condition string, opts ...Option) Condition {
	return Condition{
		Base:      newBase(opts),
		Condition: condition,
	}
}

func (Point) QueryType() string     { return TypePoint }
func (Rect) QueryType() string      { return TypeRect }
func (Expr) QueryType() string      { return TypeExpr }
func (Condition) QueryType() string { return TypeCondition }

func (Point) isParameter()     {}
func (Rect) isParameter()      {}
func (Expr) isParameter()      {}
func (Condition) isParameter() {}

func (p Point) MarshalJSON() ([]byte, error)     { return json.Marshal(Encode(p)) }
func (p Rect) MarshalJSON() ([]byte, error)      { return json.Marshal(Encode(p)) }
func (p Expr) MarshalJSON() ([]byte, error)      { return json.Marshal(Encode(p)) }
func (p Condition) MarshalJSON() ([]byte, error) { return json.Marshal(Encode(p)) }

// Ptr returns a pointer to v, for setting optional fields inline.
func Ptr[T any](v T) *T {
	return &v
}
