package query_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/adamwoolhether/vjmap/internal/validate"
	"github.com/adamwoolhether/vjmap/query"
	"github.com/google/go-cmp/cmp"
)

func TestEncode_DefaultBaseOnly(t *testing.T) {
	// An Expr carries the base defaults plus its two required keys;
	// stripping those leaves exactly what the base contributes.
	got := query.Encode(query.NewExpr("x"))
	delete(got, "querytype")
	delete(got, "expr")

	exp := map[string]any{
		"zoom":     1,
		"fields":   "",
		"useCache": false,
	}

	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("encoded base mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_BaseWithoutFields(t *testing.T) {
	// Fields set to nil explicitly: only zoom and useCache remain.
	q := query.NewExpr("x")
	q.Fields = nil

	got := query.Encode(q)
	delete(got, "querytype")
	delete(got, "expr")

	exp := map[string]any{"zoom": 1, "useCache": false}
	if diff := cmp.Diff(exp, got); diff != "" {
		t.Errorf("encoded base mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode(t *testing.T) {
	testCases := map[string]struct {
		param query.Parameter
		exp   map[string]any
	}{
		"point": {
			param: query.NewPoint(10.5, -3),
			exp: map[string]any{
				"querytype": "point",
				"zoom":      1,
				"fields":    "",
				"useCache":  false,
				"x":         10.5,
				"y":         float64(-3),
				"pixelsize": 5,
			},
		},
		"pointAllFields": {
			param: func() query.Parameter {
				p := query.NewPoint(1, 2,
					query.WithZoom(0),
					query.WithMapID("sys_zp"),
					query.WithVersion("v1"),
					query.WithLayer("0"),
					query.WithLimit(50),
					query.WithFields("objectid,name"),
					query.WithGeom(false),
					query.WithSimplifyTolerance(true),
					query.WithUseCache(true),
					query.WithToMapCoordinate(false),
				)
				p.PixelSize = query.Ptr(0)
				p.Condition = query.Ptr("")
				p.MaxGeomBytesSize = query.Ptr(1024)
				p.PixelToGeoLength = query.Ptr(0.25)
				return p
			}(),
			exp: map[string]any{
				"querytype":         "point",
				"zoom":              0,
				"mapid":             "sys_zp",
				"version":           "v1",
				"layername":         "0",
				"maxReturnCount":    50,
				"fields":            "objectid,name",
				"geom":              false,
				"simplifyTolerance": true,
				"useCache":          true,
				"toMapCoordinate":   false,
				"x":                 float64(1),
				"y":                 float64(2),
				"pixelsize":         0,
				"condition":         "",
				"maxGeomBytesSize":  1024,
				"pixelToGeoLength":  0.25,
			},
		},
		"rect": {
			param: query.NewRect(0, 0, 100, 50, query.WithLimit(10)),
			exp: map[string]any{
				"querytype":      "rect",
				"zoom":           1,
				"fields":         "",
				"useCache":       false,
				"maxReturnCount": 10,
				"x1":             float64(0),
				"y1":             float64(0),
				"x2":             float64(100),
				"y2":             float64(50),
			},
		},
		"rectPartialCorners": {
			param: query.Rect{Base: query.DefaultBase(), X1: query.Ptr(5.0)},
			exp: map[string]any{
				"querytype": "rect",
				"zoom":      1,
				"fields":    "",
				"useCache":  false,
				"x1":        5.0,
			},
		},
		"expr": {
			param: func() query.Parameter {
				e := query.NewExpr("gOutReturn := if((gInFeatureType == 'AcDbLine'), 1, 0);")
				e.BeginPos = query.Ptr(0)
				return e
			}(),
			exp: map[string]any{
				"querytype": "expresion",
				"zoom":      1,
				"fields":    "",
				"useCache":  false,
				"expr":      "gOutReturn := if((gInFeatureType == 'AcDbLine'), 1, 0);",
				"beginpos":  0,
			},
		},
		"conditionNoBounds": {
			param: query.NewCondition("name='ABC'"),
			exp: map[string]any{
				"querytype": "condition",
				"zoom":      1,
				"fields":    "",
				"useCache":  false,
				"condition": "name='ABC'",
				"bounds":    "",
			},
		},
		"conditionWithBounds": {
			param: func() query.Parameter {
				c := query.NewCondition("layerindex=1", query.WithGeom(true))
				c.Bounds = &query.Bounds{1, 2, 3, 4}
				c.IncludeGeom = query.Ptr(true)
				c.RealGeom = query.Ptr(false)
				c.IsContains = query.Ptr(true)
				return c
			}(),
			exp: map[string]any{
				"querytype":   "condition",
				"zoom":        1,
				"fields":      "",
				"useCache":    false,
				"geom":        true,
				"condition":   "layerindex=1",
				"bounds":      "[1.0, 2.0, 3.0, 4.0]",
				"includegeom": true,
				"realgeom":    false,
				"isContains":  true,
			},
		},
		"pointerVariant": {
			param: &query.Expr{Expr: "1"},
			exp: map[string]any{
				"querytype": "expresion",
				"expr":      "1",
			},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got := query.Encode(tc.param)
			if diff := cmp.Diff(tc.exp, got); diff != "" {
				t.Errorf("encoded mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncode_NilPointer(t *testing.T) {
	var p *query.Point
	if got := query.Encode(p); got != nil {
		t.Errorf("exp nil map, got %v", got)
	}
}

func TestExpr_LegacyTag(t *testing.T) {
	e := query.NewExpr("a")
	if e.QueryType() != "expresion" {
		t.Errorf("exp legacy tag, got %q", e.QueryType())
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if m["querytype"] != "expresion" {
		t.Errorf("exp querytype expresion on the wire, got %v", m["querytype"])
	}
}

func TestMarshalJSON_OmitsUnset(t *testing.T) {
	data, err := json.Marshal(query.NewPoint(1, 2))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"mapid", "version", "layername", "maxReturnCount", "geom", "condition"} {
		if _, ok := m[key]; ok {
			t.Errorf("unset key %q must be absent, payload: %s", key, data)
		}
	}
}

func TestBounds_String(t *testing.T) {
	testCases := map[string]struct {
		bounds *query.Bounds
		exp    string
	}{
		"nil":       {bounds: nil, exp: ""},
		"integers":  {bounds: &query.Bounds{1, 2, 3, 4}, exp: "[1.0, 2.0, 3.0, 4.0]"},
		"fractions": {bounds: &query.Bounds{-0.5, 1.25, 587464.123, 3391582.5}, exp: "[-0.5, 1.25, 587464.123, 3391582.5]"},
		"zero":      {bounds: &query.Bounds{}, exp: "[0.0, 0.0, 0.0, 0.0]"},
		"exponents": {bounds: &query.Bounds{1e16, 1.5e-5, 0.0001, 1e15}, exp: "[1e+16, 1.5e-05, 0.0001, 1000000000000000.0]"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if got := tc.bounds.String(); got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		param     query.Parameter
		expFields []string
		expErr    error
	}{
		"validPoint":     {param: query.NewPoint(1, 2)},
		"validRect":      {param: query.NewRect(0, 0, 1, 1)},
		"validExpr":      {param: query.NewExpr("1")},
		"validCondition": {param: query.NewCondition("a=1")},
		"emptyExpr": {
			param:     query.NewExpr(""),
			expFields: []string{"expr"},
		},
		"emptyCondition": {
			param:     query.NewCondition(""),
			expFields: []string{"condition"},
		},
		"negativeZoom": {
			param:     query.NewPoint(1, 2, query.WithZoom(-1)),
			expFields: []string{"zoom"},
		},
		"zeroLimit": {param: query.NewRect(0, 0, 1, 1, query.WithLimit(0))},
		"zeroPixelSize": {
			param: func() query.Parameter {
				p := query.NewPoint(1, 2)
				p.PixelSize = query.Ptr(0)
				p.MaxGeomBytesSize = query.Ptr(0)
				p.PixelToGeoLength = query.Ptr(0.0)
				return p
			}(),
		},
		"negativeBeginPos": {
			param: func() query.Parameter {
				c := query.NewCondition("a=1")
				c.BeginPos = query.Ptr(-5)
				return c
			}(),
			expFields: []string{"beginpos"},
		},
		"nilPointer": {
			param:  (*query.Condition)(nil),
			expErr: query.ErrNilParameter,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := query.Validate(tc.param)

			switch {
			case tc.expErr != nil:
				if !errors.Is(err, tc.expErr) {
					t.Fatalf("exp %v, got %v", tc.expErr, err)
				}
			case tc.expFields == nil:
				if err != nil {
					t.Fatalf("exp nil err, got: %v", err)
				}
			default:
				var fe validate.FieldErrors
				if !errors.As(err, &fe) {
					t.Fatalf("exp FieldErrors, got %T: %v", err, err)
				}
				var got []string
				for _, f := range fe {
					got = append(got, f.Field)
				}
				if diff := cmp.Diff(tc.expFields, got); diff != "" {
					t.Errorf("failed fields mismatch (-want +got):\n%s", diff)
				}
			}
		})
	}
}
