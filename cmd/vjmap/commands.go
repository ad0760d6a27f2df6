package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/adamwoolhether/vjmap"
	"github.com/adamwoolhether/vjmap/client"
	"github.com/adamwoolhether/vjmap/hasher"
	"github.com/adamwoolhether/vjmap/query"
	"github.com/spf13/pflag"
)

type command struct {
	usage   string
	summary string
	run     func(ctx context.Context, e *env, args []string) error
}

var commandOrder = []string{"md5", "uploaded", "upload", "open", "list", "bounds", "metadata", "close", "query", "tile", "thumbnail"}

var commands = map[string]command{
	"md5":       {usage: "<file>", summary: "print the upload digest of a file", run: runMD5},
	"uploaded":  {usage: "<file>", summary: "check whether a file is already stored", run: runUploaded},
	"upload":    {usage: "<file>", summary: "upload a map file", run: runUpload},
	"open":      {usage: "<mapid> [--version V] [--style S]", summary: "open a map", run: runOpen},
	"list":      {usage: "<mapid> <version>", summary: "list map versions and styles", run: mapCmd((*vjmap.Client).ListMaps)},
	"bounds":    {usage: "<mapid> <version>", summary: "print the data bounds of a map", run: mapCmd((*vjmap.Client).GetDataBounds)},
	"metadata":  {usage: "<mapid> <version> [--geom]", summary: "print map metadata", run: runMetadata},
	"close":     {usage: "<mapid> <version>", summary: "close an open map", run: mapCmd((*vjmap.Client).CloseMap)},
	"query":     {usage: "<mapid> <version> (--expr E | --condition C [--bounds x1,y1,x2,y2] | --point x,y | --rect x1,y1,x2,y2)", summary: "query features", run: runQuery},
	"tile":      {usage: "<mapid> <version> <style> <z> <x> <y> -o file [--mvt] [--tag T] [--md5 HEX]", summary: "save a map tile", run: runTile},
	"thumbnail": {usage: "<mapid> <version> -o file [--width N] [--height N] [--dark]", summary: "save a map thumbnail", run: runThumbnail},
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// parse parses a subcommand's flags and checks the positional count.
func parse(fs *pflag.FlagSet, args []string, nargs int) ([]string, error) {
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		return nil, usagef("%v", err)
	}

	pos := fs.Args()
	if len(pos) != nargs {
		return nil, usagef("expected %d argument(s), got %d", nargs, len(pos))
	}
	return pos, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMD5(_ context.Context, e *env, args []string) error {
	pos, err := parse(pflag.NewFlagSet("md5", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}

	sum, err := hasher.File(pos[0])
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(e.stdout, sum)
	return err
}

func runUploaded(ctx context.Context, e *env, args []string) error {
	pos, err := parse(pflag.NewFlagSet("uploaded", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	res, err := c.MapFileUploaded(ctx, pos[0])
	if err != nil {
		return err
	}
	return printJSON(e.stdout, res)
}

func runUpload(ctx context.Context, e *env, args []string) error {
	pos, err := parse(pflag.NewFlagSet("upload", pflag.ContinueOnError), args, 1)
	if err != nil {
		return err
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	res, err := c.UploadMap(ctx, pos[0])
	if err != nil {
		return err
	}
	return printJSON(e.stdout, res)
}

func runOpen(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("open", pflag.ContinueOnError)
	version := fs.String("version", "", "map version")
	style := fs.String("style", "", "style name")

	pos, err := parse(fs, args, 1)
	if err != nil {
		return err
	}

	var opts []vjmap.CallOption
	if *version != "" {
		opts = append(opts, vjmap.WithQuery("version", *version))
	}
	if *style != "" {
		opts = append(opts, vjmap.WithQuery("style", *style))
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	res, err := c.OpenMap(ctx, pos[0], opts...)
	if err != nil {
		return err
	}
	return printJSON(e.stdout, res)
}

type mapOp func(c *vjmap.Client, ctx context.Context, mapID, version string, opts ...vjmap.CallOption) (vjmap.Result, error)

// mapCmd adapts an operation taking only a map ID and version.
func mapCmd(op mapOp) func(ctx context.Context, e *env, args []string) error {
	return func(ctx context.Context, e *env, args []string) error {
		pos, err := parse(pflag.NewFlagSet("map", pflag.ContinueOnError), args, 2)
		if err != nil {
			return err
		}

		c, err := e.client()
		if err != nil {
			return err
		}

		res, err := op(c, ctx, pos[0], pos[1])
		if err != nil {
			return err
		}
		return printJSON(e.stdout, res)
	}
}

func runMetadata(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("metadata", pflag.ContinueOnError)
	geom := fs.Bool("geom", false, "include geometry information")

	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	res, err := c.GetMetadata(ctx, pos[0], pos[1], *geom)
	if err != nil {
		return err
	}
	return printJSON(e.stdout, res)
}

func runQuery(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("query", pflag.ContinueOnError)
	expr := fs.String("expr", "", "expression query")
	cond := fs.String("condition", "", "attribute condition")
	bounds := fs.String("bounds", "", "condition bounds x1,y1,x2,y2")
	point := fs.String("point", "", "point query x,y")
	rect := fs.String("rect", "", "rect query x1,y1,x2,y2")
	limit := fs.Int("limit", 0, "maximum number of features returned")
	geom := fs.Bool("geom", false, "return geometry")

	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}

	var opts []query.Option
	if fs.Changed("limit") {
		opts = append(opts, query.WithLimit(*limit))
	}
	if fs.Changed("geom") {
		opts = append(opts, query.WithGeom(*geom))
	}

	p, err := buildQuery(fs, *expr, *cond, *bounds, *point, *rect, opts)
	if err != nil {
		return err
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	res, err := c.QueryFeatures(ctx, pos[0], pos[1], p)
	if err != nil {
		return err
	}
	return printJSON(e.stdout, res)
}

// buildQuery picks the query variant from the flags that were set.
// --condition may narrow a point or rect query.
func buildQuery(fs *pflag.FlagSet, expr, cond, bounds, point, rect string, opts []query.Option) (query.Parameter, error) {
	var kinds []string
	for _, name := range []string{"expr", "point", "rect"} {
		if fs.Changed(name) {
			kinds = append(kinds, "--"+name)
		}
	}
	if len(kinds) > 1 {
		return nil, usagef("%s are mutually exclusive", strings.Join(kinds, " and "))
	}

	switch {
	case fs.Changed("point"):
		xy, err := parseFloats(point, 2)
		if err != nil {
			return nil, usagef("--point: %v", err)
		}
		q := query.NewPoint(xy[0], xy[1], opts...)
		if fs.Changed("condition") {
			q.Condition = query.Ptr(cond)
		}
		return q, nil

	case fs.Changed("rect"):
		r, err := parseFloats(rect, 4)
		if err != nil {
			return nil, usagef("--rect: %v", err)
		}
		q := query.NewRect(r[0], r[1], r[2], r[3], opts...)
		if fs.Changed("condition") {
			q.Condition = query.Ptr(cond)
		}
		return q, nil

	case fs.Changed("expr"):
		if fs.Changed("condition") {
			return nil, usagef("--expr and --condition are mutually exclusive")
		}
		return query.NewExpr(expr, opts...), nil

	case fs.Changed("condition"):
		q := query.NewCondition(cond, opts...)
		if fs.Changed("bounds") {
			b, err := parseFloats(bounds, 4)
			if err != nil {
				return nil, usagef("--bounds: %v", err)
			}
			q.Bounds = &query.Bounds{b[0], b[1], b[2], b[3]}
		}
		return q, nil
	}

	return nil, usagef("one of --expr, --condition, --point or --rect is required")
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}

	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", p, err)
		}
		out[i] = f
	}
	return out, nil
}

func runTile(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("tile", pflag.ContinueOnError)
	out := fs.StringP("output", "o", "", "destination file")
	mvt := fs.Bool("mvt", false, "fetch a vector tile")
	tag := fs.String("tag", "", "map version tag")
	sum := fs.String("md5", "", "expected MD5 of the tile")

	pos, err := parse(fs, args, 6)
	if err != nil {
		return err
	}
	if *out == "" {
		return usagef("-o is required")
	}

	zxy := make([]int, 3)
	for i, s := range pos[3:] {
		if zxy[i], err = strconv.Atoi(s); err != nil {
			return usagef("tile coordinate %q is not an integer", s)
		}
	}

	tile := vjmap.TileRequest{
		MapID:   pos[0],
		Version: pos[1],
		Style:   pos[2],
		Z:       zxy[0],
		X:       zxy[1],
		Y:       zxy[2],
		Tag:     *tag,
		MVT:     *mvt,
	}

	dlOpts := []vjmap.DownloadOption{client.WithProgress()}
	if *sum != "" {
		dlOpts = append(dlOpts, client.WithMD5(*sum))
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	if err := c.SaveTile(ctx, tile, *out, dlOpts...); err != nil {
		return err
	}

	e.logger.Info("tile saved", "path", *out)
	return nil
}

func runThumbnail(ctx context.Context, e *env, args []string) error {
	fs := pflag.NewFlagSet("thumbnail", pflag.ContinueOnError)
	out := fs.StringP("output", "o", "", "destination file")
	width := fs.Int("width", 0, "thumbnail width")
	height := fs.Int("height", 0, "thumbnail height")
	dark := fs.Bool("dark", false, "use the dark theme")

	pos, err := parse(fs, args, 2)
	if err != nil {
		return err
	}
	if *out == "" {
		return usagef("-o is required")
	}

	var thumb vjmap.ThumbnailOptions
	if fs.Changed("width") {
		thumb.Width = width
	}
	if fs.Changed("height") {
		thumb.Height = height
	}
	if fs.Changed("dark") {
		thumb.DarkTheme = dark
	}

	c, err := e.client()
	if err != nil {
		return err
	}

	if err := c.SaveThumbnail(ctx, pos[0], pos[1], thumb, *out, client.WithProgress()); err != nil {
		return err
	}

	e.logger.Info("thumbnail saved", "path", *out)
	return nil
}
