package query

// Option sets one of the shared [Base] fields on a new query.
type Option func(*Base)

// WithZoom sets the zoom level the query is evaluated at.
func WithZoom(zoom int) Option {
	return func(b *Base) { b.Zoom = &zoom }
}

// WithMapID scopes the query to a map.
func WithMapID(mapID string) Option {
	return func(b *Base) { b.MapID = &mapID }
}

// WithVersion scopes the query to a map version.
func WithVersion(version string) Option {
	return func(b *Base) { b.Version = &version }
}

// WithLayer restricts matches to a single layer name.
func WithLayer(layer string) Option {
	return func(b *Base) { b.Layer = &layer }
}

// WithLimit caps the number of returned features.
func WithLimit(limit int) Option {
	return func(b *Base) { b.Limit = &limit }
}

// WithFields selects the returned attribute columns, comma separated.
// An empty string requests the service default.
func WithFields(fields string) Option {
	return func(b *Base) { b.Fields = &fields }
}

// WithGeom requests feature geometry in the result.
func WithGeom(geom bool) Option {
	return func(b *Base) { b.Geom = &geom }
}

// WithSimplifyTolerance toggles geometry simplification.
func WithSimplifyTolerance(simplify bool) Option {
	return func(b *Base) { b.SimplifyTolerance = &simplify }
}

// WithUseCache lets the service answer from its query cache.
func WithUseCache(useCache bool) Option {
	return func(b *Base) { b.UseCache = &useCache }
}

// WithToMapCoordinate returns coordinates in map rather than CAD space.
func WithToMapCoordinate(toMap bool) Option {
	return func(b *Base) { b.ToMapCoordinate = &toMap }
}
