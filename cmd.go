package vjmap

import (
	"context"
	"net/http"
	"strconv"

	"github.com/adamwoolhether/vjmap/query"
)

// cmdPath builds /map/cmd/{name}/{mapID}/{version}.
func cmdPath(name, mapID, version string) (string, error) {
	if err := required("mapid", mapID, "version", version); err != nil {
		return "", err
	}

	return "/map/cmd/" + name + "/" + mapID + "/" + version, nil
}

func (c *Client) cmd(ctx context.Context, method, name, mapID, version string, opts []CallOption) (Result, error) {
	path, err := cmdPath(name, mapID, version)
	if err != nil {
		return nil, err
	}

	return c.Do(ctx, method, path, opts...)
}

// ListMaps lists the versions and styles of a map.
func (c *Client) ListMaps(ctx context.Context, mapID, version string, opts ...CallOption) (Result, error) {
	return c.cmd(ctx, http.MethodGet, "listmaps", mapID, version, opts)
}

// QueryFeatures runs a point, rect, expression or condition query
// against a map. p is validated before anything is sent.
func (c *Client) QueryFeatures(ctx context.Context, mapID, version string, p query.Parameter, opts ...CallOption) (Result, error) {
	if err := query.Validate(p); err != nil {
		return nil, err
	}

	opts = append([]CallOption{WithJSON(query.Encode(p))}, opts...)
	return c.cmd(ctx, http.MethodPost, "queryFeatures", mapID, version, opts)
}

// GetDataBounds returns the extent of a map's drawing data.
func (c *Client) GetDataBounds(ctx context.Context, mapID, version string, opts ...CallOption) (Result, error) {
	return c.cmd(ctx, http.MethodGet, "getDataBounds", mapID, version, opts)
}

// CloseMap releases the service-side resources of an open map.
func (c *Client) CloseMap(ctx context.Context, mapID, version string, opts ...CallOption) (Result, error) {
	return c.cmd(ctx, http.MethodPost, "closemap", mapID, version, opts)
}

// GetMetadata returns a map's metadata, including geometry information
// when geom is set.
func (c *Client) GetMetadata(ctx context.Context, mapID, version string, geom bool, opts ...CallOption) (Result, error) {
	opts = append([]CallOption{WithQuery("geom", strconv.FormatBool(geom))}, opts...)
	return c.cmd(ctx, http.MethodGet, "metadata", mapID, version, opts)
}

// UpdateMetadata replaces a map's metadata.
func (c *Client) UpdateMetadata(ctx context.Context, mapID, version string, metadata map[string]any, opts ...CallOption) (Result, error) {
	opts = append([]CallOption{WithJSON(metadata)}, opts...)
	return c.cmd(ctx, http.MethodPost, "updateMetadata", mapID, version, opts)
}

// SwitchLayers sets which layers are drawn and toggles dark mode.
func (c *Client) SwitchLayers(ctx context.Context, mapID, version string, visibleLayers []string, darkMode bool, opts ...CallOption) (Result, error) {
	if visibleLayers == nil {
		visibleLayers = []string{}
	}

	body := struct {
		VisibleLayers []string `json:"visibleLayers"`
		DarkMode      bool     `json:"darkMode"`
	}{visibleLayers, darkMode}

	opts = append([]CallOption{WithJSON(body)}, opts...)
	return c.cmd(ctx, http.MethodPost, "switchlayers", mapID, version, opts)
}

// CreateMapStyle creates a named render style for a map.
func (c *Client) CreateMapStyle(ctx context.Context, mapID, version string, style map[string]any, opts ...CallOption) (Result, error) {
	opts = append([]CallOption{WithJSON(style)}, opts...)
	return c.cmd(ctx, http.MethodPost, "createMapStyle", mapID, version, opts)
}

// DeleteMap deletes a map version. Up to retainVersionMaxCount of the
// newest versions are kept.
func (c *Client) DeleteMap(ctx context.Context, mapID, version string, retainVersionMaxCount int, opts ...CallOption) (Result, error) {
	body := map[string]int{"retainVersionMaxCount": retainVersionMaxCount}

	opts = append([]CallOption{WithJSON(body)}, opts...)
	return c.cmd(ctx, http.MethodPost, "deletemap", mapID, version, opts)
}
