package vjmap

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/adamwoolhether/vjmap/client"
	"github.com/adamwoolhether/vjmap/client/download"
	"github.com/adamwoolhether/vjmap/internal/validate"
)

// TileRequest addresses one raster or vector tile of a map style.
type TileRequest struct {
	MapID   string `wire:"mapid" validate:"required"`
	Version string `wire:"version" validate:"required"`
	Style   string `wire:"style" validate:"required"`
	Z       int    `wire:"z" validate:"gte=0"`
	X       int    `wire:"x" validate:"gte=0"`
	Y       int    `wire:"y" validate:"gte=0"`

	// Tag is the fileid tag of the map version, sent as the tag query
	// parameter when set.
	Tag string `wire:"tag"`

	// MVT requests a Mapbox vector tile instead of a raster image.
	MVT bool `wire:"mvt"`
}

// Path returns the tile's path relative to the base URL.
func (t TileRequest) Path() string {
	p := fmt.Sprintf("/map/tile/%s/%s/%s/%d/%d/%d", t.MapID, t.Version, t.Style, t.Z, t.X, t.Y)
	if t.MVT {
		p += ".mvt"
	}
	return p
}

func (t TileRequest) callOpts(opts []CallOption) ([]CallOption, error) {
	if err := validate.Check(t); err != nil {
		return nil, err
	}

	if t.Tag != "" {
		opts = append([]CallOption{WithQuery("tag", t.Tag)}, opts...)
	}
	return opts, nil
}

// GetMapTile fetches a tile and returns the open response. The caller
// must close the body.
func (c *Client) GetMapTile(ctx context.Context, tile TileRequest, opts ...CallOption) (*http.Response, error) {
	opts, err := tile.callOpts(opts)
	if err != nil {
		return nil, err
	}

	return c.DoRaw(ctx, http.MethodGet, tile.Path(), opts...)
}

// DownloadOption configures how [Client.SaveTile] and
// [Client.SaveThumbnail] write to disk.
type DownloadOption = client.DownloadOption

// SaveTile streams a tile into destPath. The body is written to a temp
// file beside destPath and renamed into place only once complete and
// verified, so destPath never holds a partial tile.
func (c *Client) SaveTile(ctx context.Context, tile TileRequest, destPath string, opts ...DownloadOption) error {
	callOpts, err := tile.callOpts(nil)
	if err != nil {
		return err
	}

	return c.save(ctx, tile.Path(), destPath, callOpts, opts)
}

// TileJob is one tile saved by [Client.SaveTiles].
type TileJob struct {
	Tile    TileRequest
	Dest    string
	Options []DownloadOption
}

// SaveTiles saves every job with at most concurrency requests in flight
// and waits for all of them. A concurrency <= 0 means unlimited. All
// failures are returned joined.
func (c *Client) SaveTiles(ctx context.Context, jobs []TileJob, concurrency int) error {
	q := download.NewQueue(concurrency)

	for _, job := range jobs {
		q.Go(ctx, func(ctx context.Context) error {
			if err := c.SaveTile(ctx, job.Tile, job.Dest, job.Options...); err != nil {
				return fmt.Errorf("tile %s: %w", job.Tile.Path(), err)
			}
			return nil
		})
	}

	return q.Wait()
}

// ThumbnailOptions sizes and themes a thumbnail. Unset fields use the
// service defaults.
type ThumbnailOptions struct {
	Width     *int
	Height    *int
	DarkTheme *bool
}

func (o ThumbnailOptions) callOpts(opts []CallOption) []CallOption {
	var params []CallOption
	if o.Width != nil {
		params = append(params, WithQuery("width", strconv.Itoa(*o.Width)))
	}
	if o.Height != nil {
		params = append(params, WithQuery("height", strconv.Itoa(*o.Height)))
	}
	if o.DarkTheme != nil {
		params = append(params, WithQuery("darkTheme", strconv.FormatBool(*o.DarkTheme)))
	}
	return append(params, opts...)
}

// GetThumbnail fetches a map thumbnail image and returns the open
// response. The caller must close the body.
func (c *Client) GetThumbnail(ctx context.Context, mapID, version string, thumb ThumbnailOptions, opts ...CallOption) (*http.Response, error) {
	path, err := cmdPath("thumbnail", mapID, version)
	if err != nil {
		return nil, err
	}

	return c.DoRaw(ctx, http.MethodGet, path, thumb.callOpts(opts)...)
}

// SaveThumbnail streams a map thumbnail into destPath like [Client.SaveTile].
func (c *Client) SaveThumbnail(ctx context.Context, mapID, version string, thumb ThumbnailOptions, destPath string, opts ...DownloadOption) error {
	path, err := cmdPath("thumbnail", mapID, version)
	if err != nil {
		return err
	}

	return c.save(ctx, path, destPath, thumb.callOpts(nil), opts)
}
