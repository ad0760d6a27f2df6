//go:build integration

package vjmap_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adamwoolhether/vjmap"
	"github.com/adamwoolhether/vjmap/client"
)

// Runs against a live service. Set VJMAP_TOKEN, and VJMAP_BASE_URL for
// a self-hosted instance.
func integrationClient(t *testing.T) *vjmap.Client {
	t.Helper()

	token := os.Getenv("VJMAP_TOKEN")
	if token == "" {
		t.Skip("VJMAP_TOKEN not set")
	}

	opts := []vjmap.Option{vjmap.WithClientOptions(client.WithTimeout(time.Minute))}
	if base := os.Getenv("VJMAP_BASE_URL"); base != "" {
		opts = append(opts, vjmap.WithBaseURL(base))
	}

	c, err := vjmap.New(token, opts...)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c
}

func TestIntegration_OpenAndQuery(t *testing.T) {
	c := integrationClient(t)

	res, err := c.OpenMap(t.Context(), "sys_zp")
	if err != nil {
		t.Fatalf("open map: %v", err)
	}

	version, _ := res["version"].(string)
	if version == "" {
		version = "v1"
	}

	if _, err := c.GetDataBounds(t.Context(), "sys_zp", version); err != nil {
		t.Errorf("data bounds: %v", err)
	}
	if _, err := c.ListMaps(t.Context(), "sys_zp", version); err != nil {
		t.Errorf("list maps: %v", err)
	}
}

func TestIntegration_SaveThumbnail(t *testing.T) {
	c := integrationClient(t)

	dest := filepath.Join(t.TempDir(), "thumb.png")
	if err := c.SaveThumbnail(t.Context(), "sys_zp", "v1", vjmap.ThumbnailOptions{}, dest, client.WithProgress()); err != nil {
		t.Fatalf("save thumbnail: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("thumbnail is empty")
	}
}
