// Package download streams raw response bodies, such as map tiles and
// thumbnails, to disk with optional checksum validation and progress
// reporting.
//
// # Single File
//
// [Handle] writes the body to a temporary file alongside the
// destination path, then renames it into place on success:
//
//	err := download.Handle(ctx, resp.Body, resp.ContentLength, "/tiles/3/4/2.png", logger,
//		download.WithMD5(expectedHex),
//	)
//
// # Batches
//
// [Queue] runs many saves with a concurrency bound and collects their
// errors:
//
//	q := download.NewQueue(8)
//	for _, job := range jobs {
//		q.Go(ctx, job.save)
//	}
//	err := q.Wait()
//
// Most callers should use the vjmap client's SaveTile and SaveTiles,
// which drive this package internally.
package download
