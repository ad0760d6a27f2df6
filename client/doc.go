// Package client provides the HTTP transport used by the vjmap SDK: a
// configurable wrapper around [net/http] with persistent headers, rate
// limiting, instrumentation and streaming request and response bodies.
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(30 * time.Second),
//		client.WithHeader("Token", accessToken),
//		client.WithThrottle(20, 5),
//	)
//
// # Making Requests
//
// Construct a [URL] and [Request], then execute with [Client.Do] for JSON
// responses or [Client.DoRaw] for binary ones such as tiles:
//
//	u := client.URL("https", "vjmap.com", "/server/api/v1/map/openmap/sys_zp")
//	req, err := client.Request(ctx, u, http.MethodGet)
//	err = c.Do(req, http.StatusOK, client.WithDestination(&result))
//
// Map files are uploaded as a streamed multipart body:
//
//	req, err := client.Request(ctx, u, http.MethodPost,
//		client.WithMultipart("file", "plan.dwg", f),
//	)
//
// Any status other than the expected one is reported as a [ServiceError]
// whose message is the raw response body. Failures to reach the service
// are reported as a [TransportError].
//
// # Saving Responses
//
// Stream a response body directly to disk with optional checksum
// verification and progress reporting:
//
//	err = c.Download(req, http.StatusOK, "tiles/3/1/2.png",
//		client.WithMD5(expectedHex),
//		client.WithProgress(),
//	)
//
// For batches and lower-level control see the
// [github.com/adamwoolhether/vjmap/client/download] package.
package client
