package throttle

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestConfig_Validate(t *testing.T) {
	testCases := map[string]struct {
		cfg    Config
		expErr error
	}{
		"zeroRPS":       {cfg: Config{RPS: 0, Burst: 10}, expErr: ErrMustNotBeZero},
		"negativeRPS":   {cfg: Config{RPS: -5, Burst: 10}, expErr: ErrMustNotBeZero},
		"zeroBurst":     {cfg: Config{RPS: 10, Burst: 0}, expErr: ErrMustNotBeZero},
		"negativeBurst": {cfg: Config{RPS: 10, Burst: -5}, expErr: ErrMustNotBeZero},
		"valid":         {cfg: Config{RPS: 10, Burst: 20}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			rt, err := NewRoundTripper(tc.cfg, nil, http.DefaultTransport)

			if tc.expErr != nil {
				if !errors.Is(err, tc.expErr) {
					t.Errorf("exp err %v; got: %v", tc.expErr, err)
				}
				return
			}

			if err != nil {
				t.Errorf("exp nil err, got: %v", err)
			}
			if rt == nil {
				t.Error("exp non-nil RoundTripper")
			}
		})
	}
}

func tileServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("png"))
	}))
	t.Cleanup(server.Close)

	return server, &calls
}

// fire sends n concurrent GETs through rt, each bounded by reqTimeout
// when it is non-zero, and returns the per-request errors.
func fire(t *testing.T, rt http.RoundTripper, target string, n int, reqTimeout time.Duration) []error {
	t.Helper()

	client := &http.Client{Transport: rt}
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx := t.Context()
			if reqTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, reqTimeout)
				defer cancel()
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				errs[i] = err
				return
			}

			resp, err := client.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			resp.Body.Close()
		}()
	}
	wg.Wait()

	return errs
}

func countErrs(errs []error) int {
	var n int
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}

func TestRoundTrip_WithinBurstIsFast(t *testing.T) {
	server, calls := tileServer(t)

	rt, err := NewRoundTripper(Config{RPS: 5, Burst: 5}, nil, http.DefaultTransport)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	errs := fire(t, rt, server.URL+"/map/tile/a/v1/s/1/0/0", 5, 0)
	elapsed := time.Since(start)

	if n := countErrs(errs); n != 0 {
		t.Fatalf("exp no failures, got %d: %v", n, errs)
	}
	if elapsed > 150*time.Millisecond {
		t.Errorf("burst requests should not wait, took %v", elapsed)
	}
	if calls.Load() != 5 {
		t.Errorf("exp 5 server calls, got %d", calls.Load())
	}
}

func TestRoundTrip_ExceedBurstSlowsDown(t *testing.T) {
	server, calls := tileServer(t)

	rt, err := NewRoundTripper(Config{RPS: 10, Burst: 5}, nil, http.DefaultTransport)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	errs := fire(t, rt, server.URL, 8, time.Second)
	elapsed := time.Since(start)

	if n := countErrs(errs); n != 0 {
		t.Fatalf("exp no failures, got %d: %v", n, errs)
	}

	// Three requests beyond the burst at 10 rps need at least 300ms.
	if minWait := 300 * time.Millisecond; elapsed < minWait-20*time.Millisecond {
		t.Errorf("exp throttling to take >= %v, took %v", minWait, elapsed)
	}
	if calls.Load() != 8 {
		t.Errorf("exp 8 server calls, got %d", calls.Load())
	}
}

func TestRoundTrip_WaitExceedsDeadline(t *testing.T) {
	server, calls := tileServer(t)

	rt, err := NewRoundTripper(Config{RPS: 5, Burst: 2}, nil, http.DefaultTransport)
	if err != nil {
		t.Fatal(err)
	}

	// Two requests use the burst; the remaining three would need to wait
	// 200ms+ each, longer than their 50ms deadline.
	errs := fire(t, rt, server.URL, 5, 50*time.Millisecond)

	if n := countErrs(errs); n != 3 {
		t.Fatalf("exp 3 failures, got %d: %v", n, errs)
	}
	for _, err := range errs {
		if err != nil && !errors.Is(err, ErrWaitingFailed) {
			t.Errorf("exp ErrWaitingFailed, got: %v", err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("exp 2 server calls, got %d", calls.Load())
	}
}

func TestRoundTrip_PreCancelledContext(t *testing.T) {
	server, calls := tileServer(t)

	rt, err := NewRoundTripper(Config{RPS: 20, Burst: 10}, nil, http.DefaultTransport)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	_, err = rt.RoundTrip(req)
	if !errors.Is(err, ErrContextEnded) {
		t.Errorf("exp ErrContextEnded, got: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("exp context.Canceled to be wrapped, got: %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("cancelled request must not reach the server, got %d calls", calls.Load())
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRoundTrip_LogsWait(t *testing.T) {
	server, _ := tileServer(t)

	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rt, err := NewRoundTripper(Config{RPS: 50, Burst: 1}, func() *slog.Logger { return logger }, nil)
	if err != nil {
		t.Fatal(err)
	}

	for range 3 {
		errs := fire(t, rt, server.URL+"/map/cmd/thumbnail/a/v1", 1, time.Second)
		if n := countErrs(errs); n != 0 {
			t.Fatalf("exp no failures, got %d: %v", n, errs)
		}
	}

	logs := out.String()
	if !strings.Contains(logs, "throttle tokens exhausted") {
		t.Errorf("exp exhaustion to be logged, got:\n%s", logs)
	}
	if !strings.Contains(logs, "/map/cmd/thumbnail/a/v1") {
		t.Errorf("exp request path in logs, got:\n%s", logs)
	}
}
