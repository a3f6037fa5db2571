package timeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zgpcy/time-display/internal/display"
	"github.com/zgpcy/time-display/internal/logger"
)

// testLogger creates a logger for testing (error level to suppress test output)
func testLogger() *logger.Logger {
	return logger.New("error")
}

// recordingDiagnostics keeps every reported error
type recordingDiagnostics struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingDiagnostics) Report(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recordingDiagnostics) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// mockObserver counts refresh outcomes
type mockObserver struct {
	mu        sync.Mutex
	successes int
	failures  int
}

func (m *mockObserver) ObserveRefresh(d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.failures++
		return
	}
	m.successes++
}

func newTestClient(t *testing.T, serverURL string, doc *display.Document) (*Client, *recordingDiagnostics) {
	t.Helper()
	endpoint, err := ResolveEndpoint(serverURL)
	if err != nil {
		t.Fatalf("ResolveEndpoint(%q) error = %v", serverURL, err)
	}
	diag := &recordingDiagnostics{}
	return NewClient(endpoint, doc.Target(display.TimeElementID), diag, testLogger()), diag
}

func timeText(t *testing.T, doc *display.Document) string {
	t.Helper()
	el, ok := doc.Element(display.TimeElementID)
	if !ok {
		t.Fatal("time element missing from document")
	}
	return el.Text()
}

func TestRefreshTime_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("12:00:00"))
	}))
	defer srv.Close()

	doc := display.NewDocument(display.TimeElementID)
	client, diag := newTestClient(t, srv.URL, doc)

	client.RefreshTime()
	client.Wait()

	if got := timeText(t, doc); got != "12:00:00" {
		t.Errorf("display text = %q, want 12:00:00", got)
	}
	if gotPath != APIPath {
		t.Errorf("request path = %q, want %q", gotPath, APIPath)
	}
	if n := len(diag.Errors()); n != 0 {
		t.Errorf("diagnostic entries = %d, want 0", n)
	}
}

func TestRefreshTime_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	doc := display.NewDocument(display.TimeElementID)
	el, _ := doc.Element(display.TimeElementID)
	_ = el.SetText("previous")

	client, diag := newTestClient(t, srv.URL, doc)
	client.RefreshTime()
	client.Wait()

	if got := timeText(t, doc); got != "previous" {
		t.Errorf("display text = %q, want unchanged previous", got)
	}

	errs := diag.Errors()
	if len(errs) != 1 {
		t.Fatalf("diagnostic entries = %d, want exactly 1", len(errs))
	}
	if !errors.Is(errs[0], ErrFetchFailure) {
		t.Errorf("reported error %v should be a fetch failure", errs[0])
	}
	var fe *FetchError
	if !errors.As(errs[0], &fe) || fe.StatusCode != http.StatusInternalServerError {
		t.Errorf("reported error %v should carry status 500", errs[0])
	}
}

func TestRefreshTime_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing listens on the address any more

	doc := display.NewDocument(display.TimeElementID)
	el, _ := doc.Element(display.TimeElementID)
	_ = el.SetText("previous")

	client, diag := newTestClient(t, url, doc)
	client.RefreshTime()
	client.Wait()

	if got := timeText(t, doc); got != "previous" {
		t.Errorf("display text = %q, want unchanged previous", got)
	}
	errs := diag.Errors()
	if len(errs) != 1 {
		t.Fatalf("diagnostic entries = %d, want exactly 1", len(errs))
	}
	if !errors.Is(errs[0], ErrFetchFailure) {
		t.Errorf("reported error %v should be a fetch failure", errs[0])
	}
}

func TestRefreshTime_NonTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0xfd})
	}))
	defer srv.Close()

	doc := display.NewDocument(display.TimeElementID)
	client, diag := newTestClient(t, srv.URL, doc)
	client.RefreshTime()
	client.Wait()

	if got := timeText(t, doc); got != "" {
		t.Errorf("display text = %q, want unchanged empty", got)
	}
	errs := diag.Errors()
	if len(errs) != 1 {
		t.Fatalf("diagnostic entries = %d, want exactly 1", len(errs))
	}
	var fe *FetchError
	if !errors.As(errs[0], &fe) || fe.Op != "decode" {
		t.Errorf("reported error %v should be a decode failure", errs[0])
	}
}

func TestRefreshTime_MissingDisplayTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("12:00:00"))
	}))
	defer srv.Close()

	doc := display.NewDocument() // no "time" element
	client, diag := newTestClient(t, srv.URL, doc)
	client.RefreshTime()
	client.Wait()

	errs := diag.Errors()
	if len(errs) != 1 {
		t.Fatalf("diagnostic entries = %d, want exactly 1", len(errs))
	}
	if !errors.Is(errs[0], display.ErrElementNotFound) {
		t.Errorf("reported error = %v, want ErrElementNotFound", errs[0])
	}
}

func TestRefreshTime_LastArrivalWins(t *testing.T) {
	var calls atomic.Int32
	firstArrived := make(chan struct{})
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(firstArrived)
			<-release
			_, _ = w.Write([]byte("first"))
			return
		}
		_, _ = w.Write([]byte("second"))
	}))
	defer srv.Close()
	defer unblock() // runs before srv.Close so the held handler can finish

	writes := make(chan string, 4)
	doc := display.NewDocument(display.TimeElementID)
	target := display.TargetFunc(func(text string) error {
		err := doc.SetText(display.TimeElementID, text)
		writes <- text
		return err
	})

	endpoint, _ := ResolveEndpoint(srv.URL)
	diag := &recordingDiagnostics{}
	client := NewClient(endpoint, target, diag, testLogger())

	client.RefreshTime()
	<-firstArrived
	client.RefreshTime()

	select {
	case got := <-writes:
		if got != "second" {
			t.Fatalf("first write = %q, want second", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second response never reached the display")
	}

	unblock()
	client.Wait()

	if got := timeText(t, doc); got != "first" {
		t.Errorf("display text = %q, want first (the later-arriving response)", got)
	}
	if n := len(diag.Errors()); n != 0 {
		t.Errorf("diagnostic entries = %d, want 0", n)
	}
}

func TestRefreshTime_Idempotent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("2024-03-01T12:00:00Z"))
	}))
	defer srv.Close()

	doc := display.NewDocument(display.TimeElementID)
	client, _ := newTestClient(t, srv.URL, doc)

	for i := 0; i < 5; i++ {
		client.RefreshTime()
		client.Wait()
		if got := timeText(t, doc); got != "2024-03-01T12:00:00Z" {
			t.Fatalf("refresh %d: display text = %q", i, got)
		}
	}
}

func TestRefreshTime_NotifiesObserver(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("12:00:00"))
	}))
	defer srv.Close()

	doc := display.NewDocument(display.TimeElementID)
	client, _ := newTestClient(t, srv.URL, doc)
	obs := &mockObserver{}
	client.WithObserver(obs)

	client.RefreshTime()
	client.Wait()
	fail.Store(true)
	client.RefreshTime()
	client.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.successes != 1 || obs.failures != 1 {
		t.Errorf("observer saw %d successes / %d failures, want 1 / 1", obs.successes, obs.failures)
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		_, _ = w.Write([]byte("  opaque value  "))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, display.NewDocument())
	got, err := client.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	// the payload is opaque: no trimming or reformatting
	if got != "  opaque value  " {
		t.Errorf("Fetch() = %q, want the body verbatim", got)
	}
}

func TestFetch_NonSuccessStatuses(t *testing.T) {
	statuses := []int{
		http.StatusNotFound,
		http.StatusInternalServerError,
		http.StatusServiceUnavailable,
		http.StatusMultipleChoices,
	}

	for _, status := range statuses {
		t.Run(http.StatusText(status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Location", "/elsewhere")
				w.WriteHeader(status)
			}))
			defer srv.Close()

			client, _ := newTestClient(t, srv.URL, display.NewDocument())
			client.WithHTTPClient(&http.Client{
				CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
			})

			_, err := client.Fetch(context.Background())
			if !errors.Is(err, ErrFetchFailure) {
				t.Fatalf("Fetch() error = %v, want fetch failure", err)
			}
		})
	}
}

func TestFetch_BodyTooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("a"), MaxBodyBytes+10))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, display.NewDocument())
	_, err := client.Fetch(context.Background())
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Op != "read" {
		t.Fatalf("Fetch() error = %v, want read failure", err)
	}
}

func TestLogDiagnostics_ErrorPrefix(t *testing.T) {
	var buf bytes.Buffer
	diag := NewLogDiagnostics(logger.NewWithWriter("info", &buf))

	diag.Report(&FetchError{Op: "status", Endpoint: "http://x/api/time", StatusCode: 500, Err: errors.New("unexpected response 500")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("log entries = %d, want 1", len(lines))
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v", err)
	}
	msg, _ := entry["msg"].(string)
	if !strings.HasPrefix(msg, "Error:") {
		t.Errorf("msg = %q, want prefix Error:", msg)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["status"] != float64(500) {
		t.Errorf("status attr = %v, want 500", entry["status"])
	}
}

func TestTargetDiagnostics_WritesStatusLine(t *testing.T) {
	doc := display.NewDocument("status")
	diag := NewTargetDiagnostics(doc.Target("status"))

	diag.Report(errors.New("first"))
	diag.Report(&FetchError{Op: "request", Endpoint: "http://x/api/time", Err: errors.New("connection refused")})

	el, _ := doc.Element("status")
	if got := el.Text(); !strings.HasPrefix(got, "Error:") || !strings.Contains(got, "connection refused") {
		t.Errorf("status = %q, want latest failure prefixed Error:", got)
	}
}

func TestResolveEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://localhost:8080", "http://localhost:8080/api/time", false},
		{"http://localhost:8080/", "http://localhost:8080/api/time", false},
		{"https://example.com/clock", "https://example.com/clock/api/time", false},
		{"http://localhost:8080/api/time", "http://localhost:8080/api/time", false},
		{"http://localhost:8080/api/time/", "http://localhost:8080/api/time", false},
		{"ftp://localhost", "", true},
		{"http://", "", true},
		{"::", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ResolveEndpoint(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveEndpoint(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ResolveEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFetchError_Message(t *testing.T) {
	err := &FetchError{Op: "get", Endpoint: "http://x/api/time", Err: errors.New("connection refused")}
	if got := err.Error(); got != "fetch http://x/api/time: get: connection refused" {
		t.Errorf("Error() = %q", got)
	}

	err = &FetchError{Op: "status", Endpoint: "http://x/api/time", StatusCode: 503, Err: errors.New("unexpected response")}
	if !strings.Contains(err.Error(), "status 503") {
		t.Errorf("Error() = %q, want status code", err.Error())
	}
}
