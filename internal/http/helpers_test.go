package handlers_test

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"

	"stockservice/internal/config"
	"stockservice/internal/http/handlers"
	applog "stockservice/internal/log"
	"stockservice/internal/repos"
)

func testConfig() config.Config {
	return config.Config{
		Port:      "0",
		DBDSN:     ":memory:",
		LogLevel:  "info",
		BodyLimit: config.DefaultBodyLimit,
	}
}

func newStockApp(t *testing.T, cfg config.Config) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	app, err := handlers.NewApp(db, cfg)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return app, db
}

type filePart struct {
	contentType string
	data        []byte
}

// multipartRequest builds a multipart/form-data request. file may be nil.
func multipartRequest(t *testing.T, method, target string, fields map[string]string, file *filePart) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="file"; filename="upload.bin"`)
		if file.contentType != "" {
			h.Set("Content-Type", file.contentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(file.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	b, _ := io.ReadAll(resp.Body)
	return resp, string(b)
}

type stockJSON struct {
	ID     string  `json:"id"`
	Image  string  `json:"image"`
	Price  float64 `json:"price"`
	Detail string  `json:"detail"`
}

// createStock posts a stock and returns the id taken from the Location header.
func createStock(t *testing.T, app *fiber.App, price, detail string, file filePart) string {
	t.Helper()
	req := multipartRequest(t, "POST", "/api/stock", map[string]string{"price": price, "detail": detail}, &file)
	resp, body := do(t, app, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: status %d body=%s", resp.StatusCode, body)
	}
	loc := resp.Header.Get("Location")
	if !strings.HasPrefix(loc, "/api/stock/") {
		t.Fatalf("create: missing Location, got %q", loc)
	}
	return strings.TrimPrefix(loc, "/api/stock/")
}

func getStock(t *testing.T, app *fiber.App, id string) (int, stockJSON) {
	t.Helper()
	resp, body := do(t, app, httptest.NewRequest("GET", "/api/stock/"+id, nil))
	var s stockJSON
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal([]byte(body), &s); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
	}
	return resp.StatusCode, s
}

func listStocks(t *testing.T, app *fiber.App) []stockJSON {
	t.Helper()
	resp, body := do(t, app, httptest.NewRequest("GET", "/api/stock", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var out []stockJSON
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode list %s: %v", body, err)
	}
	return out
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Audit  bool           `json:"audit"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs routes the application log into a buffer while fn runs and
// returns the JSON entries written.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	applog.Setup(&lockedBuf{b: &buf, mu: &mu}, "debug")
	defer applog.Setup(os.Stdout, "info")

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logEntry
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func jpeg(n int) filePart {
	return filePart{contentType: "image/jpeg", data: bytes.Repeat([]byte{0xff}, n)}
}

func dataURI(ct string, b []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(b))
}
