package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func jsonServer(t *testing.T, body string, inspect func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if inspect != nil {
			inspect(r)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPAdapter_BasicGET(t *testing.T) {
	srv := jsonServer(t, `{
        "data": [
            {"timestamp": "2025-01-01T00:00:00Z", "value": 100.5},
            {"timestamp": "2025-01-01T00:01:00Z", "value": 110.2},
            {"timestamp": "2025-01-01T00:02:00Z", "value": 120.8}
        ]
    }`, func(r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q, want application/json", r.Header.Get("Accept"))
		}
	})

	adapter := &HTTPAdapter{
		URL:           srv.URL,
		ValuePath:     "data.#.value",
		TimestampPath: "data.#.timestamp",
	}

	s, err := adapter.Collect(context.Background(), 600)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	want := []float64{100.5, 110.2, 120.8}
	got := s.Values()
	if len(got) != len(want) {
		t.Fatalf("Collect() returned %d points, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if !s.Points[0].Time.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("first timestamp = %v", s.Points[0].Time)
	}
}

func TestHTTPAdapter_POSTTemplates(t *testing.T) {
	var gotBody, gotAuth string
	srv := jsonServer(t, `{"results": [{"ts": 1704067200, "val": 42.0}]}`, func(r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotAuth = r.Header.Get("Authorization")
	})

	adapter := &HTTPAdapter{
		URL:             srv.URL,
		Method:          http.MethodPost,
		Body:            `{"window": "{{.WindowSeconds}}s", "step": {{.Step}}}`,
		Headers:         map[string]string{"Authorization": "Bearer {{.Token}}"},
		TemplateVars:    map[string]string{"Token": "abc"},
		ValuePath:       "results.#.val",
		TimestampPath:   "results.#.ts",
		TimestampFormat: "unix",
		StepSeconds:     60,
	}

	s, err := adapter.Collect(context.Background(), 3600)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if gotBody != `{"window": "3600s", "step": 60}` {
		t.Errorf("body = %s", gotBody)
	}
	if gotAuth != "Bearer abc" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer abc")
	}
	if s.Len() != 1 || s.Points[0].Value != 42 || s.Points[0].Time.Unix() != 1704067200 {
		t.Errorf("Collect() = %+v", s.Points)
	}
}

func TestHTTPAdapter_SortsAndParsesMillis(t *testing.T) {
	srv := jsonServer(t, `{"d": [
        {"t": 1704067320000, "v": 3},
        {"t": 1704067200000, "v": 1},
        {"t": 1704067260000, "v": 2}
    ]}`, nil)

	adapter := &HTTPAdapter{URL: srv.URL, ValuePath: "d.#.v", TimestampPath: "d.#.t", TimestampFormat: "unix_milli"}
	s, err := adapter.Collect(context.Background(), 600)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for i, v := range s.Values() {
		if v != float64(i+1) {
			t.Errorf("value[%d] = %v, want %v", i, v, i+1)
		}
	}
}

func TestHTTPAdapter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		adapter HTTPAdapter
	}{
		{
			name:    "mismatched lengths",
			body:    `{"v": [1, 2], "t": ["2025-01-01T00:00:00Z"]}`,
			adapter: HTTPAdapter{ValuePath: "v", TimestampPath: "t"},
		},
		{
			name:    "missing path",
			body:    `{"v": [1]}`,
			adapter: HTTPAdapter{ValuePath: "v", TimestampPath: "nope"},
		},
		{
			name:    "bad timestamp",
			body:    `{"v": [1], "t": ["yesterday"]}`,
			adapter: HTTPAdapter{ValuePath: "v", TimestampPath: "t"},
		},
		{
			name:    "server error",
			body:    `oops`,
			status:  http.StatusInternalServerError,
			adapter: HTTPAdapter{ValuePath: "v", TimestampPath: "t"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
				}
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			a := tt.adapter
			a.URL = srv.URL
			if _, err := a.Collect(context.Background(), 60); err == nil {
				t.Error("Collect() error = nil, want error")
			}
		})
	}
}

func TestHTTPAdapter_ValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		adapter HTTPAdapter
		wantErr string
	}{
		{"valid", HTTPAdapter{URL: "http://x", ValuePath: "v", TimestampPath: "t"}, ""},
		{"missing url", HTTPAdapter{ValuePath: "v", TimestampPath: "t"}, "url"},
		{"missing value path", HTTPAdapter{URL: "http://x", TimestampPath: "t"}, "valuePath"},
		{"missing timestamp path", HTTPAdapter{URL: "http://x", ValuePath: "v"}, "timestampPath"},
		{"bad format", HTTPAdapter{URL: "http://x", ValuePath: "v", TimestampPath: "t", TimestampFormat: "iso"}, "timestampFormat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.adapter.ValidateConfig()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestHTTPAdapter_ContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	a := &HTTPAdapter{URL: srv.URL, ValuePath: "v", TimestampPath: "t"}
	if _, err := a.Collect(ctx, 60); err == nil {
		t.Error("Collect() error = nil, want context error")
	}
}
