package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const rangeBody = `{
    "status": "success",
    "data": {
        "resultType": "matrix",
        "result": [
            {"metric": {"pod": "a"}, "values": [[1700000000, "100"], [1700000060, "110"], [1700000120, "120"]]},
            {"metric": {"pod": "b"}, "values": [[1700000060, "5"], [1700000000, "1"]]}
        ]
    }
}`

func TestRangeQueryAdapters(t *testing.T) {
	var gotQuery, gotStep, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotStep = r.URL.Query().Get("step")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, rangeBody)
	}))
	defer srv.Close()

	adapters := []Adapter{
		&PrometheusAdapter{ServerURL: srv.URL, Query: "sum(rate(x[1m]))", StepSeconds: 60},
		&VictoriaMetricsAdapter{ServerURL: srv.URL, Query: "sum(rate(x[1m]))", StepSeconds: 60},
	}
	for _, a := range adapters {
		t.Run(a.Name(), func(t *testing.T) {
			s, err := a.Collect(context.Background(), 600)
			if err != nil {
				t.Fatalf("Collect() error = %v", err)
			}
			if gotPath != "/api/v1/query_range" || gotQuery != "sum(rate(x[1m]))" || gotStep != "60" {
				t.Errorf("request path=%s query=%s step=%s", gotPath, gotQuery, gotStep)
			}
			want := []float64{101, 115, 120}
			got := s.Values()
			if len(got) != len(want) {
				t.Fatalf("Collect() returned %d points, want %d", len(got), len(want))
			}
			for i := range want {
				if got[i] != want[i] {
					t.Errorf("value[%d] = %v, want %v", i, got[i], want[i])
				}
			}
			if s.Name != "sum(rate(x[1m]))" {
				t.Errorf("Name = %q, want the query", s.Name)
			}
		})
	}
}

func TestRangeQuery_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusBadGateway, ""},
		{"query error", http.StatusOK, `{"status": "error", "data": {}}`},
		{"bad json", http.StatusOK, `{`},
		{"bad value", http.StatusOK, `{"status": "success", "data": {"result": [{"values": [[1, "x"]]}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			a := &PrometheusAdapter{ServerURL: srv.URL, Query: "up"}
			if _, err := a.Collect(context.Background(), 60); err == nil {
				t.Error("Collect() error = nil, want error")
			}
		})
	}

	if _, err := (&PrometheusAdapter{}).Collect(context.Background(), 60); err == nil {
		t.Error("Collect() without ServerURL error = nil, want error")
	}
}
