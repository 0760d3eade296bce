package adapters

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		config  map[string]string
		wantErr bool
		check   func(t *testing.T, a Adapter)
	}{
		{
			name:   "prometheus",
			kind:   "prometheus",
			config: map[string]string{"url": "http://prometheus:9090", "query": "up"},
			check: func(t *testing.T, a Adapter) {
				p, ok := a.(*PrometheusAdapter)
				if !ok {
					t.Fatalf("New() = %T, want *PrometheusAdapter", a)
				}
				if p.ServerURL != "http://prometheus:9090" || p.Query != "up" || p.StepSeconds != 60 {
					t.Errorf("New() = %+v, want url/query/step from config", p)
				}
			},
		},
		{
			name:   "prometheus default url",
			kind:   "prometheus",
			config: map[string]string{"query": "up"},
			check: func(t *testing.T, a Adapter) {
				if got := a.(*PrometheusAdapter).ServerURL; got != "http://localhost:9090" {
					t.Errorf("ServerURL = %s, want http://localhost:9090", got)
				}
			},
		},
		{
			name:   "victoriametrics",
			kind:   "victoriametrics",
			config: map[string]string{"query": "sum(rate(requests[1m]))"},
			check: func(t *testing.T, a Adapter) {
				vm, ok := a.(*VictoriaMetricsAdapter)
				if !ok {
					t.Fatalf("New() = %T, want *VictoriaMetricsAdapter", a)
				}
				if vm.ServerURL != "http://localhost:8428" {
					t.Errorf("ServerURL = %s, want http://localhost:8428", vm.ServerURL)
				}
			},
		},
		{
			name: "http",
			kind: "http",
			config: map[string]string{
				"url":           "https://api.example.com/metrics",
				"valuePath":     "data.#.value",
				"timestampPath": "data.#.timestamp",
				"headers":       `{"Authorization": "Bearer {{.Token}}"}`,
				"templateVars":  `{"Token": "secret"}`,
			},
			check: func(t *testing.T, a Adapter) {
				h, ok := a.(*HTTPAdapter)
				if !ok {
					t.Fatalf("New() = %T, want *HTTPAdapter", a)
				}
				if h.Method != "GET" {
					t.Errorf("Method = %s, want GET", h.Method)
				}
				if h.Headers["Authorization"] != "Bearer {{.Token}}" || h.TemplateVars["Token"] != "secret" {
					t.Errorf("Headers = %v, TemplateVars = %v", h.Headers, h.TemplateVars)
				}
			},
		},
		{name: "unknown kind", kind: "kafka", config: map[string]string{}, wantErr: true},
		{name: "prometheus missing query", kind: "prometheus", config: map[string]string{"url": "http://p:9090"}, wantErr: true},
		{name: "http missing paths", kind: "http", config: map[string]string{"url": "http://x"}, wantErr: true},
		{
			name:    "http bad headers",
			kind:    "http",
			config:  map[string]string{"url": "http://x", "valuePath": "v", "timestampPath": "t", "headers": "{"},
			wantErr: true,
		},
		{
			name:    "http bad timestamp format",
			kind:    "http",
			config:  map[string]string{"url": "http://x", "valuePath": "v", "timestampPath": "t", "timestampFormat": "iso"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := New(tt.kind, tt.config, 60)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, a)
			}
		})
	}
}
