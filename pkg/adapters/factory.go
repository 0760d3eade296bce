package adapters

import (
	"encoding/json"
	"fmt"
)

// New creates an adapter from its kind and a flat string configuration, as
// found in ADAPTER_* environment variables or a series file.
//
// Supported kinds:
//   - "prometheus":      url (default http://localhost:9090), query
//   - "victoriametrics": url (default http://localhost:8428), query
//   - "http":            url, method, body, headers (JSON object),
//     valuePath, timestampPath, timestampFormat, templateVars (JSON object)
func New(kind string, config map[string]string, stepSeconds int) (Adapter, error) {
	switch kind {
	case "prometheus":
		url, query, err := rangeQueryConfig(kind, config, "http://localhost:9090")
		if err != nil {
			return nil, err
		}
		return &PrometheusAdapter{ServerURL: url, Query: query, StepSeconds: stepSeconds}, nil
	case "victoriametrics", "victoria-metrics":
		url, query, err := rangeQueryConfig(kind, config, "http://localhost:8428")
		if err != nil {
			return nil, err
		}
		return &VictoriaMetricsAdapter{ServerURL: url, Query: query, StepSeconds: stepSeconds}, nil
	case "http":
		return newHTTP(config, stepSeconds)
	default:
		return nil, fmt.Errorf("unknown adapter kind: %s (must be prometheus, victoriametrics, or http)", kind)
	}
}

func rangeQueryConfig(kind string, config map[string]string, defaultURL string) (url, query string, err error) {
	query = config["query"]
	if query == "" {
		return "", "", fmt.Errorf("%s adapter requires 'query' config", kind)
	}
	url = config["url"]
	if url == "" {
		url = defaultURL
	}
	return url, query, nil
}

func newHTTP(config map[string]string, stepSeconds int) (Adapter, error) {
	h := &HTTPAdapter{
		URL:             config["url"],
		Method:          config["method"],
		Body:            config["body"],
		ValuePath:       config["valuePath"],
		TimestampPath:   config["timestampPath"],
		TimestampFormat: config["timestampFormat"],
		StepSeconds:     stepSeconds,
	}
	if h.Method == "" {
		h.Method = "GET"
	}

	if raw := config["headers"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &h.Headers); err != nil {
			return nil, fmt.Errorf("invalid 'headers' JSON: %w", err)
		}
	}
	if raw := config["templateVars"]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &h.TemplateVars); err != nil {
			return nil, fmt.Errorf("invalid 'templateVars' JSON: %w", err)
		}
	}

	if err := h.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("http adapter: %w", err)
	}
	return h, nil
}
