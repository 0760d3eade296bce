package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"
)

// PrometheusAdapter fetches a series from the Prometheus HTTP API with a
// /api/v1/query_range call. If the query returns several series their
// values are summed per timestamp.
type PrometheusAdapter struct {
	// ServerURL is the base URL, e.g. http://prometheus.monitoring.svc:9090
	ServerURL string
	// Query is the PromQL expression to evaluate.
	Query string
	// StepSeconds controls the resolution (defaults to 60s if <= 0).
	StepSeconds int
	// HTTPClient is optional; if nil a default client with timeout is used.
	HTTPClient *http.Client
}

func (p *PrometheusAdapter) Name() string { return "prometheus" }

// Collect implements Adapter.
func (p *PrometheusAdapter) Collect(ctx context.Context, windowSeconds int) (*Series, error) {
	return queryRange(ctx, p.Name(), p.HTTPClient, p.ServerURL, p.Query, p.StepSeconds, windowSeconds)
}

// VictoriaMetricsAdapter fetches a series from VictoriaMetrics through its
// Prometheus-compatible API. It behaves exactly like PrometheusAdapter.
type VictoriaMetricsAdapter struct {
	// ServerURL is the base URL, e.g. http://victoria-metrics:8428
	ServerURL string
	// Query is the MetricsQL/PromQL expression to evaluate.
	Query       string
	StepSeconds int
	HTTPClient  *http.Client
}

func (v *VictoriaMetricsAdapter) Name() string { return "victoria-metrics" }

// Collect implements Adapter.
func (v *VictoriaMetricsAdapter) Collect(ctx context.Context, windowSeconds int) (*Series, error) {
	return queryRange(ctx, v.Name(), v.HTTPClient, v.ServerURL, v.Query, v.StepSeconds, windowSeconds)
}

func queryRange(ctx context.Context, name string, cli *http.Client, serverURL, query string, step, windowSeconds int) (*Series, error) {
	if serverURL == "" || query == "" {
		return nil, fmt.Errorf("%s adapter: ServerURL and Query are required", name)
	}
	step = defaultStep(step)
	start, end := window(windowSeconds)

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ServerURL: %w", err)
	}
	u.Path = "/api/v1/query_range"

	q := u.Query()
	q.Set("query", query)
	q.Set("start", strconv.FormatInt(start.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	q.Set("step", strconv.Itoa(step))
	u.RawQuery = q.Encode()

	if cli == nil {
		cli = &http.Client{Timeout: 10 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d", name, resp.StatusCode)
	}

	var pr RangeResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", name, err)
	}
	if pr.Status != "success" {
		return nil, fmt.Errorf("%s status: %s", name, pr.Status)
	}

	points, err := SumRangeResult(pr.Data.Result)
	if err != nil {
		return nil, err
	}
	return &Series{Name: query, Points: points}, nil
}

// RangeResponse is the body of a Prometheus-compatible range query.
type RangeResponse struct {
	Status string    `json:"status"`
	Data   RangeData `json:"data"`
}

// RangeData contains the result of a range query.
type RangeData struct {
	ResultType string        `json:"resultType"`
	Result     []RangeSeries `json:"result"`
}

// RangeSeries is one labelled series of a range query result.
type RangeSeries struct {
	Metric map[string]string `json:"metric"`
	// Values is an array of [ <unix_time_float>, "<value_string>" ]
	Values [][]any `json:"values"`
}

// SumRangeResult merges series into one, summing values that share a
// timestamp, and returns the points sorted by time.
func SumRangeResult(series []RangeSeries) ([]Point, error) {
	acc := make(map[int64]float64)
	for _, s := range series {
		for _, pair := range s.Values {
			if len(pair) != 2 {
				return nil, fmt.Errorf("invalid value pair length: %d", len(pair))
			}
			ts, err := toFloat(pair[0])
			if err != nil {
				return nil, fmt.Errorf("timestamp: %w", err)
			}
			val, err := toFloat(pair[1])
			if err != nil {
				return nil, fmt.Errorf("value: %w", err)
			}
			acc[int64(ts)] += val
		}
	}

	points := make([]Point, 0, len(acc))
	for ts, v := range acc {
		points = append(points, Point{Time: time.Unix(ts, 0).UTC(), Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Time.Before(points[j].Time)
	})
	return points, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("parse %q: %w", x, err)
		}
		return f, nil
	case json.Number:
		return x.Float64()
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
