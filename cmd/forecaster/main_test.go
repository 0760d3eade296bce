package main

import (
	"context"
	"testing"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func servingStatus(t *testing.T, hs *health.Server, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	resp, err := hs.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("Check(%q) error = %v", service, err)
	}
	return resp.Status
}

func TestReadiness(t *testing.T) {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("a", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus("b", healthpb.HealthCheckResponse_NOT_SERVING)

	r := newReadiness(2, hs)

	r.markReady("a")
	if got := servingStatus(t, hs, "a"); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("a = %v, want SERVING", got)
	}
	if got := servingStatus(t, hs, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("overall = %v, want NOT_SERVING with one batch pending", got)
	}

	r.markReady("a")
	r.markReady("b")
	if got := servingStatus(t, hs, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("overall = %v, want SERVING", got)
	}
}
