package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealth() {
	health.mu.Lock()
	defer health.mu.Unlock()
	health.components = make(map[string]component)
	health.startTime = time.Now()
	health.version = ""
}

func TestRegisterComponent(t *testing.T) {
	resetHealth()

	RegisterComponent("test-component", true, "running")

	health.mu.RLock()
	comp, ok := health.components["test-component"]
	health.mu.RUnlock()

	if !ok {
		t.Fatal("expected component to be registered")
	}
	if !comp.healthy {
		t.Error("component should be healthy")
	}
	if comp.message != "running" {
		t.Errorf("expected message 'running', got '%s'", comp.message)
	}
}

func TestRegisterComponent_Overwrites(t *testing.T) {
	resetHealth()

	RegisterComponent("grpcwire", false, "not yet listening")
	RegisterComponent("grpcwire", true, "listening")

	health.mu.RLock()
	comp := health.components["grpcwire"]
	health.mu.RUnlock()

	if !comp.healthy {
		t.Error("second registration should have replaced the first")
	}
}

func TestGetHealth_AllHealthy(t *testing.T) {
	resetHealth()
	SetVersion("1.0.0")
	RegisterComponent("scheduler", true, "")
	RegisterComponent("grpcwire", true, "")

	h := GetHealth()

	if h.Status != "healthy" {
		t.Errorf("expected status 'healthy', got '%s'", h.Status)
	}
	if len(h.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(h.Components))
	}
	if h.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", h.Version)
	}
}

func TestGetHealth_OneUnhealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", true, "")
	RegisterComponent("grpcwire", false, "not connected")

	h := GetHealth()

	if h.Status != "unhealthy" {
		t.Errorf("expected status 'unhealthy', got '%s'", h.Status)
	}
	if h.Components["grpcwire"] != "unhealthy: not connected" {
		t.Errorf("unexpected grpcwire status: %s", h.Components["grpcwire"])
	}
}

func TestGetReadiness_AllReady(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", true, "")
	RegisterComponent("grpcwire", true, "")

	readiness := GetReadiness()

	if readiness.Status != "ready" {
		t.Errorf("expected status 'ready', got '%s'", readiness.Status)
	}
}

func TestGetReadiness_MissingCriticalComponent(t *testing.T) {
	resetHealth()
	// neither scheduler nor grpcwire registered yet

	readiness := GetReadiness()

	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
	if readiness.Message == "" {
		t.Error("expected message explaining why not ready")
	}
}

func TestGetReadiness_CriticalComponentUnhealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", false, "directory actor not started")
	RegisterComponent("grpcwire", true, "")

	readiness := GetReadiness()

	if readiness.Status != "not_ready" {
		t.Errorf("expected status 'not_ready', got '%s'", readiness.Status)
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealth()
	SetVersion("test")
	RegisterComponent("scheduler", true, "")
	RegisterComponent("grpcwire", true, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var h HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if h.Status != "healthy" {
		t.Errorf("expected healthy status, got %s", h.Status)
	}
	if h.Version != "test" {
		t.Errorf("expected version 'test', got %s", h.Version)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", false, "broken")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	HealthHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var h HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&h); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if h.Status != "unhealthy" {
		t.Errorf("expected unhealthy status, got %s", h.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", true, "")
	RegisterComponent("grpcwire", true, "")

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var readiness HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if readiness.Status != "ready" {
		t.Errorf("expected ready status, got %s", readiness.Status)
	}
}

func TestReadyHandler_NotReady(t *testing.T) {
	resetHealth()
	RegisterComponent("scheduler", true, "")
	// grpcwire not registered

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()
	ReadyHandler()(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var readiness HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if readiness.Status != "not_ready" {
		t.Errorf("expected not_ready status, got %s", readiness.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	resetHealth()

	req := httptest.NewRequest("GET", "/live", nil)
	w := httptest.NewRecorder()
	LivenessHandler()(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["status"] != "alive" {
		t.Errorf("expected status 'alive', got '%s'", response["status"])
	}
	if response["uptime"] == "" {
		t.Error("uptime should not be empty")
	}
}
