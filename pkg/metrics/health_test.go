package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetHealth(version string) {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		critical:   []string{ComponentLooper, ComponentWorkers},
		startTime:  time.Now(),
		version:    version,
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealth("")

	RegisterComponent(ComponentWorkers, true, "5 workers")

	require.Len(t, healthChecker.components, 1)
	comp := healthChecker.components[ComponentWorkers]
	assert.True(t, comp.Healthy)
	assert.Equal(t, "5 workers", comp.Message)
}

func TestGetHealth(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		status     string
	}{
		{"all healthy", map[string]bool{ComponentLooper: true, ComponentWorkers: true}, "healthy"},
		{"critical unhealthy", map[string]bool{ComponentLooper: false, ComponentWorkers: true}, "unhealthy"},
		{"optional unhealthy", map[string]bool{ComponentLooper: true, ComponentWorkers: true, "events": false}, "degraded"},
		{"nothing registered", nil, "healthy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("1.0.0")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "stopped")
			}

			health := GetHealth()
			assert.Equal(t, tt.status, health.Status)
			assert.Len(t, health.Components, len(tt.components))
			assert.Equal(t, "1.0.0", health.Version)
		})
	}
}

func TestGetHealthUnhealthyMessage(t *testing.T) {
	resetHealth("")
	RegisterComponent(ComponentLooper, false, "loop stopped")

	health := GetHealth()
	assert.Equal(t, "unhealthy: loop stopped", health.Components[ComponentLooper])
}

func TestGetReadiness(t *testing.T) {
	tests := []struct {
		name       string
		components map[string]bool
		status     string
	}{
		{"all ready", map[string]bool{ComponentLooper: true, ComponentWorkers: true}, "ready"},
		{"missing critical", map[string]bool{ComponentWorkers: true}, "not_ready"},
		{"critical unhealthy", map[string]bool{ComponentLooper: false, ComponentWorkers: true}, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetHealth("")
			for name, healthy := range tt.components {
				RegisterComponent(name, healthy, "")
			}

			readiness := GetReadiness()
			assert.Equal(t, tt.status, readiness.Status)
			if tt.status != "ready" {
				assert.NotEmpty(t, readiness.Message)
			}
		})
	}
}

func TestSetCriticalComponents(t *testing.T) {
	resetHealth("")
	SetCriticalComponents(ComponentWorkers)
	RegisterComponent(ComponentWorkers, true, "")

	assert.Equal(t, "ready", GetReadiness().Status, "looper is no longer critical")
}

func TestHealthHandler(t *testing.T) {
	resetHealth("test")
	RegisterComponent(ComponentWorkers, true, "")

	w := httptest.NewRecorder()
	HealthHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var health HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "test", health.Version)

	RegisterComponent("events", false, "broker stopped")
	w = httptest.NewRecorder()
	HealthHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "degraded is still serving")

	UpdateComponent(ComponentWorkers, false, "stopped")
	w = httptest.NewRecorder()
	HealthHandler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestReadyHandler(t *testing.T) {
	resetHealth("")
	RegisterComponent(ComponentWorkers, true, "")

	w := httptest.NewRecorder()
	ReadyHandler()(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	RegisterComponent(ComponentLooper, true, "")
	w = httptest.NewRecorder()
	ReadyHandler()(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var readiness HealthStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&readiness))
	assert.Equal(t, "ready", readiness.Status)
}

func TestLivenessHandler(t *testing.T) {
	resetHealth("")

	w := httptest.NewRecorder()
	LivenessHandler()(w, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "alive", response["status"])
	assert.NotEmpty(t, response["uptime"])
}

func TestUpdateComponent(t *testing.T) {
	resetHealth("")

	RegisterComponent("looper", true, "ok")
	UpdateComponent("looper", false, "error")

	comp := healthChecker.components["looper"]
	assert.False(t, comp.Healthy)
	assert.Equal(t, "error", comp.Message)
}
