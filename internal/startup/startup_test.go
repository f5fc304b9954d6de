package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if info.OS == "" {
		t.Error("OS should not be empty")
	}
	if info.Arch == "" {
		t.Error("Arch should not be empty")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	base := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(base, "uploads"))
	t.Setenv("OUTPUT_DIR", filepath.Join(base, "output"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("PORT", "")
	t.Setenv("LOG_HEALTH_CHECKS", "")
	t.Setenv("METRICS_ENABLED", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if config.Port != "8080" {
		t.Errorf("Port = %q, want %q", config.Port, "8080")
	}
	if !config.LogHealthChecks {
		t.Error("LogHealthChecks should default to true")
	}
	if !config.MetricsEnabled {
		t.Error("MetricsEnabled should default to true")
	}
	if config.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", config.ShutdownTimeout)
	}
	if config.DatabasePath != filepath.Join(config.DatabaseDir, "encoder.db") {
		t.Errorf("DatabasePath = %q, want it under DatabaseDir", config.DatabasePath)
	}
}

func TestLoadConfigCreatesDirectories(t *testing.T) {
	base := t.TempDir()
	uploadDir := filepath.Join(base, "nested", "uploads")
	t.Setenv("UPLOAD_DIR", uploadDir)
	t.Setenv("OUTPUT_DIR", filepath.Join(base, "output"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	info, err := os.Stat(uploadDir)
	if err != nil {
		t.Fatalf("upload directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("upload path is not a directory")
	}
}

func TestLoadConfigRejectsFileAsDirectory(t *testing.T) {
	base := t.TempDir()
	filePath := filepath.Join(base, "not-a-dir")
	if err := os.WriteFile(filePath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("UPLOAD_DIR", filePath)
	t.Setenv("OUTPUT_DIR", filepath.Join(base, "output"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))

	if _, err := LoadConfig(); err == nil {
		t.Error("LoadConfig() should fail when a configured directory is a file")
	}
}

func TestLoadConfigInvalidShutdownTimeout(t *testing.T) {
	base := t.TempDir()
	t.Setenv("UPLOAD_DIR", filepath.Join(base, "uploads"))
	t.Setenv("OUTPUT_DIR", filepath.Join(base, "output"))
	t.Setenv("DATABASE_DIR", filepath.Join(base, "db"))
	t.Setenv("SHUTDOWN_TIMEOUT", "bogus")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if config.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want fallback 30s", config.ShutdownTimeout)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		value        string
		defaultValue bool
		want         bool
	}{
		{"empty uses default", "", true, true},
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"1", "1", false, true},
		{"0", "0", true, false},
		{"invalid uses default", "yep", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL_KEY", tt.value)
			if got := getEnvBool("TEST_BOOL_KEY", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetRoutes(t *testing.T) {
	t.Parallel()

	router := mux.NewRouter()
	router.HandleFunc("/jobs", func(http.ResponseWriter, *http.Request) {}).Methods("POST")
	router.HandleFunc("/jobs/{jobId}/progress", func(http.ResponseWriter, *http.Request) {}).Methods("GET")

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error = %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("GetRoutes() returned %d routes, want 2", len(routes))
	}

	found := false
	for _, route := range routes {
		if route.Path == "/jobs/{jobId}/progress" && route.Method == "GET" {
			found = true
		}
	}
	if !found {
		t.Error("expected GET /jobs/{jobId}/progress in route list")
	}
}
