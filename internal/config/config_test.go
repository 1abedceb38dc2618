package config

import (
	"os"
	"path/filepath"
	"testing"
)

func Test_Load_With_No_File_Returns_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("", nil, FlagOverrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg != Default() {
		t.Fatalf("Load() = %+v, want %+v", cfg, Default())
	}
}

func Test_Load_Missing_Explicit_File_Is_An_Error(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"), nil, FlagOverrides{})
	if err == nil {
		t.Fatal("Load() err = nil, want an error for a missing explicit config file")
	}
}

func Test_Load_File_Overrides_Defaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lap-com.jsonc")
	contents := `{
		// JSONC comments are allowed.
		"qm_socket_path": "/tmp/qm.sock",
		"heartbeat_interval_ms": 50,
	}`

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg, err := Load(path, nil, FlagOverrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.QMSocketPath != "/tmp/qm.sock" {
		t.Errorf("QMSocketPath = %q, want /tmp/qm.sock", cfg.QMSocketPath)
	}

	if cfg.HeartbeatIntervalMs != 50 {
		t.Errorf("HeartbeatIntervalMs = %d, want 50", cfg.HeartbeatIntervalMs)
	}

	if cfg.ASILSocketPath != Default().ASILSocketPath {
		t.Errorf("ASILSocketPath = %q, want default %q (unset in file)", cfg.ASILSocketPath, Default().ASILSocketPath)
	}
}

func Test_Load_Env_Overrides_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lap-com.jsonc")

	if err := os.WriteFile(path, []byte(`{"heartbeat_interval_ms": 50}`), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	env := []string{"LAP_COM_HEARTBEAT_INTERVAL_MS=75", "LAP_COM_ENABLE_REAPER=true"}

	cfg, err := Load(path, env, FlagOverrides{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HeartbeatIntervalMs != 75 {
		t.Errorf("HeartbeatIntervalMs = %d, want 75 (env overrides file)", cfg.HeartbeatIntervalMs)
	}

	if !cfg.EnableReaper {
		t.Error("EnableReaper = false, want true from env")
	}
}

func Test_Load_Flags_Override_Env(t *testing.T) {
	t.Parallel()

	env := []string{"LAP_COM_HEARTBEAT_INTERVAL_MS=75"}
	flagVal := uint32(10)

	cfg, err := Load("", env, FlagOverrides{HeartbeatIntervalMs: &flagVal})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.HeartbeatIntervalMs != 10 {
		t.Errorf("HeartbeatIntervalMs = %d, want 10 (flag overrides env)", cfg.HeartbeatIntervalMs)
	}
}

func Test_Load_Rejects_Empty_Socket_Paths(t *testing.T) {
	t.Parallel()

	empty := ""

	_, err := Load("", nil, FlagOverrides{QMSocketPath: &empty})
	if err == nil {
		t.Fatal("Load() err = nil, want an error for an empty qm socket path")
	}
}

func Test_Format_Produces_Valid_Indented_JSON(t *testing.T) {
	t.Parallel()

	out, err := Format(Default())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	if out == "" {
		t.Fatal("Format() returned an empty string")
	}
}
