package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("OBJECT_STORE", "MinIO")
	t.Setenv("INDEXING_MODE", "")
	t.Setenv("UPLOAD_RATE_PER_MIN", "not-a-number")
	t.Setenv("PUBLIC_BASE_URL", "https://files.example.com/")

	cfg := Load()
	if cfg.Env != "dev" || !cfg.IsDev() {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.ObjectStoreType != "minio" {
		t.Fatalf("expected minio store, got %q", cfg.ObjectStoreType)
	}
	if cfg.IndexingMode != "inline" {
		t.Fatalf("expected inline indexing, got %q", cfg.IndexingMode)
	}
	if cfg.UploadRatePerMin != 20 {
		t.Fatalf("expected default rate, got %d", cfg.UploadRatePerMin)
	}
	if cfg.PublicBaseURL != "https://files.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.PublicBaseURL)
	}
}

func TestNormalizeEnv(t *testing.T) {
	cases := map[string]string{
		"prod":        "production",
		"Production":  "production",
		" staging ":   "staging",
		"local":       "local",
		"development": "dev",
		"":            "dev",
	}
	for in, want := range cases {
		if got := normalizeEnv(in); got != want {
			t.Fatalf("normalizeEnv(%q) = %q, want %q", in, got, want)
		}
	}
}
