package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"playground/internal/authapi"
	"playground/internal/testutil"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	testutil.MustNoError(t, err)

	testutil.AssertEqual(t, cfg.BaseURL, DefaultBaseURL)
	testutil.AssertEqual(t, cfg.LoginURL, authapi.DefaultLoginURL)
	testutil.AssertEqual(t, cfg.Timeout, DefaultTimeout)
	testutil.AssertEqual(t, cfg.TokenStatePath, DefaultTokenStatePath)
	testutil.AssertTrue(t, cfg.PrettyJSON != nil && *cfg.PrettyJSON, "pretty json defaults to true")
	testutil.AssertEqual(t, cfg.Logger.Level, DefaultLogLevel)
	testutil.AssertEqual(t, cfg.Logger.OutputPath, "stderr")
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := `baseURL: http://api.example:9000
loginURL: http://auth.example/api/login
timeout: 3s
successCode: 200
tokenStatePath: /tmp/state.json
prettyJSON: false
logger:
  level: debug
  format: json
`
	testutil.MustNoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	testutil.MustNoError(t, err)
	testutil.AssertEqual(t, cfg.BaseURL, "http://api.example:9000")
	testutil.AssertEqual(t, cfg.LoginURL, "http://auth.example/api/login")
	testutil.AssertEqual(t, cfg.Timeout, 3*time.Second)
	testutil.AssertEqual(t, cfg.SuccessCode, 200)
	testutil.AssertEqual(t, cfg.TokenStatePath, "/tmp/state.json")
	testutil.AssertTrue(t, cfg.PrettyJSON != nil && !*cfg.PrettyJSON, "pretty json should be false")
	testutil.AssertEqual(t, cfg.Logger.Level, "debug")
	testutil.AssertEqual(t, cfg.Logger.Format, "json")
	testutil.AssertEqual(t, cfg.Logger.OutputPath, "stderr")
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	testutil.MustNoError(t, os.WriteFile(path, []byte("timeout: ["), 0o600))

	_, err := Load(path)
	testutil.AssertTrue(t, err != nil, "expected parse error")
}
