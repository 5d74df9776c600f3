// Package testutil provides shared test helpers for config files and process environment.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ConfigEnvironmentVariables lists every variable the config loader reads.
var ConfigEnvironmentVariables = []string{
	"PORT",
	"GEMINI_API_KEY",
	"GEMINI_BASE_URL",
	"GEMINI_MODEL",
	"LOG_LEVEL",
}

// ClearConfigEnv blanks every config environment variable for the duration of the test.
func ClearConfigEnv(t *testing.T) {
	t.Helper()
	for _, env := range ConfigEnvironmentVariables {
		t.Setenv(env, "")
	}
}

// SetupTestConfig writes a config file pointing the Gemini client at baseURL without an API key.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()

	// gemini stays last so SetupTestConfigWithAPIKey can append to it
	configContent := fmt.Sprintf(`server:
  port: 18080
log:
  level: debug
gemini:
  base_url: %s
  model: gemini-test
  timeout: 5s
`, baseURL)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey is SetupTestConfig plus a fake API key, for tests that
// need the outbound call to happen.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir, baseURL)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte("  api_key: fake-key-for-testing\n")...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}
