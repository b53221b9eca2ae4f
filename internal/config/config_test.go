package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
logging:
  level: warn
  format: json
pipeline:
  queries: ["solar farm", "new warehouse"]
  maxItems: 8
  batchDelay: 250ms
  softDeadline: 20s
sites:
  - name: press
    scanner: listing
    url: https://press.example/news
    options:
      item: li.row
knowledge:
  seller: Acme Consulting
  products:
    - category: Energy
      name: Audit
      keywords: [solar]
      pitch: "Hi {company}"
`

func TestParseOverlaysDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"solar farm", "new warehouse"}, cfg.Pipeline.Queries)
	assert.Equal(t, 8, cfg.Pipeline.MaxItems)
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.BatchDelay)
	assert.Equal(t, 20*time.Second, cfg.Pipeline.SoftDeadline)
	assert.Equal(t, 5, cfg.Pipeline.BatchSize, "untouched default")

	require.Len(t, cfg.Sites, 1)
	assert.Equal(t, "listing", cfg.Sites[0].Scanner)
	assert.Equal(t, "li.row", cfg.Sites[0].Options["item"])

	assert.Equal(t, "Acme Consulting", cfg.Knowledge.Seller)
	require.Len(t, cfg.Knowledge.Products, 1)
	assert.Equal(t, []string{"solar"}, cfg.Knowledge.Products[0].Keywords)

	assert.Equal(t, "https://api.openai.com/v1/chat/completions", cfg.ChatGPT.Endpoint)
}

func TestParseRejectsInvalidYAML(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("pipeline: [unclosed"))
	assert.Error(t, err)
}

func TestParseRestoresEmptySections(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("sites: []\npipeline:\n  queries: []\n"))
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Sites)
	assert.NotEmpty(t, cfg.Pipeline.Queries)
}

func TestPipelineRequest(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	req := cfg.PipelineRequest()

	assert.Equal(t, cfg.Pipeline.Queries, req.Queries)
	assert.Equal(t, 45*time.Second, req.SoftDeadline)
	assert.Equal(t, 3*time.Second, req.SafetyMargin)
	assert.True(t, req.ResolveURLs)
	require.NoError(t, req.Validate())

	req.Queries[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.Pipeline.Queries[0])
}

func TestLoadAppliesFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(chatGPTAPIKeyEnv, "sk-test")
	t.Setenv(redisAddrEnv, "localhost:6380")
	t.Setenv(httpAddrEnv, ":9090")
	t.Setenv(logLevelEnv, "DEBUG")

	cfg := Load()

	assert.Equal(t, 8, cfg.Pipeline.MaxItems)
	assert.Equal(t, "sk-test", cfg.ChatGPT.APIKey)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFallsBackOnMissingFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	assert.Equal(t, defaultConfig().Sites, cfg.Sites)
}
