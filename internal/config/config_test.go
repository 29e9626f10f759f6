package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromFile 验证 YAML 配置能被正确加载并应用默认值
func TestLoadConfigFromFile(t *testing.T) {
	yamlContent := `
llm:
  api_url: "http://localhost:9999/v1/chat/completions"
  model: "qwen-plus"
minio:
  endpoint: "minio.example.com:9000"
  bucketName: "cv-bucket"
mysql:
  host: "db.example.com"
  port: 3307
matcher:
  semantic_threshold: 60
server:
  address: ":9090"
`
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err, "无法创建临时目录")
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	err = os.WriteFile(configPath, []byte(yamlContent), 0644)
	require.NoError(t, err, "无法写入临时配置文件")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err, "加载配置不应返回错误")
	require.NotNil(t, cfg)

	// 显式配置的字段
	assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.LLM.APIURL)
	assert.Equal(t, "qwen-plus", cfg.LLM.Model)
	assert.Equal(t, "minio.example.com:9000", cfg.MinIO.Endpoint)
	assert.Equal(t, "cv-bucket", cfg.MinIO.BucketName)
	assert.Equal(t, "db.example.com", cfg.MySQL.Host)
	assert.Equal(t, 3307, cfg.MySQL.Port)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 60.0, cfg.Matcher.SemanticThreshold)

	// 未配置的字段应拿到默认值
	assert.Equal(t, 1500, cfg.LLM.SkillExtractMaxTokens)
	assert.Equal(t, 1000, cfg.LLM.RequirementMaxTokens)
	assert.Equal(t, 800, cfg.LLM.ScoringMaxTokens)
	assert.Equal(t, 4000, cfg.LLM.MaxResumeChars)
	assert.Equal(t, 3000, cfg.LLM.MaxJobDescChars)
	assert.Equal(t, 3600, cfg.MinIO.PresignExpirySeconds)
	assert.Equal(t, 80.0, cfg.Matcher.DeterministicThreshold)
	assert.Equal(t, 3, cfg.Matcher.TopCandidates)
	assert.Equal(t, 24, cfg.Redis.RequirementCacheTTLHours)
}

// TestLoadConfigEnvOverride 验证环境变量优先于配置文件
func TestLoadConfigEnvOverride(t *testing.T) {
	yamlContent := `
llm:
  api_key: "from-file"
telegram:
  bot_token: "file-token"
`
	tmpDir, err := os.MkdirTemp("", "config-test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644))

	t.Setenv("LLM_API_KEY", "from-env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.LLM.APIKey, "环境变量应覆盖配置文件中的API密钥")
	assert.Equal(t, "env-token", cfg.Telegram.BotToken, "环境变量应覆盖配置文件中的bot token")
}

// TestLoadConfigMissingFileInTest 测试环境下找不到配置文件时应返回默认配置
func TestLoadConfigMissingFileInTest(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(os.TempDir(), "definitely-not-there", "config.yaml"))
	require.NoError(t, err, "测试环境下缺失配置文件不应报错")
	require.NotNil(t, cfg)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "qwen-turbo", cfg.LLM.Model)
	assert.NotEmpty(t, cfg.LLM.APIKey)
	assert.Equal(t, 75.0, cfg.Matcher.SemanticThreshold)
	assert.True(t, cfg.Matcher.UseSemanticScoring)
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute), "空串应回落到默认值")
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute), "非法格式应回落到默认值")
}
