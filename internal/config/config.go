package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"resume-match-go/internal/tracing"
)

// RedisConfig holds configuration for Redis
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`      // 连接池大小
	MinIdleConns int `yaml:"min_idle_conns"` // 最小空闲连接数
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`  // 连接超时(秒)
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`  // 读取超时(秒)
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"` // 写入超时(秒)
	// JD要求缓存过期时间(小时)
	RequirementCacheTTLHours int `yaml:"requirement_cache_ttl_hours"`
}

// LLMConfig 推理服务配置
type LLMConfig struct {
	APIKey string `yaml:"api_key"`
	APIURL string `yaml:"api_url"`
	Model  string `yaml:"model"`
	// 各任务的token预算
	SkillExtractMaxTokens int `yaml:"skill_extract_max_tokens"`
	RequirementMaxTokens  int `yaml:"requirement_max_tokens"`
	ScoringMaxTokens      int `yaml:"scoring_max_tokens"`
	// 输入截断长度(字符)
	MaxResumeChars  int `yaml:"max_resume_chars"`
	MaxJobDescChars int `yaml:"max_job_desc_chars"`
	TimeoutSeconds  int `yaml:"timeout_seconds"`
}

// MinIOConfig MinIO配置结构
type MinIOConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"accessKeyID"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	UseSSL          bool   `yaml:"useSSL"`
	BucketName      string `yaml:"bucketName"`
	Location        string `yaml:"location"` // 可选，存储桶区域
	// 预签名下载链接有效期(秒)
	PresignExpirySeconds int `yaml:"presign_expiry_seconds"`
}

// MySQLConfig MySQL配置结构
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// 连接池设置
	MaxIdleConns int `yaml:"max_idle_conns"` // 最大空闲连接数
	MaxOpenConns int `yaml:"max_open_conns"` // 最大打开连接数
	// 连接生命周期
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
	ConnMaxIdleTimeMinutes int `yaml:"conn_max_idle_time_minutes"`
	// 超时设置
	ConnectTimeoutSeconds int `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds    int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds   int `yaml:"write_timeout_seconds"`
	// 日志设置
	LogLevel int `yaml:"log_level"` // 日志级别(1-4)
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address string `yaml:"address"` // 例如 ":8080" or "0.0.0.0:8080"
}

// TelegramConfig Telegram机器人配置
type TelegramConfig struct {
	BotToken       string `yaml:"bot_token"`
	APIURL         string `yaml:"api_url"` // 默认 https://api.telegram.org
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// MatcherConfig 匹配策略配置
type MatcherConfig struct {
	SemanticThreshold      float64 `yaml:"semantic_threshold"`      // 语义评分录用阈值
	DeterministicThreshold float64 `yaml:"deterministic_threshold"` // 关键词评分录用阈值
	TopCandidates          int     `yaml:"top_candidates"`          // 无录用时的候选展示数量
	UseSemanticScoring     bool    `yaml:"use_semantic_scoring"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// Config 应用程序配置
type Config struct {
	LLM LLMConfig `yaml:"llm"`

	MinIO MinIOConfig `yaml:"minio"`

	MySQL MySQLConfig `yaml:"mysql"`

	Redis RedisConfig `yaml:"redis"`

	Server ServerConfig `yaml:"server"`

	Telegram TelegramConfig `yaml:"telegram"`

	Matcher MatcherConfig `yaml:"matcher"`

	Logger LoggerConfig `yaml:"logger"`

	Tracing tracing.Config `yaml:"tracing"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
	// 如果未指定配置文件路径，则尝试在默认位置查找
	if configPath == "" {
		searchPaths := []string{
			"config.yaml",
			"./config.yaml",
			"../config.yaml",
			"../../config.yaml",
			filepath.Join(os.Getenv("HOME"), ".resume-match", "config.yaml"),
		}

		// 获取当前可执行文件路径
		execPath, err := os.Executable()
		if err == nil {
			execDir := filepath.Dir(execPath)
			searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
			searchPaths = append(searchPaths, filepath.Join(execDir, "..", "config.yaml"))
		}

		for _, path := range searchPaths {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}

		// 如果仍找不到配置文件，测试环境下返回默认配置
		if configPath == "" {
			if inTestEnvironment() {
				return createDefaultConfig(), nil
			}
			configPath = "config.yaml"
		}
	}

	// 检查文件是否存在
	if _, err := os.Stat(configPath); err != nil {
		if inTestEnvironment() {
			return createDefaultConfig(), nil
		}
		return nil, fmt.Errorf("配置文件不存在: %s", configPath)
	}

	// 读取配置文件
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	// 解析配置文件
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 从环境变量覆盖配置（如果存在）
	applyEnvOverrides(&config)

	applyDefaults(&config)

	return &config, nil
}

func inTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, "test") {
			return true
		}
	}
	return false
}

func applyEnvOverrides(config *Config) {
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	}
	if envURL := os.Getenv("LLM_API_URL"); envURL != "" {
		config.LLM.APIURL = envURL
	}
	if envModel := os.Getenv("LLM_MODEL"); envModel != "" {
		config.LLM.Model = envModel
	}
	if envToken := os.Getenv("TELEGRAM_BOT_TOKEN"); envToken != "" {
		config.Telegram.BotToken = envToken
	}
}

func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.LLM.APIURL == "" {
		config.LLM.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "qwen-turbo"
	}
	if config.LLM.SkillExtractMaxTokens == 0 {
		config.LLM.SkillExtractMaxTokens = 1500
	}
	if config.LLM.RequirementMaxTokens == 0 {
		config.LLM.RequirementMaxTokens = 1000
	}
	if config.LLM.ScoringMaxTokens == 0 {
		config.LLM.ScoringMaxTokens = 800
	}
	if config.LLM.MaxResumeChars == 0 {
		config.LLM.MaxResumeChars = 4000
	}
	if config.LLM.MaxJobDescChars == 0 {
		config.LLM.MaxJobDescChars = 3000
	}
	if config.LLM.TimeoutSeconds == 0 {
		config.LLM.TimeoutSeconds = 60
	}
	if config.MinIO.PresignExpirySeconds == 0 {
		config.MinIO.PresignExpirySeconds = 3600
	}
	if config.Redis.RequirementCacheTTLHours == 0 {
		config.Redis.RequirementCacheTTLHours = 24
	}
	if config.Telegram.APIURL == "" {
		config.Telegram.APIURL = "https://api.telegram.org"
	}
	if config.Telegram.TimeoutSeconds == 0 {
		config.Telegram.TimeoutSeconds = 30
	}
	if config.Matcher.SemanticThreshold == 0 {
		config.Matcher.SemanticThreshold = 75
	}
	if config.Matcher.DeterministicThreshold == 0 {
		config.Matcher.DeterministicThreshold = 80
	}
	if config.Matcher.TopCandidates == 0 {
		config.Matcher.TopCandidates = 3
	}
}

// 创建一个默认配置，用于测试环境
func createDefaultConfig() *Config {
	config := &Config{}

	// LLM默认配置
	config.LLM.APIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	config.LLM.Model = "qwen-turbo"

	// MinIO默认配置
	config.MinIO.Endpoint = "localhost:9000"
	config.MinIO.AccessKeyID = "minioadmin"
	config.MinIO.SecretAccessKey = "minioadmin123"
	config.MinIO.UseSSL = false
	config.MinIO.BucketName = "resumes"
	config.MinIO.Location = ""

	// MySQL默认配置
	config.MySQL.Host = "localhost"
	config.MySQL.Port = 3306
	config.MySQL.Username = "root"
	config.MySQL.Password = "password"
	config.MySQL.Database = "resume_match"
	config.MySQL.MaxIdleConns = 10
	config.MySQL.MaxOpenConns = 100
	config.MySQL.ConnMaxLifetimeMinutes = 60
	config.MySQL.ConnMaxIdleTimeMinutes = 30
	config.MySQL.ConnectTimeoutSeconds = 10
	config.MySQL.ReadTimeoutSeconds = 30
	config.MySQL.WriteTimeoutSeconds = 30
	config.MySQL.LogLevel = 4 // Info级别

	// Redis默认配置
	config.Redis.Address = "localhost:6379"
	config.Redis.Password = ""
	config.Redis.DB = 0
	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3

	// Matcher默认配置
	config.Matcher.UseSemanticScoring = true

	// 日志默认配置
	config.Logger.Level = "info"
	config.Logger.Format = "pretty" // 开发环境默认使用美化输出
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = true

	// 获取环境变量
	if envKey := os.Getenv("LLM_API_KEY"); envKey != "" {
		config.LLM.APIKey = envKey
	} else {
		config.LLM.APIKey = "test_api_key"
	}
	if envToken := os.Getenv("TELEGRAM_BOT_TOKEN"); envToken != "" {
		config.Telegram.BotToken = envToken
	} else {
		config.Telegram.BotToken = "test_bot_token"
	}

	applyDefaults(config)

	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	// 检查文件是否已存在
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	config := createDefaultConfig()

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	err = os.WriteFile(filePath, data, 0644)
	if err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}

	fmt.Printf("示例配置文件已创建: %s\n", filePath)
	return nil
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
