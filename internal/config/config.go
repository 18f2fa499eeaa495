package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 是 Creative Spark 的顶层配置结构。
type Config struct {
	Gemini  GeminiConfig  `yaml:"gemini"`
	Key     KeyConfig     `yaml:"key"`
	Audio   AudioConfig   `yaml:"audio"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
}

// GeminiConfig 上游生成式 API 配置。
type GeminiConfig struct {
	BaseURL   string `yaml:"base_url"`
	TextModel string `yaml:"text_model"`
	TTSModel  string `yaml:"tts_model"`
	// Backend 文本生成后端：rest（直接调用 REST 接口）或 sdk（generative-ai-go）。
	// 语音合成始终走 REST。
	Backend string `yaml:"backend"`
	// HTTPTimeout 单次请求超时。0 表示不设置，由传输层自行决定。
	HTTPTimeout time.Duration `yaml:"http_timeout"`
}

// KeyConfig API Key 来源配置。
type KeyConfig struct {
	// Source 取值 host 或 env。为空时按启动参数自动选择。
	Source string `yaml:"source"`
	// EnvVars 环境变量回退时依次尝试的变量名。
	EnvVars []string `yaml:"env_vars"`
	// EnvFile 启动时加载的 .env 文件，不存在则忽略。
	EnvFile string `yaml:"env_file"`
}

// AudioConfig 语音数据格式与播放配置。
type AudioConfig struct {
	SampleRate int  `yaml:"sample_rate"`
	Channels   int  `yaml:"channels"`
	BitDepth   int  `yaml:"bit_depth"`
	Playback   bool `yaml:"playback"`
}

// OutputConfig 下载文件输出目录。
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// ServerConfig 本地 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// HistoryConfig 生成记录配置。默认关闭，所有内容只保存在内存中。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DBPath  string `yaml:"db_path"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Default 返回填充了默认值的配置，用于未提供配置文件的场景。
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

// Load 读取 YAML 配置文件并返回 Config。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查取值范围。
func (c *Config) Validate() error {
	switch c.Gemini.Backend {
	case "rest", "sdk":
	default:
		return fmt.Errorf("不支持的 gemini.backend: %s", c.Gemini.Backend)
	}
	switch c.Key.Source {
	case "", "host", "env":
	default:
		return fmt.Errorf("不支持的 key.source: %s", c.Key.Source)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate 必须为正数，当前为 %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels 必须为正数，当前为 %d", c.Audio.Channels)
	}
	if c.Audio.BitDepth != 16 {
		return fmt.Errorf("audio.bit_depth 仅支持 16，当前为 %d", c.Audio.BitDepth)
	}
	return nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	cfg.Gemini.BaseURL = strings.TrimRight(cfg.Gemini.BaseURL, "/")
	if cfg.Gemini.TextModel == "" {
		cfg.Gemini.TextModel = "gemini-2.5-flash"
	}
	if cfg.Gemini.TTSModel == "" {
		cfg.Gemini.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Gemini.Backend == "" {
		cfg.Gemini.Backend = "rest"
	}
	cfg.Gemini.Backend = strings.ToLower(cfg.Gemini.Backend)

	if len(cfg.Key.EnvVars) == 0 {
		cfg.Key.EnvVars = []string{"GEMINI_API_KEY", "API_KEY"}
	}
	if cfg.Key.EnvFile == "" {
		cfg.Key.EnvFile = ".env"
	}
	cfg.Key.Source = strings.ToLower(strings.TrimSpace(cfg.Key.Source))

	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 24000
	}
	if cfg.Audio.Channels == 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.BitDepth == 0 {
		cfg.Audio.BitDepth = 16
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = "127.0.0.1:8080"
	}

	if cfg.History.DBPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = filepath.Join(home, ".creativespark", "history.db")
		} else {
			cfg.History.DBPath = "./creativespark.db"
		}
	} else if strings.HasPrefix(cfg.History.DBPath, "~/") {
		// Go 不会自动展开 ~
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.DBPath = home + cfg.History.DBPath[1:]
		}
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
