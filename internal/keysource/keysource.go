// Package keysource 提供 API Key 的获取方式：由宿主注入，或从环境变量读取。
// 本包不会把 Key 写入磁盘。
package keysource

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/joho/godotenv"

	"github.com/iabetor/creativespark/internal/config"
	"github.com/iabetor/creativespark/internal/logger"
)

// ErrNoKey 当前来源没有可用的 Key。
var ErrNoKey = errors.New("未提供 API Key")

const (
	SourceHost = "host"
	SourceEnv  = "env"
)

// Source 是 API Key 的来源。
type Source interface {
	Name() string
	APIKey(ctx context.Context) (string, error)
}

// Host 保存由宿主（命令行参数、HTTP 接口）提供的 Key，只存在于内存中。
type Host struct {
	mu  sync.RWMutex
	key string
}

// NewHost 创建宿主来源，initial 可以为空。
func NewHost(initial string) *Host {
	return &Host{key: strings.TrimSpace(initial)}
}

func (h *Host) Name() string { return SourceHost }

// Set 替换当前 Key。
func (h *Host) Set(key string) {
	h.mu.Lock()
	h.key = strings.TrimSpace(key)
	h.mu.Unlock()
}

// Clear 清除当前 Key。
func (h *Host) Clear() {
	h.Set("")
}

// APIKey 返回当前 Key，未设置时返回 ErrNoKey。
func (h *Host) APIKey(ctx context.Context) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.key == "" {
		return "", ErrNoKey
	}
	return h.key, nil
}

// Env 依次从进程环境变量和 .env 文件中查找 Key。
type Env struct {
	vars   []string
	dotenv map[string]string
}

// NewEnv 创建环境变量来源。envFile 不存在时忽略，其他读取错误只记录日志。
func NewEnv(vars []string, envFile string) *Env {
	e := &Env{vars: vars}
	if envFile == "" {
		return e
	}
	values, err := godotenv.Read(envFile)
	switch {
	case err == nil:
		e.dotenv = values
		logger.Debugf("[keysource] 已加载 %s", envFile)
	case errors.Is(err, os.ErrNotExist):
	default:
		logger.Warnf("[keysource] 读取 %s 失败: %v", envFile, err)
	}
	return e
}

func (e *Env) Name() string { return SourceEnv }

// APIKey 按变量名顺序查找，进程环境优先于 .env 文件。
func (e *Env) APIKey(ctx context.Context) (string, error) {
	for _, name := range e.vars {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v, nil
		}
		if v := strings.TrimSpace(e.dotenv[name]); v != "" {
			return v, nil
		}
	}
	return "", ErrNoKey
}

// Select 在启动时选择来源：配置了 host 或通过参数给出了 Key 时用 Host，否则用 Env。
// 返回的 *Host 仅在选择 Host 时非 nil，供宿主后续 Set/Clear。
func Select(cfg config.KeyConfig, given string) (Source, *Host) {
	source := strings.ToLower(strings.TrimSpace(cfg.Source))
	if source == SourceHost || (source == "" && strings.TrimSpace(given) != "") {
		h := NewHost(given)
		logger.Infof("[keysource] 使用宿主提供的 API Key")
		return h, h
	}
	if source == SourceEnv && strings.TrimSpace(given) != "" {
		logger.Warnf("[keysource] 已配置 env 来源，忽略命令行提供的 Key")
	}
	logger.Infof("[keysource] 从环境变量读取 API Key: %s", strings.Join(cfg.EnvVars, ", "))
	return NewEnv(cfg.EnvVars, cfg.EnvFile), nil
}
