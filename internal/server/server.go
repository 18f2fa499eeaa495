// Package server 通过 HTTP 暴露创作会话，供浏览器或其他前端调用。
package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"

	"github.com/iabetor/creativespark/internal/history"
	"github.com/iabetor/creativespark/internal/keysource"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/studio"
)

const appName = "creativespark"

// HistoryReader 读取生成记录，*history.Store 实现了它。
type HistoryReader interface {
	List(ctx context.Context, limit int) ([]history.Entry, error)
	// Get 在记录不存在时返回 nil, nil。
	Get(ctx context.Context, id uuid.UUID) (*history.Entry, error)
}

// Options 是 Server 的依赖。
type Options struct {
	Session *studio.Session
	// Host 非 nil 时允许通过 /api/v1/key 设置 Key。
	Host *keysource.Host
	// History 为 nil 时不注册 /api/v1/history。
	History HistoryReader
	// Log 为 nil 时使用全局 logger。
	Log *zap.Logger
	// AccessLog 是否输出请求日志。
	AccessLog bool
}

// Server 是 HTTP 服务。
type Server struct {
	app     *fiber.App
	session *studio.Session
	host    *keysource.Host
	history HistoryReader
	log     *zap.Logger
}

// New 创建 HTTP 服务并注册路由。
func New(opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logger.Z
	}

	s := &Server{
		session: opts.Session,
		host:    opts.Host,
		history: opts.History,
		log:     log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               appName,
		ServerHeader:          appName,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(log),
		ReadTimeout:           30 * time.Second,
	})

	s.app.Use(recover.New())
	if opts.AccessLog {
		s.app.Use(fiberlogger.New())
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	s.app.Get("/metrics", func(c *fiber.Ctx) error {
		metricsHandler(c.Context())
		return nil
	})

	v1 := s.app.Group("/api/v1")
	v1.Get("/catalog", s.handleCatalog)
	v1.Put("/key", s.handleSetKey)
	v1.Delete("/key", s.handleClearKey)
	v1.Get("/session", s.handleSession)
	v1.Post("/content", s.handleContent)
	v1.Post("/voiceover", s.handleVoiceover)
	v1.Get("/content.txt", s.handleTextDownload)
	v1.Get("/voiceover.wav", s.handleAudioDownload)
	v1.Post("/playback", s.handlePlay)
	v1.Delete("/playback", s.handleStop)
	if s.history != nil {
		v1.Get("/history", s.handleHistory)
		v1.Get("/history/:id", s.handleHistoryEntry)
	}
}

// App 返回底层 fiber.App，测试中用 app.Test 发请求。
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 开始监听，阻塞直到服务关闭。
func (s *Server) Listen(addr string) error {
	logger.Infof("[server] 监听 %s", addr)
	return s.app.Listen(addr)
}

// Shutdown 优雅关闭服务。
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
