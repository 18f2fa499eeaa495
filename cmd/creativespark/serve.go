package main

import (
	"context"
	"flag"
	"time"

	"github.com/iabetor/creativespark/internal/config"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/server"
)

func cmdServe(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "监听地址")
	key := fs.String("key", "", "初始 API Key，也可稍后通过 PUT /api/v1/key 设置")
	accessLog := fs.Bool("access-log", true, "输出请求日志")
	if err := fs.Parse(args); err != nil {
		return err
	}

	app, err := buildApp(cfg, *key, cfg.Audio.Playback)
	if err != nil {
		return err
	}
	defer app.Close()

	opts := server.Options{
		Session:   app.session,
		Host:      app.host,
		AccessLog: *accessLog,
	}
	if app.store != nil {
		opts.History = app.store
	}
	srv := server.New(opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(*addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("[main] 关闭 HTTP 服务出错: %v", err)
	}
	logger.Info("[main] Creative Spark 已停止")
	return nil
}
