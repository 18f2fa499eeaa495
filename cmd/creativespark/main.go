package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iabetor/creativespark/internal/config"
	"github.com/iabetor/creativespark/internal/logger"
)

const defaultConfigPath = "configs/creativespark.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "配置文件路径")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号，优雅关闭
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("[main] 收到信号 %v，正在关闭...", sig)
		cancel()
	}()

	switch args[0] {
	case "generate":
		err = cmdGenerate(ctx, cfg, args[1:])
	case "voices":
		cmdVoices()
	case "serve":
		err = cmdServe(ctx, cfg, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

// loadConfig 读取配置文件。默认路径不存在时使用内置默认值。
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil && path == defaultConfigPath && errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Creative Spark 创意内容生成工具")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "用法: creativespark [-config <path>] <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "命令:")
	fmt.Fprintln(os.Stderr, "  generate   根据创意生成歌曲、故事或旁白，可选生成配音")
	fmt.Fprintln(os.Stderr, "  voices     列出支持的语言和音色")
	fmt.Fprintln(os.Stderr, "  serve      启动本地 HTTP 服务")
}
