package main

import (
	"fmt"

	"github.com/iabetor/creativespark/internal/audio"
	"github.com/iabetor/creativespark/internal/config"
	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/database"
	"github.com/iabetor/creativespark/internal/gemini"
	"github.com/iabetor/creativespark/internal/history"
	"github.com/iabetor/creativespark/internal/keysource"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/studio"
)

// app 汇总一次运行所需的组件，由 buildApp 按配置装配。
type app struct {
	session *studio.Session
	host    *keysource.Host
	store   *history.Store
	db      *database.DB
	player  *audio.Player
}

// newService 按配置选择文本生成后端，语音合成始终走 REST。
func newService(cfg *config.Config) *content.Service {
	client := gemini.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.TextModel, cfg.Gemini.TTSModel, cfg.Gemini.HTTPTimeout)

	var text content.TextGenerator = client
	if cfg.Gemini.Backend == "sdk" {
		text = gemini.NewSDKTextGenerator(cfg.Gemini.TextModel)
		logger.Infof("[main] 文本生成使用 SDK 后端 (model=%s)", cfg.Gemini.TextModel)
	} else {
		logger.Infof("[main] 文本生成使用 REST 后端 (model=%s)", cfg.Gemini.TextModel)
	}
	return content.NewService(text, client)
}

// buildApp 装配会话。givenKey 来自命令行，withPlayer 控制是否打开音频设备。
func buildApp(cfg *config.Config, givenKey string, withPlayer bool) (*app, error) {
	a := &app{}

	keys, host := keysource.Select(cfg.Key, givenKey)
	a.host = host

	opts := []studio.Option{
		studio.WithAudioFormat(studio.AudioFormat{
			SampleRate: cfg.Audio.SampleRate,
			Channels:   cfg.Audio.Channels,
			BitDepth:   cfg.Audio.BitDepth,
		}),
	}

	if cfg.History.Enabled {
		db, err := database.Open(cfg.History.DBPath)
		if err != nil {
			return nil, fmt.Errorf("打开生成记录失败: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, err
		}
		a.db = db
		a.store = history.NewStore(db)
		opts = append(opts, studio.WithRecorder(a.store))
	}

	if withPlayer {
		player, err := audio.NewPlayer()
		if err != nil {
			// 没有声卡时仍可生成与下载
			logger.Warnf("[main] 音频播放不可用: %v", err)
		} else {
			a.player = player
			opts = append(opts, studio.WithPlayer(player))
		}
	}

	a.session = studio.New(newService(cfg), keys, opts...)
	return a, nil
}

// Close 释放播放器与数据库。
func (a *app) Close() {
	if a.player != nil {
		a.player.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
