package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/iabetor/creativespark/internal/audio"
	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/config"
	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/studio"
)

func cmdGenerate(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	idea := fs.String("idea", "", "创意描述（必填）")
	typ := fs.String("type", string(catalog.Song), "内容类型: Song, Story, Narration")
	aud := fs.String("audience", string(catalog.Kids), "受众: Kids, Adult")
	lang := fs.String("language", catalog.EnglishLanguage, "语言: English, Hindi, Tamil, Telugu")
	voice := fs.String("voice", "", "配音音色，默认为 "+catalog.DefaultVoice().Value)
	withAudio := fs.Bool("audio", false, "同时生成配音并保存为 WAV")
	play := fs.Bool("play", false, "生成配音后在本机播放（隐含 -audio）")
	out := fs.String("out", cfg.Output.Dir, "输出目录")
	key := fs.String("key", "", "API Key；传 - 则从标准输入读取")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*idea) == "" {
		fs.Usage()
		return errors.New("请通过 -idea 提供创意描述")
	}
	ct, err := catalog.ParseContentType(*typ)
	if err != nil {
		return err
	}
	a, err := catalog.ParseAudience(*aud)
	if err != nil {
		return err
	}

	apiKey := *key
	if apiKey == "-" {
		if apiKey, err = readKey(); err != nil {
			return err
		}
	}

	app, err := buildApp(cfg, apiKey, *play)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("正在生成 %s ...\n", ct.Label())
	output, err := app.session.Submit(ctx, studio.Form{Idea: *idea, Type: ct, Audience: a, Language: *lang})
	if err != nil {
		return fmt.Errorf("%s (%w)", studio.UserMessage(err), err)
	}

	fmt.Println()
	fmt.Println(content.FormatText(output))
	fmt.Println()

	if err := os.MkdirAll(*out, 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	name, body, err := app.session.TextDownload()
	if err != nil {
		return err
	}
	textPath := filepath.Join(*out, name)
	if err := os.WriteFile(textPath, body, 0644); err != nil {
		return fmt.Errorf("保存文本失败: %w", err)
	}
	fmt.Printf("文本已保存: %s\n", textPath)

	if !*withAudio && !*play {
		return nil
	}

	fmt.Println("正在生成配音 ...")
	buf, err := app.session.GenerateVoiceover(ctx, *voice)
	if err != nil {
		return fmt.Errorf("%s (%w)", studio.AudioMessage(err), err)
	}

	name, wav, err := app.session.AudioDownload()
	if err != nil {
		return err
	}
	info, err := audio.ParseWAV(wav)
	if err != nil {
		return fmt.Errorf("生成的 WAV 无效: %w", err)
	}
	wavPath := filepath.Join(*out, name)
	if err := os.WriteFile(wavPath, wav, 0644); err != nil {
		return fmt.Errorf("保存配音失败: %w", err)
	}
	fmt.Printf("配音已保存: %s（%d Hz, %d 声道, 时长 %s）\n", wavPath, info.SampleRate, info.Channels, buf.Duration())

	if *play {
		fmt.Println("正在播放，按 Ctrl+C 停止 ...")
		if err := app.session.Play(ctx); err != nil {
			return err
		}
	}
	return nil
}

// readKey 从标准输入读取一行作为 API Key。
func readKey() (string, error) {
	fmt.Fprint(os.Stderr, "请输入 Gemini API Key: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("读取 API Key 失败: %w", err)
	}
	key := strings.TrimSpace(line)
	if key == "" {
		return "", errors.New("API Key 不能为空")
	}
	return key, nil
}

func cmdVoices() {
	fmt.Println("语言:")
	fmt.Println("  名称       | 默认音色")
	fmt.Println("  -----------+----------")
	for _, l := range catalog.Languages() {
		fmt.Printf("  %-10s | %s\n", l.Label, l.VoiceName)
	}
	fmt.Println()
	fmt.Println("音色:")
	for _, v := range catalog.Voices() {
		fmt.Printf("  %-8s %s\n", v.Value, v.Label)
	}
}
