package content

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/gemini"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/metrics"
)

// TextGenerator 按 JSON Schema 生成结构化文本。
type TextGenerator interface {
	GenerateText(ctx context.Context, apiKey, prompt string, schema *gemini.Schema) (string, error)
}

// SpeechGenerator 将文本合成为 base64 编码的 PCM 音频。
type SpeechGenerator interface {
	Synthesize(ctx context.Context, apiKey, text, voiceName string) (string, error)
}

// Request 是一次内容生成请求。
// VoiceName 仅随表单携带，文本生成不使用它。
type Request struct {
	Idea      string
	Type      catalog.ContentType
	Audience  catalog.Audience
	Language  string
	VoiceName string
}

// Validate 检查请求字段是否齐全。
func (r Request) Validate() error {
	if strings.TrimSpace(r.Idea) == "" {
		return fmt.Errorf("[content] %w: 创意不能为空", ErrInvalidRequest)
	}
	switch r.Type {
	case catalog.Song, catalog.Story, catalog.Narration:
	default:
		return fmt.Errorf("[content] %w: 未知内容类型 %q", ErrInvalidRequest, r.Type)
	}
	switch r.Audience {
	case catalog.Kids, catalog.Adult:
	default:
		return fmt.Errorf("[content] %w: 未知受众 %q", ErrInvalidRequest, r.Audience)
	}
	if strings.TrimSpace(r.Language) == "" {
		return fmt.Errorf("[content] %w: 语言不能为空", ErrInvalidRequest)
	}
	return nil
}

// Service 负责调用上游生成文本与语音，本身不持有状态。
type Service struct {
	text   TextGenerator
	speech SpeechGenerator
}

// NewService 创建内容服务。speech 可以为 nil，此时 GenerateAudio 返回 ErrConfiguration。
func NewService(text TextGenerator, speech SpeechGenerator) *Service {
	return &Service{text: text, speech: speech}
}

// Generate 生成一份创意内容。每次调用恰好发起一次上游请求，不重试。
func (s *Service) Generate(ctx context.Context, apiKey string, req Request) (out *CreativeContentOutput, err error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("[content] 生成内容: %w: 未提供 API Key", ErrConfiguration)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	defer func() {
		metrics.GenerationsTotal.WithLabelValues(string(req.Type), metrics.Result(err)).Inc()
		metrics.GenerationLatency.WithLabelValues(string(req.Type)).Observe(time.Since(start).Seconds())
	}()

	prompt := BuildPrompt(req.Idea, req.Type, req.Audience, req.Language)
	logger.Debugf("[content] 生成 %s（%s, %s），提示词 %d 字符", req.Type, req.Audience, req.Language, len(prompt))

	raw, err := s.text.GenerateText(ctx, apiKey, prompt, ResponseSchema(req.Type))
	if err != nil {
		return nil, classifyUpstream("生成内容", err)
	}
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("[content] 生成内容: %w", ErrGeneration)
	}

	out, err = ParseOutput(raw, req.Type)
	if err != nil {
		logger.Warnf("[content] 解析模型输出失败: %v", err)
		return nil, err
	}
	logger.Infof("[content] 已生成 %s，寓意 %d 字符", req.Type, len(out.Moral))
	return out, nil
}

// GenerateAudio 将文本合成为语音，返回上游给出的 base64 PCM 字符串（未解码）。
func (s *Service) GenerateAudio(ctx context.Context, apiKey, text, voiceName string) (data string, err error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", fmt.Errorf("[content] 生成语音: %w: 未提供 API Key", ErrConfiguration)
	}
	if s.speech == nil {
		return "", fmt.Errorf("[content] 生成语音: %w: 未配置语音合成", ErrConfiguration)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("[content] 生成语音: %w: 文本为空", ErrInvalidRequest)
	}

	start := time.Now()
	defer func() {
		metrics.SynthesesTotal.WithLabelValues(voiceName, metrics.Result(err)).Inc()
		metrics.SynthesisLatency.Observe(time.Since(start).Seconds())
	}()

	data, err = s.speech.Synthesize(ctx, apiKey, text, voiceName)
	if err != nil {
		return "", classifyUpstream("生成语音", err)
	}
	if data == "" {
		return "", fmt.Errorf("[content] 生成语音: %w: 响应中没有音频", ErrGeneration)
	}
	logger.Debugf("[content] 语音合成完成，voice=%s，base64 %d 字节", voiceName, len(data))
	return data, nil
}
