// Package studio 保存一次创作会话的全部状态：表单、生成结果、配音与播放。
// HTTP 服务与命令行共用同一套状态流转。
package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iabetor/creativespark/internal/audio"
	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/history"
	"github.com/iabetor/creativespark/internal/keysource"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/metrics"
)

var (
	// ErrStale 请求完成时已有更新的请求，结果被丢弃。
	ErrStale = errors.New("结果已过期")
	// ErrNoContent 尚未生成文本内容。
	ErrNoContent = errors.New("没有可用的文本内容")
	// ErrNoAudio 尚未生成配音。
	ErrNoAudio = errors.New("没有可用的配音")
	// ErrPlaybackDisabled 未启用本地播放。
	ErrPlaybackDisabled = errors.New("未启用本地播放")
)

// Generator 是内容服务的能力，*content.Service 实现了它。
type Generator interface {
	Generate(ctx context.Context, apiKey string, req content.Request) (*content.CreativeContentOutput, error)
	GenerateAudio(ctx context.Context, apiKey, text, voiceName string) (string, error)
}

// Playback 是本地播放能力，*audio.Player 实现了它。
type Playback interface {
	Load(buf *audio.Buffer) error
	Play(ctx context.Context) error
	Stop()
	Playing() bool
}

// Recorder 保存生成记录，*history.Store 实现了它。
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// Form 是用户提交的表单。
type Form struct {
	Idea     string              `json:"idea"`
	Type     catalog.ContentType `json:"type"`
	Audience catalog.Audience    `json:"audience"`
	Language string              `json:"language"`
}

// AudioFormat 描述上游返回的 PCM 数据格式。
type AudioFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// Option 配置 Session。
type Option func(*Session)

// WithPlayer 启用本地播放。
func WithPlayer(p Playback) Option {
	return func(s *Session) { s.player = p }
}

// WithRecorder 启用生成记录。
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithAudioFormat 覆盖默认的 24kHz/单声道/16bit。
func WithAudioFormat(f AudioFormat) Option {
	return func(s *Session) { s.format = f }
}

// Session 是单个用户的创作会话。所有方法并发安全。
type Session struct {
	gen      Generator
	keys     keysource.Source
	player   Playback
	recorder Recorder
	format   AudioFormat

	contentSeq content.Sequencer
	audioSeq   content.Sequencer

	mu         sync.RWMutex
	form       Form
	output     *content.CreativeContentOutput
	contentErr error
	generating bool

	voice        string
	pcm          []byte
	buffer       *audio.Buffer
	audioErr     error
	synthesizing bool
}

// New 创建会话。
func New(gen Generator, keys keysource.Source, opts ...Option) *Session {
	s := &Session{
		gen:  gen,
		keys: keys,
		format: AudioFormat{
			SampleRate: audio.DefaultSampleRate,
			Channels:   audio.DefaultChannels,
			BitDepth:   audio.DefaultBitDepth,
		},
		voice: catalog.DefaultVoice().Value,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// apiKey 从注入的来源取 Key，缺失时归为配置错误。
func (s *Session) apiKey(ctx context.Context) (string, error) {
	key, err := s.keys.APIKey(ctx)
	if err != nil {
		return "", fmt.Errorf("[studio] %w: %w", content.ErrConfiguration, err)
	}
	return key, nil
}

// Submit 提交表单并生成内容。旧的内容与配音会被清除。
// 若完成前又有新的提交，返回 ErrStale 且不修改状态。
func (s *Session) Submit(ctx context.Context, f Form) (*content.CreativeContentOutput, error) {
	f.Idea = strings.TrimSpace(f.Idea)
	lang, ok := catalog.LookupLanguage(f.Language)
	if !ok {
		return nil, fmt.Errorf("[studio] %w: 不支持的语言 %q", content.ErrInvalidRequest, f.Language)
	}
	f.Language = lang.Value

	ticket := s.contentSeq.Begin()
	s.audioSeq.Begin()

	s.mu.Lock()
	s.form = f
	s.output = nil
	s.contentErr = nil
	s.generating = true
	s.clearAudioLocked()
	s.mu.Unlock()

	out, err := s.generate(ctx, f)

	s.mu.Lock()
	if !s.contentSeq.IsCurrent(ticket) {
		s.mu.Unlock()
		metrics.StaleResultsTotal.WithLabelValues("content").Inc()
		logger.Debugf("[studio] 丢弃过期的生成结果 #%d", ticket)
		return nil, ErrStale
	}
	s.generating = false
	if err != nil {
		s.contentErr = err
		s.mu.Unlock()
		logger.Warnf("[studio] 生成失败: %v", err)
		return nil, err
	}
	s.output = out
	s.mu.Unlock()

	s.record(ctx, f, out)
	return out, nil
}

func (s *Session) generate(ctx context.Context, f Form) (*content.CreativeContentOutput, error) {
	key, err := s.apiKey(ctx)
	if err != nil {
		return nil, err
	}
	return s.gen.Generate(ctx, key, content.Request{
		Idea:     f.Idea,
		Type:     f.Type,
		Audience: f.Audience,
		Language: f.Language,
	})
}

func (s *Session) record(ctx context.Context, f Form, out *content.CreativeContentOutput) {
	if s.recorder == nil {
		return
	}
	_, err := s.recorder.Record(ctx, history.Entry{
		Idea:        f.Idea,
		ContentType: f.Type,
		Audience:    f.Audience,
		Language:    f.Language,
		Text:        out.MainText(),
		Moral:       out.Moral,
	})
	if err != nil {
		logger.Errorf("[studio] 保存生成记录失败: %v", err)
	}
}

// clearAudioLocked 清除配音并停止播放，调用方需持有写锁。
func (s *Session) clearAudioLocked() {
	s.pcm = nil
	s.buffer = nil
	s.audioErr = nil
	s.synthesizing = false
	if s.player != nil {
		if err := s.player.Load(nil); err != nil {
			logger.Debugf("[studio] 清空播放器失败: %v", err)
		}
	}
}

// GenerateVoiceover 为当前内容生成配音。voice 为空时沿用上次选择的音色。
// 失败只影响配音状态，文本内容保持不变。
func (s *Session) GenerateVoiceover(ctx context.Context, voice string) (*audio.Buffer, error) {
	s.mu.Lock()
	if s.output == nil {
		s.mu.Unlock()
		return nil, ErrNoContent
	}
	if strings.TrimSpace(voice) == "" {
		voice = s.voice
	}
	profile, ok := catalog.LookupVoice(voice)
	if !ok {
		s.mu.Unlock()
		return nil, fmt.Errorf("[studio] %w: 不支持的音色 %q", content.ErrInvalidRequest, voice)
	}
	ticket := s.audioSeq.Begin()
	s.voice = profile.Value
	text := content.FormatText(s.output)
	s.clearAudioLocked()
	s.synthesizing = true
	s.mu.Unlock()

	buf, pcm, err := s.synthesize(ctx, text, profile.Value)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.audioSeq.IsCurrent(ticket) {
		metrics.StaleResultsTotal.WithLabelValues("audio").Inc()
		logger.Debugf("[studio] 丢弃过期的配音 #%d", ticket)
		return nil, ErrStale
	}
	s.synthesizing = false
	if err != nil {
		s.audioErr = err
		logger.Warnf("[studio] 配音失败: %v", err)
		return nil, err
	}
	s.pcm = pcm
	s.buffer = buf
	if s.player != nil {
		if err := s.player.Load(buf); err != nil {
			logger.Warnf("[studio] 加载播放器失败: %v", err)
		}
	}
	metrics.AudioSeconds.Add(buf.Duration().Seconds())
	logger.Infof("[studio] 配音完成，音色 %s，时长 %s", profile.Value, buf.Duration().Round(time.Millisecond))
	return buf, nil
}

func (s *Session) synthesize(ctx context.Context, text, voice string) (*audio.Buffer, []byte, error) {
	key, err := s.apiKey(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.gen.GenerateAudio(ctx, key, text, voice)
	if err != nil {
		return nil, nil, err
	}
	pcm, err := audio.DecodeBase64(data)
	if err != nil {
		return nil, nil, fmt.Errorf("[studio] %w: %w", content.ErrGeneration, err)
	}
	buf, err := audio.DecodePCM(pcm, s.format.SampleRate, s.format.Channels)
	if err != nil {
		return nil, nil, fmt.Errorf("[studio] %w: %w", content.ErrGeneration, err)
	}
	return buf, pcm, nil
}

// TextDownload 返回文本下载的文件名与内容。
func (s *Session) TextDownload() (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.output == nil {
		return "", nil, ErrNoContent
	}
	return content.TextFileName(s.form.Type), []byte(content.FormatText(s.output)), nil
}

// AudioDownload 返回 WAV 下载的文件名与内容。
func (s *Session) AudioDownload() (string, []byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.pcm) == 0 {
		return "", nil, ErrNoAudio
	}
	wav := audio.EncodeWAV(s.pcm, s.format.SampleRate, s.format.Channels, s.format.BitDepth)
	return "voiceover-" + s.voice + ".wav", wav, nil
}

// Play 播放当前配音，阻塞到播放结束、Stop 或 ctx 取消。
func (s *Session) Play(ctx context.Context) error {
	if s.player == nil {
		return ErrPlaybackDisabled
	}
	s.mu.RLock()
	has := s.buffer != nil
	s.mu.RUnlock()
	if !has {
		return ErrNoAudio
	}
	return s.player.Play(ctx)
}

// PlaybackEnabled 返回是否配置了本地播放。
func (s *Session) PlaybackEnabled() bool {
	return s.player != nil
}

// Stop 停止播放。
func (s *Session) Stop() {
	if s.player != nil {
		s.player.Stop()
	}
}

// Snapshot 是会话状态的只读副本。
type Snapshot struct {
	Form         Form                           `json:"form"`
	Output       *content.CreativeContentOutput `json:"output,omitempty"`
	Text         string                         `json:"text,omitempty"`
	Generating   bool                           `json:"generating"`
	Error        string                         `json:"error,omitempty"`
	Voice        string                         `json:"voice"`
	HasAudio     bool                           `json:"hasAudio"`
	AudioFrames  int                            `json:"audioFrames,omitempty"`
	AudioSeconds float64                        `json:"audioSeconds,omitempty"`
	Synthesizing bool                           `json:"synthesizing"`
	AudioError   string                         `json:"audioError,omitempty"`
	Playing      bool                           `json:"playing"`
}

// Snapshot 返回当前状态。
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Form:         s.form,
		Output:       s.output,
		Generating:   s.generating,
		Voice:        s.voice,
		HasAudio:     s.buffer != nil,
		Synthesizing: s.synthesizing,
	}
	if s.output != nil {
		snap.Text = content.FormatText(s.output)
	}
	if s.contentErr != nil {
		snap.Error = UserMessage(s.contentErr)
	}
	if s.buffer != nil {
		snap.AudioFrames = s.buffer.Frames
		snap.AudioSeconds = s.buffer.Duration().Seconds()
	}
	if s.audioErr != nil {
		snap.AudioError = AudioMessage(s.audioErr)
	}
	s.mu.RUnlock()

	if s.player != nil {
		snap.Playing = s.player.Playing()
	}
	return snap
}
