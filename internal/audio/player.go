package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/iabetor/creativespark/internal/logger"
)

var (
	// ErrPlayerClosed 表示播放器已释放。
	ErrPlayerClosed = errors.New("播放器已关闭")
	// ErrNothingLoaded 表示尚未加载可播放的音频。
	ErrNothingLoaded = errors.New("没有可播放的音频")
)

// source 是一次性的播放源，播放结束或停止后即失效。
type source struct {
	device *malgo.Device
	stop   chan struct{}
	once   sync.Once
}

func (s *source) release() {
	s.once.Do(func() {
		close(s.stop)
		_ = s.device.Stop()
		s.device.Uninit()
	})
}

// Player 使用 malgo (miniaudio) 管理音频播放。
// 播放上下文在 NewPlayer 时创建、在 Close 时释放；
// 每次 Play 都从同一份已解码数据重新创建播放源。
type Player struct {
	ctx     *malgo.AllocatedContext
	mu      sync.Mutex
	buffer  *Buffer
	pcm     []byte
	current *source
	closed  bool
}

// NewPlayer 创建播放器并初始化音频上下文。
func NewPlayer() (*Player, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("初始化播放上下文失败: %w", err)
	}
	return &Player{ctx: ctx}, nil
}

// Load 设置要播放的音频，并停止正在播放的旧音频。buf 为 nil 时清空。
func (p *Player) Load(buf *Buffer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPlayerClosed
	}
	p.releaseLocked()
	p.buffer = buf
	p.pcm = nil
	if buf != nil {
		p.pcm = buf.Interleaved()
	}
	return nil
}

// Playing 返回当前是否有播放源处于活动状态。
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current != nil
}

// Play 从头播放已加载的音频，阻塞直到播放完成、被 Stop 或 ctx 取消。
func (p *Player) Play(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPlayerClosed
	}
	if p.buffer == nil || len(p.pcm) == 0 {
		p.mu.Unlock()
		return ErrNothingLoaded
	}
	// 播放源只能使用一次，重新播放前先释放旧的
	p.releaseLocked()

	pcm := p.pcm
	channels := p.buffer.Channels
	frames, rate := p.buffer.Frames, p.buffer.SampleRate
	pos := 0
	done := make(chan struct{})

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(channels)
	deviceConfig.SampleRate = uint32(rate)
	deviceConfig.PeriodSizeInFrames = 512
	deviceConfig.Periods = 2

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			need := int(frameCount) * channels * 2
			if pos >= len(pcm) {
				clear(output[:need])
				select {
				case done <- struct{}{}:
				default:
				}
				return
			}
			n := copy(output[:need], pcm[pos:])
			clear(output[n:need])
			pos += n
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("初始化播放设备失败: %w", err)
	}
	src := &source{device: device, stop: make(chan struct{})}
	if err := device.Start(); err != nil {
		device.Uninit()
		p.mu.Unlock()
		return fmt.Errorf("启动播放设备失败: %w", err)
	}
	p.current = src
	p.mu.Unlock()

	logger.Debugf("[audio] 开始播放 %d 帧，采样率 %d Hz", frames, rate)

	var result error
	select {
	case <-ctx.Done():
		logger.Debugf("[audio] 播放被取消")
		result = ctx.Err()
	case <-src.stop:
		logger.Debugf("[audio] 播放被停止")
	case <-done:
		logger.Debugf("[audio] 播放完成")
	}

	p.mu.Lock()
	if p.current == src {
		p.current = nil
	}
	p.mu.Unlock()
	src.release()
	return result
}

// Stop 停止并释放当前播放源。没有播放时为空操作。
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.releaseLocked()
}

func (p *Player) releaseLocked() {
	if p.current != nil {
		p.current.release()
		p.current = nil
	}
}

// Close 释放所有资源。
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.releaseLocked()
	p.buffer = nil
	p.pcm = nil

	if p.ctx != nil {
		_ = p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
	}
}
