package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/iabetor/creativespark/internal/logger"
)

// 语音合成输出的固定格式：signed 16-bit LE，单声道，24 kHz。
const (
	DefaultSampleRate = 24000
	DefaultChannels   = 1
	DefaultBitDepth   = 16

	// WAVHeaderSize 是标准 PCM WAV 文件头长度。
	WAVHeaderSize = 44
	// WAVMimeType 是下载 WAV 文件时使用的 MIME 类型。
	WAVMimeType = "audio/wav"

	formatPCM = 1
)

// ErrInvalidWAV 表示输入不是可识别的 PCM WAV 数据。
var ErrInvalidWAV = errors.New("无效的 WAV 数据")

// Buffer 是可直接播放的解码结果，按声道分开存放（planar）。
type Buffer struct {
	SampleRate int
	Channels   int
	Frames     int
	Data       [][]float32
}

// Duration 返回音频时长。
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames) * time.Second / time.Duration(b.SampleRate)
}

// Interleaved 将各声道样本交错排列为 s16le 字节，供播放设备使用。
func (b *Buffer) Interleaved() []byte {
	samples := make([]float32, b.Frames*b.Channels)
	for ch := 0; ch < b.Channels; ch++ {
		for i, s := range b.Data[ch] {
			samples[i*b.Channels+ch] = s
		}
	}
	return Float32ToBytes(samples)
}

// DecodeBase64 将标准 base64 字符串解码为原始字节。
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("[audio] base64 解码失败: %w", err)
	}
	return b, nil
}

// DecodePCM 将 s16le 交错 PCM 字节解码为可播放的 Buffer。
// 每个样本除以 32768 归一化。末尾不足一帧的字节被截断。
func DecodePCM(pcm []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("[audio] 无效的采样率: %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("[audio] 无效的声道数: %d", channels)
	}

	frameSize := 2 * channels
	frames := len(pcm) / frameSize
	if rem := len(pcm) % frameSize; rem != 0 {
		logger.Debugf("[audio] PCM 长度 %d 不是帧长 %d 的整数倍，截断末尾 %d 字节", len(pcm), frameSize, rem)
	}

	samples := BytesToFloat32(pcm[:frames*frameSize])

	// 交错样本拆分到各声道
	data := make([][]float32, channels)
	for ch := range data {
		data[ch] = make([]float32, frames)
		for i := 0; i < frames; i++ {
			data[ch][i] = samples[i*channels+ch]
		}
	}

	return &Buffer{
		SampleRate: sampleRate,
		Channels:   channels,
		Frames:     frames,
		Data:       data,
	}, nil
}

// EncodeWAV 在原始 PCM 前加上 44 字节 RIFF/WAVE 头，返回完整的 WAV 文件内容。
func EncodeWAV(pcm []byte, sampleRate, channels, bitDepth int) []byte {
	dataLen := len(pcm)
	byteRate := sampleRate * channels * bitDepth / 8
	blockAlign := channels * bitDepth / 8

	out := make([]byte, WAVHeaderSize, WAVHeaderSize+dataLen)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataLen))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], formatPCM)
	binary.LittleEndian.PutUint16(out[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(bitDepth))

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataLen))

	return append(out, pcm...)
}

// WAVInfo 是从 WAV 文件中解析出的格式信息与样本数据。
type WAVInfo struct {
	AudioFormat int
	Channels    int
	SampleRate  int
	ByteRate    int
	BlockAlign  int
	BitDepth    int
	Data        []byte
}

// ParseWAV 遍历 RIFF 子块，读取 "fmt " 与 "data"。未知子块被跳过。
func ParseWAV(b []byte) (*WAVInfo, error) {
	if len(b) < 12 || string(b[0:4]) != "RIFF" || string(b[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: 缺少 RIFF/WAVE 标识", ErrInvalidWAV)
	}

	var info WAVInfo
	var haveFmt, haveData bool
	pos := 12
	for pos+8 <= len(b) {
		id := string(b[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(b[pos+4 : pos+8]))
		body := pos + 8
		if size < 0 || body+size > len(b) {
			return nil, fmt.Errorf("%w: 子块 %q 长度 %d 越界", ErrInvalidWAV, id, size)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: fmt 子块过短", ErrInvalidWAV)
			}
			f := b[body : body+size]
			info.AudioFormat = int(binary.LittleEndian.Uint16(f[0:2]))
			info.Channels = int(binary.LittleEndian.Uint16(f[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(f[4:8]))
			info.ByteRate = int(binary.LittleEndian.Uint32(f[8:12]))
			info.BlockAlign = int(binary.LittleEndian.Uint16(f[12:14]))
			info.BitDepth = int(binary.LittleEndian.Uint16(f[14:16]))
			haveFmt = true
		case "data":
			info.Data = b[body : body+size]
			haveData = true
		}

		// 子块按偶数字节对齐
		pos = body + size + size%2
	}

	if !haveFmt || !haveData {
		return nil, fmt.Errorf("%w: 缺少 fmt 或 data 子块", ErrInvalidWAV)
	}
	return &info, nil
}
