package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"time"
)

func TestDecodeBase64_Lengths(t *testing.T) {
	for l := 0; l < 16; l++ {
		raw := make([]byte, l)
		for i := range raw {
			raw[i] = byte(i * 7)
		}
		enc := base64.StdEncoding.EncodeToString(raw)
		got, err := DecodeBase64(enc)
		if err != nil {
			t.Fatalf("len %d: unexpected error: %v", l, err)
		}
		if !bytes.Equal(got, raw) {
			t.Errorf("len %d: got %v, want %v", l, got, raw)
		}
	}
}

func TestDecodeBase64_Invalid(t *testing.T) {
	for _, s := range []string{"not base64!", "abc", "====", "YW*j"} {
		if _, err := DecodeBase64(s); err == nil {
			t.Errorf("DecodeBase64(%q) should fail", s)
		}
	}
}

func TestDecodePCM_FramesAndNormalization(t *testing.T) {
	pcm := Int16ToBytes([]int16{0, math.MinInt16, 16384, -16384})
	buf, err := DecodePCM(pcm, DefaultSampleRate, DefaultChannels)
	if err != nil {
		t.Fatalf("DecodePCM failed: %v", err)
	}
	if buf.Frames != 4 || buf.Channels != 1 || buf.SampleRate != 24000 {
		t.Fatalf("unexpected buffer shape: %+v", buf)
	}
	want := []float32{0, -1.0, 0.5, -0.5}
	for i, w := range want {
		if buf.Data[0][i] != w {
			t.Errorf("sample %d: got %f, want %f", i, buf.Data[0][i], w)
		}
	}
}

func TestDecodePCM_OddLengthTruncates(t *testing.T) {
	for l := 0; l < 9; l++ {
		buf, err := DecodePCM(make([]byte, l), DefaultSampleRate, 1)
		if err != nil {
			t.Fatalf("len %d: unexpected error: %v", l, err)
		}
		if buf.Frames != l/2 {
			t.Errorf("len %d: expected %d frames, got %d", l, l/2, buf.Frames)
		}
		if len(buf.Data[0]) != l/2 {
			t.Errorf("len %d: expected %d samples, got %d", l, l/2, len(buf.Data[0]))
		}
	}
}

func TestDecodePCM_Stereo(t *testing.T) {
	pcm := Int16ToBytes([]int16{16384, -16384, 0, math.MinInt16})
	buf, err := DecodePCM(pcm, 48000, 2)
	if err != nil {
		t.Fatalf("DecodePCM failed: %v", err)
	}
	if buf.Frames != 2 {
		t.Fatalf("expected 2 frames, got %d", buf.Frames)
	}
	if buf.Data[0][0] != 0.5 || buf.Data[1][0] != -0.5 || buf.Data[1][1] != -1.0 {
		t.Errorf("channels not split correctly: %v", buf.Data)
	}
	if !bytes.Equal(buf.Interleaved(), pcm) {
		t.Errorf("Interleaved should reproduce input bytes")
	}
}

func TestDecodePCM_StereoPartialFrame(t *testing.T) {
	pcm := append(Int16ToBytes([]int16{math.MaxInt16, math.MinInt16}), 0x01, 0x02, 0x03)
	buf, err := DecodePCM(pcm, 48000, 2)
	if err != nil {
		t.Fatalf("DecodePCM failed: %v", err)
	}
	if buf.Frames != 1 || len(buf.Data[0]) != 1 || len(buf.Data[1]) != 1 {
		t.Fatalf("expected 1 frame per channel, got %d %v", buf.Frames, buf.Data)
	}
	if buf.Data[0][0] != float32(math.MaxInt16)/32768 || buf.Data[1][0] != -1.0 {
		t.Errorf("unexpected samples: %v", buf.Data)
	}
}

func TestDecodePCM_InvalidArgs(t *testing.T) {
	if _, err := DecodePCM([]byte{0, 0}, 0, 1); err == nil {
		t.Error("expected error for zero sample rate")
	}
	if _, err := DecodePCM([]byte{0, 0}, 24000, 0); err == nil {
		t.Error("expected error for zero channels")
	}
}

func TestBuffer_Duration(t *testing.T) {
	buf, _ := DecodePCM(make([]byte, 48000), 24000, 1)
	if buf.Duration() != time.Second {
		t.Errorf("expected 1s, got %v", buf.Duration())
	}
	var nilBuf *Buffer
	if nilBuf.Duration() != 0 {
		t.Error("nil buffer should have zero duration")
	}
}

func TestEncodeWAV_HeaderLayout(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	wav := EncodeWAV(pcm, 24000, 1, 16)

	if len(wav) != WAVHeaderSize+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", WAVHeaderSize+len(pcm), len(wav))
	}
	checks := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"RIFF", string(wav[0:4]), "RIFF"},
		{"riff size", binary.LittleEndian.Uint32(wav[4:8]), uint32(36 + len(pcm))},
		{"WAVE", string(wav[8:12]), "WAVE"},
		{"fmt id", string(wav[12:16]), "fmt "},
		{"fmt size", binary.LittleEndian.Uint32(wav[16:20]), uint32(16)},
		{"format", binary.LittleEndian.Uint16(wav[20:22]), uint16(1)},
		{"channels", binary.LittleEndian.Uint16(wav[22:24]), uint16(1)},
		{"sample rate", binary.LittleEndian.Uint32(wav[24:28]), uint32(24000)},
		{"byte rate", binary.LittleEndian.Uint32(wav[28:32]), uint32(48000)},
		{"block align", binary.LittleEndian.Uint16(wav[32:34]), uint16(2)},
		{"bit depth", binary.LittleEndian.Uint16(wav[34:36]), uint16(16)},
		{"data id", string(wav[36:40]), "data"},
		{"data size", binary.LittleEndian.Uint32(wav[40:44]), uint32(len(pcm))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, c.got, c.want)
		}
	}
	if !bytes.Equal(wav[44:], pcm) {
		t.Errorf("payload mismatch: %v", wav[44:])
	}
}

func TestEncodeWAV_DoesNotAliasInput(t *testing.T) {
	pcm := []byte{9, 9}
	wav := EncodeWAV(pcm, 24000, 1, 16)
	wav[44] = 0
	if pcm[0] != 9 {
		t.Error("EncodeWAV must copy the PCM bytes")
	}
}

func TestWAV_Roundtrip(t *testing.T) {
	samples := []int16{0, 1, -1, 1234, -4321, math.MaxInt16, math.MinInt16}
	pcm := Int16ToBytes(samples)

	for _, tc := range []struct{ rate, ch int }{{24000, 1}, {44100, 2}, {8000, 1}} {
		info, err := ParseWAV(EncodeWAV(pcm, tc.rate, tc.ch, 16))
		if err != nil {
			t.Fatalf("ParseWAV failed: %v", err)
		}
		if info.AudioFormat != 1 || info.SampleRate != tc.rate || info.Channels != tc.ch || info.BitDepth != 16 {
			t.Errorf("format mismatch: %+v", info)
		}
		if info.ByteRate != tc.rate*tc.ch*2 || info.BlockAlign != tc.ch*2 {
			t.Errorf("derived fields mismatch: %+v", info)
		}
		if !bytes.Equal(info.Data, pcm) {
			t.Errorf("sample bytes mismatch")
		}
	}
}

func TestParseWAV_SkipsUnknownChunks(t *testing.T) {
	wav := EncodeWAV([]byte{1, 2}, 24000, 1, 16)
	// 在 fmt 与 data 之间插入一个奇数长度的 LIST 子块
	list := append([]byte("LIST"), 3, 0, 0, 0, 'a', 'b', 'c', 0)
	patched := append([]byte{}, wav[:36]...)
	patched = append(patched, list...)
	patched = append(patched, wav[36:]...)

	info, err := ParseWAV(patched)
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if !bytes.Equal(info.Data, []byte{1, 2}) {
		t.Errorf("unexpected data: %v", info.Data)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	cases := map[string][]byte{
		"empty":     nil,
		"not riff":  []byte("RIFX0000WAVE"),
		"no chunks": append([]byte("RIFF"), 4, 0, 0, 0, 'W', 'A', 'V', 'E'),
		"truncated": EncodeWAV([]byte{1, 2, 3, 4}, 24000, 1, 16)[:46],
	}
	for name, b := range cases {
		_, err := ParseWAV(b)
		if !errors.Is(err, ErrInvalidWAV) {
			t.Errorf("%s: expected ErrInvalidWAV, got %v", name, err)
		}
	}
}
