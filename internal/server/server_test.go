package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iabetor/creativespark/internal/audio"
	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/history"
	"github.com/iabetor/creativespark/internal/keysource"
	"github.com/iabetor/creativespark/internal/studio"
)

type stubGenerator struct {
	out      *content.CreativeContentOutput
	err      error
	audio    string
	audioErr error
	lastReq  content.Request
	lastKey  string
}

func (g *stubGenerator) Generate(ctx context.Context, apiKey string, req content.Request) (*content.CreativeContentOutput, error) {
	g.lastReq = req
	g.lastKey = apiKey
	return g.out, g.err
}

func (g *stubGenerator) GenerateAudio(ctx context.Context, apiKey, text, voiceName string) (string, error) {
	return g.audio, g.audioErr
}

type stubHistory struct {
	entries []history.Entry
	limit   int
}

func (h *stubHistory) List(ctx context.Context, limit int) ([]history.Entry, error) {
	h.limit = limit
	return h.entries, nil
}

func (h *stubHistory) Get(ctx context.Context, id uuid.UUID) (*history.Entry, error) {
	for i := range h.entries {
		if h.entries[i].ID == id {
			return &h.entries[i], nil
		}
	}
	return nil, nil
}

func newTestServer(gen *stubGenerator, host *keysource.Host, hist HistoryReader) *Server {
	var keys keysource.Source = host
	if host == nil {
		keys = keysource.NewEnv(nil, "")
	}
	sess := studio.New(gen, keys)
	opts := Options{Session: sess, Host: host, Log: zap.NewNop()}
	if hist != nil {
		opts.History = hist
	}
	return New(opts)
}

func do(t *testing.T, s *Server, method, path, body string) (*http.Response, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	return resp, string(b)
}

func errorOf(t *testing.T, body string) string {
	t.Helper()
	var m map[string]string
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("error body is not JSON: %q", body)
	}
	return m["error"]
}

func storyOutput() *content.CreativeContentOutput {
	return &content.CreativeContentOutput{MainContent: content.MainContent{Text: "Once."}, Moral: "Be kind."}
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), nil)
	resp, body := do(t, s, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("unexpected health response: %d %q", resp.StatusCode, body)
	}
}

func TestMetrics(t *testing.T) {
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), nil)
	resp, body := do(t, s, http.MethodGet, "/metrics", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Errorf("metrics output missing default collectors")
	}
}

func TestCatalog(t *testing.T) {
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), nil)
	resp, body := do(t, s, http.MethodGet, "/api/v1/catalog", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var got catalogResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Languages) != 4 || len(got.ContentTypes) != 3 || len(got.Audiences) != 2 || len(got.Voices) == 0 {
		t.Errorf("unexpected catalog: %+v", got)
	}
	if got.ContentTypes[2].Label != "Narration / Description" {
		t.Errorf("unexpected narration label: %+v", got.ContentTypes[2])
	}
}

func TestContent_Success(t *testing.T) {
	gen := &stubGenerator{out: storyOutput()}
	s := newTestServer(gen, keysource.NewHost("secret"), nil)

	resp, body := do(t, s, http.MethodPost, "/api/v1/content",
		`{"idea":"a robot who learns to dance","type":"Song","audience":"Kids","language":"English"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, body)
	}
	var got contentResponse
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.FileName != "song.txt" || got.Text != "Once.\n\n--- Moral of the Story ---\nBe kind." {
		t.Errorf("unexpected response: %+v", got)
	}
	if gen.lastKey != "secret" || gen.lastReq.Idea != "a robot who learns to dance" {
		t.Errorf("request not forwarded: key=%q req=%+v", gen.lastKey, gen.lastReq)
	}
}

func TestContent_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"parse", content.ErrParse, http.StatusBadGateway},
		{"generation", content.ErrGeneration, http.StatusBadGateway},
		{"network", content.ErrNetwork, http.StatusBadGateway},
		{"configuration", content.ErrConfiguration, http.StatusUnauthorized},
		{"invalid", content.ErrInvalidRequest, http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(&stubGenerator{err: tc.err}, keysource.NewHost("k"), nil)
			resp, body := do(t, s, http.MethodPost, "/api/v1/content",
				`{"idea":"x","type":"Story","audience":"Adult","language":"Hindi"}`)
			if resp.StatusCode != tc.want {
				t.Errorf("status = %d, want %d (%s)", resp.StatusCode, tc.want, body)
			}
			if errorOf(t, body) != studio.UserMessage(tc.err) {
				t.Errorf("unexpected error message %q", body)
			}
		})
	}
}

func TestContent_BadInput(t *testing.T) {
	s := newTestServer(&stubGenerator{out: storyOutput()}, keysource.NewHost("k"), nil)
	for _, body := range []string{
		`not json`,
		`{"idea":"x","type":"Poem","audience":"Kids"}`,
		`{"idea":"x","type":"Song","audience":"Teens"}`,
		`{"idea":"x","type":"Song","audience":"Kids","language":"Klingon"}`,
	} {
		resp, _ := do(t, s, http.MethodPost, "/api/v1/content", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestContent_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	s := newTestServer(&stubGenerator{out: storyOutput()}, nil, nil)
	resp, body := do(t, s, http.MethodPost, "/api/v1/content", `{"idea":"x","type":"Song","audience":"Kids"}`)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	if errorOf(t, body) != studio.MsgMissingKey {
		t.Errorf("unexpected message %q", body)
	}
}

func TestKeyEndpoints(t *testing.T) {
	host := keysource.NewHost("")
	gen := &stubGenerator{out: storyOutput()}
	s := newTestServer(gen, host, nil)

	resp, _ := do(t, s, http.MethodPut, "/api/v1/key", `{"apiKey":"  "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty key: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = do(t, s, http.MethodPut, "/api/v1/key", `{"apiKey":"new-key"}`)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set key: status = %d, want 204", resp.StatusCode)
	}
	if key, _ := host.APIKey(context.Background()); key != "new-key" {
		t.Errorf("key not stored, got %q", key)
	}

	resp, _ = do(t, s, http.MethodDelete, "/api/v1/key", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("clear key: status = %d, want 204", resp.StatusCode)
	}
	if _, err := host.APIKey(context.Background()); !errors.Is(err, keysource.ErrNoKey) {
		t.Errorf("key should be cleared, got %v", err)
	}
}

func TestKeyEndpoints_EnvSource(t *testing.T) {
	s := newTestServer(&stubGenerator{}, nil, nil)
	resp, _ := do(t, s, http.MethodPut, "/api/v1/key", `{"apiKey":"x"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestVoiceoverAndDownloads(t *testing.T) {
	pcm := make([]byte, 4800)
	gen := &stubGenerator{out: storyOutput(), audio: base64.StdEncoding.EncodeToString(pcm)}
	s := newTestServer(gen, keysource.NewHost("k"), nil)

	resp, body := do(t, s, http.MethodPost, "/api/v1/voiceover", `{"voice":"Puck"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("voiceover before content: status = %d, want 404", resp.StatusCode)
	}
	if errorOf(t, body) != studio.MsgNoContent {
		t.Errorf("unexpected message %q", body)
	}

	resp, _ = do(t, s, http.MethodGet, "/api/v1/content.txt", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("text download before content: status = %d, want 404", resp.StatusCode)
	}

	do(t, s, http.MethodPost, "/api/v1/content", `{"idea":"x","type":"Narration / Description","audience":"Kids"}`)

	resp, body = do(t, s, http.MethodGet, "/api/v1/content.txt", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("text download: status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "narration_description.txt") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	if !strings.HasSuffix(body, "--- Moral of the Story ---\nBe kind.") {
		t.Errorf("unexpected text body %q", body)
	}

	resp, body = do(t, s, http.MethodPost, "/api/v1/voiceover", `{"voice":"Charon"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("voiceover: status = %d: %s", resp.StatusCode, body)
	}
	var vo voiceoverResponse
	if err := json.Unmarshal([]byte(body), &vo); err != nil {
		t.Fatal(err)
	}
	if vo.Voice != "Charon" || vo.Frames != 2400 || vo.Bytes != 4800 || vo.Duration != 0.1 {
		t.Errorf("unexpected voiceover response: %+v", vo)
	}

	resp, body = do(t, s, http.MethodGet, "/api/v1/voiceover.wav", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("wav download: status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != audio.WAVMimeType {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "voiceover-Charon.wav") {
		t.Errorf("unexpected Content-Disposition %q", cd)
	}
	info, err := audio.ParseWAV([]byte(body))
	if err != nil {
		t.Fatalf("ParseWAV failed: %v", err)
	}
	if len(info.Data) != 4800 || info.SampleRate != 24000 {
		t.Errorf("unexpected wav info: %+v", info)
	}
}

func TestVoiceover_UpstreamError(t *testing.T) {
	gen := &stubGenerator{out: storyOutput(), audioErr: content.ErrNetwork}
	s := newTestServer(gen, keysource.NewHost("k"), nil)
	do(t, s, http.MethodPost, "/api/v1/content", `{"idea":"x","type":"Story","audience":"Kids"}`)

	resp, body := do(t, s, http.MethodPost, "/api/v1/voiceover", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
	if !strings.HasPrefix(errorOf(t, body), "Failed to generate audio: ") {
		t.Errorf("unexpected message %q", body)
	}

	// 配音失败不影响文本下载
	resp, _ = do(t, s, http.MethodGet, "/api/v1/content.txt", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("text should remain available, status = %d", resp.StatusCode)
	}
}

func TestVoiceover_UnknownVoice(t *testing.T) {
	gen := &stubGenerator{out: storyOutput(), audio: base64.StdEncoding.EncodeToString(make([]byte, 8))}
	s := newTestServer(gen, keysource.NewHost("k"), nil)
	do(t, s, http.MethodPost, "/api/v1/content", `{"idea":"x","type":"Story","audience":"Kids"}`)

	resp, body := do(t, s, http.MethodPost, "/api/v1/voiceover", `{"voice":"Nobody"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if got := errorOf(t, body); got != studio.MsgUnknownVoice {
		t.Errorf("unexpected message %q", got)
	}
}

func TestSession(t *testing.T) {
	s := newTestServer(&stubGenerator{out: storyOutput()}, keysource.NewHost("k"), nil)
	do(t, s, http.MethodPost, "/api/v1/content", `{"idea":"x","type":"Story","audience":"Kids"}`)
	resp, body := do(t, s, http.MethodGet, "/api/v1/session", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var snap studio.Snapshot
	if err := json.Unmarshal([]byte(body), &snap); err != nil {
		t.Fatal(err)
	}
	if snap.Output == nil || snap.Output.MainContent.Text != "Once." || snap.HasAudio {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
}

func TestHistory(t *testing.T) {
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), nil)
	resp, _ := do(t, s, http.MethodGet, "/api/v1/history", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("history disabled: status = %d, want 404", resp.StatusCode)
	}

	hist := &stubHistory{entries: []history.Entry{{Idea: "a"}, {Idea: "b"}}}
	s = newTestServer(&stubGenerator{}, keysource.NewHost("k"), hist)
	resp, body := do(t, s, http.MethodGet, "/api/v1/history?limit=5", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if hist.limit != 5 {
		t.Errorf("limit not forwarded, got %d", hist.limit)
	}
	var got struct {
		Entries []history.Entry `json:"entries"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if len(got.Entries) != 2 || got.Entries[1].Idea != "b" {
		t.Errorf("unexpected entries: %+v", got.Entries)
	}
}

func TestHistoryEntry(t *testing.T) {
	id := uuid.New()
	hist := &stubHistory{entries: []history.Entry{{ID: id, Idea: "robots", Moral: "Share."}}}
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), hist)

	resp, body := do(t, s, http.MethodGet, "/api/v1/history/"+id.String(), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	var got history.Entry
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != id || got.Idea != "robots" || got.Moral != "Share." {
		t.Errorf("unexpected entry: %+v", got)
	}

	resp, _ = do(t, s, http.MethodGet, "/api/v1/history/"+uuid.New().String(), "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id: status = %d, want 404", resp.StatusCode)
	}

	resp, _ = do(t, s, http.MethodGet, "/api/v1/history/not-a-uuid", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", resp.StatusCode)
	}
}

func TestPlayback_Disabled(t *testing.T) {
	s := newTestServer(&stubGenerator{}, keysource.NewHost("k"), nil)
	resp, body := do(t, s, http.MethodPost, "/api/v1/playback", "")
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	if errorOf(t, body) != studio.MsgNoPlayback {
		t.Errorf("unexpected message %q", body)
	}

	resp, _ = do(t, s, http.MethodDelete, "/api/v1/playback", "")
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("stop: status = %d, want 204", resp.StatusCode)
	}
}
