package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iabetor/creativespark/internal/logger"
)

// Client 通过 REST 接口调用 Gemini 的 generateContent，
// 同时提供结构化文本生成与语音合成。API Key 按调用传入，不在客户端中保存。
type Client struct {
	baseURL    string
	textModel  string
	ttsModel   string
	httpClient *http.Client
}

// NewClient 创建 REST 客户端。timeout 为 0 时不设置客户端超时。
func NewClient(baseURL, textModel, ttsModel string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		textModel: textModel,
		ttsModel:  ttsModel,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GenerateText 发送提示词，返回模型输出的文本。
// schema 非空时要求模型按 JSON Schema 返回 application/json。
func (c *Client) GenerateText(ctx context.Context, apiKey, prompt string, schema *Schema) (string, error) {
	req := generateRequest{
		Contents: []contentBlock{{Role: "user", Parts: []part{{Text: prompt}}}},
	}
	if schema != nil {
		req.GenerationConfig = &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}

	logger.Debugf("[gemini] 文本生成: 模型=%s，提示词 %d 个字符", c.textModel, len([]rune(prompt)))

	resp, err := c.generate(ctx, apiKey, c.textModel, req)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
		// 只取第一个有内容的候选
		if sb.Len() > 0 {
			break
		}
	}
	if sb.Len() == 0 && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		logger.Warnf("[gemini] 提示词被拦截: %s", resp.PromptFeedback.BlockReason)
	}
	return sb.String(), nil
}

// Synthesize 使用预置音色将文本合成为语音，返回 base64 编码的原始 PCM。
// 响应中没有音频时返回空字符串。
func (c *Client) Synthesize(ctx context.Context, apiKey, text, voiceName string) (string, error) {
	req := generateRequest{
		Contents: []contentBlock{{Parts: []part{{Text: text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voiceName},
				},
			},
		},
	}

	logger.Debugf("[gemini] 语音合成: 模型=%s，音色=%s，%d 个字符", c.ttsModel, voiceName, len([]rune(text)))

	resp, err := c.generate(ctx, apiKey, c.ttsModel, req)
	if err != nil {
		return "", err
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if p.InlineData != nil && p.InlineData.Data != "" {
				logger.Debugf("[gemini] 收到音频 %s，base64 长度 %d", p.InlineData.MimeType, len(p.InlineData.Data))
				return p.InlineData.Data, nil
			}
		}
	}
	return "", nil
}

func (c *Client) generate(ctx context.Context, apiKey, model string, body generateRequest) (*generateResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("[gemini] 序列化请求体失败: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("[gemini] 创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[gemini] 请求失败: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[gemini] 读取响应失败: %w", err)
	}
	logger.Debugf("[gemini] %s 返回 %d，耗时 %v，%d 字节", model, resp.StatusCode, time.Since(start), len(respBody))

	if resp.StatusCode != http.StatusOK {
		return nil, parseAPIError(resp.StatusCode, respBody)
	}

	var out generateResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("[gemini] 解析响应失败: %w", err)
	}
	return &out, nil
}
