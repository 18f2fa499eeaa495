package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/iabetor/creativespark/internal/logger"
)

// SDKTextGenerator 使用 generative-ai-go SDK 实现文本生成，
// 与 Client.GenerateText 的约定相同。每次调用按传入的 Key 建立客户端。
type SDKTextGenerator struct {
	model string
	opts  []option.ClientOption
}

// NewSDKTextGenerator 创建基于 SDK 的文本生成器。opts 会追加在 API Key 之后。
func NewSDKTextGenerator(model string, opts ...option.ClientOption) *SDKTextGenerator {
	return &SDKTextGenerator{model: model, opts: opts}
}

// GenerateText 实现文本生成。
func (g *SDKTextGenerator) GenerateText(ctx context.Context, apiKey, prompt string, schema *Schema) (string, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, g.opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("[gemini] 创建 SDK 客户端失败: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	if schema != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = toGenaiSchema(schema)
	}

	logger.Debugf("[gemini] SDK 文本生成: 模型=%s，提示词 %d 个字符", g.model, len([]rune(prompt)))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", convertSDKError(err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			break
		}
	}
	return sb.String(), nil
}

// toGenaiSchema 将 REST 结构的 Schema 转换为 SDK 类型。
// genai.Schema 没有 propertyOrdering 字段，PropertyOrdering 在此丢弃，
// 因此 SDK 后端返回的 JSON 字段顺序可能与 REST 后端不同。ParseOutput 按字段名解码，不受影响。
func toGenaiSchema(s *Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Description: s.Description,
		Required:    append([]string(nil), s.Required...),
		Items:       toGenaiSchema(s.Items),
	}
	switch s.Type {
	case TypeString:
		out.Type = genai.TypeString
	case TypeObject:
		out.Type = genai.TypeObject
	case TypeArray:
		out.Type = genai.TypeArray
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

// convertSDKError 将 googleapi.Error 转换为 APIError，使调用方可以统一判断 Key 无效。
func convertSDKError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		apiErr := &APIError{StatusCode: gerr.Code, Message: gerr.Message}
		for _, item := range gerr.Errors {
			if item.Reason != "" {
				apiErr.Reason = item.Reason
				break
			}
		}
		return apiErr
	}
	return fmt.Errorf("[gemini] SDK 请求失败: %w", err)
}
