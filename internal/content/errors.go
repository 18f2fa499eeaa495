package content

import (
	"errors"
	"fmt"

	"github.com/iabetor/creativespark/internal/gemini"
)

// 错误类别，使用 errors.Is 判断。
var (
	// ErrConfiguration API Key 缺失或无效。
	ErrConfiguration = errors.New("API Key 缺失或无效")
	// ErrParse 上游返回的内容不符合预期结构。
	ErrParse = errors.New("无法解析生成结果")
	// ErrGeneration 上游调用成功但没有可用内容。
	ErrGeneration = errors.New("生成结果为空")
	// ErrNetwork 传输层或上游接口错误，原始错误保留在链中。
	ErrNetwork = errors.New("请求上游服务失败")
	// ErrInvalidRequest 请求参数不完整，例如创意为空。
	ErrInvalidRequest = errors.New("请求参数无效")
)

// classifyUpstream 为上游错误打上类别：Key 无效归为 ErrConfiguration，其余归为 ErrNetwork。
func classifyUpstream(op string, err error) error {
	if gemini.IsInvalidKey(err) {
		return fmt.Errorf("[content] %s: %w: %w", op, ErrConfiguration, err)
	}
	return fmt.Errorf("[content] %s: %w: %w", op, ErrNetwork, err)
}
