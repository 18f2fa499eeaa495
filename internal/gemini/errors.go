package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError 表示上游返回了非 200 状态码。
type APIError struct {
	StatusCode int
	Status     string // 例如 INVALID_ARGUMENT
	Reason     string // 例如 API_KEY_INVALID
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("[gemini] API 返回状态码 %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("[gemini] API 返回状态码 %d: %s", e.StatusCode, e.Message)
}

// InvalidKey 判断错误是否由 API Key 缺失、无效或无权限引起。
func (e *APIError) InvalidKey() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	case http.StatusBadRequest:
		return e.Reason == "API_KEY_INVALID" || strings.Contains(e.Message, "API key not valid")
	case http.StatusNotFound:
		return strings.Contains(e.Message, "Requested entity was not found")
	}
	return false
}

// IsInvalidKey 判断 err 链中是否存在 Key 无效的 APIError。
func IsInvalidKey(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.InvalidKey()
}

// parseAPIError 从响应体中提取错误信息，解析失败时保留原始文本。
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Message != "" {
		apiErr.Status = env.Error.Status
		apiErr.Message = env.Error.Message
		for _, d := range env.Error.Details {
			if d.Reason != "" {
				apiErr.Reason = d.Reason
				break
			}
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
