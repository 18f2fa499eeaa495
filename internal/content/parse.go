package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/iabetor/creativespark/internal/catalog"
)

// fenceRe 匹配 ```json ... ``` 形式的代码块包裹。
var fenceRe = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)\\s*```$")

// stripCodeFence 去掉模型有时附带的 Markdown 代码块标记。
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseOutput 将模型返回的 JSON 文本解析为 CreativeContentOutput，并按内容类型校验结构。
func ParseOutput(raw string, t catalog.ContentType) (*CreativeContentOutput, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, fmt.Errorf("[content] %w: 响应为空", ErrParse)
	}

	var out CreativeContentOutput
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("[content] %w: %v", ErrParse, err)
	}

	out.Moral = strings.TrimSpace(out.Moral)
	if out.Moral == "" {
		return nil, fmt.Errorf("[content] %w: 缺少 moral", ErrParse)
	}

	if t == catalog.Narration {
		d := out.MainContent.Dialogue
		if d == nil {
			return nil, fmt.Errorf("[content] %w: 旁白的 mainContent 应为对话对象", ErrParse)
		}
		if len(d.Dialogue) == 0 {
			return nil, fmt.Errorf("[content] %w: 对话为空", ErrParse)
		}
		for i, p := range d.Dialogue {
			if strings.TrimSpace(p.Line) == "" {
				return nil, fmt.Errorf("[content] %w: 第 %d 句台词为空", ErrParse, i+1)
			}
		}
		return &out, nil
	}

	if out.MainContent.IsDialogue() {
		return nil, fmt.Errorf("[content] %w: %s 的 mainContent 应为字符串", ErrParse, t)
	}
	if strings.TrimSpace(out.MainContent.Text) == "" {
		return nil, fmt.Errorf("[content] %w: 缺少 mainContent", ErrParse)
	}
	return &out, nil
}
