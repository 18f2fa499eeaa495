package content

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DialoguePart 是对话中的一句台词。
type DialoguePart struct {
	Speaker string `json:"speaker"`
	Line    string `json:"line"`
}

// Dialogue 是旁白类请求的结构化结果，Dialogue 的顺序即说话顺序。
type Dialogue struct {
	Title    string         `json:"title,omitempty"`
	Dialogue []DialoguePart `json:"dialogue"`
}

// MainContent 是自由文本或 Dialogue 二选一。
type MainContent struct {
	Text     string
	Dialogue *Dialogue
}

// IsDialogue 返回是否为结构化对话。
func (m MainContent) IsDialogue() bool {
	return m.Dialogue != nil
}

// MarshalJSON 输出字符串或对象，与上游 schema 一致。
func (m MainContent) MarshalJSON() ([]byte, error) {
	if m.Dialogue != nil {
		return json.Marshal(m.Dialogue)
	}
	return json.Marshal(m.Text)
}

// UnmarshalJSON 接受字符串或 {title, dialogue} 对象。
func (m *MainContent) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*m = MainContent{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*m = MainContent{Text: s}
		return nil
	case '{':
		var d Dialogue
		if err := json.Unmarshal(trimmed, &d); err != nil {
			return err
		}
		*m = MainContent{Dialogue: &d}
		return nil
	}
	return fmt.Errorf("mainContent 必须是字符串或对象，实际为 %s", string(trimmed[:1]))
}

// CreativeContentOutput 是一次生成的完整结果，生成后不再修改。
type CreativeContentOutput struct {
	MainContent MainContent `json:"mainContent"`
	Moral       string      `json:"moral"`
}
