package content

import (
	"strings"

	"github.com/iabetor/creativespark/internal/catalog"
)

const moralHeading = "--- Moral of the Story ---"

// MainText 返回正文：对话按 "Speaker: line" 逐段输出，自由文本原样返回。
func (o *CreativeContentOutput) MainText() string {
	d := o.MainContent.Dialogue
	if d == nil {
		return o.MainContent.Text
	}
	var sb strings.Builder
	if d.Title != "" {
		sb.WriteString("Title: ")
		sb.WriteString(d.Title)
		sb.WriteString("\n\n")
	}
	for i, p := range d.Dialogue {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(p.Speaker)
		sb.WriteString(": ")
		sb.WriteString(p.Line)
	}
	return sb.String()
}

// FormatText 生成下载用的纯文本，末尾附上寓意。
func FormatText(o *CreativeContentOutput) string {
	if o == nil {
		return ""
	}
	return o.MainText() + "\n\n" + moralHeading + "\n" + o.Moral
}

// TextFileName 返回文本下载的文件名，例如 song.txt、narration_description.txt。
func TextFileName(t catalog.ContentType) string {
	name := strings.ToLower(t.Label())
	name = strings.ReplaceAll(name, "/", "")
	name = strings.Join(strings.Fields(name), "_")
	return name + ".txt"
}
