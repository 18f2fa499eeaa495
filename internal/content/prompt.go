package content

import (
	"fmt"
	"strings"

	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/gemini"
)

// audienceClause 返回提示词中的受众描述。
func audienceClause(a catalog.Audience) string {
	if a == catalog.Kids {
		return "for young children"
	}
	return "for a general audience"
}

// BuildPrompt 根据内容类型、受众与语言拼出发给模型的指令。
func BuildPrompt(idea string, t catalog.ContentType, a catalog.Audience, language string) string {
	idea = strings.TrimSpace(idea)
	language = strings.TrimSpace(language)
	adjective := strings.ToLower(string(a))
	audience := audienceClause(a)
	inLanguage := fmt.Sprintf(" in the %s language", language)

	var sb strings.Builder
	switch t {
	case catalog.Song:
		fmt.Fprintf(&sb, "Write lyrics for a %s song %s%s based on this idea: \"%s\".", adjective, audience, inLanguage, idea)
		sb.WriteString(" The lyrics should have a clear structure with verses and a chorus.")
	case catalog.Story:
		fmt.Fprintf(&sb, "Write a %s story %s%s based on this idea: \"%s\".", adjective, audience, inLanguage, idea)
		sb.WriteString(" The story should be engaging, with a beginning, middle, and end.")
		if a == catalog.Kids {
			sb.WriteString(" Make it a wonderful bedtime story.")
		}
	case catalog.Narration:
		fmt.Fprintf(&sb, "Create a narrated conversation %s%s based on this idea: \"%s\".", audience, inLanguage, idea)
		sb.WriteString(" The conversation must be between 2 or 3 characters, each turn naming its speaker,")
		sb.WriteString(" and it should build to a clear, resolved ending. Give it a short title.")
	}

	if !catalog.IsEnglish(language) {
		fmt.Fprintf(&sb, " Blend the %s language with common English words where it sounds natural, the way people mix them in everyday speech.", language)
	}

	sb.WriteString(" Also write a short moral of the story in one or two sentences.")
	fmt.Fprintf(&sb, " Respond only with JSON: put the %s in \"mainContent\" and the moral in \"moral\".", mainContentNoun(t))

	return sb.String()
}

func mainContentNoun(t catalog.ContentType) string {
	switch t {
	case catalog.Song:
		return "lyrics"
	case catalog.Narration:
		return "title and dialogue"
	}
	return "story"
}

// ResponseSchema 返回约束模型输出的 JSON Schema。
// 旁白类型的 mainContent 为 {title, dialogue[]}，其余为字符串。
func ResponseSchema(t catalog.ContentType) *gemini.Schema {
	main := &gemini.Schema{
		Type:        gemini.TypeString,
		Description: "The full generated " + mainContentNoun(t) + ".",
	}
	if t == catalog.Narration {
		main = &gemini.Schema{
			Type: gemini.TypeObject,
			Properties: map[string]*gemini.Schema{
				"title": {Type: gemini.TypeString, Description: "A short title for the conversation."},
				"dialogue": {
					Type:        gemini.TypeArray,
					Description: "The conversation in speaking order.",
					Items: &gemini.Schema{
						Type: gemini.TypeObject,
						Properties: map[string]*gemini.Schema{
							"speaker": {Type: gemini.TypeString, Description: "Name of the character speaking."},
							"line":    {Type: gemini.TypeString, Description: "What the character says."},
						},
						Required:         []string{"speaker", "line"},
						PropertyOrdering: []string{"speaker", "line"},
					},
				},
			},
			Required:         []string{"dialogue"},
			PropertyOrdering: []string{"title", "dialogue"},
		}
	}

	return &gemini.Schema{
		Type: gemini.TypeObject,
		Properties: map[string]*gemini.Schema{
			"mainContent": main,
			"moral":       {Type: gemini.TypeString, Description: "A short moral of the story."},
		},
		Required:         []string{"mainContent", "moral"},
		PropertyOrdering: []string{"mainContent", "moral"},
	}
}
