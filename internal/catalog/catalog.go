// Package catalog 提供界面可选的静态配置数据：语言、音色、内容类型与受众。
package catalog

import (
	"fmt"
	"strings"
)

// ContentType 是要生成的内容类型。
type ContentType string

const (
	Song      ContentType = "Song"
	Story     ContentType = "Story"
	Narration ContentType = "Narration"
)

// Label 返回展示名称。Narration 沿用 "Narration / Description"。
func (t ContentType) Label() string {
	if t == Narration {
		return "Narration / Description"
	}
	return string(t)
}

// Audience 是目标受众。
type Audience string

const (
	Kids  Audience = "Kids"
	Adult Audience = "Adult"
)

// Language 描述一种输出语言及其默认音色。
type Language struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	VoiceName string `json:"voiceName"`
}

// VoiceProfile 是可选的语音合成音色，与语言无关。
type VoiceProfile struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// EnglishLanguage 是不需要混合英语词汇的语言值。
const EnglishLanguage = "English"

var languages = []Language{
	{Value: "English", Label: "English", VoiceName: "Puck"},
	{Value: "Hindi", Label: "Hindi", VoiceName: "Kore"},
	{Value: "Tamil", Label: "Tamil", VoiceName: "Zephyr"},
	{Value: "Telugu", Label: "Telugu", VoiceName: "Fenrir"},
}

var voices = []VoiceProfile{
	{Value: "Puck", Label: "Puck (Upbeat)"},
	{Value: "Kore", Label: "Kore (Firm)"},
	{Value: "Zephyr", Label: "Zephyr (Bright)"},
	{Value: "Fenrir", Label: "Fenrir (Excitable)"},
	{Value: "Charon", Label: "Charon (Informative)"},
	{Value: "Aoede", Label: "Aoede (Breezy)"},
	{Value: "Leda", Label: "Leda (Youthful)"},
	{Value: "Orus", Label: "Orus (Firm)"},
}

var contentTypes = []ContentType{Song, Story, Narration}

var audiences = []Audience{Kids, Adult}

// Languages 返回语言列表的副本。
func Languages() []Language {
	return append([]Language(nil), languages...)
}

// Voices 返回音色列表的副本。
func Voices() []VoiceProfile {
	return append([]VoiceProfile(nil), voices...)
}

// ContentTypes 返回所有内容类型。
func ContentTypes() []ContentType {
	return append([]ContentType(nil), contentTypes...)
}

// Audiences 返回所有受众。
func Audiences() []Audience {
	return append([]Audience(nil), audiences...)
}

// DefaultVoice 返回音色列表中的第一个，作为语音合成的初始选择。
func DefaultVoice() VoiceProfile {
	return voices[0]
}

// LookupLanguage 按 value 查找语言（忽略大小写）。
func LookupLanguage(value string) (Language, bool) {
	for _, l := range languages {
		if strings.EqualFold(l.Value, strings.TrimSpace(value)) {
			return l, true
		}
	}
	return Language{}, false
}

// LookupVoice 按 value 查找音色（忽略大小写）。
func LookupVoice(value string) (VoiceProfile, bool) {
	for _, v := range voices {
		if strings.EqualFold(v.Value, strings.TrimSpace(value)) {
			return v, true
		}
	}
	return VoiceProfile{}, false
}

// ParseContentType 解析内容类型，接受 "Narration / Description" 形式。
func ParseContentType(s string) (ContentType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	switch norm {
	case "song":
		return Song, nil
	case "story":
		return Story, nil
	case "narration", "narration / description", "narration/description", "description":
		return Narration, nil
	}
	return "", fmt.Errorf("未知的内容类型: %q", s)
}

// ParseAudience 解析受众。"Regular" 是旧版本界面的默认值，视为 Adult。
func ParseAudience(s string) (Audience, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kids", "kid", "children":
		return Kids, nil
	case "adult", "adults", "regular":
		return Adult, nil
	}
	return "", fmt.Errorf("未知的受众: %q", s)
}

// IsEnglish 判断语言是否为英语。
func IsEnglish(language string) bool {
	return strings.EqualFold(strings.TrimSpace(language), EnglishLanguage)
}
