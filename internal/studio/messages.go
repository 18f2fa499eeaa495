package studio

import (
	"errors"

	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/keysource"
)

// 展示给用户的提示文案。
const (
	MsgMissingKey    = "API Key is missing. Please enter your API key."
	MsgInvalidKey    = "Your API key might be invalid or not properly configured. Please re-enter your API key."
	MsgInvalidInput  = "Please describe your idea and choose a content type, audience and language."
	MsgNoContent     = "No text content available to generate audio."
	MsgGeneric       = "An error occurred while generating content. Please try again."
	MsgStale         = "A newer request replaced this one."
	MsgNoAudio       = "No voiceover available yet. Generate a voiceover first."
	MsgNoPlayback    = "Audio playback is disabled on this machine."
	MsgUnknownVoice  = "Please choose one of the available voices."
	audioErrorPrefix = "Failed to generate audio: "
)

// UserMessage 将错误转换为面向用户的提示。Key 相关错误提示重新输入，其余使用通用提示。
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, keysource.ErrNoKey):
		return MsgMissingKey
	case errors.Is(err, content.ErrConfiguration):
		return MsgInvalidKey
	case errors.Is(err, content.ErrInvalidRequest):
		return MsgInvalidInput
	case errors.Is(err, ErrNoContent):
		return MsgNoContent
	case errors.Is(err, ErrStale):
		return MsgStale
	case errors.Is(err, ErrNoAudio):
		return MsgNoAudio
	case errors.Is(err, ErrPlaybackDisabled):
		return MsgNoPlayback
	}
	return MsgGeneric
}

// AudioMessage 返回配音区域展示的错误提示。
func AudioMessage(err error) string {
	if err == nil {
		return ""
	}
	var reason string
	switch {
	case errors.Is(err, keysource.ErrNoKey):
		reason = MsgMissingKey
	case errors.Is(err, content.ErrConfiguration):
		reason = MsgInvalidKey
	case errors.Is(err, content.ErrGeneration):
		reason = "no audio data was received."
	case errors.Is(err, content.ErrNetwork):
		reason = "the speech service could not be reached."
	case errors.Is(err, content.ErrInvalidRequest):
		return MsgUnknownVoice
	case errors.Is(err, ErrNoContent):
		return MsgNoContent
	case errors.Is(err, ErrStale):
		return MsgStale
	default:
		reason = "unknown error."
	}
	return audioErrorPrefix + reason
}
