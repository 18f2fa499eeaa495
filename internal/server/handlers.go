package server

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/iabetor/creativespark/internal/audio"
	"github.com/iabetor/creativespark/internal/catalog"
	"github.com/iabetor/creativespark/internal/content"
	"github.com/iabetor/creativespark/internal/history"
	"github.com/iabetor/creativespark/internal/logger"
	"github.com/iabetor/creativespark/internal/studio"
)

type catalogResponse struct {
	Languages    []catalog.Language     `json:"languages"`
	Voices       []catalog.VoiceProfile `json:"voices"`
	ContentTypes []contentTypeOption    `json:"contentTypes"`
	Audiences    []catalog.Audience     `json:"audiences"`
}

type contentTypeOption struct {
	Value catalog.ContentType `json:"value"`
	Label string              `json:"label"`
}

func (s *Server) handleCatalog(c *fiber.Ctx) error {
	resp := catalogResponse{
		Languages: catalog.Languages(),
		Voices:    catalog.Voices(),
		Audiences: catalog.Audiences(),
	}
	for _, t := range catalog.ContentTypes() {
		resp.ContentTypes = append(resp.ContentTypes, contentTypeOption{Value: t, Label: t.Label()})
	}
	return c.JSON(resp)
}

type keyRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) handleSetKey(c *fiber.Ctx) error {
	if s.host == nil {
		return fiber.NewError(fiber.StatusConflict, "API key is read from the environment on this server.")
	}
	var req keyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "API Key cannot be empty.")
	}
	s.host.Set(req.APIKey)
	logger.Infof("[server] API Key 已更新")
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleClearKey(c *fiber.Ctx) error {
	if s.host == nil {
		return fiber.NewError(fiber.StatusConflict, "API key is read from the environment on this server.")
	}
	s.host.Clear()
	logger.Infof("[server] API Key 已清除")
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleSession(c *fiber.Ctx) error {
	return c.JSON(s.session.Snapshot())
}

type contentRequest struct {
	Idea     string `json:"idea"`
	Type     string `json:"type"`
	Audience string `json:"audience"`
	Language string `json:"language"`
}

type contentResponse struct {
	Output   *content.CreativeContentOutput `json:"output"`
	Text     string                         `json:"text"`
	FileName string                         `json:"fileName"`
}

func (s *Server) handleContent(c *fiber.Ctx) error {
	var req contentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	ct, err := catalog.ParseContentType(req.Type)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	aud, err := catalog.ParseAudience(req.Audience)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Language == "" {
		req.Language = catalog.EnglishLanguage
	}

	out, err := s.session.Submit(c.UserContext(), studio.Form{
		Idea:     req.Idea,
		Type:     ct,
		Audience: aud,
		Language: req.Language,
	})
	if err != nil {
		return err
	}
	return c.JSON(contentResponse{
		Output:   out,
		Text:     content.FormatText(out),
		FileName: content.TextFileName(ct),
	})
}

type voiceoverRequest struct {
	Voice string `json:"voice"`
}

type voiceoverResponse struct {
	Voice    string  `json:"voice"`
	Bytes    int     `json:"bytes"`
	Frames   int     `json:"frames"`
	Duration float64 `json:"duration"`
}

func (s *Server) handleVoiceover(c *fiber.Ctx) error {
	var req voiceoverRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	buf, err := s.session.GenerateVoiceover(c.UserContext(), req.Voice)
	if err != nil {
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": studio.AudioMessage(err)})
	}
	return c.JSON(voiceoverResponse{
		Voice:    s.session.Snapshot().Voice,
		Bytes:    buf.Frames * buf.Channels * 2,
		Frames:   buf.Frames,
		Duration: buf.Duration().Seconds(),
	})
}

func (s *Server) handleTextDownload(c *fiber.Ctx) error {
	name, body, err := s.session.TextDownload()
	if err != nil {
		return err
	}
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	return c.Send(body)
}

func (s *Server) handleAudioDownload(c *fiber.Ctx) error {
	name, body, err := s.session.AudioDownload()
	if err != nil {
		return err
	}
	c.Attachment(name)
	c.Set(fiber.HeaderContentType, audio.WAVMimeType)
	return c.Send(body)
}

// handlePlay 在服务端本机播放配音，立即返回，播放在后台进行。
func (s *Server) handlePlay(c *fiber.Ctx) error {
	if !s.session.PlaybackEnabled() {
		return studio.ErrPlaybackDisabled
	}
	if !s.session.Snapshot().HasAudio {
		return studio.ErrNoAudio
	}
	s.session.Stop()
	go func() {
		if err := s.session.Play(context.Background()); err != nil {
			logger.Errorf("[server] 播放失败: %v", err)
		}
	}()
	return c.SendStatus(fiber.StatusAccepted)
}

func (s *Server) handleStop(c *fiber.Ctx) error {
	s.session.Stop()
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", history.DefaultLimit)
	entries, err := s.history.List(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"entries": entries})
}

func (s *Server) handleHistoryEntry(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "无效的记录 ID")
	}
	entry, err := s.history.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	if entry == nil {
		return fiber.NewError(fiber.StatusNotFound, "记录不存在")
	}
	return c.JSON(entry)
}
