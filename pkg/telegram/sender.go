// Package telegram forwards downloaded media files to the destination
// chat, picking the transport by media type and file size.
package telegram

import (
	"fmt"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"tweetrelay/pkg/logger"
	"tweetrelay/pkg/media"
)

// API is the slice of the bot API the sender needs; tests substitute a
// fake
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender sends media files to a single chat
type Sender struct {
	api    API
	chatID int64
	// Videos above this many bytes go out as documents; the video
	// endpoint rejects or silently drops larger payloads.
	documentThreshold int64
	logger            logger.Logger
}

// New creates a sender backed by a real bot connection. It performs a
// getMe call, so a bad token fails here rather than mid-cycle.
func New(botToken string, chatID int64, documentThreshold int64, log logger.Logger) (*Sender, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}

	log.InfoWithFields("telegram bot connected", map[string]interface{}{
		"bot": bot.Self.UserName,
	})

	return NewWithAPI(bot, chatID, documentThreshold, log), nil
}

// NewWithAPI creates a sender over an existing API implementation
func NewWithAPI(api API, chatID int64, documentThreshold int64, log logger.Logger) *Sender {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Sender{
		api:               api,
		chatID:            chatID,
		documentThreshold: documentThreshold,
		logger:            log,
	}
}

// SendAsset forwards one downloaded media file with an optional caption.
// Captions are rendered as HTML, matching what CleanText leaves in the
// tweet body.
func (s *Sender) SendAsset(localPath, caption string, kind media.AssetType) error {
	msg, err := s.buildMessage(localPath, caption, kind)
	if err != nil {
		return err
	}

	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send %s: %w", kind, err)
	}

	s.logger.DebugWithFields("asset sent", map[string]interface{}{
		"path": localPath,
		"type": string(kind),
	})

	return nil
}

// buildMessage picks the transport: photo→photo message, video→video
// message unless the file exceeds the document threshold
func (s *Sender) buildMessage(localPath, caption string, kind media.AssetType) (tgbotapi.Chattable, error) {
	file := tgbotapi.FilePath(localPath)

	if kind == media.TypePhoto {
		msg := tgbotapi.NewPhoto(s.chatID, file)
		msg.Caption = caption
		msg.ParseMode = tgbotapi.ModeHTML
		return msg, nil
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", localPath, err)
	}

	if s.documentThreshold > 0 && info.Size() > s.documentThreshold {
		s.logger.InfoWithFields("video exceeds size threshold, sending as document", map[string]interface{}{
			"path":      localPath,
			"size":      info.Size(),
			"threshold": s.documentThreshold,
		})
		msg := tgbotapi.NewDocument(s.chatID, file)
		msg.Caption = caption
		msg.ParseMode = tgbotapi.ModeHTML
		return msg, nil
	}

	msg := tgbotapi.NewVideo(s.chatID, file)
	msg.Caption = caption
	msg.ParseMode = tgbotapi.ModeHTML
	return msg, nil
}
