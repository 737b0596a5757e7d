package pipeline

import (
	"log/slog"

	"github.com/joseph-ayodele/doc-assistant/internal/capability"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/ocr"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

// FromConfig builds a Dispatcher with the real extractor and provider clients.
// The image client is only created when an image key is configured.
func FromConfig(cfg *common.Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	extractor := ocr.NewExtractor(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Language:    cfg.OCR.Language,
		TessdataDir: cfg.OCR.TessdataDir,
		MedianSize:  cfg.OCR.MedianSize,
	}, logger)

	client := capability.NewClient(cfg.Capability.Timeout, logger)
	chat := capability.NewChatClient(client, capability.ChatConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
	}, logger)
	speech := capability.NewSpeechClient(client, capability.SpeechConfig{
		APIKey:  cfg.Speech.APIKey,
		BaseURL: cfg.Speech.BaseURL,
		Voice:   cfg.Speech.Voice,
	}, logger)

	var imager Imager
	if cfg.ImageEnabled() {
		imager = capability.NewImageClient(client, capability.ImageConfig{
			APIKey:  cfg.Image.APIKey,
			BaseURL: cfg.Image.BaseURL,
			Model:   cfg.Image.Model,
		}, logger)
	}

	return NewDispatcher(session.NewStore(cfg.Server.SessionTTL, logger), extractor, chat, speech, imager, Options{
		AudioDir:     cfg.Server.AudioDir,
		ChatModels:   cfg.Chat.Models,
		DefaultModel: cfg.Chat.Model,
		Voices:       cfg.Speech.Voices,
		DefaultVoice: cfg.Speech.Voice,
	}, logger)
}
