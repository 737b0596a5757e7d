package capability

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

// SpeechConfig for the Deepgram text-to-speech provider.
type SpeechConfig struct {
	APIKey  string
	BaseURL string // default https://api.deepgram.com/v1
	Voice   string // default aura-asteria-en
}

type SpeechClient struct {
	cfg    SpeechConfig
	client *Client
	logger *slog.Logger
}

func NewSpeechClient(client *Client, cfg SpeechConfig, logger *slog.Logger) *SpeechClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultSpeechBaseURL
	}
	if cfg.Voice == "" {
		cfg.Voice = constants.DefaultVoice
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpeechClient{cfg: cfg, client: client, logger: logger}
}

// Synthesize returns raw audio bytes for text spoken with voice.
func (s *SpeechClient) Synthesize(ctx context.Context, voice, text string) (Response, error) {
	if voice == "" {
		voice = s.cfg.Voice
	}
	endpoint := strings.TrimRight(s.cfg.BaseURL, "/") + "/speak?model=" + url.QueryEscape(voice)
	resp, err := s.client.Call(ctx, Request{
		Capability: constants.CapabilitySpeech,
		URL:        endpoint,
		Auth:       Token(s.cfg.APIKey),
		Body:       map[string]string{"text": text},
	})
	if err != nil || !resp.OK() {
		return resp, err
	}
	if resp.ContentType == "" {
		resp.ContentType = "audio/wav"
	}
	s.logger.Debug("speech.synthesized", "voice", voice, "bytes", len(resp.Content), "content_type", resp.ContentType)
	return resp, nil
}
