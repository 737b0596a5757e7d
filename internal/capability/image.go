package capability

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/constants"
)

// ImageConfig for the Hugging Face hosted diffusion model.
type ImageConfig struct {
	APIKey  string
	BaseURL string // default https://api-inference.huggingface.co/models
	Model   string
}

type ImageClient struct {
	cfg    ImageConfig
	client *Client
	logger *slog.Logger
}

func NewImageClient(client *Client, cfg ImageConfig, logger *slog.Logger) *ImageClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = constants.DefaultImageBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = constants.DefaultImageModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ImageClient{cfg: cfg, client: client, logger: logger}
}

// Generate returns raw image bytes for prompt.
func (g *ImageClient) Generate(ctx context.Context, prompt string) (Response, error) {
	resp, err := g.client.Call(ctx, Request{
		Capability: constants.CapabilityImage,
		URL:        strings.TrimRight(g.cfg.BaseURL, "/") + "/" + g.cfg.Model,
		Auth:       Bearer(g.cfg.APIKey),
		Body:       map[string]string{"inputs": prompt},
	})
	if err != nil || !resp.OK() {
		return resp, err
	}
	if resp.ContentType == "" || strings.HasPrefix(resp.ContentType, "application/octet-stream") {
		resp.ContentType = "image/png"
	}
	g.logger.Debug("image.generated", "model", g.cfg.Model, "bytes", len(resp.Content))
	return resp, nil
}
