package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joseph-ayodele/doc-assistant/constants"
	"github.com/joseph-ayodele/doc-assistant/internal/common"
	"github.com/joseph-ayodele/doc-assistant/internal/session"
)

// Speak synthesizes text, or the document prefill when text is blank, and
// writes the audio to a temporary file owned by the session.
func (d *Dispatcher) Speak(ctx context.Context, id, voice, text string) (session.Reply, error) {
	sess, err := d.loaded(id)
	if err != nil {
		return session.Reply{}, err
	}
	if strings.TrimSpace(text) == "" {
		text = SpeechPrefill(sess.Text)
	}
	voice = d.Voice(voice)

	resp, err := d.speech.Synthesize(common.WithSessionID(ctx, id), voice, text)
	if err != nil {
		d.logger.Error("dispatch.speech.failed", "session_id", id, "err", err)
		return session.Reply{}, capabilityError(constants.CapabilitySpeech, err)
	}
	reply := session.Reply{Input: text, Model: voice}
	if !resp.OK() {
		reply.Error = SpeechErrorPrefix + resp.Diagnostic
		return d.record(id, session.TabSpeech, reply)
	}

	path, err := d.writeAudio(resp.Content, resp.ContentType)
	if err != nil {
		return session.Reply{}, common.WrapError(err, "store audio")
	}

	_, err = d.store.Update(id, func(s *session.Session) {
		s.ReplaceAudio(path, resp.ContentType)
	})
	if err != nil {
		session.RemoveAudio(d.logger, path)
		return session.Reply{}, err
	}

	d.logger.Info("dispatch.speech.ok", "session_id", id, "voice", voice, "bytes", len(resp.Content), "path", path)
	return d.record(id, session.TabSpeech, reply)
}

func (d *Dispatcher) writeAudio(data []byte, contentType string) (string, error) {
	f, err := os.CreateTemp(d.opts.AudioDir, "speech-*"+audioExt(contentType))
	if err != nil {
		return "", fmt.Errorf("create audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("close audio file: %w", err)
	}
	return f.Name(), nil
}

func audioExt(contentType string) string {
	switch {
	case strings.Contains(contentType, "mpeg"), strings.Contains(contentType, "mp3"):
		return ".mp3"
	case strings.Contains(contentType, "ogg"):
		return ".ogg"
	default:
		return ".wav"
	}
}

// Imagine generates an image from prompt. It fails with ErrCapabilityDisabled
// when no image provider is configured.
func (d *Dispatcher) Imagine(ctx context.Context, id, prompt string) (session.Reply, error) {
	if d.imager == nil {
		return session.Reply{}, common.NewAppError("CAPABILITY_ERROR", "image generation is not configured", common.ErrCapabilityDisabled)
	}
	if _, err := d.loaded(id); err != nil {
		return session.Reply{}, err
	}
	if strings.TrimSpace(prompt) == "" {
		return session.Reply{}, common.InvalidInputError("prompt is required")
	}

	resp, err := d.imager.Generate(common.WithSessionID(ctx, id), prompt)
	if err != nil {
		d.logger.Error("dispatch.image.failed", "session_id", id, "err", err)
		return session.Reply{}, capabilityError(constants.CapabilityImage, err)
	}
	reply := session.Reply{Input: prompt}
	if !resp.OK() {
		reply.Error = ImageErrorPrefix + resp.Diagnostic
		return d.record(id, session.TabImage, reply)
	}

	if _, err := d.store.Update(id, func(s *session.Session) {
		s.Image = resp.Content
		s.ImageType = resp.ContentType
	}); err != nil {
		return session.Reply{}, err
	}
	d.logger.Info("dispatch.image.ok", "session_id", id, "bytes", len(resp.Content))
	return d.record(id, session.TabImage, reply)
}
