package assistservice

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	roundservice "github.com/Black-And-White-Club/caddie/app/modules/round/application"
	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
)

type transcriptionResponse struct {
	Text   string `json:"text"`
	Action string `json:"action"`
}

// Transcriber converts speech to text through /audio/transcriptions.
type Transcriber struct {
	api *apiClient
}

var _ roundservice.Transcriber = (*Transcriber)(nil)

// NewTranscriber creates a Transcriber.
func NewTranscriber(cfg Config, logger *slog.Logger, opts ...Option) (*Transcriber, error) {
	api, err := newAPIClient("assist-transcriber", cfg, logger, opts...)
	if err != nil {
		return nil, err
	}
	return &Transcriber{api: api}, nil
}

func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename, language string) (rounddomain.Transcript, error) {
	if filename == "" {
		filename = "audio.webm"
	}
	if language == "" {
		language = roundservice.DefaultLanguage
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return rounddomain.Transcript{}, fmt.Errorf("failed to build transcription request: %w", err)
	}
	if _, err := fw.Write(audio); err != nil {
		return rounddomain.Transcript{}, fmt.Errorf("failed to build transcription request: %w", err)
	}
	for field, value := range map[string]string{"model": t.api.cfg.TranscriptionModel, "language": language} {
		if err := mw.WriteField(field, value); err != nil {
			return rounddomain.Transcript{}, fmt.Errorf("failed to build transcription request: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return rounddomain.Transcript{}, fmt.Errorf("failed to build transcription request: %w", err)
	}

	var resp transcriptionResponse
	if err := t.api.post(ctx, "/audio/transcriptions", mw.FormDataContentType(), buf.Bytes(), &resp); err != nil {
		return rounddomain.Transcript{}, err
	}

	text := strings.TrimSpace(resp.Text)
	t.api.logger.InfoContext(ctx, "Voice transcribed",
		slog.String("language", language),
		slog.Int("audio_bytes", len(audio)),
		slog.Int("text_length", len(text)),
	)
	return rounddomain.Transcript{Text: text, ActionHint: resp.Action}, nil
}
