package roundservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	rounddb "github.com/Black-And-White-Club/caddie/app/modules/round/infrastructure/repositories"
	"github.com/google/uuid"
)

// DefaultLanguage is used when neither the request nor the profile names one.
const DefaultLanguage = "fr"

// VoiceResult is the outcome of a spoken command. Exactly one of Dispatch and
// Reply is set.
type VoiceResult struct {
	Transcript rounddomain.Transcript `json:"transcript"`
	Action     rounddomain.Action     `json:"action"`
	Dispatch   *DispatchResult        `json:"dispatch,omitempty"`
	Reply      string                 `json:"reply,omitempty"`
}

// HandleVoice transcribes recorded audio and handles the resulting transcript.
func (s *Service) HandleVoice(ctx context.Context, roundID uuid.UUID, audio []byte, filename, language string) (VoiceResult, error) {
	if s.deps.Transcriber == nil {
		return VoiceResult{}, ErrAssistUnavailable
	}
	transcript, err := s.deps.Transcriber.Transcribe(ctx, audio, filename, language)
	if err != nil {
		return VoiceResult{}, fmt.Errorf("failed to transcribe audio: %w", err)
	}
	return s.HandleTranscript(ctx, roundID, transcript, language)
}

// HandleTranscript classifies a transcript locally. Engine actions are
// dispatched to the round; anything else is answered by the coach. The
// transcriber's action hint never decides the outcome.
func (s *Service) HandleTranscript(ctx context.Context, roundID uuid.UUID, transcript rounddomain.Transcript, language string) (VoiceResult, error) {
	engine, err := s.Session(ctx, roundID)
	if err != nil {
		return VoiceResult{}, err
	}

	action := rounddomain.Classify(transcript.Text)
	out := VoiceResult{Transcript: transcript, Action: action}

	if hint, ok := rounddomain.ParseActionHint(transcript.ActionHint); ok && hint != action.Kind {
		s.tel.logger.InfoContext(ctx, "Transcription action hint disagrees with classifier",
			slog.String("round_id", roundID.String()),
			slog.String("hint", string(hint)),
			slog.String("classified", string(action.Kind)),
		)
	}

	if action.IsEngineAction() {
		res, err := engine.Dispatch(ctx, action)
		if err != nil {
			return out, err
		}
		out.Dispatch = &res
		return out, nil
	}

	reply, err := s.ask(ctx, engine, action.Text, rounddomain.CoachModeCoach, language)
	if err != nil {
		return out, err
	}
	out.Reply = reply
	return out, nil
}

// Ask sends a coaching or rules question about a round.
func (s *Service) Ask(ctx context.Context, roundID uuid.UUID, message string, mode rounddomain.CoachMode, language string) (string, error) {
	engine, err := s.Session(ctx, roundID)
	if err != nil {
		return "", err
	}
	return s.ask(ctx, engine, message, mode, language)
}

func (s *Service) ask(ctx context.Context, engine *Engine, message string, mode rounddomain.CoachMode, language string) (string, error) {
	if s.deps.Coach == nil {
		return "", ErrAssistUnavailable
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}

	snap := engine.Snapshot()
	profile, err := s.Profile(ctx, snap.Round.UserID)
	if err != nil {
		return "", err
	}
	if language == "" {
		language = profile.Language
	}

	coachCtx := engine.CoachContext(profile)
	reply, err := s.deps.Coach.Respond(ctx, rounddomain.CoachRequest{
		Message:  message,
		Mode:     mode,
		Language: language,
		Context:  &coachCtx,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get coach response: %w", err)
	}

	roundID := snap.Round.ID
	err = s.repo.InsertChatMessage(ctx, nil, &rounddb.ChatMessage{
		ID:       s.deps.NewID(),
		RoundID:  &roundID,
		UserID:   snap.Round.UserID,
		Mode:     string(mode),
		Message:  message,
		Response: reply,
	})
	if err != nil {
		s.tel.logger.WarnContext(ctx, "Failed to store chat message",
			slog.String("round_id", roundID.String()),
			slog.Any("error", err),
		)
	}
	return reply, nil
}

// Profile returns a player's profile, or the defaults for a player who never
// saved one.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (rounddomain.PlayerProfile, error) {
	row, err := s.repo.GetProfile(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, rounddb.ErrNotFound) {
			return DefaultProfile(userID), nil
		}
		return rounddomain.PlayerProfile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	return row.ToDomain(), nil
}

// DefaultProfile is the profile of a player with no saved preferences.
func DefaultProfile(userID uuid.UUID) rounddomain.PlayerProfile {
	return rounddomain.PlayerProfile{
		UserID:         userID,
		HandicapIndex:  54,
		PreferredUnits: rounddomain.UnitMeters,
		Language:       DefaultLanguage,
	}
}
