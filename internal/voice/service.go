package voice

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-home/internal/functions"
)

// FunctionInvoker calls a serverless function.
type FunctionInvoker interface {
	Invoke(ctx context.Context, name, bearer string, body, out any) error
}

// Service resolves transcripts and produces speech.
type Service struct {
	repo      Repository
	functions FunctionInvoker
}

// NewService creates a voice service. invoker may be nil, in which case
// Speak fails with functions.ErrDisabled.
func NewService(repo Repository, invoker FunctionInvoker) *Service {
	return &Service{repo: repo, functions: invoker}
}

// Resolve finds the command whose keyword occurs in the transcript. When
// several keywords occur the longest one wins, so "turn off the lights"
// beats "lights".
func (s *Service) Resolve(ctx context.Context, transcript string) (*Match, error) {
	cmds, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	best, ok := longestMatch(cmds, transcript)
	if !ok {
		return nil, ErrNoMatch
	}
	return &Match{Command: best, Response: best.Response}, nil
}

// Commands lists the registered commands, optionally limited to one
// category.
func (s *Service) Commands(ctx context.Context, category string) ([]Command, error) {
	if category != "" {
		return s.repo.ListByCategory(ctx, category)
	}
	return s.repo.List(ctx)
}

func longestMatch(cmds []Command, transcript string) (Command, bool) {
	text := strings.ToLower(transcript)
	var best Command
	found := false
	for _, c := range cmds {
		kw := strings.ToLower(c.Keyword)
		if kw == "" || !strings.Contains(text, kw) {
			continue
		}
		if !found || len(kw) > len(best.Keyword) {
			best = c
			found = true
		}
	}
	return best, found
}

type speechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type speechResponse struct {
	AudioContent string `json:"audioContent"`
}

// Speak asks the text-to-speech function to synthesize text and returns
// the base64 audio it produces.
func (s *Service) Speak(ctx context.Context, bearer, text, voiceName string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: text is empty", ErrInvalidCommand)
	}
	if s.functions == nil {
		return "", functions.ErrDisabled
	}
	var res speechResponse
	if err := s.functions.Invoke(ctx, functions.TextToSpeech, bearer, speechRequest{Text: text, Voice: voiceName}, &res); err != nil {
		return "", err
	}
	return res.AudioContent, nil
}
