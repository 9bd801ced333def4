package voice

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-home/internal/functions"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database/dbtest"
)

func seededService(t *testing.T, inv FunctionInvoker) (*Service, *SQLiteRepository) {
	t.Helper()
	repo := NewSQLiteRepository(dbtest.Open(t))
	n, err := repo.Seed(context.Background(), DefaultCommands)
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if n != len(DefaultCommands) {
		t.Fatalf("Seed() = %d, want %d", n, len(DefaultCommands))
	}
	return NewService(repo, inv), repo
}

func TestResolve(t *testing.T) {
	svc, _ := seededService(t, nil)

	tests := []struct {
		transcript string
		wantAction string
		wantErr    error
	}{
		{transcript: "Please TURN OFF THE LIGHTS now", wantAction: "lights_off"},
		{transcript: "turn on the lights in the kitchen", wantAction: "lights_on"},
		{transcript: "how are the lights", wantAction: "lights_status"},
		{transcript: "OK, I'm leaving", wantAction: "mode_away"},
		{transcript: "play some jazz", wantErr: ErrNoMatch},
	}
	for _, tt := range tests {
		t.Run(tt.transcript, func(t *testing.T) {
			m, err := svc.Resolve(context.Background(), tt.transcript)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if m.Command.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", m.Command.Action, tt.wantAction)
			}
		})
	}
}

func TestSeed_Idempotent(t *testing.T) {
	_, repo := seededService(t, nil)
	ctx := context.Background()

	n, err := repo.Seed(ctx, DefaultCommands)
	if err != nil || n != 0 {
		t.Errorf("second Seed() = %d, %v; want 0, nil", n, err)
	}
	lighting, err := repo.ListByCategory(ctx, "lighting")
	if err != nil {
		t.Fatalf("ListByCategory() error = %v", err)
	}
	if len(lighting) != 3 {
		t.Errorf("len(lighting) = %d, want 3", len(lighting))
	}
	if err := repo.Create(ctx, &Command{Keyword: "  LIGHTS ", Category: "lighting"}); !errors.Is(err, ErrCommandExists) {
		t.Errorf("Create(duplicate keyword) error = %v, want ErrCommandExists", err)
	}
}

type fakeTTS struct {
	name string
	err  error
}

func (f *fakeTTS) Invoke(_ context.Context, name, _ string, _, out any) error {
	f.name = name
	if f.err != nil {
		return f.err
	}
	out.(*speechResponse).AudioContent = "UklGRg=="
	return nil
}

func TestSpeak(t *testing.T) {
	tts := &fakeTTS{}
	svc, _ := seededService(t, tts)
	ctx := context.Background()

	audio, err := svc.Speak(ctx, "jwt", "Hello", "")
	if err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	if audio != "UklGRg==" || tts.name != functions.TextToSpeech {
		t.Errorf("Speak() = %q via %q", audio, tts.name)
	}

	tts.err = functions.ErrFunctionFailed
	if _, err := svc.Speak(ctx, "jwt", "Hello", ""); !errors.Is(err, functions.ErrFunctionFailed) {
		t.Errorf("Speak() error = %v, want ErrFunctionFailed", err)
	}
	if _, err := svc.Speak(ctx, "jwt", "  ", ""); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("Speak(empty) error = %v, want ErrInvalidCommand", err)
	}

	noFn, _ := seededService(t, nil)
	if _, err := noFn.Speak(ctx, "", "Hello", ""); !errors.Is(err, functions.ErrDisabled) {
		t.Errorf("Speak() without functions error = %v, want ErrDisabled", err)
	}
}
