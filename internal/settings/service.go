package settings

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/functions"
)

// FunctionInvoker calls a serverless function.
type FunctionInvoker interface {
	Invoke(ctx context.Context, name, bearer string, body, out any) error
}

// Service wraps settings persistence with the exception list and payment
// confirmation flows.
type Service struct {
	repo      Repository
	functions FunctionInvoker
	audit     *audit.Recorder
}

// NewService creates a settings service. invoker and recorder may be nil;
// without an invoker ConfirmPayment fails with functions.ErrDisabled.
func NewService(repo Repository, invoker FunctionInvoker, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, functions: invoker, audit: recorder}
}

// Get returns the user's settings, creating defaults on first access.
func (s *Service) Get(ctx context.Context, userID string) (*UserSettings, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// Update persists settings, making sure the record exists first.
func (s *Service) Update(ctx context.Context, st *UserSettings) error {
	if _, err := s.repo.GetOrCreate(ctx, st.UserID); err != nil {
		return err
	}
	return s.repo.Update(ctx, st)
}

// ShutdownExceptions returns the appliance IDs auto-lock must leave on.
// A user without settings has no exceptions.
func (s *Service) ShutdownExceptions(ctx context.Context, userID string) ([]string, error) {
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return []string{}, nil
		}
		return nil, err
	}
	return st.Security.ShutdownExceptions, nil
}

// AutoLockEnabled reports whether leaving the home should arm auto-lock.
// Users without settings get the default.
func (s *Service) AutoLockEnabled(ctx context.Context, userID string) (bool, error) {
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrSettingsNotFound) {
			return Defaults(userID).Security.AutoLockEnabled, nil
		}
		return false, err
	}
	return st.Security.AutoLockEnabled, nil
}

// SetException adds or removes an appliance from the shutdown exceptions.
func (s *Service) SetException(ctx context.Context, userID, applianceID string, excepted bool) (*UserSettings, error) {
	if applianceID == "" {
		return nil, fmt.Errorf("%w: appliance id is required", ErrInvalidSettings)
	}
	st, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	has := st.IsException(applianceID)
	switch {
	case excepted && !has:
		st.Security.ShutdownExceptions = append(st.Security.ShutdownExceptions, applianceID)
	case !excepted && has:
		st.Security.ShutdownExceptions = slices.DeleteFunc(st.Security.ShutdownExceptions,
			func(id string) bool { return id == applianceID })
	default:
		return st, nil
	}

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

type verifyPaymentRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

type verifyPaymentResponse struct {
	Plan Plan `json:"plan"`
}

// ConfirmPayment verifies a completed checkout session with the
// verify-payment function and switches the user's plan to the one it
// reports.
func (s *Service) ConfirmPayment(ctx context.Context, userID, bearer, sessionID string) (*UserSettings, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrInvalidSettings)
	}
	if s.functions == nil {
		return nil, functions.ErrDisabled
	}

	var res verifyPaymentResponse
	req := verifyPaymentRequest{SessionID: sessionID, UserID: userID}
	if err := s.functions.Invoke(ctx, functions.VerifyPayment, bearer, req, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentNotVerified, err)
	}
	if !ValidPlan(res.Plan) {
		return nil, fmt.Errorf("%w: unexpected plan %q", ErrPaymentNotVerified, res.Plan)
	}

	st, err := s.repo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := st.SubscriptionPlan
	st.SubscriptionPlan = res.Plan
	if err := s.repo.Update(ctx, st); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionPlanChange,
		EntityType: Table,
		EntityID:   userID,
		UserID:     userID,
		Source:     audit.SourceAPI,
		Details:    map[string]any{"from": string(previous), "to": string(res.Plan), "session_id": sessionID},
	})
	return st, nil
}
