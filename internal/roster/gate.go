package roster

import (
	"context"
	"errors"

	"stopro/roster/internal/undo"
)

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// Prompt is what a Gate asks the user before a destructive call.
type Prompt struct {
	Kind        undo.Kind
	Title       string
	Description string
	Affirmative string
	Negative    string
}

// Gate asks for confirmation. Only an explicit yes returns true; every
// other answer, including an aborted prompt, means cancel.
type Gate interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// GateFunc adapts a function to Gate.
type GateFunc func(ctx context.Context, p Prompt) (bool, error)

func (f GateFunc) Confirm(ctx context.Context, p Prompt) (bool, error) { return f(ctx, p) }

// AssumeYes confirms everything. Used for --yes and by callers that have
// already confirmed through their own dialog.
var AssumeYes Gate = GateFunc(func(context.Context, Prompt) (bool, error) { return true, nil })

// denyAll is the default gate: without an explicit gate nothing destructive
// happens.
var denyAll Gate = GateFunc(func(context.Context, Prompt) (bool, error) { return false, nil })

func (s *Service) confirm(ctx context.Context, p Prompt) error {
	if p.Negative == "" {
		p.Negative = "Отмена"
	}
	ok, err := s.gate.Confirm(ctx, p)
	if err != nil {
		if errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled) {
			return ErrCancelled
		}
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}
