package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/pendingstore"
	"stopro/roster/internal/undo"
)

// RetentionPeriod is how long resolved records are kept. Exported as a
// variable so tests can override it.
var RetentionPeriod = 7 * 24 * time.Hour

// LiveMargin is how long past its deadline an armed record is assumed to
// still belong to a running process.
var LiveMargin = 30 * time.Second

// ErrStillArmed is returned by Resume for a record whose grace window may
// still be open in another process.
var ErrStillArmed = errors.New("action is still within its undo window")

// Finalizer issues the deferred remote calls owed by unresolved records.
type Finalizer interface {
	DeleteStudent(ctx context.Context, studentID string) error
}

// Service journals pending-action transitions and finishes actions whose
// process exited before they were committed.
type Service struct {
	repo      pendingstore.Repository
	profile   string
	finalizer Finalizer
	logger    zerolog.Logger
}

// NewService creates a journal service for profile. finalizer may be nil
// when the caller only records or lists.
func NewService(repo pendingstore.Repository, profile string, finalizer Finalizer, logger zerolog.Logger) *Service {
	return &Service{repo: repo, profile: profile, finalizer: finalizer, logger: logger}
}

// Close releases repository resources.
func (s *Service) Close() error {
	if s.repo == nil {
		return nil
	}
	return s.repo.Close()
}

// Record implements undo.Journal. The first transition of an action
// inserts its record, later ones update it.
func (s *Service) Record(action undo.PendingAction, state undo.State, detail string) error {
	if s.repo == nil {
		return nil
	}

	record, err := s.repo.GetByActionID(action.ID)
	if err != nil {
		return err
	}

	if record == nil {
		prior, err := json.Marshal(action.PriorState)
		if err != nil {
			return fmt.Errorf("pending: failed to encode prior state: %w", err)
		}
		record = &pendingstore.Record{
			ActionID:    action.ID,
			Profile:     s.profile,
			Kind:        string(action.Kind),
			SubjectID:   action.SubjectID,
			SubjectName: action.SubjectName,
			PriorState:  string(prior),
			ExpiresAt:   action.Deadline(),
			CreatedAt:   action.ArmedAt.UTC(),
		}
		defer func() {
			// Opportunistically clean up old resolved records.
			_, _ = s.repo.DeleteOlderThan(RetentionPeriod)
		}()
	}

	record.State = string(state)
	record.Detail = detail
	return s.repo.Save(record)
}

// ListUnresolved returns this profile's records that may still owe a
// remote call.
func (s *Service) ListUnresolved() ([]pendingstore.Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("pending: repository unavailable")
	}
	all, err := s.repo.ListUnresolved()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, r := range all {
		if r.Profile == s.profile {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListRecent returns the most recent n records of every profile.
func (s *Service) ListRecent(n int) ([]pendingstore.Record, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("pending: repository unavailable")
	}
	return s.repo.ListRecent(n)
}

// Cleanup removes resolved records older than maxAge.
func (s *Service) Cleanup(maxAge time.Duration) (int64, error) {
	if s.repo == nil {
		return 0, fmt.Errorf("pending: repository unavailable")
	}
	return s.repo.DeleteOlderThan(maxAge)
}

// Resume finishes one unresolved record. Deferred deletes are committed
// (a student that is already gone counts as committed); immediate kinds
// owe nothing and are marked expired. Progress is written to w.
func (s *Service) Resume(ctx context.Context, record *pendingstore.Record, now time.Time, w io.Writer) error {
	if record == nil {
		return fmt.Errorf("pending: record is nil")
	}
	if !record.Unresolved() {
		return nil
	}
	if record.State == pendingstore.StateArmed && now.Before(record.ExpiresAt.Add(LiveMargin)) {
		return fmt.Errorf("%s: %w", record.SubjectName, ErrStillArmed)
	}

	kind, ok := undo.ParseKind(record.Kind)
	if !ok {
		return fmt.Errorf("pending: unknown kind %q", record.Kind)
	}

	if !kind.Deferred() {
		fmt.Fprintf(w, "  %s: уже выполнено\n", record.SubjectName)
		return s.save(record, pendingstore.StateExpired, "")
	}

	if s.finalizer == nil {
		return fmt.Errorf("pending: finalizer unavailable")
	}

	fmt.Fprintf(w, "  Удаление ученика %s...\n", record.SubjectName)
	err := s.finalizer.DeleteStudent(ctx, record.SubjectID)
	switch {
	case err == nil:
		return s.save(record, pendingstore.StateFinalized, "")
	case errors.Is(err, domain.ErrNotFound):
		return s.save(record, pendingstore.StateFinalized, "already deleted")
	default:
		s.logger.Warn().Err(err).Str("action_id", record.ActionID).Msg("resume failed")
		if saveErr := s.save(record, pendingstore.StateFinalizeFailed, err.Error()); saveErr != nil {
			return errors.Join(err, saveErr)
		}
		return err
	}
}

func (s *Service) save(record *pendingstore.Record, state, detail string) error {
	record.State = state
	record.Detail = detail
	if s.repo == nil {
		return nil
	}
	return s.repo.Save(record)
}
