// Package roster is the teacher roster service. It holds the local view of
// students and groups, applies destructive actions optimistically and hands
// them to an undo.Controller together with the calls that reverse or
// finalize them.
//
// Removing a student from a group and deleting a group are committed
// remotely before they are armed; undoing them issues compensating calls.
// Deleting a student is deferred: the student disappears from the view at
// once and the remote delete is only sent when the undo window lapses.
package roster

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"stopro/roster/internal/domain"
	"stopro/roster/internal/swrcache"
	"stopro/roster/internal/undo"
	"stopro/roster/internal/util"
)

const (
	// restoreConcurrency bounds the member reassignments issued when a
	// deleted group is rebuilt.
	restoreConcurrency = 4
)

// API is the subset of the platform client the service needs.
type API interface {
	ListStudents(ctx context.Context) ([]domain.Student, error)
	ListGroups(ctx context.Context) ([]domain.Group, error)
	SetStudentGroup(ctx context.Context, studentID string, groupID *string) error
	DeleteStudent(ctx context.Context, studentID string) error
	CreateGroup(ctx context.Context, name string) (*domain.Group, error)
	RenameGroup(ctx context.Context, groupID, name string) (*domain.Group, error)
	DeleteGroup(ctx context.Context, groupID string) error
	AddStudents(ctx context.Context, groupID string, names []string) (*domain.AddStudentsResult, error)
}

// Service owns the roster view and performs roster mutations.
type Service struct {
	api      API
	ctrl     *undo.Controller
	gate     Gate
	cache    *swrcache.Cache
	validate *validator.Validate
	logger   zerolog.Logger
	onChange func()

	mu       sync.Mutex
	loaded   bool
	students []domain.Student
	groups   []domain.Group
	// hidden holds students whose deletion is pending. The backend still
	// returns them until the delete is sent.
	hidden map[string]domain.Student
}

// Option configures a Service.
type Option func(*Service)

// WithGate sets the confirmation gate. Without one every destructive
// operation is cancelled.
func WithGate(g Gate) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithCache enables stale-while-revalidate caching of list reads.
func WithCache(cache *swrcache.Cache) Option {
	return func(s *Service) { s.cache = cache }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithOnChange registers fn to run after the view changes. fn runs outside
// the service's lock.
func WithOnChange(fn func()) Option {
	return func(s *Service) { s.onChange = fn }
}

// New returns a Service that arms its actions on ctrl.
func New(api API, ctrl *undo.Controller, opts ...Option) *Service {
	s := &Service{
		api:      api,
		ctrl:     ctrl,
		gate:     denyAll,
		validate: newValidator(),
		logger:   zerolog.Nop(),
		hidden:   make(map[string]domain.Student),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Controller returns the undo controller actions are armed on.
func (s *Service) Controller() *undo.Controller { return s.ctrl }

// Load fills the view, serving cached lists when they are fresh enough.
func (s *Service) Load(ctx context.Context) error {
	return s.fetch(ctx)
}

// Refresh reloads the view from the backend.
func (s *Service) Refresh(ctx context.Context) error {
	return s.fetch(ctx, swrcache.Lists...)
}

// fetch loads both lists, bypassing the cached copies of stale.
func (s *Service) fetch(ctx context.Context, stale ...swrcache.List) error {
	s.invalidate(stale...)

	var (
		students []domain.Student
		groups   []domain.Group
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = swrcache.Load(s.cache, gctx, swrcache.Students, s.api.ListStudents)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = swrcache.Load(s.cache, gctx, swrcache.Groups, s.api.ListGroups)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.students, s.groups = withoutHidden(students, groups, s.hidden)
	s.loaded = true
	s.mu.Unlock()
	s.changed()
	return nil
}

// withoutHidden drops students with a pending deletion and adjusts the
// member counts of their groups.
func withoutHidden(students []domain.Student, groups []domain.Group, hidden map[string]domain.Student) ([]domain.Student, []domain.Group) {
	outStudents := make([]domain.Student, 0, len(students))
	outGroups := append([]domain.Group(nil), groups...)
	for _, st := range students {
		if _, ok := hidden[st.ID]; ok {
			if st.GroupID != nil {
				adjustCount(outGroups, *st.GroupID, -1)
			}
			continue
		}
		outStudents = append(outStudents, st)
	}
	return outStudents, outGroups
}

func adjustCount(groups []domain.Group, groupID string, delta int) {
	if g := domain.FindGroup(groups, groupID); g != nil {
		g.StudentsCount += delta
		if g.StudentsCount < 0 {
			g.StudentsCount = 0
		}
	}
}

// Students returns a copy of the students in the view.
func (s *Service) Students() []domain.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Student(nil), s.students...)
}

// Groups returns a copy of the groups in the view.
func (s *Service) Groups() []domain.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Group(nil), s.groups...)
}

// Members returns the students of groupID in view order.
func (s *Service) Members(groupID string) []domain.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Student
	for _, st := range s.students {
		if st.InGroup(groupID) {
			out = append(out, st)
		}
	}
	return out
}

// FindStudent resolves ref as a student ID or, failing that, a full name.
func (s *Service) FindStudent(ctx context.Context, ref string) (domain.Student, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Student{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if st := domain.FindStudent(s.students, ref); st != nil {
		return *st, nil
	}
	var matches []domain.Student
	key := util.NormalizeKey(collapse(ref))
	for _, st := range s.students {
		if util.NormalizeKey(st.FullName()) == key {
			matches = append(matches, st)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Student{}, fmt.Errorf("student %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return domain.Student{}, fmt.Errorf("%w: %d students are named %q, use the ID", domain.ErrValidation, len(matches), ref)
	}
}

// FindGroup resolves ref as a group ID or, failing that, a group name.
func (s *Service) FindGroup(ctx context.Context, ref string) (domain.Group, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Group{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if g := domain.FindGroup(s.groups, ref); g != nil {
		return *g, nil
	}
	var matches []domain.Group
	key := util.NormalizeKey(collapse(ref))
	for _, g := range s.groups {
		if util.NormalizeKey(g.Name) == key {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return domain.Group{}, fmt.Errorf("group %q: %w", ref, domain.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return domain.Group{}, fmt.Errorf("%w: %d groups are named %q, use the ID", domain.ErrValidation, len(matches), ref)
	}
}

func (s *Service) ensureLoaded(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	s.mu.Unlock()
	if loaded {
		return nil
	}
	return s.Load(ctx)
}

// RemoveFromGroup takes a student out of their group. The change is
// committed before the undo window opens; undo puts the student back.
func (s *Service) RemoveFromGroup(ctx context.Context, studentID string) (undo.PendingAction, error) {
	st, err := s.FindStudent(ctx, studentID)
	if err != nil {
		return undo.PendingAction{}, err
	}
	if st.GroupID == nil {
		return undo.PendingAction{}, fmt.Errorf("%w: %s is not in a group", domain.ErrValidation, st.FullName())
	}

	snap := MembershipSnapshot{StudentID: st.ID, GroupID: *st.GroupID, GroupName: st.GroupName}
	if snap.GroupName == "" {
		snap.GroupName = s.groupName(snap.GroupID)
	}
	name := st.FullName()

	if err := s.confirm(ctx, removeFromGroupPrompt(name, snap.GroupName)); err != nil {
		return undo.PendingAction{}, err
	}

	if err := s.api.SetStudentGroup(ctx, st.ID, nil); err != nil {
		return undo.PendingAction{}, err
	}
	s.settle(ctx, func() { s.setMembership(st.ID, nil, "") })

	return s.ctrl.Arm(undo.Action{
		Kind:        undo.KindRemoveFromGroup,
		SubjectID:   st.ID,
		SubjectName: name,
		Message:     RemovedFromGroupMessage(name, snap.GroupName),
		PriorState:  snap,
		Revert: func(ctx context.Context) error {
			groupID := snap.GroupID
			if err := s.api.SetStudentGroup(ctx, snap.StudentID, &groupID); err != nil {
				return err
			}
			s.settle(ctx, func() { s.setMembership(snap.StudentID, &groupID, snap.GroupName) })
			return nil
		},
	})
}

// DeleteStudent hides the student at once and schedules the remote delete
// for when the undo window lapses.
func (s *Service) DeleteStudent(ctx context.Context, studentID string) (undo.PendingAction, error) {
	st, err := s.FindStudent(ctx, studentID)
	if err != nil {
		return undo.PendingAction{}, err
	}
	name := st.FullName()

	if err := s.confirm(ctx, deleteStudentPrompt(name, s.ctrl.GraceWindow())); err != nil {
		return undo.PendingAction{}, err
	}

	s.hide(st)

	restore := func(context.Context) error {
		s.unhide(st)
		return nil
	}

	pa, err := s.ctrl.Arm(undo.Action{
		Kind:           undo.KindDeleteStudent,
		SubjectID:      st.ID,
		SubjectName:    name,
		Message:        StudentDeletedMessage(name),
		PriorState:     StudentSnapshot{Student: st},
		FailureMessage: DeleteFailedMessage(name),
		Revert:         restore,
		Cancel:         restore,
		Finalize: func(ctx context.Context) error {
			err := s.api.DeleteStudent(ctx, st.ID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			s.forget(st.ID)
			return nil
		},
	})
	if err != nil {
		s.unhide(st)
		return undo.PendingAction{}, err
	}
	return pa, nil
}

// DeleteGroup deletes a group. The delete is committed before the undo
// window opens; undo creates a group with the same name and moves the
// former members into it.
func (s *Service) DeleteGroup(ctx context.Context, groupID string) (undo.PendingAction, error) {
	g, err := s.FindGroup(ctx, groupID)
	if err != nil {
		return undo.PendingAction{}, err
	}

	memberIDs := s.memberIDs(g.ID)
	snap := GroupSnapshot{GroupID: g.ID, Name: g.Name, MemberIDs: memberIDs}

	if err := s.confirm(ctx, deleteGroupPrompt(g.Name, len(memberIDs))); err != nil {
		return undo.PendingAction{}, err
	}

	if err := s.api.DeleteGroup(ctx, g.ID); err != nil {
		return undo.PendingAction{}, err
	}
	s.regroupHidden(func(st domain.Student) bool { return st.InGroup(g.ID) }, nil, "")
	s.settle(ctx, func() { s.dropGroup(g.ID) })

	r := &groupRestorer{svc: s, snap: snap, done: make(map[string]bool)}
	return s.ctrl.Arm(undo.Action{
		Kind:        undo.KindDeleteGroup,
		SubjectID:   g.ID,
		SubjectName: g.Name,
		Message:     GroupDeletedMessage(g.Name),
		PriorState:  snap,
		Revert:      r.restore,
	})
}

// groupRestorer rebuilds a deleted group. A retried restore reuses the
// group created by an earlier attempt and skips members already moved.
type groupRestorer struct {
	svc  *Service
	snap GroupSnapshot

	mu      sync.Mutex
	groupID string
	done    map[string]bool
}

func (r *groupRestorer) restore(ctx context.Context) error {
	r.mu.Lock()
	groupID := r.groupID
	r.mu.Unlock()

	if groupID == "" {
		created, err := r.svc.api.CreateGroup(ctx, r.snap.Name)
		if err != nil {
			return err
		}
		groupID = created.ID
		r.mu.Lock()
		r.groupID = groupID
		r.mu.Unlock()
		r.svc.logger.Info().
			Str("old_group_id", r.snap.GroupID).
			Str("group_id", groupID).
			Msg("recreated deleted group")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(restoreConcurrency)
	for _, id := range r.snap.MemberIDs {
		r.mu.Lock()
		skip := r.done[id]
		r.mu.Unlock()
		if skip {
			continue
		}
		g.Go(func() error {
			target := groupID
			err := r.svc.api.SetStudentGroup(gctx, id, &target)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			r.mu.Lock()
			r.done[id] = true
			r.mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to restore members of %q: %w", r.snap.Name, err)
	}

	members := make(map[string]bool, len(r.snap.MemberIDs))
	for _, id := range r.snap.MemberIDs {
		members[id] = true
	}
	gid := groupID
	r.svc.regroupHidden(func(st domain.Student) bool { return members[st.ID] }, &gid, r.snap.Name)

	r.svc.settle(ctx, func() {
		r.svc.addGroup(domain.Group{ID: groupID, Name: r.snap.Name}, r.snap.MemberIDs)
	})
	return nil
}

// Undo reverses the pending action of kind.
func (s *Service) Undo(ctx context.Context, kind undo.Kind) error {
	return s.ctrl.Undo(ctx, kind)
}

// RetryFinalize re-sends a failed deferred call of kind.
func (s *Service) RetryFinalize(ctx context.Context, kind undo.Kind) error {
	return s.ctrl.RetryFinalize(ctx, kind)
}

// CreateGroup creates a group after validating its name.
func (s *Service) CreateGroup(ctx context.Context, name string) (*domain.Group, error) {
	req := groupNameRequest{Name: collapse(name)}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	g, err := s.api.CreateGroup(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	s.settle(ctx, func() { s.addGroup(*g, nil) }, swrcache.Groups)
	return g, nil
}

// RenameGroup renames a group after validating the new name.
func (s *Service) RenameGroup(ctx context.Context, groupRef, name string) (*domain.Group, error) {
	req := groupNameRequest{Name: collapse(name)}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	g, err := s.FindGroup(ctx, groupRef)
	if err != nil {
		return nil, err
	}
	renamed, err := s.api.RenameGroup(ctx, g.ID, req.Name)
	if err != nil {
		return nil, err
	}
	s.settle(ctx, func() { s.renameGroup(g.ID, req.Name) })
	return renamed, nil
}

// AddStudents creates student accounts in a group and returns their
// generated credentials.
func (s *Service) AddStudents(ctx context.Context, groupRef string, names []string) (*domain.AddStudentsResult, error) {
	g, err := s.FindGroup(ctx, groupRef)
	if err != nil {
		return nil, err
	}
	req := addStudentsRequest{GroupID: g.ID, Names: util.ParseNames(joinLines(names))}
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}
	res, err := s.api.AddStudents(ctx, req.GroupID, req.Names)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("refresh after adding students failed")
	}
	return res, nil
}

// settle reloads the view after a committed change, refetching the lists
// it touched (both unless named). If the reload fails the view is patched
// to the expected state instead.
func (s *Service) settle(ctx context.Context, patch func(), touched ...swrcache.List) {
	if len(touched) == 0 {
		touched = swrcache.Lists
	}
	err := s.fetch(ctx, touched...)
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Msg("refresh after change failed, patching local view")
	patch()
	s.changed()
}

func (s *Service) invalidate(lists ...swrcache.List) {
	if s.cache == nil || len(lists) == 0 {
		return
	}
	if err := s.cache.Invalidate(lists...); err != nil {
		s.logger.Debug().Err(err).Msg("failed to invalidate list cache")
	}
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Service) groupName(groupID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := domain.FindGroup(s.groups, groupID); g != nil {
		return g.Name
	}
	return groupID
}

func (s *Service) hide(st domain.Student) {
	s.mu.Lock()
	s.hidden[st.ID] = st
	s.removeStudentLocked(st.ID)
	s.mu.Unlock()
	s.invalidate(swrcache.Lists...)
	s.changed()
}

// unhide puts a student back at the head of the list. The hidden copy
// wins over st, since group changes made meanwhile are applied to it.
func (s *Service) unhide(st domain.Student) {
	s.mu.Lock()
	if cur, ok := s.hidden[st.ID]; ok {
		st = cur
	}
	delete(s.hidden, st.ID)
	if domain.FindStudent(s.students, st.ID) == nil {
		s.students = append([]domain.Student{st}, s.students...)
		if st.GroupID != nil {
			adjustCount(s.groups, *st.GroupID, 1)
		}
	}
	s.mu.Unlock()
	s.changed()
}

// regroupHidden moves the hidden students matching match into groupID.
func (s *Service) regroupHidden(match func(domain.Student) bool, groupID *string, groupName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, st := range s.hidden {
		if match(st) {
			st.GroupID, st.GroupName = groupID, groupName
			s.hidden[id] = st
		}
	}
}

// memberIDs lists the members of groupID in view order, followed by
// members whose deletion is still pending. The backend counts both.
func (s *Service) memberIDs(groupID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids, hidden []string
	for _, st := range s.students {
		if st.InGroup(groupID) {
			ids = append(ids, st.ID)
		}
	}
	for _, st := range s.hidden {
		if st.InGroup(groupID) {
			hidden = append(hidden, st.ID)
		}
	}
	sort.Strings(hidden)
	return append(ids, hidden...)
}

func (s *Service) forget(studentID string) {
	s.mu.Lock()
	delete(s.hidden, studentID)
	s.mu.Unlock()
	s.invalidate(swrcache.Lists...)
}

func (s *Service) removeStudentLocked(studentID string) {
	for i, st := range s.students {
		if st.ID != studentID {
			continue
		}
		if st.GroupID != nil {
			adjustCount(s.groups, *st.GroupID, -1)
		}
		s.students = append(s.students[:i:i], s.students[i+1:]...)
		return
	}
}

func (s *Service) setMembership(studentID string, groupID *string, groupName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := domain.FindStudent(s.students, studentID)
	if st == nil {
		return
	}
	if st.GroupID != nil {
		adjustCount(s.groups, *st.GroupID, -1)
	}
	st.GroupID, st.GroupName = groupID, groupName
	if groupID != nil {
		adjustCount(s.groups, *groupID, 1)
	}
}

func (s *Service) dropGroup(groupID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.students {
		if s.students[i].InGroup(groupID) {
			s.students[i].GroupID, s.students[i].GroupName = nil, ""
		}
	}
	for i, g := range s.groups {
		if g.ID == groupID {
			s.groups = append(s.groups[:i:i], s.groups[i+1:]...)
			return
		}
	}
}

func (s *Service) addGroup(g domain.Group, memberIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if domain.FindGroup(s.groups, g.ID) == nil {
		s.groups = append(s.groups, g)
	}
	for _, id := range memberIDs {
		if st := domain.FindStudent(s.students, id); st != nil && !st.InGroup(g.ID) {
			gid := g.ID
			st.GroupID, st.GroupName = &gid, g.Name
			adjustCount(s.groups, g.ID, 1)
		}
	}
}

func (s *Service) renameGroup(groupID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := domain.FindGroup(s.groups, groupID); g != nil {
		g.Name = name
	}
	for i := range s.students {
		if s.students[i].InGroup(groupID) {
			s.students[i].GroupName = name
		}
	}
}
