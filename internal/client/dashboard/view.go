package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/uniportal/internal/client/cache"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/services"
)

var (
	ErrNotEditing       = errors.New("nothing to submit: start with new or edit")
	ErrNotFound         = errors.New("not found in the loaded data")
	ErrNoStudentProfile = errors.New("no student record for the current user")
)

// View is one open dashboard. Every operation fails once the view is
// closed or the session it was opened under has ended. Auth failures expire
// the session and come back as services.ErrSessionExpired.
type View struct {
	m     *Manager
	dash  models.DashboardContext
	cache *cache.Cache
	mut   services.MutationService

	// epoch is the session epoch the view was opened under.
	epoch  uint64
	base   context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	edit   models.EditState
	closed bool
}

func (v *View) Context() models.DashboardContext { return v.dash }

// Layout lists the collections this view loads.
func (v *View) Layout() cache.Layout { return v.cache.Layout() }

// Snapshot returns the last loaded data. It may be stale. Once the session
// the view was opened under has ended the view is closed and the snapshot is
// empty.
func (v *View) Snapshot() cache.Snapshot {
	v.live()
	return v.cache.Snapshot()
}

func (v *View) EditState() models.EditState {
	v.live()
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.edit
}

func (v *View) isClosed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// live reports whether the view is open and its session is still the
// current one. A view that outlived its session is closed here.
func (v *View) live() bool {
	if v.isClosed() {
		return false
	}
	if !v.m.sess.Authenticated() || !v.m.sess.Current(v.epoch) {
		v.Close()
		return false
	}
	return true
}

// Close cancels in-flight loads, drops the cached data and starts a new
// session epoch so late results are discarded. It is idempotent.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.edit = models.NotEditing{}
	v.mu.Unlock()

	v.cancel()
	v.cache.Reset()
	v.m.sess.Advance()
}

// scope derives a context that is also cancelled by Close and checks the
// view is still usable.
func (v *View) scope(ctx context.Context) (context.Context, context.CancelFunc, error) {
	if v.isClosed() {
		return nil, nil, ErrClosed
	}
	if !v.live() || v.m.sess.Context() != v.dash {
		v.Close()
		return nil, nil, ErrAccessDenied
	}
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(v.base, cancel)
	return ctx, func() { stop(); cancel() }, nil
}

func (v *View) guard(ctx context.Context, err error) error {
	err = v.m.auth.Guard(ctx, err)
	if errors.Is(err, services.ErrSessionExpired) {
		v.Close()
	}
	return err
}

// Reload replaces the snapshot with fresh data from the server.
func (v *View) Reload(ctx context.Context) error {
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer done()
	return v.guard(ctx, v.cache.Load(ctx))
}

// writable reports whether the view may create or edit entities of kind.
func (v *View) writable(kind models.Kind) bool {
	switch v.dash {
	case models.ContextAdministrator:
		_, err := kind.Collection()
		return err == nil
	case models.ContextProfessor:
		return kind == models.KindEnrollment
	}
	return false
}

func (v *View) BeginCreate(kind models.Kind) error {
	if !v.live() {
		return ErrClosed
	}
	if v.dash != models.ContextAdministrator || !v.writable(kind) {
		return fmt.Errorf("%w: cannot create %s here", ErrAccessDenied, kind)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.edit = models.Creating{Kind: kind}
	return nil
}

// BeginEdit starts editing an entity present in the snapshot.
func (v *View) BeginEdit(kind models.Kind, id int64) error {
	if !v.live() {
		return ErrClosed
	}
	if !v.writable(kind) {
		return fmt.Errorf("%w: cannot edit %s here", ErrAccessDenied, kind)
	}
	if !contains(v.cache.Snapshot(), kind, id) {
		return fmt.Errorf("%s #%d: %w", kind, id, ErrNotFound)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.edit = models.Editing{Kind: kind, ID: id}
	return nil
}

func (v *View) CancelEdit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.edit = models.NotEditing{}
}

// Submit sends payload according to the edit state. On success the state
// returns to NotEditing; on failure it is kept so the input can be fixed.
func (v *View) Submit(ctx context.Context, payload models.Payload) (json.RawMessage, error) {
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return nil, err
	}
	defer done()

	var out json.RawMessage
	switch st := v.EditState().(type) {
	case models.Creating:
		out, err = v.mut.Create(ctx, st.Kind, payload)
	case models.Editing:
		out, err = v.mut.Update(ctx, st.Kind, st.ID, payload)
	default:
		return nil, ErrNotEditing
	}
	if err != nil {
		return nil, v.guard(ctx, err)
	}
	v.CancelEdit()
	return out, nil
}

func (v *View) Delete(ctx context.Context, kind models.Kind, id int64) error {
	if v.dash != models.ContextAdministrator {
		return fmt.Errorf("%w: cannot delete here", ErrAccessDenied)
	}
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer done()
	if err := v.guard(ctx, v.mut.Delete(ctx, kind, id)); err != nil {
		return err
	}
	if st, ok := v.EditState().(models.Editing); ok && st.Kind == kind && st.ID == id {
		v.CancelEdit()
	}
	return nil
}

// EnrollSelf enrolls the logged-in student in subjectID. An enrollment
// already present in the snapshot is rejected without a request.
func (v *View) EnrollSelf(ctx context.Context, subjectID int64) error {
	if v.dash != models.ContextStudent {
		return fmt.Errorf("%w: only students can enroll", ErrAccessDenied)
	}
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer done()

	snap := v.cache.Snapshot()
	me, ok := snap.StudentByUsername(v.m.sess.Profile().Username)
	if !ok {
		return ErrNoStudentProfile
	}
	if snap.EnrolledIn(me.ID, subjectID) {
		return services.ErrAlreadyEnrolled
	}
	return v.guard(ctx, v.mut.Enroll(ctx, me.ID, subjectID))
}

func (v *View) Grade(ctx context.Context, enrollmentID int64, grade models.Grade, score *float64) error {
	if !v.writable(models.KindEnrollment) {
		return fmt.Errorf("%w: cannot grade here", ErrAccessDenied)
	}
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return err
	}
	defer done()
	return v.guard(ctx, v.mut.Grade(ctx, enrollmentID, grade, score))
}

// AssignSubjects assigns professorID to every subject in order. See
// services.MutationService.AssignSubjects for the partial-failure contract.
func (v *View) AssignSubjects(ctx context.Context, professorID int64, subjectIDs []int64) (services.AssignResult, error) {
	if v.dash != models.ContextAdministrator {
		return services.AssignResult{}, fmt.Errorf("%w: cannot assign subjects here", ErrAccessDenied)
	}
	ctx, done, err := v.scope(ctx)
	if err != nil {
		return services.AssignResult{}, err
	}
	defer done()
	res, err := v.mut.AssignSubjects(ctx, professorID, subjectIDs)
	return res, v.guard(ctx, err)
}

func contains(s cache.Snapshot, kind models.Kind, id int64) bool {
	switch kind {
	case models.KindFaculty:
		return hasID(s.Faculties.Items, id, func(f models.Faculty) int64 { return f.ID })
	case models.KindSubject:
		return hasID(s.Subjects.Items, id, func(x models.Subject) int64 { return x.ID })
	case models.KindProfessor:
		return hasID(s.Professors.Items, id, func(x models.Professor) int64 { return x.ID })
	case models.KindStudent:
		return hasID(s.Students.Items, id, func(x models.Student) int64 { return x.ID })
	case models.KindAdministrator:
		return hasID(s.Administrators.Items, id, func(x models.Administrator) int64 { return x.ID })
	case models.KindEnrollment:
		return hasID(s.Enrollments.Items, id, func(x models.Enrollment) int64 { return x.ID })
	}
	return false
}

func hasID[T any](items []T, id int64, key func(T) int64) bool {
	for _, it := range items {
		if key(it) == id {
			return true
		}
	}
	return false
}
