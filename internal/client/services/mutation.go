package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/uniportal/internal/client/client"
	"github.com/dmitrijs2005/uniportal/internal/client/models"
	"github.com/dmitrijs2005/uniportal/internal/client/tokenstore"
	"github.com/dmitrijs2005/uniportal/internal/logging"
)

var ErrAlreadyEnrolled = errors.New("already enrolled in this subject")

// Reloader refreshes the collections a mutation may have changed.
type Reloader interface {
	Load(ctx context.Context) error
}

// AssignFailure is one subject that could not be assigned.
type AssignFailure struct {
	SubjectID int64
	Err       error
}

// AssignResult reports a bulk assignment item by item. Items are not rolled
// back; assigning again is safe.
type AssignResult struct {
	Succeeded []int64
	Failed    []AssignFailure
}

// MutationService applies one change at a time and reloads the bound
// collections after every success. On failure the server's error is
// returned unchanged and nothing is reloaded.
type MutationService interface {
	Create(ctx context.Context, kind models.Kind, payload models.Payload) (json.RawMessage, error)
	Update(ctx context.Context, kind models.Kind, id int64, payload models.Payload) (json.RawMessage, error)
	Delete(ctx context.Context, kind models.Kind, id int64) error
	AssignSubjects(ctx context.Context, professorID int64, subjectIDs []int64) (AssignResult, error)
	Enroll(ctx context.Context, studentID, subjectID int64) error
	Grade(ctx context.Context, enrollmentID int64, grade models.Grade, score *float64) error
}

type mutationService struct {
	client client.Client
	tokens tokenstore.Store
	reload Reloader
	log    logging.Logger
}

func NewMutationService(c client.Client, tokens tokenstore.Store, reload Reloader, log logging.Logger) MutationService {
	return &mutationService{client: c, tokens: tokens, reload: reload, log: log}
}

func (m *mutationService) credential(ctx context.Context) (models.Credential, error) {
	cred, err := m.tokens.Get(ctx)
	if err != nil {
		return models.Credential{}, err
	}
	if cred == nil {
		return models.Credential{}, ErrNotAuthenticated
	}
	return *cred, nil
}

// refresh reloads after a successful mutation. Only auth failures are
// returned; other reload problems leave the affected collections marked
// unloaded and are logged.
func (m *mutationService) refresh(ctx context.Context) error {
	err := m.reload.Load(ctx)
	if err == nil {
		return nil
	}
	if client.IsAuth(err) {
		return err
	}
	m.log.Warn(ctx, "reload after mutation failed", "error", err)
	return nil
}

func (m *mutationService) Create(ctx context.Context, kind models.Kind, payload models.Payload) (json.RawMessage, error) {
	coll, err := kind.Collection()
	if err != nil {
		return nil, err
	}
	cred, err := m.credential(ctx)
	if err != nil {
		return nil, err
	}
	out, err := m.client.Create(ctx, cred, coll, payload)
	if err != nil {
		return nil, err
	}
	m.log.Info(ctx, "created", "kind", kind)
	return out, m.refresh(ctx)
}

func (m *mutationService) Update(ctx context.Context, kind models.Kind, id int64, payload models.Payload) (json.RawMessage, error) {
	coll, err := kind.Collection()
	if err != nil {
		return nil, err
	}
	cred, err := m.credential(ctx)
	if err != nil {
		return nil, err
	}
	out, err := m.client.Update(ctx, cred, coll, id, payload)
	if err != nil {
		return nil, err
	}
	m.log.Info(ctx, "updated", "kind", kind, "id", id)
	return out, m.refresh(ctx)
}

func (m *mutationService) Delete(ctx context.Context, kind models.Kind, id int64) error {
	coll, err := kind.Collection()
	if err != nil {
		return err
	}
	cred, err := m.credential(ctx)
	if err != nil {
		return err
	}
	if err := m.client.Delete(ctx, cred, coll, id); err != nil {
		return err
	}
	m.log.Info(ctx, "deleted", "kind", kind, "id", id)
	return m.refresh(ctx)
}

// AssignSubjects sets professorID on every subject in order. A failed item
// does not stop the rest, except an auth failure, after which no further
// request is sent. One reload follows if anything succeeded.
func (m *mutationService) AssignSubjects(ctx context.Context, professorID int64, subjectIDs []int64) (AssignResult, error) {
	var res AssignResult
	cred, err := m.credential(ctx)
	if err != nil {
		return res, err
	}

	var authErr error
	for _, id := range subjectIDs {
		if authErr != nil {
			res.Failed = append(res.Failed, AssignFailure{SubjectID: id, Err: authErr})
			continue
		}
		_, err := m.client.Update(ctx, cred, models.Subjects, id, models.Payload{"professor_id": professorID})
		if err != nil {
			res.Failed = append(res.Failed, AssignFailure{SubjectID: id, Err: err})
			if client.IsAuth(err) {
				authErr = err
			}
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}
	m.log.Info(ctx, "subjects assigned", "professor", professorID,
		"succeeded", len(res.Succeeded), "failed", len(res.Failed))

	if len(res.Succeeded) > 0 {
		if err := m.refresh(ctx); err != nil {
			return res, err
		}
	}
	return res, authErr
}

// Enroll creates the enrollment of studentID in subjectID. A uniqueness
// conflict is reported as ErrAlreadyEnrolled.
func (m *mutationService) Enroll(ctx context.Context, studentID, subjectID int64) error {
	_, err := m.Create(ctx, models.KindEnrollment, models.Payload{"student": studentID, "subject": subjectID})
	if errors.Is(err, client.ErrConflict) {
		return fmt.Errorf("%w: %w", ErrAlreadyEnrolled, err)
	}
	return err
}

// Grade sets the grade, and the score when given, of an enrollment. Both
// are validated before any request is sent.
func (m *mutationService) Grade(ctx context.Context, enrollmentID int64, grade models.Grade, score *float64) error {
	g, err := models.ParseGrade(string(grade))
	if err != nil {
		return err
	}
	if err := models.ValidateScore(score); err != nil {
		return err
	}
	payload := models.Payload{"grade": g}
	if score != nil {
		payload["score"] = *score
	}
	_, err = m.Update(ctx, models.KindEnrollment, enrollmentID, payload)
	return err
}
