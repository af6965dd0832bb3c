// Package tasks is the task query and access-control engine. Every operation
// is scoped to the caller: listings only ever see the caller's tasks, and a
// task owned by someone else can't be read, changed or removed.
package tasks

import (
	"context"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

// Store persists tasks. A missing task is reported as apperr.NotFound and
// I/O failures as apperr.Store.
type Store interface {
	Insert(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int) (*models.Task, error)
	FindMany(ctx context.Context, q models.TaskQuery) ([]models.Task, int, error)
	Update(ctx context.Context, id int, patch models.TaskPatch, updatedAt time.Time) (*models.Task, error)
	Delete(ctx context.Context, id int) error
}

// CreateInput is a task as submitted by a client. Status and DueDate are
// optional; empty means "pending" and "no due date".
type CreateInput struct {
	Title       string
	Description *string
	Status      string
	DueDate     *string
	Tags        []string
}

// UpdateInput carries the fields a client supplied. Fields that are not Set
// are left untouched; a Set DueDate or Description of nil clears it.
type UpdateInput struct {
	Title       models.Field[string]
	Description models.Field[*string]
	Status      models.Field[string]
	DueDate     models.Field[*string]
	Tags        models.Field[[]string]
}

// ListResult is one page of a listing. Total counts every match.
type ListResult struct {
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
	Tasks []models.Task `json:"tasks"`
}

// DeleteResult confirms a removal.
type DeleteResult struct {
	Message string `json:"message"`
	ID      int    `json:"id"`
}

type Service struct {
	store Store
	now   func() time.Time
}

// NewService returns an engine over store. A nil clock means time.Now.
func NewService(store Store, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{store: store, now: clock}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Create stores a new task owned by caller.
func (s *Service) Create(ctx context.Context, caller models.Caller, in CreateInput) (*models.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}

	status := models.StatusPending
	if in.Status != "" {
		if status, err = parseStatus(in.Status); err != nil {
			return nil, err
		}
	}

	dueDate, err := parseDueDate(in.DueDate)
	if err != nil {
		return nil, err
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	description, err := normalizeDescription(in.Description)
	if err != nil {
		return nil, err
	}

	now := s.timestamp()
	task := &models.Task{
		OwnerID:     caller.UserID,
		Title:       title,
		Description: description,
		Status:      status,
		DueDate:     dueDate,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Insert(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// List returns one page of the caller's tasks.
func (s *Service) List(ctx context.Context, caller models.Caller, params ListParams) (*ListResult, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}

	found, total, err := s.store.FindMany(ctx, params.Query(caller.UserID))
	if err != nil {
		return nil, err
	}
	if found == nil {
		found = []models.Task{}
	}

	return &ListResult{
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
		Tasks: found,
	}, nil
}

// Get returns one of the caller's tasks.
func (s *Service) Get(ctx context.Context, caller models.Caller, id int) (*models.Task, error) {
	return s.ownedTask(ctx, caller, id, "Not allowed to view this task")
}

// Update applies the supplied fields to one of the caller's tasks. Existence
// and ownership are checked before any field is validated.
func (s *Service) Update(ctx context.Context, caller models.Caller, id int, in UpdateInput) (*models.Task, error) {
	task, err := s.ownedTask(ctx, caller, id, "Not allowed to modify this task")
	if err != nil {
		return nil, err
	}

	patch, err := buildPatch(in)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return task, nil
	}

	return s.store.Update(ctx, id, patch, s.timestamp())
}

// Delete permanently removes one of the caller's tasks.
func (s *Service) Delete(ctx context.Context, caller models.Caller, id int) (*DeleteResult, error) {
	if _, err := s.ownedTask(ctx, caller, id, "Not allowed to delete this task"); err != nil {
		return nil, err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return nil, err
	}
	return &DeleteResult{Message: "Task removed", ID: id}, nil
}

func (s *Service) ownedTask(ctx context.Context, caller models.Caller, id int, denied string) (*models.Task, error) {
	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, apperr.New(apperr.NotFound, "Task not found")
	}

	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.OwnerID != caller.UserID {
		return nil, apperr.New(apperr.Forbidden, denied)
	}
	return task, nil
}

func buildPatch(in UpdateInput) (models.TaskPatch, error) {
	var patch models.TaskPatch

	if in.Title.Set {
		title, err := normalizeTitle(in.Title.Value)
		if err != nil {
			return patch, err
		}
		patch.Title = models.Some(title)
	}
	if in.Description.Set {
		description, err := normalizeDescription(in.Description.Value)
		if err != nil {
			return patch, err
		}
		patch.Description = models.Some(description)
	}
	if in.Status.Set {
		status, err := parseStatus(in.Status.Value)
		if err != nil {
			return patch, err
		}
		patch.Status = models.Some(status)
	}
	if in.DueDate.Set {
		dueDate, err := parseDueDate(in.DueDate.Value)
		if err != nil {
			return patch, err
		}
		patch.DueDate = models.Some(dueDate)
	}
	if in.Tags.Set {
		tags, err := normalizeTags(in.Tags.Value)
		if err != nil {
			return patch, err
		}
		patch.Tags = models.Some(tags)
	}

	return patch, nil
}

func requireCaller(caller models.Caller) error {
	if caller.UserID <= 0 {
		return apperr.New(apperr.Unauthenticated, "Not authorized")
	}
	return nil
}
