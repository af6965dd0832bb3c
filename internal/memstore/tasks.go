// Package memstore keeps users and tasks in process memory. It backs
// STORE_DRIVER=memory and the end-to-end tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"
)

// TaskStore is an in-memory task store. It never hands out pointers to the
// records it holds.
type TaskStore struct {
	mu     sync.RWMutex
	nextID int
	tasks  map[int]*models.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks: make(map[int]*models.Task),
	}
}

func (s *TaskStore) Insert(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Store, "insert task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	task.ID = s.nextID
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *TaskStore) FindByID(ctx context.Context, id int) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, "query task", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	task, found := s.tasks[id]
	if !found {
		return nil, apperr.New(apperr.NotFound, "Task not found")
	}
	return task.Clone(), nil
}

func (s *TaskStore) FindMany(ctx context.Context, q models.TaskQuery) ([]models.Task, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "query tasks", err)
	}

	s.mu.RLock()
	matches := make([]*models.Task, 0)
	for _, task := range s.tasks {
		if matchesFilter(task, q.Filter) {
			matches = append(matches, task.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return less(matches[i], matches[j], q.Sort)
	})

	total := len(matches)
	page := make([]models.Task, 0, q.Limit)
	if q.Skip < total {
		end := total
		if q.Limit > 0 && q.Skip+q.Limit < end {
			end = q.Skip + q.Limit
		}
		for _, task := range matches[q.Skip:end] {
			page = append(page, *task)
		}
	}

	return page, total, nil
}

func (s *TaskStore) Update(ctx context.Context, id int, patch models.TaskPatch, updatedAt time.Time) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Store, "update task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, found := s.tasks[id]
	if !found {
		return nil, apperr.New(apperr.NotFound, "Task not found")
	}

	patch.Apply(task)
	if updatedAt.Before(task.CreatedAt) {
		updatedAt = task.CreatedAt
	}
	task.UpdatedAt = updatedAt
	return task.Clone(), nil
}

func (s *TaskStore) Delete(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Store, "delete task", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.tasks[id]; !found {
		return apperr.New(apperr.NotFound, "Task not found")
	}
	delete(s.tasks, id)
	return nil
}

// Counts returns the number of tasks per status.
func (s *TaskStore) Counts() map[models.TaskStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.TaskStatus]int, 2)
	for _, task := range s.tasks {
		counts[task.Status]++
	}
	return counts
}

func matchesFilter(task *models.Task, filter models.TaskFilter) bool {
	if task.OwnerID != filter.OwnerID {
		return false
	}
	if filter.Status != nil && task.Status != *filter.Status {
		return false
	}
	if filter.Search != "" && !strings.Contains(strings.ToLower(task.Title), strings.ToLower(filter.Search)) {
		return false
	}
	return true
}

// less mirrors the Postgres ORDER BY: the sort key in the requested
// direction, missing due dates last, then id in the same direction.
func less(a, b *models.Task, order models.TaskSort) bool {
	desc := order.Order != models.OrderAsc

	if order.Field == models.SortByDueDate {
		switch {
		case a.DueDate == nil && b.DueDate == nil:
		case a.DueDate == nil:
			return false
		case b.DueDate == nil:
			return true
		case !a.DueDate.Equal(b.DueDate.Time):
			if desc {
				return b.DueDate.Before(*a.DueDate)
			}
			return a.DueDate.Before(*b.DueDate)
		}
	} else if !a.CreatedAt.Equal(b.CreatedAt) {
		if desc {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.CreatedAt.Before(b.CreatedAt)
	}

	if desc {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}
