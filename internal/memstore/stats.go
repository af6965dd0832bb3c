package memstore

import (
	"context"
	"sort"
	"time"

	"taskmanager/internal/models"
)

// Stats answers the monitoring queries over the in-memory stores.
type Stats struct {
	users *UserStore
	tasks *TaskStore
}

func NewStats(users *UserStore, tasks *TaskStore) *Stats {
	return &Stats{users: users, tasks: tasks}
}

func (s *Stats) Inventory(_ context.Context) (models.Inventory, error) {
	var inv models.Inventory

	since := time.Now().Add(-24 * time.Hour)
	s.users.mu.RLock()
	for _, user := range s.users.users {
		inv.UsersTotal++
		if !user.CreatedAt.Before(since) {
			inv.UsersNew24h++
		}
	}
	s.users.mu.RUnlock()

	counts := s.tasks.Counts()
	inv.TasksPending = int64(counts[models.StatusPending])
	inv.TasksCompleted = int64(counts[models.StatusCompleted])
	inv.TasksTotal = inv.TasksPending + inv.TasksCompleted

	return inv, nil
}

func (s *Stats) ListUsers(_ context.Context, skip, limit int) ([]models.UserSummary, int, error) {
	perOwner := make(map[int]int64)
	s.tasks.mu.RLock()
	for _, task := range s.tasks.tasks {
		perOwner[task.OwnerID]++
	}
	s.tasks.mu.RUnlock()

	s.users.mu.RLock()
	all := make([]models.UserSummary, 0, len(s.users.users))
	for _, user := range s.users.users {
		all = append(all, models.UserSummary{
			ID:         user.ID,
			Name:       user.Name,
			Email:      user.Email,
			TasksTotal: perOwner[user.ID],
			CreatedAt:  user.CreatedAt,
		})
	}
	s.users.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})

	total := len(all)
	if skip >= total {
		return []models.UserSummary{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}
