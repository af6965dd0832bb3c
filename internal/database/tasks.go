package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/models"

	"github.com/lib/pq"
)

const taskColumns = `id, owner_id, title, description, status, due_date, tags, created_at, updated_at`

// TaskRepository stores tasks in Postgres. Every method is a single
// statement, so each record changes atomically.
type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Insert stores task and fills in its ID.
func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (owner_id, title, description, status, due_date, tags, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(
		ctx,
		query,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		dueDateArg(task.DueDate),
		tagsArg(task.Tags),
		task.CreatedAt,
		task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return apperr.Wrap(apperr.Store, "insert task", err)
	}
	return nil
}

// FindByID returns the task with id regardless of owner.
func (r *TaskRepository) FindByID(ctx context.Context, id int) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Task not found")
		}
		return nil, apperr.Wrap(apperr.Store, "query task", err)
	}
	return task, nil
}

// FindMany returns one page of tasks matching q and the number of matches
// across all pages.
func (r *TaskRepository) FindMany(ctx context.Context, q models.TaskQuery) ([]models.Task, int, error) {
	where, args := whereClause(q.Filter)

	var total int
	countQuery := `SELECT COUNT(*) FROM tasks WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "count tasks", err)
	}

	args = append(args, q.Limit, q.Skip)
	query := fmt.Sprintf(
		`SELECT %s FROM tasks WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		taskColumns, where, orderClause(q.Sort), len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "query tasks", err)
	}
	defer rows.Close()

	tasks := make([]models.Task, 0, q.Limit)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, 0, apperr.Wrap(apperr.Store, "scan task", err)
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, apperr.Wrap(apperr.Store, "iterate tasks", err)
	}

	return tasks, total, nil
}

// Update applies the set fields of patch and stamps updated_at, never earlier
// than created_at.
func (r *TaskRepository) Update(ctx context.Context, id int, patch models.TaskPatch, updatedAt time.Time) (*models.Task, error) {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title.Set {
		set("title", patch.Title.Value)
	}
	if patch.Description.Set {
		set("description", patch.Description.Value)
	}
	if patch.Status.Set {
		set("status", string(patch.Status.Value))
	}
	if patch.DueDate.Set {
		set("due_date", dueDateArg(patch.DueDate.Value))
	}
	if patch.Tags.Set {
		set("tags", tagsArg(patch.Tags.Value))
	}
	args = append(args, updatedAt)
	sets = append(sets, fmt.Sprintf("updated_at = GREATEST(created_at, $%d)", len(args)))

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE tasks SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), taskColumns,
	)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Task not found")
		}
		return nil, apperr.Wrap(apperr.Store, "update task", err)
	}
	return task, nil
}

// Delete removes the task permanently.
func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return apperr.Wrap(apperr.Store, "delete task", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.Store, "delete task", err)
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "Task not found")
	}
	return nil
}

func whereClause(filter models.TaskFilter) (string, []any) {
	conditions := []string{"owner_id = $1"}
	args := []any{filter.OwnerID}

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, searchPattern(filter.Search))
		conditions = append(conditions, fmt.Sprintf(`lower(title) LIKE lower($%d) ESCAPE '\'`, len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

// orderClause only ever emits whitelisted columns.
func orderClause(sort models.TaskSort) string {
	direction := "DESC"
	if sort.Order == models.OrderAsc {
		direction = "ASC"
	}

	if sort.Field == models.SortByDueDate {
		return fmt.Sprintf("due_date %s NULLS LAST, id %s", direction, direction)
	}
	return fmt.Sprintf("created_at %s, id %s", direction, direction)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchPattern turns a search term into a LIKE pattern that matches the term
// literally anywhere in the title. Case folding is left to lower() in SQL so
// both sides fold the same way.
func searchPattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}

func dueDateArg(date *models.Date) any {
	if date == nil {
		return nil
	}
	return date.String()
}

func tagsArg(tags []string) any {
	if tags == nil {
		tags = []string{}
	}
	return pq.Array(tags)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	var task models.Task
	var description sql.NullString
	var status string
	var dueDate sql.NullTime
	var tags pq.StringArray

	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&description,
		&status,
		&dueDate,
		&tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		task.Description = &description.String
	}
	if dueDate.Valid {
		date := models.DateOf(dueDate.Time)
		task.DueDate = &date
	}
	task.Status = models.TaskStatus(status)
	task.Tags = []string(tags)
	if task.Tags == nil {
		task.Tags = []string{}
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()

	return &task, nil
}
