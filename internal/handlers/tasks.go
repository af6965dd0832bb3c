package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"taskmanager/internal/apperr"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/tasks"

	"github.com/gin-gonic/gin"
)

var listQueryKeys = []string{"page", "limit", "status", "search", "sortBy", "order"}

// TaskEngine is the task side of the API. Every call is scoped to caller.
type TaskEngine interface {
	Create(ctx context.Context, caller models.Caller, in tasks.CreateInput) (*models.Task, error)
	List(ctx context.Context, caller models.Caller, params tasks.ListParams) (*tasks.ListResult, error)
	Get(ctx context.Context, caller models.Caller, id int) (*models.Task, error)
	Update(ctx context.Context, caller models.Caller, id int, in tasks.UpdateInput) (*models.Task, error)
	Delete(ctx context.Context, caller models.Caller, id int) (*tasks.DeleteResult, error)
}

type TaskHandler struct {
	engine TaskEngine
}

func NewTaskHandler(engine TaskEngine) *TaskHandler {
	return &TaskHandler{engine: engine}
}

type createTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Status      string   `json:"status"`
	DueDate     *string  `json:"dueDate"`
	Tags        []string `json:"tags"`
}

// CreateTask stores a new task for the caller.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	startedAt := time.Now()
	task, err := h.engine.Create(c.Request.Context(), caller, tasks.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	monitoring.RecordTaskOperation(monitoring.OpCreate, time.Since(startedAt), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// GetTasks lists the caller's tasks. Query parameters never cause an error;
// bad values fall back to their defaults.
func (h *TaskHandler) GetTasks(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}

	raw := make(map[string]string, len(listQueryKeys))
	for _, key := range listQueryKeys {
		raw[key] = c.Query(key)
	}

	startedAt := time.Now()
	result, err := h.engine.List(c.Request.Context(), caller, tasks.ParseListParams(raw))
	monitoring.RecordTaskOperation(monitoring.OpList, time.Since(startedAt), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTask returns one of the caller's tasks.
func (h *TaskHandler) GetTask(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	startedAt := time.Now()
	task, err := h.engine.Get(c.Request.Context(), caller, taskID)
	monitoring.RecordTaskOperation(monitoring.OpGet, time.Since(startedAt), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

// UpdateTask applies the fields present in the body. Unknown fields are
// ignored; a null description or dueDate clears it.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	startedAt := time.Now()
	task, err := h.updateTask(c.Request.Context(), caller, taskID, body)
	monitoring.RecordTaskOperation(monitoring.OpUpdate, time.Since(startedAt), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, task)
}

func (h *TaskHandler) updateTask(ctx context.Context, caller models.Caller, taskID int, body map[string]json.RawMessage) (*models.Task, error) {
	in, err := decodeUpdate(body)
	if err != nil {
		// Ownership is still checked first so a foreign caller learns
		// nothing from a malformed body.
		if _, ownErr := h.engine.Get(ctx, caller, taskID); ownErr != nil {
			return nil, ownErr
		}
		return nil, err
	}
	return h.engine.Update(ctx, caller, taskID, in)
}

// DeleteTask removes one of the caller's tasks.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	caller, ok := requireCaller(c)
	if !ok {
		return
	}
	taskID, ok := taskIDParam(c)
	if !ok {
		return
	}

	startedAt := time.Now()
	result, err := h.engine.Delete(c.Request.Context(), caller, taskID)
	monitoring.RecordTaskOperation(monitoring.OpDelete, time.Since(startedAt), err == nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func decodeUpdate(body map[string]json.RawMessage) (tasks.UpdateInput, error) {
	var in tasks.UpdateInput

	if raw, ok := body["title"]; ok {
		if err := decodeField(raw, "title", &in.Title.Value); err != nil {
			return in, err
		}
		in.Title.Set = true
	}
	if raw, ok := body["description"]; ok {
		if err := decodeField(raw, "description", &in.Description.Value); err != nil {
			return in, err
		}
		in.Description.Set = true
	}
	if raw, ok := body["status"]; ok {
		if err := decodeField(raw, "status", &in.Status.Value); err != nil {
			return in, err
		}
		in.Status.Set = true
	}
	if raw, ok := body["dueDate"]; ok {
		if err := decodeField(raw, "dueDate", &in.DueDate.Value); err != nil {
			return in, err
		}
		in.DueDate.Set = true
	}
	if raw, ok := body["tags"]; ok {
		if err := decodeField(raw, "tags", &in.Tags.Value); err != nil {
			return in, err
		}
		in.Tags.Set = true
	}

	return in, nil
}

func decodeField(raw json.RawMessage, name string, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return apperr.Wrap(apperr.Validation, "Invalid value for "+name, err)
	}
	return nil
}

func requireCaller(c *gin.Context) (models.Caller, bool) {
	caller, ok := middleware.CallerFromContext(c)
	if !ok {
		respondError(c, apperr.New(apperr.Unauthenticated, "Unauthorized"))
		return models.Caller{}, false
	}
	return caller, true
}

// taskIDParam reads :id. An id that isn't a positive integer can't name a
// task, so it is answered with 404.
func taskIDParam(c *gin.Context) (int, bool) {
	taskID, err := strconv.Atoi(c.Param("id"))
	if err != nil || taskID <= 0 {
		respondError(c, apperr.New(apperr.NotFound, "Task not found"))
		return 0, false
	}
	return taskID, true
}
