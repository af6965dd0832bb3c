package models

// TaskFilter selects tasks. OwnerID is always applied; a nil Status and an
// empty Search mean the filter is not applied.
type TaskFilter struct {
	OwnerID int
	Status  *TaskStatus
	// Search is matched as a literal, case-insensitive substring of the title.
	Search string
}

// SortField names a sortable task attribute.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByDueDate   SortField = "dueDate"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// TaskSort orders a task listing. Tasks without a due date sort last when
// ordering by due date, in either direction.
type TaskSort struct {
	Field SortField
	Order SortOrder
}

// TaskQuery is a fully normalized listing request against a task store.
type TaskQuery struct {
	Filter TaskFilter
	Sort   TaskSort
	Skip   int
	Limit  int
}

// Field is an optional update value; Set reports whether it was supplied.
type Field[T any] struct {
	Value T
	Set   bool
}

// Some returns a supplied Field holding v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// TaskPatch lists the task attributes a caller may change. Unset fields are
// left untouched.
type TaskPatch struct {
	Title       Field[string]
	Description Field[*string]
	Status      Field[TaskStatus]
	DueDate     Field[*Date]
	Tags        Field[[]string]
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return !p.Title.Set && !p.Description.Set && !p.Status.Set && !p.DueDate.Set && !p.Tags.Set
}

// Apply writes the supplied fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title.Set {
		t.Title = p.Title.Value
	}
	if p.Description.Set {
		t.Description = nil
		if p.Description.Value != nil {
			description := *p.Description.Value
			t.Description = &description
		}
	}
	if p.Status.Set {
		t.Status = p.Status.Value
	}
	if p.DueDate.Set {
		t.DueDate = nil
		if p.DueDate.Value != nil {
			dueDate := *p.DueDate.Value
			t.DueDate = &dueDate
		}
	}
	if p.Tags.Set {
		t.Tags = append(make([]string, 0, len(p.Tags.Value)), p.Tags.Value...)
	}
}
