package model

import "time"

// Activity status constants.
const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusArchived   = "archived"
)

// Activity priority constants.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Activity is the central aggregate: a tracked unit of work assigned to one
// collaborator, belonging to a sector and optionally a subsector or a
// private personal list.
type Activity struct {
	ID            string     `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Description   string     `json:"description" db:"description"`
	Status        string     `json:"status" db:"status"`
	Priority      string     `json:"priority" db:"priority"`
	DueDate       *time.Time `json:"due_date,omitempty" db:"due_date"`
	EstimatedTime *float64   `json:"estimated_time,omitempty" db:"estimated_time"`
	IsPrivate     bool       `json:"is_private" db:"is_private"`
	SectorID      string     `json:"sector_id" db:"sector_id"`
	SubsectorID   *string    `json:"subsector_id,omitempty" db:"subsector_id"`
	ListID        *string    `json:"list_id,omitempty" db:"list_id"`
	UserID        string     `json:"user_id" db:"user_id"`
	CreatedBy     string     `json:"created_by" db:"created_by"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`

	// Subtasks is populated by queries that expand the checklist relation,
	// sorted ascending by order index.
	Subtasks []Subtask `json:"subtasks,omitempty" db:"-"`

	// Assignee and SubsectorName are populated by queries that join the
	// profile and subsector relations.
	Assignee      *Profile `json:"assignee,omitempty" db:"-"`
	SubsectorName string   `json:"subsector_name,omitempty" db:"-"`
}

// IsArchived reports whether the activity is excluded from active boards.
func (a Activity) IsArchived() bool {
	return a.Status == StatusArchived
}

// InList reports whether the activity belongs to a personal list. List
// activities never appear in subsector or collaborator groupings.
func (a Activity) InList() bool {
	return a.ListID != nil && *a.ListID != ""
}

// InSubsector reports whether the activity belongs to a subsector.
// Subsector activities never appear in personal list boards.
func (a Activity) InSubsector() bool {
	return a.SubsectorID != nil && *a.SubsectorID != ""
}

// SubtaskProgress returns the completed and total counts over all subtasks.
func (a Activity) SubtaskProgress() (done, total int) {
	for _, st := range a.Subtasks {
		total++
		if st.IsCompleted {
			done++
		}
	}
	return done, total
}

// Subtask is a checklist item owned by exactly one activity. Order within
// a checklist group is advisory: duplicate order indexes are tolerated and
// ties keep their original array order.
type Subtask struct {
	ID             string    `json:"id" db:"id"`
	ActivityID     string    `json:"activity_id" db:"activity_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	IsCompleted    bool      `json:"is_completed" db:"is_completed"`
	OrderIndex     int       `json:"order_index" db:"order_index"`
	ChecklistGroup string    `json:"checklist_group,omitempty" db:"checklist_group"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// GroupProgress returns per-group completed/total counts for a subtask set,
// keyed by checklist group label. Subtasks without a label fall into the
// implicit "" group.
func GroupProgress(subtasks []Subtask) map[string][2]int {
	progress := make(map[string][2]int)
	for _, st := range subtasks {
		p := progress[st.ChecklistGroup]
		p[1]++
		if st.IsCompleted {
			p[0]++
		}
		progress[st.ChecklistGroup] = p
	}
	return progress
}
