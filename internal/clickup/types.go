package clickup

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp is a ClickUp millisecond epoch. The API sends it as a string, a number or null;
// it marshals as RFC3339 (or null) for tool output and reads either form back.
type Timestamp struct {
	time.Time
}

// NewTimestamp converts epoch milliseconds into a Timestamp.
func NewTimestamp(ms int64) Timestamp {
	return Timestamp{Time: time.UnixMilli(ms).UTC()}
}

// Millis returns the epoch milliseconds, or 0 for the zero value.
func (t Timestamp) Millis() int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*t = NewTimestamp(ms)
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

// Priority is a ClickUp task priority: 1 urgent, 2 high, 3 normal, 4 low, 0 unset.
type Priority int

const (
	PriorityNone Priority = iota
	PriorityUrgent
	PriorityHigh
	PriorityNormal
	PriorityLow
)

var priorityNames = map[Priority]string{
	PriorityUrgent: "urgent",
	PriorityHigh:   "high",
	PriorityNormal: "normal",
	PriorityLow:    "low",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return "none"
}

// ParsePriority accepts 1-4 or a priority name.
func ParsePriority(s string) (Priority, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 4 {
			return PriorityNone, fmt.Errorf("priority must be between 1 and 4, got %d", n)
		}
		return Priority(n), nil
	}
	for p, name := range priorityNames {
		if name == s {
			return p, nil
		}
	}
	return PriorityNone, fmt.Errorf("unknown priority %q", s)
}

// UnmarshalJSON accepts null, a number, a numeric string, or the task payload object
// {"id": "1", "priority": "urgent", "color": "..."}.
func (p *Priority) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*p = PriorityNone
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			ID       string `json:"id"`
			Priority string `json:"priority"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("invalid priority object: %w", err)
		}
		if n, err := strconv.Atoi(obj.ID); err == nil {
			*p = Priority(n)
			return nil
		}
		parsed, err := ParsePriority(obj.Priority)
		if err != nil {
			*p = PriorityNone
			return nil
		}
		*p = parsed
		return nil
	}

	n, err := strconv.Atoi(strings.Trim(string(data), `"`))
	if err != nil {
		return fmt.Errorf("invalid priority %s: %w", data, err)
	}
	*p = Priority(n)
	return nil
}

// MarshalJSON emits {"level": n, "name": "..."} or null.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p == PriorityNone {
		return []byte("null"), nil
	}
	return json.Marshal(struct {
		Level int    `json:"level"`
		Name  string `json:"name"`
	}{int(p), p.String()})
}

// Tags is a list of tag names. The API returns tag objects; older payloads and request
// bodies use plain strings.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid tags: %w", err)
	}
	out := make(Tags, 0, len(raw))
	for _, r := range raw {
		var name string
		if err := json.Unmarshal(r, &name); err == nil {
			out = append(out, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(r, &obj); err != nil {
			return fmt.Errorf("invalid tag %s: %w", r, err)
		}
		out = append(out, obj.Name)
	}
	*t = out
	return nil
}

// Contains reports whether the tag list has name, ignoring case.
func (t Tags) Contains(name string) bool {
	for _, tag := range t {
		if strings.EqualFold(tag, name) {
			return true
		}
	}
	return false
}

// FlexInt decodes numbers that the API sometimes quotes.
type FlexInt int64

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*f = FlexInt(n)
		return nil
	}
	// Order indexes arrive as "1.00000".
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %q: %w", s, err)
	}
	*f = FlexInt(v)
	return nil
}

// User is a ClickUp user as embedded in tasks, comments and workspaces.
type User struct {
	ID             int64  `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	Color          string `json:"color,omitempty"`
	Initials       string `json:"initials,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// DisplayName returns the username, falling back to the email.
func (u User) DisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// Member is a workspace member. The API nests the user under "user" in team payloads and
// returns it flat in group payloads; both decode to the same shape.
type Member struct {
	User
	Role int `json:"role,omitempty"`
}

func (m *Member) UnmarshalJSON(data []byte) error {
	var nested struct {
		User *User `json:"user"`
		Role int   `json:"role"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.User != nil {
		m.User = *nested.User
		m.Role = nested.Role
		return nil
	}
	var flat User
	if err := json.Unmarshal(data, &flat); err != nil {
		return fmt.Errorf("invalid member: %w", err)
	}
	m.User = flat
	return nil
}

// Ref is the {id, name} stub the API embeds for a task's list, folder and space.
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TaskStatus is the status object of a task.
type TaskStatus struct {
	ID         string  `json:"id,omitempty"`
	Status     string  `json:"status"`
	Color      string  `json:"color,omitempty"`
	OrderIndex FlexInt `json:"orderindex,omitempty"`
	Type       string  `json:"type,omitempty"`
}

// Closed reports whether the status is a done/closed status.
func (s TaskStatus) Closed() bool {
	return s.Type == "closed" || s.Type == "done"
}

// CustomField is a task custom field. Value is kept raw; its shape depends on Type.
type CustomField struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Task is a ClickUp task.
type Task struct {
	ID           string        `json:"id"`
	CustomID     string        `json:"custom_id,omitempty"`
	Name         string        `json:"name"`
	Description  string        `json:"description,omitempty"`
	TextContent  string        `json:"text_content,omitempty"`
	Status       TaskStatus    `json:"status"`
	DateCreated  Timestamp     `json:"date_created"`
	DateUpdated  Timestamp     `json:"date_updated"`
	DateClosed   Timestamp     `json:"date_closed"`
	DateDone     Timestamp     `json:"date_done"`
	Archived     bool          `json:"archived"`
	Creator      User          `json:"creator"`
	Assignees    []User        `json:"assignees"`
	Watchers     []User        `json:"watchers,omitempty"`
	Tags         Tags          `json:"tags"`
	Parent       string        `json:"parent,omitempty"`
	Priority     Priority      `json:"priority"`
	DueDate      Timestamp     `json:"due_date"`
	StartDate    Timestamp     `json:"start_date"`
	TimeEstimate FlexInt       `json:"time_estimate,omitempty"`
	TimeSpent    FlexInt       `json:"time_spent,omitempty"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
	List         Ref           `json:"list"`
	Folder       Ref           `json:"folder"`
	Space        Ref           `json:"space"`
	URL          string        `json:"url,omitempty"`
	Subtasks     []Task        `json:"subtasks,omitempty"`
}

// HasAssignee reports whether userID is assigned to the task.
func (t Task) HasAssignee(userID int64) bool {
	for _, a := range t.Assignees {
		if a.ID == userID {
			return true
		}
	}
	return false
}

// Workspace is a ClickUp workspace, called "team" in API v2.
type Workspace struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Color   string   `json:"color,omitempty"`
	Avatar  string   `json:"avatar,omitempty"`
	Members []Member `json:"members,omitempty"`
}

// StatusDefinition is a status configured on a space or list.
type StatusDefinition struct {
	Status     string  `json:"status"`
	Type       string  `json:"type"`
	OrderIndex FlexInt `json:"orderindex"`
	Color      string  `json:"color"`
}

type Space struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Private  bool               `json:"private"`
	Archived bool               `json:"archived"`
	Statuses []StatusDefinition `json:"statuses,omitempty"`
}

type Folder struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Hidden    bool    `json:"hidden"`
	Archived  bool    `json:"archived"`
	TaskCount FlexInt `json:"task_count"`
	Space     Ref     `json:"space"`
	Lists     []List  `json:"lists,omitempty"`
}

type List struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Content   string             `json:"content,omitempty"`
	Archived  bool               `json:"archived"`
	TaskCount FlexInt            `json:"task_count"`
	Folder    Ref                `json:"folder"`
	Space     Ref                `json:"space"`
	Statuses  []StatusDefinition `json:"statuses,omitempty"`
}

type Comment struct {
	ID          string    `json:"id"`
	CommentText string    `json:"comment_text"`
	User        User      `json:"user"`
	Resolved    bool      `json:"resolved"`
	Assignee    *User     `json:"assignee,omitempty"`
	Date        Timestamp `json:"date"`
}

type Doc struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Content     string    `json:"content,omitempty"`
	DateCreated Timestamp `json:"date_created"`
	DateUpdated Timestamp `json:"date_updated"`
	Creator     FlexInt   `json:"creator,omitempty"`
	Parent      *DocRef   `json:"parent,omitempty"`
	WorkspaceID FlexInt   `json:"workspace_id,omitempty"`
}

// DocRef identifies the container of a doc. Type follows the v3 API numbering.
type DocRef struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
}

// TimeEntryTask is the task stub embedded in a time entry.
type TimeEntryTask struct {
	ID       string `json:"id"`
	CustomID string `json:"custom_id,omitempty"`
	Name     string `json:"name"`
}

type TimeEntry struct {
	ID          string         `json:"id"`
	Task        *TimeEntryTask `json:"task,omitempty"`
	User        User           `json:"user"`
	Billable    bool           `json:"billable"`
	Start       Timestamp      `json:"start"`
	End         Timestamp      `json:"end"`
	Duration    FlexInt        `json:"duration"`
	Description string         `json:"description"`
	Tags        Tags           `json:"tags,omitempty"`
}

// AssigneeChanges is the add/remove shape the update endpoint expects for assignees.
type AssigneeChanges struct {
	Add    []int64 `json:"add,omitempty"`
	Remove []int64 `json:"rem,omitempty"`
}

// CreateTaskRequest is the body of POST /list/{id}/task.
type CreateTaskRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Assignees    []int64  `json:"assignees,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Status       string   `json:"status,omitempty"`
	Priority     int      `json:"priority,omitempty"`
	DueDate      int64    `json:"due_date,omitempty"`
	StartDate    int64    `json:"start_date,omitempty"`
	TimeEstimate int64    `json:"time_estimate,omitempty"`
	Parent       string   `json:"parent,omitempty"`
	LinksTo      string   `json:"links_to,omitempty"`
	NotifyAll    bool     `json:"notify_all,omitempty"`
}

// UpdateTaskRequest is the body of PUT /task/{id}. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Name         *string          `json:"name,omitempty"`
	Description  *string          `json:"description,omitempty"`
	Status       *string          `json:"status,omitempty"`
	Priority     *int             `json:"priority,omitempty"`
	DueDate      *int64           `json:"due_date,omitempty"`
	StartDate    *int64           `json:"start_date,omitempty"`
	TimeEstimate *int64           `json:"time_estimate,omitempty"`
	Assignees    *AssigneeChanges `json:"assignees,omitempty"`
	Archived     *bool            `json:"archived,omitempty"`
	Parent       *string          `json:"parent,omitempty"`
}

// IsEmpty reports whether the request would change nothing.
func (r UpdateTaskRequest) IsEmpty() bool {
	return r == UpdateTaskRequest{}
}

type CreateDocRequest struct {
	Name    string `json:"name"`
	Content string `json:"content,omitempty"`
}

type UpdateDocRequest struct {
	Name    *string `json:"name,omitempty"`
	Content *string `json:"content,omitempty"`
}

type CreateTimeEntryRequest struct {
	TaskID      string `json:"tid,omitempty"`
	Description string `json:"description,omitempty"`
	Start       int64  `json:"start"`
	Duration    int64  `json:"duration"`
	Billable    bool   `json:"billable"`
	Assignee    int64  `json:"assignee,omitempty"`
}

// GetTaskOptions controls GET /task/{id}.
type GetTaskOptions struct {
	IncludeSubtasks bool
	// CustomTaskIDs treats the ID as a custom task ID; TeamID scopes it.
	CustomTaskIDs bool
	TeamID        string
}

// TaskFilter selects tasks in a list, folder or space. Exactly one container ID is used,
// checked in that order.
type TaskFilter struct {
	ListID         string
	FolderID       string
	SpaceID        string
	Archived       bool
	IncludeClosed  bool
	Subtasks       bool
	Page           int
	OrderBy        string
	Reverse        bool
	Statuses       []string
	Assignees      []string
	Tags           []string
	DueDateGreater int64
	DueDateLess    int64
}

// SearchTasksParams is the query for GET /team/{id}/task.
type SearchTasksParams struct {
	WorkspaceID      string
	Query            string
	Statuses         []string
	Assignees        []string
	Tags             []string
	ListIDs          []string
	SpaceIDs         []string
	IncludeClosed    bool
	Subtasks         bool
	Parent           string
	Page             int
	DateCreatedAfter int64
	DateCreatedUntil int64
	DateUpdatedAfter int64
	DateUpdatedUntil int64
}
