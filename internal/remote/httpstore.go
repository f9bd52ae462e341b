package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	gosync "sync"
	"time"

	"github.com/dcosta/activity-board/internal/model"
)

// httpTimeout is the maximum time allowed for a single store request.
const httpTimeout = 30 * time.Second

// HTTPStore implements the Store interface against a hosted data service
// exposing the activity tables as REST resources (PostgREST-style row
// filters, JSON rows). The service's realtime feed is consumed by polling
// its /changes endpoint; every poll delivers the events committed since
// the cursor returned by the previous poll.
type HTTPStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	pollInterval time.Duration

	mu      gosync.Mutex
	nextSub int
	subs    map[string]map[int]func(ChangeEvent)
	cursor  string
	stopCh  chan struct{}
	polling bool
}

// NewHTTPStore creates a store adapter for the hosted service at baseURL.
// apiKey is sent on every request; pollInterval controls how often the
// change feed is polled once a subscriber is attached.
func NewHTTPStore(baseURL, apiKey string, pollInterval time.Duration) *HTTPStore {
	if pollInterval <= 0 {
		pollInterval = 15 * time.Second
	}
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: httpTimeout,
		},
		pollInterval: pollInterval,
		subs:         make(map[string]map[int]func(ChangeEvent)),
		stopCh:       make(chan struct{}),
	}
}

// Close stops the change-feed poller.
func (s *HTTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.polling {
		close(s.stopCh)
		s.polling = false
	}
	return nil
}

// do performs one JSON request against the hosted service.
func (s *HTTPStore) do(
	ctx context.Context,
	method, path string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var remoteErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &remoteErr) == nil && remoteErr.Message != "" {
			return fmt.Errorf("store error (%d) on %s %s: %s",
				resp.StatusCode, method, path, remoteErr.Message)
		}
		return fmt.Errorf("unexpected status %d on %s %s", resp.StatusCode, method, path)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}
	return nil
}

// queryActivities fetches raw activity rows for a filter query and decodes
// them at the boundary.
func (s *HTTPStore) queryActivities(
	ctx context.Context,
	query url.Values,
) ([]model.Activity, error) {
	var raw []map[string]any
	path := "/" + TableActivities
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	if err := s.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	activities := make([]model.Activity, 0, len(raw))
	for _, row := range raw {
		a, err := DecodeActivity(row)
		if err != nil {
			return nil, err
		}
		subtasks, err := decodeNestedSubtasks(row)
		if err != nil {
			return nil, err
		}
		sortSubtasks(subtasks)
		a.Subtasks = subtasks
		a.Assignee = decodeNestedProfile(row)
		activities = append(activities, a)
	}
	return activities, nil
}

// ActivitiesInScope returns the non-archived activities matching the scope.
func (s *HTTPStore) ActivitiesInScope(
	ctx context.Context,
	scope Scope,
) ([]model.Activity, error) {
	q := url.Values{}
	q.Set("status", "neq."+model.StatusArchived)
	q.Set("expand", "subtasks,assignee")

	switch scope.Kind {
	case ScopeList:
		q.Set("list_id", "eq."+scope.ListID)
		q.Set("order", "created_at.asc")
	case ScopeCollaborator:
		q.Set("sector_id", "eq."+scope.SectorID)
		q.Set("user_id", "eq."+scope.UserID)
		q.Set("list_id", "is.null")
		if scope.SubsectorID != "" {
			q.Set("subsector_id", "eq."+scope.SubsectorID)
		}
		q.Set("order", "created_at.desc")
	case ScopeCalendar:
		q.Set("sector_id", "eq."+scope.SectorID)
		q.Set("due_date", fmt.Sprintf("gte.%s,lt.%s",
			scope.From.UTC().Format(time.RFC3339),
			scope.To.UTC().Format(time.RFC3339)))
		q.Set("order", "due_date.asc")
	default:
		q.Set("sector_id", "eq."+scope.SectorID)
		q.Set("list_id", "is.null")
		q.Set("order", "created_at.desc")
	}

	return s.queryActivities(ctx, q)
}

// ActivityByID retrieves a single activity.
func (s *HTTPStore) ActivityByID(
	ctx context.Context,
	id string,
) (*model.Activity, error) {
	var raw map[string]any
	path := fmt.Sprintf("/%s/%s?expand=subtasks,assignee", TableActivities, url.PathEscape(id))
	if err := s.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	a, err := DecodeActivity(raw)
	if err != nil {
		return nil, err
	}
	subtasks, err := decodeNestedSubtasks(raw)
	if err != nil {
		return nil, err
	}
	sortSubtasks(subtasks)
	a.Subtasks = subtasks
	a.Assignee = decodeNestedProfile(raw)
	return &a, nil
}

// CreateActivity inserts a new activity.
func (s *HTTPStore) CreateActivity(
	ctx context.Context,
	a model.Activity,
) (*model.Activity, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, fmt.Errorf("activity title must not be empty")
	}
	if a.Status == "" || a.Status == model.StatusArchived {
		a.Status = model.StatusPending
	}
	if a.Priority == "" {
		a.Priority = model.PriorityMedium
	}

	var raw map[string]any
	if err := s.do(ctx, http.MethodPost, "/"+TableActivities, a, &raw); err != nil {
		return nil, err
	}
	created, err := DecodeActivity(raw)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateActivityFields applies a partial update to one activity.
func (s *HTTPStore) UpdateActivityFields(
	ctx context.Context,
	id string,
	patch ActivityPatch,
) (*model.Activity, error) {
	fields := map[string]any{}
	if patch.Title != nil {
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		fields["description"] = *patch.Description
	}
	if patch.Status != nil {
		fields["status"] = *patch.Status
	}
	if patch.Priority != nil {
		fields["priority"] = *patch.Priority
	}
	if patch.DueDate != nil {
		fields["due_date"] = patch.DueDate.UTC().Format(time.RFC3339)
	}
	if patch.ClearDueDate {
		fields["due_date"] = nil
	}
	if patch.UserID != nil {
		fields["user_id"] = *patch.UserID
	}
	if patch.SubsectorID != nil {
		if *patch.SubsectorID == "" {
			fields["subsector_id"] = nil
		} else {
			fields["subsector_id"] = *patch.SubsectorID
		}
	}
	if patch.ListID != nil {
		if *patch.ListID == "" {
			fields["list_id"] = nil
		} else {
			fields["list_id"] = *patch.ListID
		}
	}
	if len(fields) == 0 {
		return s.ActivityByID(ctx, id)
	}

	var raw map[string]any
	path := fmt.Sprintf("/%s/%s", TableActivities, url.PathEscape(id))
	if err := s.do(ctx, http.MethodPatch, path, fields, &raw); err != nil {
		return nil, err
	}
	updated, err := DecodeActivity(raw)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteActivity permanently removes an activity.
func (s *HTTPStore) DeleteActivity(ctx context.Context, id string) error {
	path := fmt.Sprintf("/%s/%s", TableActivities, url.PathEscape(id))
	return s.do(ctx, http.MethodDelete, path, nil, nil)
}

// ArchivedActivities returns the archive listing for a sector.
func (s *HTTPStore) ArchivedActivities(
	ctx context.Context,
	sectorID string,
) ([]model.Activity, error) {
	q := url.Values{}
	q.Set("sector_id", "eq."+sectorID)
	q.Set("status", "eq."+model.StatusArchived)
	q.Set("order", "updated_at.desc")
	return s.queryActivities(ctx, q)
}

// ReplaceSubtasks delegates the delete-all + bulk-insert to the service's
// replace endpoint. Whether the service wraps both halves in a transaction
// is its own business; callers must treat a failure as a partial save.
func (s *HTTPStore) ReplaceSubtasks(
	ctx context.Context,
	activityID string,
	subtasks []model.Subtask,
) error {
	for i := range subtasks {
		subtasks[i].ActivityID = activityID
		subtasks[i].OrderIndex = i
	}
	path := fmt.Sprintf("/%s/%s/subtasks", TableActivities, url.PathEscape(activityID))
	return s.do(ctx, http.MethodPut, path, subtasks, nil)
}

// SubtasksForActivity returns an activity's subtasks sorted by order index.
func (s *HTTPStore) SubtasksForActivity(
	ctx context.Context,
	activityID string,
) ([]model.Subtask, error) {
	var raw []map[string]any
	path := fmt.Sprintf("/%s/%s/subtasks", TableActivities, url.PathEscape(activityID))
	if err := s.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	subtasks := make([]model.Subtask, 0, len(raw))
	for _, row := range raw {
		st, err := DecodeSubtask(row)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	sortSubtasks(subtasks)
	return subtasks, nil
}

// Lists returns the personal lists owned by a user.
func (s *HTTPStore) Lists(
	ctx context.Context,
	ownerID string,
) ([]model.PersonalList, error) {
	var lists []model.PersonalList
	path := fmt.Sprintf("/%s?owner_id=eq.%s&order=created_at.asc",
		TableLists, url.QueryEscape(ownerID))
	if err := s.do(ctx, http.MethodGet, path, nil, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// CreateList inserts a new personal list.
func (s *HTTPStore) CreateList(
	ctx context.Context,
	list model.PersonalList,
) (*model.PersonalList, error) {
	if strings.TrimSpace(list.Name) == "" {
		return nil, fmt.Errorf("list name must not be empty")
	}
	var created model.PersonalList
	if err := s.do(ctx, http.MethodPost, "/"+TableLists, list, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// RenameList updates a list's name.
func (s *HTTPStore) RenameList(ctx context.Context, id, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("list name must not be empty")
	}
	path := fmt.Sprintf("/%s/%s", TableLists, url.PathEscape(id))
	return s.do(ctx, http.MethodPatch, path, map[string]any{"name": name}, nil)
}

// DeleteList removes a personal list.
func (s *HTTPStore) DeleteList(ctx context.Context, id string) error {
	path := fmt.Sprintf("/%s/%s", TableLists, url.PathEscape(id))
	return s.do(ctx, http.MethodDelete, path, nil, nil)
}

// Profiles returns the collaborator profiles of a sector.
func (s *HTTPStore) Profiles(
	ctx context.Context,
	sectorID string,
) ([]model.Profile, error) {
	var profiles []model.Profile
	path := fmt.Sprintf("/profiles?sector_id=eq.%s&order=name.asc",
		url.QueryEscape(sectorID))
	if err := s.do(ctx, http.MethodGet, path, nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// Subscribe registers fn for change events on table. The first subscriber
// starts the change-feed poll loop.
func (s *HTTPStore) Subscribe(table string, fn func(ChangeEvent)) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.subs[table] == nil {
		s.subs[table] = make(map[int]func(ChangeEvent))
	}
	s.subs[table][id] = fn

	if !s.polling {
		s.polling = true
		go s.pollChanges()
	}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[table], id)
	}
}

// changeFeedEntry is one event as returned by the /changes endpoint.
type changeFeedEntry struct {
	Cursor string         `json:"cursor"`
	Type   string         `json:"type"`
	Table  string         `json:"table"`
	New    map[string]any `json:"new,omitempty"`
	Old    map[string]any `json:"old,omitempty"`
}

// pollChanges polls the change feed until Close, fanning each event out to
// the matching table's subscribers.
func (s *HTTPStore) pollChanges() {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.fetchChanges()
		}
	}
}

// fetchChanges performs one change-feed poll. Errors are swallowed: the
// next tick retries, and the sync layer reconciles on refetch anyway.
func (s *HTTPStore) fetchChanges() {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	path := "/changes"
	if cursor != "" {
		path += "?after=" + url.QueryEscape(cursor)
	}

	var entries []changeFeedEntry
	if err := s.do(ctx, http.MethodGet, path, nil, &entries); err != nil {
		return
	}
	if len(entries) == 0 {
		return
	}

	s.mu.Lock()
	s.cursor = entries[len(entries)-1].Cursor
	handlers := make(map[string][]func(ChangeEvent), len(s.subs))
	for table, fns := range s.subs {
		for _, fn := range fns {
			handlers[table] = append(handlers[table], fn)
		}
	}
	s.mu.Unlock()

	for _, entry := range entries {
		event := ChangeEvent{
			Type:  EventType(entry.Type),
			Table: entry.Table,
			New:   entry.New,
			Old:   entry.Old,
		}
		for _, fn := range handlers[entry.Table] {
			fn(event)
		}
	}
}

// decodeNestedSubtasks extracts and decodes the expanded subtasks relation
// from a raw activity row, if present.
func decodeNestedSubtasks(row map[string]any) ([]model.Subtask, error) {
	nested, ok := row["subtasks"].([]any)
	if !ok {
		return nil, nil
	}
	subtasks := make([]model.Subtask, 0, len(nested))
	for _, item := range nested {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &DecodeError{Table: TableSubtasks, Field: "subtasks", Reason: "expected object"}
		}
		st, err := DecodeSubtask(m)
		if err != nil {
			return nil, err
		}
		subtasks = append(subtasks, st)
	}
	return subtasks, nil
}

// decodeNestedProfile extracts the expanded assignee relation from a raw
// activity row. A malformed profile is dropped rather than failing the
// whole row; the assignee join is cosmetic.
func decodeNestedProfile(row map[string]any) *model.Profile {
	nested, ok := row["assignee"].(map[string]any)
	if !ok {
		return nil
	}
	id, _ := nested["id"].(string)
	name, _ := nested["name"].(string)
	if id == "" {
		return nil
	}
	role, _ := nested["role"].(string)
	avatar, _ := nested["avatar_url"].(string)
	return &model.Profile{ID: id, Name: name, Role: role, AvatarURL: avatar}
}

// sortSubtasks orders subtasks ascending by order index, keeping the
// original order for ties.
func sortSubtasks(subtasks []model.Subtask) {
	sort.SliceStable(subtasks, func(i, j int) bool {
		return subtasks[i].OrderIndex < subtasks[j].OrderIndex
	})
}
