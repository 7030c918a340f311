package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

type mockGroupDirectory struct {
	mu        sync.Mutex
	groups    map[string]*models.Group
	members   map[string][]models.Member
	criteria  map[string]*models.GoalCriteria
	listErr   error
	memberErr map[string]error
	panicOn   map[string]bool
}

func newMockGroupDirectory() *mockGroupDirectory {
	return &mockGroupDirectory{
		groups:    make(map[string]*models.Group),
		members:   make(map[string][]models.Member),
		criteria:  make(map[string]*models.GoalCriteria),
		memberErr: make(map[string]error),
		panicOn:   make(map[string]bool),
	}
}

func (m *mockGroupDirectory) addGroup(id string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups[id] = &models.Group{ID: id, Name: "Group " + id, Type: models.GroupTypeHealth}
	for _, uid := range userIDs {
		m.members[id] = append(m.members[id], models.Member{UserID: uid})
	}
}

func (m *mockGroupDirectory) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return g, nil
}

func (m *mockGroupDirectory) ListGroupIDs(ctx context.Context, groupType models.GroupType) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var ids []string
	for id, g := range m.groups {
		if groupType == "" || g.Type == groupType {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *mockGroupDirectory) ListMembers(ctx context.Context, groupID string) ([]models.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOn[groupID] {
		panic("member directory exploded")
	}
	if err := m.memberErr[groupID]; err != nil {
		return nil, err
	}
	return append([]models.Member(nil), m.members[groupID]...), nil
}

func (m *mockGroupDirectory) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, member := range m.members[groupID] {
		if member.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockGroupDirectory) GetCriteria(ctx context.Context, groupID string) (*models.GoalCriteria, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.criteria[groupID], nil
}

type mockTelemetry struct {
	totals map[string]models.MemberTotals
	errs   map[string]error
	calls  []string
}

func (m *mockTelemetry) MemberTotals(ctx context.Context, userID string, from, to time.Time) (models.MemberTotals, error) {
	m.calls = append(m.calls, userID)
	if err := m.errs[userID]; err != nil {
		return models.MemberTotals{}, err
	}
	return m.totals[userID], nil
}

type mockStatsStore struct {
	mu        sync.Mutex
	rows      map[string]*models.WeeklyStats
	upsertErr error
}

func newMockStatsStore() *mockStatsStore {
	return &mockStatsStore{rows: make(map[string]*models.WeeklyStats)}
}

func weekKey(groupID, week string) string { return groupID + "|" + week }

func (m *mockStatsStore) put(groupID string, week models.Week, stats models.WeeklyStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats.GroupID = groupID
	stats.WeekStart = week.Start
	stats.WeekEnd = week.End
	m.rows[weekKey(groupID, week.Key())] = &stats
}

func (m *mockStatsStore) Upsert(ctx context.Context, stats *models.WeeklyStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	copied := *stats
	m.rows[weekKey(stats.GroupID, stats.WeekStart.Format(models.DateLayout))] = &copied
	return nil
}

func (m *mockStatsStore) Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[weekKey(groupID, week.Key())]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (m *mockStatsStore) ListBefore(ctx context.Context, groupID string, before models.Week, limit int) ([]models.WeeklyStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WeeklyStats
	week := before.Previous()
	// rows are weekly, so walking back a bounded number of weeks finds them all
	for i := 0; i < 260 && len(out) < limit; i++ {
		if row, ok := m.rows[weekKey(groupID, week.Key())]; ok {
			out = append(out, *row)
		}
		week = week.Previous()
	}
	return out, nil
}

type mockGoalStore struct {
	mu      sync.Mutex
	rows    map[string]*models.WeeklyGoal
	creates int
	updates int
}

func newMockGoalStore() *mockGoalStore {
	return &mockGoalStore{rows: make(map[string]*models.WeeklyGoal)}
}

func (m *mockGoalStore) Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyGoal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[weekKey(groupID, week.Key())]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *row
	return &copied, nil
}

func (m *mockGoalStore) Create(ctx context.Context, goal *models.WeeklyGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := weekKey(goal.GroupID, goal.WeekStart.Format(models.DateLayout))
	if _, ok := m.rows[key]; ok {
		return errors.New("duplicate key value violates unique constraint")
	}
	if goal.ID == "" {
		goal.ID = "goal-" + key
	}
	copied := *goal
	m.rows[key] = &copied
	m.creates++
	return nil
}

func (m *mockGoalStore) Update(ctx context.Context, goal *models.WeeklyGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := weekKey(goal.GroupID, goal.WeekStart.Format(models.DateLayout))
	if _, ok := m.rows[key]; !ok {
		return sql.ErrNoRows
	}
	copied := *goal
	m.rows[key] = &copied
	m.updates++
	return nil
}

type mockRecordStore struct {
	mu      sync.Mutex
	rows    map[string]*models.GoalRecord
	creates int
}

func newMockRecordStore() *mockRecordStore {
	return &mockRecordStore{rows: make(map[string]*models.GoalRecord)}
}

func (m *mockRecordStore) Exists(ctx context.Context, groupID string, week models.Week) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.rows[weekKey(groupID, week.Key())]
	return ok, nil
}

func (m *mockRecordStore) Create(ctx context.Context, record *models.GoalRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := weekKey(record.GroupID, record.WeekStart.Format(models.DateLayout))
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	copied := *record
	m.rows[key] = &copied
	m.creates++
	return true, nil
}

func (m *mockRecordStore) ListByGroup(ctx context.Context, groupID string, limit int) ([]models.GoalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.GoalRecord
	for _, row := range m.rows {
		if row.GroupID == groupID {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart.After(out[j].WeekStart) })
	return out, nil
}

type mockLedger struct {
	mu       sync.Mutex
	keys     map[string]bool
	balances map[string]int
	failFor  map[string]error
}

func newMockLedger() *mockLedger {
	return &mockLedger{keys: make(map[string]bool), balances: make(map[string]int), failFor: make(map[string]error)}
}

func (m *mockLedger) Credit(ctx context.Context, userID string, amount int, reason, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failFor[userID]; err != nil {
		return false, err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	m.balances[userID] += amount
	return true, nil
}

type mockPredictor struct {
	mu     sync.Mutex
	rates  map[models.Metric]float64
	err    error
	inputs map[models.Metric]PredictionInput
	calls  int
	delay  time.Duration
}

func newMockPredictor(rate float64) *mockPredictor {
	return &mockPredictor{
		rates: map[models.Metric]float64{
			models.MetricSteps:    rate,
			models.MetricKcal:     rate,
			models.MetricDuration: rate,
			models.MetricDistance: rate,
		},
		inputs: make(map[models.Metric]PredictionInput),
	}
}

func (m *mockPredictor) PredictGrowthRate(ctx context.Context, metric models.Metric, input PredictionInput) (float64, error) {
	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.inputs[metric] = input
	if m.err != nil {
		return 0, m.err
	}
	return m.rates[metric], nil
}

type mockLimiter struct {
	mu       sync.Mutex
	held     map[string]bool
	released int
}

func newMockLimiter() *mockLimiter {
	return &mockLimiter{held: make(map[string]bool)}
}

func (m *mockLimiter) Acquire(ctx context.Context, groupID string, cooldown time.Duration) (bool, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held[groupID] {
		return false, cooldown / 2, nil
	}
	m.held[groupID] = true
	return true, 0, nil
}

func (m *mockLimiter) Release(ctx context.Context, groupID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, groupID)
	m.released++
	return nil
}
