package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/abhijeets54/feedback-backend/internal/identity"
	"github.com/abhijeets54/feedback-backend/internal/model"
	"github.com/abhijeets54/feedback-backend/internal/repository"
	"github.com/abhijeets54/feedback-backend/internal/sentiment"
	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

// ── 内存存储 ──
//
// 所有 mock repo 共享一份加锁的内存数据；读取返回副本，写入按 version 校验，
// 与数据库实现的乐观锁语义一致。

type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	users     map[string]*model.User
	feedback  map[string]*model.Feedback
	requests  map[string]*model.FeedbackRequest
	comments  []model.FeedbackComment
	failStore error
}

func newMemStore() *memStore {
	return &memStore{
		clock:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    make(map[string]*model.User),
		feedback: make(map[string]*model.Feedback),
		requests: make(map[string]*model.FeedbackRequest),
	}
}

// tick 单调递增时间，保证按 created_at 排序稳定
func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Millisecond)
	return s.clock
}

func (s *memStore) userCopy(id string) *model.User {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	cp := *u
	cp.Manager = nil
	if u.ManagerID != nil {
		mid := *u.ManagerID
		cp.ManagerID = &mid
	}
	return &cp
}

func (s *memStore) feedbackCopy(fb *model.Feedback, preload bool) *model.Feedback {
	cp := *fb
	if fb.AcknowledgedAt != nil {
		at := *fb.AcknowledgedAt
		cp.AcknowledgedAt = &at
	}
	cp.Manager, cp.Employee = nil, nil
	if preload {
		cp.Manager = s.userCopy(fb.ManagerID)
		cp.Employee = s.userCopy(fb.EmployeeID)
	}
	return &cp
}

func (s *memStore) requestCopy(fr *model.FeedbackRequest, preload bool) *model.FeedbackRequest {
	cp := *fr
	cp.Manager, cp.Employee = nil, nil
	if preload {
		cp.Manager = s.userCopy(fr.ManagerID)
		cp.Employee = s.userCopy(fr.EmployeeID)
	}
	return &cp
}

func (s *memStore) isTeam(employeeID, managerID string) bool {
	u, ok := s.users[employeeID]
	return ok && u.ManagerID != nil && *u.ManagerID == managerID
}

func (s *memStore) sortedFeedback() []*model.Feedback {
	list := make([]*model.Feedback, 0, len(s.feedback))
	for _, fb := range s.feedback {
		list = append(list, fb)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func (s *memStore) sortedRequests() []*model.FeedbackRequest {
	list := make([]*model.FeedbackRequest, 0, len(s.requests))
	for _, fr := range s.requests {
		list = append(list, fr)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list
}

func page[T any](list []T, offset, limit int) []T {
	if limit <= 0 {
		return list
	}
	if offset >= len(list) {
		return []T{}
	}
	end := offset + limit
	if end > len(list) {
		end = len(list)
	}
	return list[offset:end]
}

// ── User ──

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return m.s.failStore
	}
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.s.users {
		if u.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	now := m.s.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	cp := *user
	m.s.users[user.UserID] = &cp
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return nil, m.s.failStore
	}
	u := m.s.userCopy(id)
	if u == nil {
		return nil, gorm.ErrRecordNotFound
	}
	if u.ManagerID != nil {
		u.Manager = m.s.userCopy(*u.ManagerID)
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, u := range m.s.users {
		if u.Email == strings.ToLower(email) {
			return m.s.userCopy(id), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListTeam(_ context.Context, managerID string) ([]model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.User
	for id := range m.s.users {
		if m.s.isTeam(id, managerID) {
			list = append(list, *m.s.userCopy(id))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	return list, nil
}

func (m *mockUserRepo) ListManagers(_ context.Context, activeOnly bool) ([]model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.User
	for id, u := range m.s.users {
		if u.Role == model.RoleManager && (!activeOnly || u.IsActive) {
			list = append(list, *m.s.userCopy(id))
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].FullName < list[j].FullName })
	return list, nil
}

func (m *mockUserRepo) SetActive(_ context.Context, id string, active bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.IsActive = active
	u.UpdatedAt = m.s.tick()
	return nil
}

// ── Feedback ──

type mockFeedbackRepo struct{ s *memStore }

func (m *mockFeedbackRepo) Create(_ context.Context, fb *model.Feedback) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return m.s.failStore
	}
	if fb.FeedbackID == "" {
		fb.FeedbackID = uuid.NewString()
	}
	if fb.Version == 0 {
		fb.Version = 1
	}
	now := m.s.tick()
	fb.CreatedAt, fb.UpdatedAt = now, now
	m.s.feedback[fb.FeedbackID] = m.s.feedbackCopy(fb, false)
	return nil
}

func (m *mockFeedbackRepo) get(id string, preload bool) (*model.Feedback, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return nil, m.s.failStore
	}
	fb, ok := m.s.feedback[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.s.feedbackCopy(fb, preload), nil
}

func (m *mockFeedbackRepo) GetByID(_ context.Context, id string) (*model.Feedback, error) {
	return m.get(id, true)
}

func (m *mockFeedbackRepo) GetByIDForUpdate(_ context.Context, id string) (*model.Feedback, error) {
	return m.get(id, false)
}

func (m *mockFeedbackRepo) UpdateContent(_ context.Context, fb *model.Feedback) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.feedback[fb.FeedbackID]
	if !ok || stored.Version != fb.Version || stored.Acknowledged {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Strengths = fb.Strengths
	stored.AreasToImprove = fb.AreasToImprove
	stored.Notes = fb.Notes
	stored.Sentiment = fb.Sentiment
	stored.SentimentDegraded = fb.SentimentDegraded
	stored.Version++
	stored.UpdatedAt = m.s.tick()
	fb.Version, fb.UpdatedAt = stored.Version, stored.UpdatedAt
	return nil
}

func (m *mockFeedbackRepo) MarkAcknowledged(_ context.Context, fb *model.Feedback) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.feedback[fb.FeedbackID]
	if !ok || stored.Version != fb.Version || stored.Acknowledged {
		return pkgerrors.ErrOptimisticLock
	}
	at := *fb.AcknowledgedAt
	stored.Acknowledged = true
	stored.AcknowledgedAt = &at
	stored.Version++
	stored.UpdatedAt = at
	fb.Version, fb.UpdatedAt = stored.Version, at
	return nil
}

func (m *mockFeedbackRepo) List(_ context.Context, f repository.FeedbackFilter, offset, limit int) ([]model.Feedback, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return nil, 0, m.s.failStore
	}
	var list []model.Feedback
	for _, fb := range m.s.sortedFeedback() {
		if f.SubjectID != "" && fb.EmployeeID != f.SubjectID {
			continue
		}
		if f.VisibleToManager != "" && fb.ManagerID != f.VisibleToManager && !m.s.isTeam(fb.EmployeeID, f.VisibleToManager) {
			continue
		}
		if f.EmployeeID != "" && fb.EmployeeID != f.EmployeeID {
			continue
		}
		if f.Sentiment != "" && fb.Sentiment != f.Sentiment {
			continue
		}
		if f.Acknowledged != nil && fb.Acknowledged != *f.Acknowledged {
			continue
		}
		list = append(list, *m.s.feedbackCopy(fb, true))
	}
	return page(list, offset, limit), int64(len(list)), nil
}

// ── FeedbackRequest ──

type mockRequestRepo struct{ s *memStore }

func (m *mockRequestRepo) Create(_ context.Context, fr *model.FeedbackRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return m.s.failStore
	}
	for _, r := range m.s.requests {
		if r.EmployeeID == fr.EmployeeID && r.ManagerID == fr.ManagerID && r.Status == model.RequestStatusPending {
			return gorm.ErrDuplicatedKey
		}
	}
	if fr.RequestID == "" {
		fr.RequestID = uuid.NewString()
	}
	if fr.Version == 0 {
		fr.Version = 1
	}
	now := m.s.tick()
	fr.CreatedAt, fr.UpdatedAt = now, now
	m.s.requests[fr.RequestID] = m.s.requestCopy(fr, false)
	return nil
}

func (m *mockRequestRepo) get(id string, preload bool) (*model.FeedbackRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return nil, m.s.failStore
	}
	fr, ok := m.s.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.s.requestCopy(fr, preload), nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id string) (*model.FeedbackRequest, error) {
	return m.get(id, true)
}

func (m *mockRequestRepo) GetByIDForUpdate(_ context.Context, id string) (*model.FeedbackRequest, error) {
	return m.get(id, false)
}

func (m *mockRequestRepo) HasPending(_ context.Context, employeeID, managerID string) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, r := range m.s.requests {
		if r.EmployeeID == employeeID && r.ManagerID == managerID && r.Status == model.RequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRequestRepo) SaveTransition(_ context.Context, fr *model.FeedbackRequest) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	stored, ok := m.s.requests[fr.RequestID]
	if !ok || stored.Version != fr.Version || stored.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	saved := m.s.requestCopy(fr, false)
	saved.Version = stored.Version + 1
	saved.CreatedAt = stored.CreatedAt
	saved.UpdatedAt = m.s.tick()
	m.s.requests[fr.RequestID] = saved
	fr.Version, fr.UpdatedAt = saved.Version, saved.UpdatedAt
	return nil
}

func (m *mockRequestRepo) List(_ context.Context, f repository.FeedbackRequestFilter, offset, limit int) ([]model.FeedbackRequest, int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.FeedbackRequest
	for _, fr := range m.s.sortedRequests() {
		if f.EmployeeID != "" && fr.EmployeeID != f.EmployeeID {
			continue
		}
		if f.ManagerID != "" && fr.ManagerID != f.ManagerID {
			continue
		}
		if f.Status != "" && fr.Status != f.Status {
			continue
		}
		list = append(list, *m.s.requestCopy(fr, true))
	}
	return page(list, offset, limit), int64(len(list)), nil
}

// ── Comment ──

type mockCommentRepo struct{ s *memStore }

func (m *mockCommentRepo) Create(_ context.Context, c *model.FeedbackComment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if c.CommentID == "" {
		c.CommentID = uuid.NewString()
	}
	c.CreatedAt = m.s.tick()
	m.s.comments = append(m.s.comments, *c)
	return nil
}

func (m *mockCommentRepo) ListByFeedback(_ context.Context, feedbackID string) ([]model.FeedbackComment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.FeedbackComment
	for _, c := range m.s.comments {
		if c.FeedbackID == feedbackID {
			c.User = m.s.userCopy(c.UserID)
			list = append(list, c)
		}
	}
	return list, nil
}

// ── Dashboard ──

type mockDashboardRepo struct{ s *memStore }

func (m *mockDashboardRepo) TeamSentimentCounts(_ context.Context, managerID string) (map[model.Sentiment]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failStore != nil {
		return nil, m.s.failStore
	}
	counts := make(map[model.Sentiment]int64)
	for _, fb := range m.s.feedback {
		if m.s.isTeam(fb.EmployeeID, managerID) {
			counts[fb.Sentiment]++
		}
	}
	return counts, nil
}

func (m *mockDashboardRepo) TeamDegradedCount(_ context.Context, managerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, fb := range m.s.feedback {
		if m.s.isTeam(fb.EmployeeID, managerID) && fb.SentimentDegraded {
			n++
		}
	}
	return n, nil
}

func (m *mockDashboardRepo) TeamMemberCount(_ context.Context, managerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for id := range m.s.users {
		if m.s.isTeam(id, managerID) {
			n++
		}
	}
	return n, nil
}

func (m *mockDashboardRepo) RecentTeamFeedback(_ context.Context, managerID string, limit int) ([]model.Feedback, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.Feedback
	for _, fb := range m.s.sortedFeedback() {
		if m.s.isTeam(fb.EmployeeID, managerID) {
			list = append(list, *m.s.feedbackCopy(fb, true))
		}
	}
	return page(list, 0, limit), nil
}

func (m *mockDashboardRepo) PendingRequestsFor(_ context.Context, managerID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, fr := range m.s.requests {
		if fr.ManagerID == managerID && fr.Status == model.RequestStatusPending {
			n++
		}
	}
	return n, nil
}

func (m *mockDashboardRepo) EmployeeSentimentCounts(_ context.Context, employeeID string) (map[model.Sentiment]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[model.Sentiment]int64)
	for _, fb := range m.s.feedback {
		if fb.EmployeeID == employeeID {
			counts[fb.Sentiment]++
		}
	}
	return counts, nil
}

func (m *mockDashboardRepo) UnacknowledgedCount(_ context.Context, employeeID string) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var n int64
	for _, fb := range m.s.feedback {
		if fb.EmployeeID == employeeID && !fb.Acknowledged {
			n++
		}
	}
	return n, nil
}

func (m *mockDashboardRepo) RequestStatusCounts(_ context.Context, employeeID string) (map[model.RequestStatus]int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	counts := make(map[model.RequestStatus]int64)
	for _, fr := range m.s.requests {
		if fr.EmployeeID == employeeID {
			counts[fr.Status]++
		}
	}
	return counts, nil
}

func (m *mockDashboardRepo) RecentRequests(_ context.Context, employeeID string, limit int) ([]model.FeedbackRequest, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var list []model.FeedbackRequest
	for _, fr := range m.s.sortedRequests() {
		if fr.EmployeeID == employeeID {
			list = append(list, *m.s.requestCopy(fr, true))
		}
	}
	return page(list, 0, limit), nil
}

// ── 测试辅助 ──

func newMockRepository(s *memStore) *repository.Repository {
	return &repository.Repository{
		User:      &mockUserRepo{s: s},
		Feedback:  &mockFeedbackRepo{s: s},
		Request:   &mockRequestRepo{s: s},
		Comment:   &mockCommentRepo{s: s},
		Dashboard: &mockDashboardRepo{s: s},
	}
}

// testEnv 组装好的 Service 与其底层内存存储
type testEnv struct {
	store *memStore
	repo  *repository.Repository
	svc   *Service
}

func newTestEnv(classifier sentiment.Classifier) *testEnv {
	store := newMemStore()
	repo := newMockRepository(store)
	if classifier == nil {
		classifier = sentiment.NewLexicon()
	}
	logger := zap.NewNop()
	return &testEnv{
		store: store,
		repo:  repo,
		svc: &Service{
			User:      NewUserService(repo, logger),
			Feedback:  NewFeedbackService(repo, classifier, logger),
			Request:   NewFeedbackRequestService(repo, classifier, logger),
			Dashboard: NewDashboardService(repo, 5, logger),
			Export:    NewExportService(repo, logger),
		},
	}
}

// addUser 直接写入用户（绕过注册流程）
func (e *testEnv) addUser(name string, role model.Role, managerID *string) identity.Caller {
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	u := &model.User{
		Email:        strings.ToLower(name) + "@example.com",
		FullName:     name,
		PasswordHash: string(hash),
		Role:         role,
		ManagerID:    managerID,
		IsActive:     true,
	}
	if err := e.repo.User.Create(context.Background(), u); err != nil {
		panic(err)
	}
	return identity.FromUser(u)
}

func (e *testEnv) addManager(name string) identity.Caller {
	return e.addUser(name, model.RoleManager, nil)
}

func (e *testEnv) addEmployee(name string, manager identity.Caller) identity.Caller {
	mid := manager.UserID
	return e.addUser(name, model.RoleEmployee, &mid)
}

// reassign 修改员工的直属经理（模拟调岗）
func (e *testEnv) reassign(employeeID, managerID string) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	mid := managerID
	e.store.users[employeeID].ManagerID = &mid
}

// failingClassifier 始终返回不可用
func failingClassifier() sentiment.Classifier {
	return sentiment.Func(func(context.Context, string) (model.Sentiment, error) {
		return "", sentiment.ErrUnavailable
	})
}

// fixedClassifier 始终返回同一分类结果
func fixedClassifier(s model.Sentiment) sentiment.Classifier {
	return sentiment.Func(func(context.Context, string) (model.Sentiment, error) {
		return s, nil
	})
}
