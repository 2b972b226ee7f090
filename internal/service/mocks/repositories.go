package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/ip-profiler/internal/models"
	"github.com/SergeiKhy/ip-profiler/internal/repository"
)

// MockLinkRepository implements repository.LinkRepository for testing
type MockLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*models.SharedLink
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{
		links: make(map[string]*models.SharedLink),
	}
}

func (m *MockLinkRepository) Create(ctx context.Context, link *models.SharedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.links[link.ID] = link
	return nil
}

func (m *MockLinkRepository) GetByID(ctx context.Context, id string) (*models.SharedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.links[id]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockLinkRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links = make(map[string]*models.SharedLink)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.SharedLink
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.SharedLink),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, linkID string) (*models.SharedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	link, exists := m.cache[linkID]
	if !exists {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, linkID string, link *models.SharedLink, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[linkID] = link
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, linkID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, linkID)
	return nil
}

func (m *MockCacheRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache = make(map[string]*models.SharedLink)
}

// MockVisitRepository implements repository.VisitRepository for testing
type MockVisitRepository struct {
	mu     sync.RWMutex
	visits []*models.VisitorLog // insertion order preserved
}

func NewMockVisitRepository() *MockVisitRepository {
	return &MockVisitRepository{
		visits: []*models.VisitorLog{},
	}
}

func (m *MockVisitRepository) Create(ctx context.Context, visit *models.VisitorLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visits = append(m.visits, visit)
	return nil
}

// SetIdentity mirrors the SQL semantics: newest matching record wins,
// empty phone/platform_user values do not overwrite existing ones.
func (m *MockVisitRepository) SetIdentity(ctx context.Context, deviceToken, linkID, email, phone, platformUser string) (*models.VisitorLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var target *models.VisitorLog
	for _, v := range m.visits {
		if v.DeviceToken != deviceToken || v.LinkID == nil || *v.LinkID != linkID {
			continue
		}
		if target == nil || !v.CreatedAt.Before(target.CreatedAt) {
			target = v
		}
	}

	if target == nil {
		return nil, repository.ErrVisitNotFound
	}

	target.VisitorEmail = &email
	if phone != "" {
		target.VisitorPhone = &phone
	}
	if platformUser != "" {
		target.PlatformUser = &platformUser
	}
	return target, nil
}

func (m *MockVisitRepository) List(ctx context.Context) ([]*models.VisitorLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Newest first, like the real query
	out := make([]*models.VisitorLog, 0, len(m.visits))
	for i := len(m.visits) - 1; i >= 0; i-- {
		out = append(out, m.visits[i])
	}
	return out, nil
}

func (m *MockVisitRepository) Search(ctx context.Context, term string) ([]*models.VisitorLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []*models.VisitorLog{}
	for i := len(m.visits) - 1; i >= 0; i-- {
		v := m.visits[i]
		if containsFold(v.IP, term) || containsFold(v.City, term) || containsFold(v.Country, term) ||
			containsFoldPtr(v.VisitorEmail, term) || containsFoldPtr(v.VisitorPhone, term) {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *MockVisitRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visits = []*models.VisitorLog{}
}

// MockAdminRepository implements repository.AdminRepository for testing
type MockAdminRepository struct {
	mu     sync.RWMutex
	admins map[string]*models.AdminUser
	nextID int64
}

func NewMockAdminRepository() *MockAdminRepository {
	return &MockAdminRepository{
		admins: make(map[string]*models.AdminUser),
		nextID: 1,
	}
}

func (m *MockAdminRepository) Create(ctx context.Context, admin *models.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.admins[admin.Username]; exists {
		return repository.ErrAdminExists
	}

	admin.ID = m.nextID
	m.nextID++
	m.admins[admin.Username] = admin
	return nil
}

func (m *MockAdminRepository) GetByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	admin, exists := m.admins[username]
	if !exists {
		return nil, repository.ErrAdminNotFound
	}
	return admin, nil
}

func (m *MockAdminRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins = make(map[string]*models.AdminUser)
	m.nextID = 1
}

func containsFold(s, term string) bool {
	return term != "" && strings.Contains(strings.ToLower(s), strings.ToLower(term))
}

func containsFoldPtr(s *string, term string) bool {
	return s != nil && containsFold(*s, term)
}
