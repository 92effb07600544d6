package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mercaline/mercabot/internal/models"
)

// MemoryStorage is an in-memory Registry used for tests and local runs
// without a database.
type MemoryStorage struct {
	mu            sync.RWMutex
	users         map[string]*models.User
	conversations []*models.ConversationRecord
	keywords      map[string]int
	nextID        int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:    make(map[string]*models.User),
		keywords: make(map[string]int),
		nextID:   1,
	}
}

func (s *MemoryStorage) RegisterUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Deactivated identifications count as taken too.
	if _, exists := s.users[user.Identification]; exists {
		return ErrDuplicate
	}

	user.Active = true
	user.CreatedAt = time.Now()
	stored := *user
	s.users[user.Identification] = &stored
	return nil
}

func (s *MemoryStorage) GetUser(ctx context.Context, identification string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[identification]
	if !exists || !user.Active {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) UpdateUser(ctx context.Context, identification string, changes UserChanges) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[identification]
	if !exists || !user.Active {
		return nil, ErrNotFound
	}

	if changes.FullName != nil {
		user.FullName = *changes.FullName
	}
	if changes.Phone != nil {
		user.Phone = *changes.Phone
	}
	if changes.Email != nil {
		user.Email = *changes.Email
	}

	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) DeactivateUser(ctx context.Context, identification string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user, exists := s.users[identification]; exists {
		user.Active = false
	}
	return nil
}

func (s *MemoryStorage) ListUsers(ctx context.Context, activeOnly bool) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*models.User, 0, len(s.users))
	for _, user := range s.users {
		if activeOnly && !user.Active {
			continue
		}
		copied := *user
		users = append(users, &copied)
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (s *MemoryStorage) CountUsers(ctx context.Context, activeOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !activeOnly {
		return len(s.users), nil
	}

	count := 0
	for _, user := range s.users {
		if user.Active {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStorage) LogConversation(ctx context.Context, rec *models.ConversationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	stored := *rec
	s.conversations = append(s.conversations, &stored)

	for _, keyword := range extractKeywords(rec.Message) {
		s.keywords[keyword]++
	}
	return nil
}

func (s *MemoryStorage) GetStatistics(ctx context.Context, days int) (*models.Statistics, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &models.Statistics{}

	for _, user := range s.users {
		if user.Active {
			stats.TotalUsers++
		}
	}

	perDay := make(map[string]int)
	categories := make(map[string]int)
	perUser := make(map[string]int)
	for _, rec := range s.conversations {
		if rec.CreatedAt.Before(since) {
			continue
		}
		stats.TotalConversations++
		perDay[rec.CreatedAt.Format("2006-01-02")]++
		if rec.Category != "" {
			categories[rec.Category]++
		}
		if rec.Identification != "" {
			perUser[rec.Identification]++
		}
	}

	for date, count := range perDay {
		stats.PerDay = append(stats.PerDay, models.DailyCount{Date: date, Count: count})
	}
	sort.Slice(stats.PerDay, func(i, j int) bool {
		return stats.PerDay[i].Date > stats.PerDay[j].Date
	})

	for category, count := range categories {
		stats.Categories = append(stats.Categories, models.CategoryCount{Category: category, Count: count})
	}
	sort.Slice(stats.Categories, func(i, j int) bool {
		return stats.Categories[i].Count > stats.Categories[j].Count
	})

	for keyword, count := range s.keywords {
		stats.Keywords = append(stats.Keywords, models.KeywordCount{Keyword: keyword, Count: count})
	}
	sort.Slice(stats.Keywords, func(i, j int) bool {
		if stats.Keywords[i].Count != stats.Keywords[j].Count {
			return stats.Keywords[i].Count > stats.Keywords[j].Count
		}
		return stats.Keywords[i].Keyword < stats.Keywords[j].Keyword
	})
	if len(stats.Keywords) > 20 {
		stats.Keywords = stats.Keywords[:20]
	}

	for identification, messages := range perUser {
		user, exists := s.users[identification]
		if !exists || !user.Active {
			continue
		}
		stats.TopUsers = append(stats.TopUsers, models.UserActivity{
			FullName: user.FullName,
			Messages: messages,
		})
	}
	sort.Slice(stats.TopUsers, func(i, j int) bool {
		return stats.TopUsers[i].Messages > stats.TopUsers[j].Messages
	})
	if len(stats.TopUsers) > 10 {
		stats.TopUsers = stats.TopUsers[:10]
	}

	return stats, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
