package bot

import (
	"sync"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// Session состояние диалога в одном чате
type Session struct {
	// Hosts последний загруженный список сайтов; callback host_idx ссылается на индекс в нём
	Hosts []domain.Host
	Page  int
	Host  *domain.Host

	Kind   domain.ExportKind
	Device domain.DeviceType

	UpdatedAt time.Time
}

func (s *Session) wizardActive() bool {
	return s.Kind != "" || s.Device != ""
}

// Sessions хранилище сессий в памяти, ключ chat id
type Sessions struct {
	mu    sync.Mutex
	items map[int64]*Session
	now   func() time.Time
}

func NewSessions() *Sessions {
	return &Sessions{
		items: make(map[int64]*Session),
		now:   time.Now,
	}
}

// Update изменяет сессию чата под блокировкой, создавая её при необходимости
func (s *Sessions) Update(chatID int64, fn func(sess *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[chatID]
	if !ok {
		sess = &Session{}
		s.items[chatID] = sess
	}
	fn(sess)
	sess.UpdatedAt = s.now()
}

// Get копия сессии чата
func (s *Sessions) Get(chatID int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[chatID]
	if !ok {
		return Session{}
	}
	return *sess
}

// ResetWizard сбрасывает незавершённый мастер выгрузки, false если сбрасывать нечего
func (s *Sessions) ResetWizard(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.items[chatID]
	if !ok || !sess.wizardActive() {
		return false
	}
	sess.Kind = ""
	sess.Device = ""
	sess.UpdatedAt = s.now()
	return true
}

// Prune удаляет сессии без активности дольше olderThan
func (s *Sessions) Prune(olderThan time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline := s.now().Add(-olderThan)
	removed := 0
	for chatID, sess := range s.items {
		if sess.UpdatedAt.Before(deadline) {
			delete(s.items, chatID)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
