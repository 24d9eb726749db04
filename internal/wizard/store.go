package wizard

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store 进程内会话存储。会话仅在进程生命周期内存在，不做持久化。
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore 创建会话存储
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create 新建会话并登记
func (st *Store) Create() *Session {
	s := NewSession(uuid.NewString())
	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get 按 ID 取会话
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return s, nil
}

// Delete 移除会话
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}
