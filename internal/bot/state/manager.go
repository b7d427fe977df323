package state

import (
	"sync"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

// User states constants
const (
	None              = "none"
	AddingFood        = "adding_food"
	WaitingForOptions = "waiting_for_options"
	WaitingForWeight  = "waiting_for_weight"
	WaitingForMetrics = "waiting_for_metrics"
	WaitingForNote    = "waiting_for_note"
)

// Temp data keys
const (
	KeyItemID = "item_id"
)

// Focus is the day and meal a user is looking at
type Focus struct {
	Date string          `json:"date"`
	Slot domain.MealSlot `json:"slot"`
}

// StateManager keeps per-user conversation state
type StateManager interface {
	SetUserState(userID int64, state string)
	GetUserState(userID int64) string
	ClearUserState(userID int64)
	SetFocus(userID int64, focus Focus)
	GetFocus(userID int64) (Focus, bool)
	SetTempData(userID int64, key, value string)
	GetTempData(userID int64, key string) (string, bool)
	ClearTempData(userID int64)
}

var (
	_ StateManager = (*Manager)(nil)
	_ StateManager = (*RedisManager)(nil)
)

// Manager keeps conversation state in memory
type Manager struct {
	userStates map[int64]string
	focus      map[int64]Focus
	tempData   map[int64]map[string]string
	mu         sync.RWMutex
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		userStates: make(map[int64]string),
		focus:      make(map[int64]Focus),
		tempData:   make(map[int64]map[string]string),
	}
}

func (m *Manager) SetUserState(userID int64, state string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userStates[userID] = state
}

// GetUserState returns None for unknown users
func (m *Manager) GetUserState(userID int64) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, exists := m.userStates[userID]
	if !exists {
		return None
	}
	return state
}

func (m *Manager) ClearUserState(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.userStates, userID)
}

func (m *Manager) SetFocus(userID int64, focus Focus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focus[userID] = focus
}

func (m *Manager) GetFocus(userID int64) (Focus, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.focus[userID]
	return f, ok
}

func (m *Manager) SetTempData(userID int64, key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tempData[userID] == nil {
		m.tempData[userID] = make(map[string]string)
	}
	m.tempData[userID][key] = value
}

func (m *Manager) GetTempData(userID int64, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, exists := m.tempData[userID][key]
	return value, exists
}

func (m *Manager) ClearTempData(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tempData, userID)
}
