package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vladimiradmaev/macro-diary/internal/domain"
)

func TestManagerUserState(t *testing.T) {
	m := NewManager()
	assert.Equal(t, None, m.GetUserState(1))

	m.SetUserState(1, AddingFood)
	assert.Equal(t, AddingFood, m.GetUserState(1))
	assert.Equal(t, None, m.GetUserState(2))

	m.ClearUserState(1)
	assert.Equal(t, None, m.GetUserState(1))
}

func TestManagerFocus(t *testing.T) {
	m := NewManager()
	_, ok := m.GetFocus(1)
	assert.False(t, ok)

	m.SetFocus(1, Focus{Date: "2024-05-01", Slot: domain.SlotDinner})
	f, ok := m.GetFocus(1)
	assert.True(t, ok)
	assert.Equal(t, domain.SlotDinner, f.Slot)
}

func TestManagerTempData(t *testing.T) {
	m := NewManager()
	m.SetTempData(1, KeyItemID, "abc")

	v, ok := m.GetTempData(1, KeyItemID)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = m.GetTempData(2, KeyItemID)
	assert.False(t, ok)

	m.ClearTempData(1)
	_, ok = m.GetTempData(1, KeyItemID)
	assert.False(t, ok)
}
