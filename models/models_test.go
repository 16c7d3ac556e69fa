package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventCardFillProgress(t *testing.T) {
	tests := []struct {
		current, max, want int
	}{
		{1, 10, 10},
		{1, 3, 33},
		{2, 3, 67},
		{12, 10, 120},
		{5, 0, 0},
	}
	for _, tt := range tests {
		c := EventCard{CurrentParticipants: tt.current, MaxParticipants: tt.max}
		c.FillProgress()
		assert.Equal(t, tt.want, c.Progress, "%d/%d", tt.current, tt.max)
	}
}

func TestDirectKeyIsOrderIndependent(t *testing.T) {
	assert.Equal(t, "3:12", DirectKey(12, 3))
	assert.Equal(t, DirectKey(12, 3), DirectKey(3, 12))
}

func TestNotificationFilterValid(t *testing.T) {
	assert.True(t, FilterInvites.Valid())
	assert.False(t, NotificationFilter("archived").Valid())
}

func TestProfileUpdateIsEmpty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.IsEmpty())
	bio := "forvet"
	assert.False(t, ProfileUpdate{Bio: &bio}.IsEmpty())
}
