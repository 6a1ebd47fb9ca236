package domain_test

import (
	"testing"

	"github.com/moxalise/aidmap/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestResolveColor(t *testing.T) {
	tests := []struct {
		name     string
		status   string
		priority string
		want     string
	}{
		{"pending", domain.StatusPending, "", domain.ColorPending},
		{"completed", domain.StatusCompleted, "", domain.ColorCompleted},
		{"en route", domain.StatusEnRoute, "", domain.ColorEnRoute},
		{"visited", domain.StatusVisited, "", domain.ColorVisited},
		{"empty status", "", "", domain.ColorUnknown},
		{"unrecognized status", "triaged", "", domain.ColorUnknown},
		{"priority overrides pending", domain.StatusPending, "urgent", domain.ColorUrgent},
		{"priority overrides en route", domain.StatusEnRoute, "1", domain.ColorUrgent},
		{"priority overrides empty status", "", "high", domain.ColorUrgent},
		{"completed beats priority", domain.StatusCompleted, "urgent", domain.ColorCompleted},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.ResolveColor(tc.status, tc.priority))
		})
	}
}

func TestCardClass(t *testing.T) {
	assert.Equal(t, "priority", domain.CardClass(domain.StatusPending, "urgent"))
	assert.Equal(t, "completed", domain.CardClass(domain.StatusCompleted, "urgent"))
	assert.Equal(t, "pending", domain.CardClass(domain.StatusPending, ""))
	assert.Equal(t, "volunteer-going", domain.CardClass(domain.StatusEnRoute, ""))
	assert.Equal(t, "volunteer-visited", domain.CardClass(domain.StatusVisited, ""))
	assert.Equal(t, "empty-status", domain.CardClass("", ""))
}
