package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		date time.Time
		want int
	}{
		{name: "ten days out at midnight", date: time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), want: 9},
		{name: "exactly ten days", date: now.AddDate(0, 0, 10), want: 10},
		{name: "later today", date: now.Add(6 * time.Hour), want: 0},
		{name: "earlier today", date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), want: -1},
		{name: "lapsed a month ago", date: now.AddDate(0, 0, -30), want: -30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.date, now))
		})
	}
}

func TestNearestExpiryDays(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, FarFutureDays, NearestExpiryDays(nil, now), "no certifications")

	expiries := []time.Time{
		now.AddDate(0, 0, 200),
		now.AddDate(0, 0, 45),
		now.AddDate(1, 0, 0),
	}
	assert.Equal(t, 45, NearestExpiryDays(expiries, now))

	withLapsed := append(expiries, now.AddDate(0, 0, -3))
	assert.Equal(t, -3, NearestExpiryDays(withLapsed, now))
}
