package testutil

import (
	"fmt"
	"time"

	"pixeldesk/models"
)

// CreateTestUser creates a user fixture with a points balance
func CreateTestUser(name string, points int64) *models.User {
	return &models.User{
		Name:   name,
		Email:  fmt.Sprintf("%s@example.com", name),
		Locale: "en",
		Points: points,
	}
}

// CreateTestUserLastSeen creates a user whose last login was at lastLogin
func CreateTestUserLastSeen(name string, points int64, lastLogin time.Time) *models.User {
	user := CreateTestUser(name, points)
	user.LastLogin = &lastLogin
	return user
}

// CreateTestWorkstation creates a workstation fixture
func CreateTestWorkstation(id string) *models.Workstation {
	return &models.Workstation{ID: id, Name: "Desk " + id, XPosition: 10, YPosition: 20}
}

// CreateTestBinding creates a binding fixture expiring after days
func CreateTestBinding(userID, workstationID string, boundAt time.Time, days int) *models.WorkstationBinding {
	expiresAt := boundAt.AddDate(0, 0, days)
	return &models.WorkstationBinding{
		UserID:        userID,
		WorkstationID: workstationID,
		Cost:          10,
		BoundAt:       boundAt,
		ExpiresAt:     &expiresAt,
	}
}

// CreateTestSweepRun creates a sweep run fixture
func CreateTestSweepRun(startedAt time.Time, trigger models.SweepTrigger) *models.SweepRun {
	return &models.SweepRun{
		Trigger:        trigger,
		StartedAt:      startedAt,
		FinishedAt:     startedAt.Add(1500 * time.Millisecond),
		Scanned:        12,
		Warned:         2,
		Reclaimed:      3,
		RefundedPoints: 14,
		Summary:        map[string]any{"durationMs": 1500},
	}
}
