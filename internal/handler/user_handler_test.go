package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"learnquest/internal/domain"
	"learnquest/internal/dto"
	"learnquest/internal/handler"
	"learnquest/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserHandler_GetMyProfile(t *testing.T) {
	svc := &MockGamificationService{
		GetProfileFunc: func(ctx context.Context, userID string) (*dto.UserProfileResponse, error) {
			if userID == "ghost" {
				return nil, domain.NewUserNotFoundError(userID)
			}
			return &dto.UserProfileResponse{ID: userID, XP: 140, Level: domain.DefaultLadder.LevelFor(140), Badges: []string{}}, nil
		},
	}
	h := handler.NewUserHandler(svc)

	app := newTestApp()
	app.Get("/users/me", asUser("u1", domain.RoleStudent), h.GetMyProfile)
	status, body := doRequest(t, app, http.MethodGet, "/users/me", "")
	require.Equal(t, http.StatusOK, status)
	var profile dto.UserProfileResponse
	require.NoError(t, json.Unmarshal(body, &profile))
	assert.Equal(t, 2, profile.Level.Level)
	assert.Equal(t, "Learner", profile.Level.Title)

	app = newTestApp()
	app.Get("/users/me", asUser("ghost", domain.RoleStudent), h.GetMyProfile)
	status, _ = doRequest(t, app, http.MethodGet, "/users/me", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUserHandler_GetMySubmissionsUsesPagination(t *testing.T) {
	var got dto.Pagination
	svc := &MockGamificationService{
		ListSubmissionsFunc: func(ctx context.Context, userID string, pagination dto.Pagination) (*dto.SubmissionListResponse, error) {
			got = pagination
			return &dto.SubmissionListResponse{
				Submissions:    []dto.SubmissionItem{},
				PaginationInfo: dto.PaginationInfo{TotalItems: 0, Limit: pagination.Limit, Offset: pagination.Offset},
			}, nil
		},
	}
	app := newTestApp()
	app.Get("/users/me/submissions",
		asUser("u1", domain.RoleStudent),
		middleware.NewValidationMiddleware().ValidatePagination(),
		handler.NewUserHandler(svc).GetMySubmissions)

	status, _ := doRequest(t, app, http.MethodGet, "/users/me/submissions?limit=5&offset=10", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, dto.Pagination{Limit: 5, Offset: 10}, got)

	status, _ = doRequest(t, app, http.MethodGet, "/users/me/submissions?limit=500", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUserHandler_RecordActivity(t *testing.T) {
	svc := &MockGamificationService{
		TouchActivityFunc: func(ctx context.Context, userID string, now time.Time) (*dto.ActivityResponse, error) {
			return &dto.ActivityResponse{Streak: 4, Outcome: string(domain.StreakExtended), LastActiveAt: now}, nil
		},
	}
	app := newTestApp()
	app.Post("/users/me/activity", asUser("u1", domain.RoleStudent), handler.NewUserHandler(svc).RecordActivity)

	status, body := doRequest(t, app, http.MethodPost, "/users/me/activity", "")
	require.Equal(t, http.StatusOK, status)
	var resp dto.ActivityResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, 4, resp.Streak)
	assert.Equal(t, "extended", resp.Outcome)
}

func TestUserHandler_GetLevels(t *testing.T) {
	app := newTestApp()
	app.Get("/levels", handler.NewUserHandler(&MockGamificationService{}).GetLevels)

	status, body := doRequest(t, app, http.MethodGet, "/levels", "")
	require.Equal(t, http.StatusOK, status)
	var ladder domain.LevelLadder
	require.NoError(t, json.Unmarshal(body, &ladder))
	require.Len(t, ladder, len(domain.DefaultLadder))
	assert.Equal(t, 2000, ladder[len(ladder)-1].Threshold)
}

func TestAdminHandler_AwardXP(t *testing.T) {
	var gotUser string
	var gotDelta int
	svc := &MockGamificationService{
		ApplyXPDeltaFunc: func(ctx context.Context, userID string, delta int) error {
			gotUser, gotDelta = userID, delta
			if userID == "ghost" {
				return domain.NewUserNotFoundError(userID)
			}
			return nil
		},
	}
	app := newTestApp()
	app.Post("/admin/users/:id/xp",
		asUser("root", domain.RoleAdmin),
		middleware.RequireRole(domain.RoleAdmin),
		handler.NewAdminHandler(svc).AwardXP)

	status, _ := doRequest(t, app, http.MethodPost, "/admin/users/u1/xp", `{"delta":25}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, 25, gotDelta)

	status, _ = doRequest(t, app, http.MethodPost, "/admin/users/u1/xp", `{"delta":-3}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doRequest(t, app, http.MethodPost, "/admin/users/ghost/xp", `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, status)

	students := newTestApp()
	students.Post("/admin/users/:id/xp",
		asUser("u2", domain.RoleStudent),
		middleware.RequireRole(domain.RoleAdmin),
		handler.NewAdminHandler(svc).AwardXP)
	status, _ = doRequest(t, students, http.MethodPost, "/admin/users/u1/xp", `{"delta":1}`)
	assert.Equal(t, http.StatusForbidden, status)
}
