package dto

import "time"

// GrantRewardRequest names the recipient of an admin grant
// @Description Request body for granting a reward
type GrantRewardRequest struct {
	UserID string `json:"userId" validate:"required,max=64"`
}

// RewardResponse describes a reward from the caller's point of view.
type RewardResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Icon         string     `json:"icon,omitempty"`
	Type         string     `json:"type,omitempty"`
	MinXP        int        `json:"minXp"`
	MinStreak    int        `json:"minStreak"`
	MinCourses   int        `json:"minCourses"`
	MinQuizzes   int        `json:"minQuizzes"`
	MaxClaims    int        `json:"maxClaims"`
	TotalClaimed int        `json:"totalClaimed"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
	Claimed      bool       `json:"claimed"`
	Eligible     bool       `json:"eligible"`
}

// RewardClaimResponse confirms a grant or claim
// @Description Result of a reward grant or claim
type RewardClaimResponse struct {
	RewardID     string `json:"rewardId"`
	UserID       string `json:"userId"`
	Badge        string `json:"badge"`
	BadgeAdded   bool   `json:"badgeAdded"`
	TotalClaimed int    `json:"totalClaimed"`
}
