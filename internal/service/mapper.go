package service

import (
	"time"

	"github.com/abhijeets54/feedback-backend/internal/dto"
	"github.com/abhijeets54/feedback-backend/internal/model"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(dto.TimeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func toUserBrief(u *model.User) *dto.UserBrief {
	if u == nil {
		return nil
	}
	return &dto.UserBrief{ID: u.UserID, FullName: u.FullName, Email: u.Email}
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.UserID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      string(u.Role),
		ManagerID: u.ManagerID,
		Manager:   toUserBrief(u.Manager),
		IsActive:  u.IsActive,
		CreatedAt: formatTime(u.CreatedAt),
	}
}

func toFeedbackResponse(fb *model.Feedback) dto.FeedbackResponse {
	return dto.FeedbackResponse{
		ID:                fb.FeedbackID,
		ManagerID:         fb.ManagerID,
		EmployeeID:        fb.EmployeeID,
		Manager:           toUserBrief(fb.Manager),
		Employee:          toUserBrief(fb.Employee),
		Strengths:         fb.Strengths,
		AreasToImprove:    fb.AreasToImprove,
		Notes:             fb.Notes,
		Sentiment:         string(fb.Sentiment),
		SentimentDegraded: fb.SentimentDegraded,
		Acknowledged:      fb.Acknowledged,
		AcknowledgedAt:    formatTimePtr(fb.AcknowledgedAt),
		Version:           fb.Version,
		CreatedAt:         formatTime(fb.CreatedAt),
		UpdatedAt:         formatTime(fb.UpdatedAt),
	}
}

func toFeedbackAskResponse(r *model.FeedbackRequest) dto.FeedbackAskResponse {
	return dto.FeedbackAskResponse{
		ID:                  r.RequestID,
		EmployeeID:          r.EmployeeID,
		ManagerID:           r.ManagerID,
		Employee:            toUserBrief(r.Employee),
		Manager:             toUserBrief(r.Manager),
		Message:             r.Message,
		Status:              string(r.Status),
		CompletedAt:         formatTimePtr(r.CompletedAt),
		CancelledAt:         formatTimePtr(r.CancelledAt),
		CancelledBy:         r.CancelledBy,
		ResultingFeedbackID: r.ResultingFeedbackID,
		Version:             r.Version,
		CreatedAt:           formatTime(r.CreatedAt),
	}
}

func toCommentResponse(c *model.FeedbackComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         c.CommentID,
		FeedbackID: c.FeedbackID,
		UserID:     c.UserID,
		User:       toUserBrief(c.User),
		Comment:    c.Comment,
		CreatedAt:  formatTime(c.CreatedAt),
	}
}
