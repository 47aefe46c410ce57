package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/abhijeets54/feedback-backend/pkg/errors"
)

func TestRequestStatus_Next(t *testing.T) {
	next, err := RequestStatusPending.Next(RequestEventComplete)
	require.NoError(t, err)
	assert.Equal(t, RequestStatusCompleted, next)

	next, err = RequestStatusPending.Next(RequestEventCancel)
	require.NoError(t, err)
	assert.Equal(t, RequestStatusCancelled, next)
}

// 终态对任意事件（包括未知事件）都返回 InvalidState
func TestRequestStatus_TerminalRejectsEverything(t *testing.T) {
	events := []RequestEvent{RequestEventComplete, RequestEventCancel, "reopen", ""}
	for _, s := range []RequestStatus{RequestStatusCompleted, RequestStatusCancelled, "archived"} {
		for _, e := range events {
			next, err := s.Next(e)
			assert.ErrorIs(t, err, pkgerrors.ErrInvalidState, "%s --%s-->", s, e)
			assert.Equal(t, s, next)
		}
	}
	assert.True(t, RequestStatusCompleted.IsTerminal())
	assert.True(t, RequestStatusCancelled.IsTerminal())
	assert.False(t, RequestStatusPending.IsTerminal())
}

func TestFeedbackRequest_CompleteThenCancel(t *testing.T) {
	now := time.Now()
	r := &FeedbackRequest{Status: RequestStatusPending}
	fid := "fb-1"

	require.NoError(t, r.Complete(now, &fid))
	assert.Equal(t, RequestStatusCompleted, r.Status)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, "fb-1", *r.ResultingFeedbackID)

	err := r.Cancel(now, "u-1")
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidState)
	assert.Nil(t, r.CancelledAt)
	assert.Equal(t, RequestStatusCompleted, r.Status)
}

func TestFeedback_AcknowledgeOnce(t *testing.T) {
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	fb := &Feedback{}

	assert.True(t, fb.Acknowledge(first))
	assert.True(t, fb.Acknowledged)
	require.NotNil(t, fb.AcknowledgedAt)

	assert.False(t, fb.Acknowledge(first.Add(time.Hour)))
	assert.Equal(t, first, *fb.AcknowledgedAt)
}

func TestUser_ReportsTo(t *testing.T) {
	m := "m-1"
	emp := &User{Role: RoleEmployee, ManagerID: &m}
	assert.True(t, emp.ReportsTo("m-1"))
	assert.False(t, emp.ReportsTo("m-2"))

	mgr := &User{Role: RoleManager}
	assert.False(t, mgr.ReportsTo("m-1"))
	assert.False(t, Role("admin").Valid())
}
