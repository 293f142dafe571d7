package models

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChallengeStatus_Precedes(t *testing.T) {
	tests := []struct {
		from, to ChallengeStatus
		want     bool
	}{
		{ChallengeStatusOpen, ChallengeStatusOngoing, true},
		{ChallengeStatusOpen, ChallengeStatusCompleted, true},
		{ChallengeStatusOngoing, ChallengeStatusCompleted, true},
		{ChallengeStatusCompleted, ChallengeStatusOpen, false},
		{ChallengeStatusOngoing, ChallengeStatusOngoing, false},
		{ChallengeStatusOpen, "archived", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.Precedes(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.False(t, ChallengeStatus("archived").Valid())
}

func TestChallengeStats_Add(t *testing.T) {
	var s ChallengeStats
	s.Add(ChallengeStatusOpen, 3)
	s.Add(ChallengeStatusOngoing, 2)
	s.Add(ChallengeStatusCompleted, 1)

	assert.Equal(t, ChallengeStats{Total: 6, Open: 3, Ongoing: 2, Completed: 1}, s)
}

func TestMediaKind_AllowsMIME(t *testing.T) {
	assert.True(t, MediaKindImage.AllowsMIME("image/webp"))
	assert.False(t, MediaKindImage.AllowsMIME("image/svg+xml"))
	assert.True(t, MediaKindVideo.AllowsMIME("video/quicktime"))
	assert.False(t, MediaKindVideo.AllowsMIME("image/png"))
	assert.Equal(t, "videos", MediaKindVideo.Dir())
	assert.Equal(t, "image/", MediaKindImage.MIMEPrefix())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(NewValidationError("bad")))
	assert.Equal(t, http.StatusUnauthorized, StatusFor(NewUnauthorizedError("no")))
	assert.Equal(t, http.StatusForbidden, StatusFor(NewForbiddenError("no")))
	assert.Equal(t, http.StatusNotFound, StatusFor(NewNotFoundError("Challenge", 7)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
	assert.Equal(t, "Challenge with ID 7 not found", NewNotFoundError("Challenge", 7).Error())
}
