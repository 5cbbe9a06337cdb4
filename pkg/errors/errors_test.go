package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", Clone(ErrCapacityExceeded, "session s1 is full"))
	got := FromError(wrapped)
	assert.Equal(t, ErrCapacityExceeded.Code, got.Code)
	assert.Equal(t, http.StatusConflict, got.Status)
	assert.Equal(t, "session s1 is full", got.Message)
}

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, http.StatusInternalServerError, got.Status)
}

func TestWithDetailsDoesNotMutateSentinel(t *testing.T) {
	detailed := WithDetails(ErrAuthorizationExhausted, "", map[string]int{"allowed_lessons": 12})
	assert.NotNil(t, detailed.Details)
	assert.Nil(t, ErrAuthorizationExhausted.Details)
	assert.Equal(t, ErrAuthorizationExhausted.Message, detailed.Message)
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(Clone(ErrDuplicateBooking, ""), ErrDuplicateBooking.Code))
	assert.False(t, HasCode(errors.New("x"), ErrDuplicateBooking.Code))
	assert.False(t, HasCode(nil, ErrDuplicateBooking.Code))
}
