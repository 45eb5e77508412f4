package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusUnauthorized, Unauthorized},
		{http.StatusForbidden, Forbidden},
		{http.StatusNotFound, NotFound},
		{http.StatusConflict, Conflict},
		{http.StatusBadRequest, Validation},
		{http.StatusUnprocessableEntity, Validation},
		{http.StatusInternalServerError, Unknown},
		{http.StatusTeapot, Unknown},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.want, FromStatus(tt.status))
		})
	}
}

func TestKindOfThroughWrapping(t *testing.T) {
	base := New(NotFound, "delete todo 5", "gone")
	wrapped := fmt.Errorf("sync: %w", base)

	assert.Equal(t, NotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.True(t, errors.Is(wrapped, ErrNotFound))
	assert.False(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestInsufficientFunds(t *testing.T) {
	err := InsufficientFunds("purchase", 70, 100)

	assert.True(t, IsValidation(err))
	assert.True(t, errors.Is(err, ErrInsufficientFunds))
	assert.Equal(t, "purchase: insufficient funds: have 70 carrots, need 100", err.Error())
}

func TestErrorMessageFallbacks(t *testing.T) {
	assert.Equal(t, "network", (&Error{Kind: Network}).Error())
	assert.Equal(t, "get: dial tcp: refused", Wrap(Network, "get", errors.New("dial tcp: refused")).Error())
	assert.Nil(t, Wrap(Network, "get", nil))
}
