package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStoreError(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap("fetch threads", cause)

	assert.Equal(t, "Failed to fetch threads: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var storeErr *StoreError
	assert.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "fetch threads", storeErr.Op)
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap("fetch user", nil))
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusCode(Wrap("add reply", NotFound("Thread not found"))))
	assert.Equal(t, http.StatusBadRequest, StatusCode(BadRequest("bad")))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(Wrap("fetch user", ErrNotConnected)))
	assert.True(t, IsNotFound(Wrap("x", NotFound("missing"))))
	assert.False(t, IsNotFound(ErrNotConnected))
}
