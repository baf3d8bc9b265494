package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPutScheduleRejectsMalformedBody(t *testing.T) {
	h := NewAvailabilityHandler(nil)
	c, rec := newTestContext(t, http.MethodPut, "/schedule", `{"free": "MB"}`)

	h.PutSchedule(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid schedule payload")
}
