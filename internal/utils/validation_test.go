package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slotBody struct {
	Date string `json:"date" binding:"required,date"`
	Time string `json:"time" binding:"omitempty,hhmm"`
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())
	// a second call reports the first outcome without registering again
	require.NoError(t, RegisterValidators())

	gin.SetMode(gin.TestMode)
	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{"canonical", `{"date":"2026-11-02","time":"09:30"}`, http.StatusOK},
		{"non canonical date", `{"date":"2026-11-2"}`, http.StatusBadRequest},
		{"hour out of range", `{"date":"2026-11-02","time":"25:00"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			c.Request.Header.Set("Content-Type", "application/json")

			var req slotBody
			if BindAndValidate(c, &req) {
				c.Status(http.StatusOK)
			}
			assert.Equal(t, tt.wantCode, w.Code)
		})
	}
}
