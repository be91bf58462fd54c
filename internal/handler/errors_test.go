package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/certify-backend/internal/admin"
	"github.com/stemsi/certify-backend/internal/bus"
	"github.com/stemsi/certify-backend/internal/config"
	"github.com/stemsi/certify-backend/internal/model"
	"github.com/stemsi/certify-backend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestFailFromError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"wrapped not found", fmt.Errorf("test t1: %w", admin.ErrNotFound), http.StatusNotFound, `"code":"NOT_FOUND"`},
		{"slot taken", admin.ErrSlotUnavailable, http.StatusConflict, `"code":"SLOT_UNAVAILABLE"`},
		{"lead time", admin.ErrLeadTime, http.StatusUnprocessableEntity, `"code":"LEAD_TIME_NOT_MET"`},
		{"not owner", service.ErrNotOwner, http.StatusForbidden, `"code":"NOT_OWNER"`},
		{"validation with fields", &admin.ValidationError{Message: "title is required", Fields: map[string]string{"title": "title is required"}}, http.StatusBadRequest, `"title":"title is required"`},
		{"validation without fields", &admin.ValidationError{Message: "question 1: options are required"}, http.StatusBadRequest, `"detail":"question 1: options are required"`},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError, `"code":"INTERNAL_ERROR"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			failFromError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "disk full")
				assert.Len(t, c.Errors, 1)
			}
		})
	}
}

func TestVisible(t *testing.T) {
	own := model.InboxKey{Role: model.RoleUser, Email: "ani@example.com"}
	keys := visibleKeys(model.RoleUser)

	assert.True(t, visible(bus.CollectionChange(config.StoreKey.ExamSettings), keys, own))
	assert.False(t, visible(bus.CollectionChange(config.StoreKey.Users), keys, own))
	assert.False(t, visible(bus.CollectionChange(config.StoreKey.Credential("ani@example.com")), keys, own))
	assert.True(t, visible(bus.InboxChange(own), keys, own))
	assert.False(t, visible(bus.InboxChange(model.InboxKey{Role: model.RoleAdmin, Email: "ani@example.com"}), keys, own))

	assert.Contains(t, visibleKeys(model.RoleAdmin), config.StoreKey.Users)
}
