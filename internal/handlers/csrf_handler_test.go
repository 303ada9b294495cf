package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webfolio/webfolio-api/internal/handlers"
	"github.com/webfolio/webfolio-api/internal/kvstore"
	"github.com/webfolio/webfolio-api/internal/services"
)

func TestIssueToken(t *testing.T) {
	store := kvstore.NewMemoryStore()
	service := services.NewCsrfService(store, time.Hour)
	handler := handlers.NewCsrfHandler(service)

	router := gin.New()
	router.GET("/api/csrf-token", handler.IssueToken)

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Token, 64)

	// The issued token is immediately consumable, exactly once
	require.NoError(t, service.VerifyAndConsume(context.Background(), resp.Token))
	assert.Error(t, service.VerifyAndConsume(context.Background(), resp.Token))
}

func TestIssueToken_EachRequestGetsFreshToken(t *testing.T) {
	store := kvstore.NewMemoryStore()
	handler := handlers.NewCsrfHandler(services.NewCsrfService(store, time.Hour))

	router := gin.New()
	router.GET("/api/csrf-token", handler.IssueToken)

	issue := func() string {
		req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Token
	}

	assert.NotEqual(t, issue(), issue())
}
