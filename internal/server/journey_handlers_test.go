package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type journeyBody struct {
	ID          uint    `json:"id"`
	UserID      uint    `json:"user_id"`
	Mood        string  `json:"mood"`
	Purpose     string  `json:"purpose"`
	Duration    int     `json:"duration"`
	EndTime     *string `json:"end_time"`
	PostsViewed []uint  `json:"posts_viewed"`
	Completed   bool    `json:"completed"`
}

func TestJourneys(t *testing.T) {
	env := newTestServer(t, false)
	alice, aliceID := env.register(t, "alice")
	bob, _ := env.register(t, "bob")

	t.Run("requires auth", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/api/journeys/history", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("rejects bad input", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/journeys/start", alice, fiber.Map{
			"mood": "sleepy", "purpose": "relax", "duration": 7,
		})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decode[errorBody](t, resp)
		fields := map[string]bool{}
		for _, f := range body.Fields {
			fields[f.Field] = true
		}
		assert.True(t, fields["mood"])
		assert.True(t, fields["duration"])
		assert.False(t, fields["purpose"])
	})

	resp := env.do(t, http.MethodPost, "/api/journeys/start", alice, fiber.Map{
		"mood": "stressed", "purpose": "relax", "duration": 10,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	journey := decode[journeyBody](t, resp)
	assert.Equal(t, aliceID, journey.UserID)
	assert.False(t, journey.Completed)
	assert.Nil(t, journey.EndTime)
	completePath := fmt.Sprintf("/api/journeys/%d/complete", journey.ID)

	t.Run("only the owner completes", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, completePath, bob, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("complete records viewed posts", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, completePath, alice, fiber.Map{"posts_viewed": []uint{3, 1}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		done := decode[journeyBody](t, resp)
		assert.True(t, done.Completed)
		assert.NotNil(t, done.EndTime)
		assert.Equal(t, []uint{3, 1}, done.PostsViewed)
	})

	t.Run("second completion is rejected", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, completePath, alice, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "INVALID_OPERATION", decode[errorBody](t, resp).Code)
	})

	t.Run("missing journey", func(t *testing.T) {
		resp := env.do(t, http.MethodPut, "/api/journeys/9999/complete", alice, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		_ = resp.Body.Close()
	})

	t.Run("history is per user", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/api/journeys/start", alice, fiber.Map{
			"mood": "happy", "purpose": "learn", "duration": 5,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()

		resp = env.do(t, http.MethodGet, "/api/journeys/history", alice, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		history := decode[[]journeyBody](t, resp)
		require.Len(t, history, 2)
		assert.Equal(t, "happy", history[0].Mood)
		assert.Equal(t, journey.ID, history[1].ID)

		resp = env.do(t, http.MethodGet, "/api/journeys/history", bob, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decode[[]journeyBody](t, resp))
	})
}
