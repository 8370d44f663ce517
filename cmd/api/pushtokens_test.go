package main

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushTokens(t *testing.T) {
	s := newTestServer(t)
	const token = "ExponentPushToken[abc123]"

	tokensOf := func() []string {
		byUser, err := s.db.Repos().PushTokens.TokensFor(context.Background(), []int64{s.resident.ID})
		require.NoError(t, err)
		return byUser[s.resident.ID]
	}

	rr := s.do(request{method: http.MethodPost, path: apiPath("/users/push-tokens"), as: &s.resident, body: SavePushTokenRequest{
		Token: token, Platform: "android",
	}})
	requireStatus(t, rr, http.StatusNoContent)
	assert.Equal(t, []string{token}, tokensOf())

	t.Run("unknown platform", func(t *testing.T) {
		rr := s.do(request{method: http.MethodPost, path: apiPath("/users/push-tokens"), as: &s.resident, body: SavePushTokenRequest{
			Token: "ExponentPushToken[other]", Platform: "blackberry",
		}})
		requireStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("store failure", func(t *testing.T) {
		s.db.Fail("pushtokens.Register", errBoom)
		t.Cleanup(func() { s.db.Fail("pushtokens.Register", nil) })
		rr := s.do(request{method: http.MethodPost, path: apiPath("/users/push-tokens"), as: &s.resident, body: SavePushTokenRequest{
			Token: "ExponentPushToken[other]",
		}})
		requireStatus(t, rr, http.StatusInternalServerError)
	})

	rr = s.do(request{method: http.MethodDelete, path: apiPath("/users/push-tokens"), as: &s.resident, body: RemovePushTokenRequest{Token: token}})
	requireStatus(t, rr, http.StatusNoContent)
	assert.Empty(t, tokensOf())

	rr = s.do(request{method: http.MethodDelete, path: apiPath("/users/push-tokens"), body: RemovePushTokenRequest{Token: token}})
	requireStatus(t, rr, http.StatusUnauthorized)
}
