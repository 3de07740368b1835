package crmapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/session"
	"github.com/xavierca1/leadflow/internal/infra/storage"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func newTestClient(t *testing.T, h http.Handler, access, refresh string) (*Client, *session.Session) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	sess := session.New(storage.NewMemoryStore())
	if access != "" {
		require.NoError(t, sess.SetTokens(context.Background(), access, refresh))
	}
	return NewClient(srv.URL, sess, nil), sess
}

func TestClient_ListLeads_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
	}{
		{"bare array", `[{"id":"1","name":"A","status":"new"}]`, []string{"1"}},
		{"leads envelope", `{"leads":[{"id":2,"name":"B"}]}`, []string{"2"}},
		{"data envelope", `{"data":[{"id":"3"},{"id":"4"}]}`, []string{"3", "4"}},
		{"items envelope", `{"items":[{"id":"5"}]}`, []string{"5"}},
		{"object without array", `{"leads":{"id":"1"}}`, []string{}},
		{"scalar", `"oops"`, []string{}},
		{"null", `null`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}), "tok", "")

			leads, err := c.ListLeads(context.Background(), usecase.ListLeadsParams{})
			require.NoError(t, err)
			ids := []string{}
			for _, l := range leads {
				ids = append(ids, l.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestClient_ListLeads_FlexibleNumbers(t *testing.T) {
	body := `[
		{"id":"1","deal_value":"1500.5","lead_score":"x","created_at":"2024-03-01T10:00:00Z"},
		{"id":"2","deal_value":null,"lead_score":42,"last_contacted_at":"bad"},
		{"id":"3","deal_value":{"amount":3},"activity_count":"7"}
	]`
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "50", r.URL.Query().Get("page_size"))
		_, _ = w.Write([]byte(body))
	}), "tok", "")

	leads, err := c.ListLeads(context.Background(), usecase.ListLeadsParams{PageSize: 50})
	require.NoError(t, err)
	require.Len(t, leads, 3)

	assert.Equal(t, 1500.5, leads[0].DealValue)
	assert.Equal(t, 0.0, leads[0].LeadScore)
	assert.Equal(t, 2024, leads[0].CreatedAt.Year())
	assert.Equal(t, 0.0, leads[1].DealValue)
	assert.Equal(t, 42.0, leads[1].LeadScore)
	assert.Nil(t, leads[1].LastContactedAt)
	assert.Equal(t, 0.0, leads[2].DealValue)
	assert.Equal(t, 7, leads[2].ActivityCount)
}

func TestClient_RefreshesOnceAndRetries(t *testing.T) {
	var refreshes, calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		var req refreshRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ref-1", req.RefreshToken)
		_ = json.NewEncoder(w).Encode(refreshResponse{AccessToken: "fresh", RefreshToken: "ref-2"})
	})
	mux.HandleFunc("PATCH /leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"id":"` + r.PathValue("id") + `","status":"won"}`))
	})

	c, sess := newTestClient(t, mux, "stale", "ref-1")
	status := "won"
	lead, err := c.UpdateLead(context.Background(), "7", entity.LeadPatch{Status: &status})

	require.NoError(t, err)
	require.NotNil(t, lead)
	assert.Equal(t, "won", lead.Status)
	assert.EqualValues(t, 1, refreshes.Load())
	assert.EqualValues(t, 2, calls.Load())
	assert.Equal(t, "fresh", sess.AccessToken())
	assert.Equal(t, "ref-2", sess.RefreshToken())
}

func TestClient_ConcurrentUnauthorizedShareRefresh(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		_ = json.NewEncoder(w).Encode(refreshResponse{AccessToken: "fresh"})
	})
	mux.HandleFunc("POST /leads/{id}/notes", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	})

	c, _ := newTestClient(t, mux, "stale", "ref-1")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.AddNote(context.Background(), "1", entity.NoteInput{Content: "x", NoteType: entity.NoteTypeSystem}))
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, refreshes.Load())
}

func TestClient_RefreshFailureClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("DELETE /leads/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	c, sess := newTestClient(t, mux, "stale", "ref-1")
	err := c.DeleteLead(context.Background(), "1")

	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.RefreshToken())
}

func TestClient_NoTokenFailsFast(t *testing.T) {
	var hit atomic.Bool
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit.Store(true)
	}), "", "")

	_, err := c.ListLeads(context.Background(), usecase.ListLeadsParams{})
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.False(t, hit.Load())
}

func TestClient_APIError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}), "tok", "")

	status := "won"
	_, err := c.UpdateLead(context.Background(), "1", entity.LeadPatch{Status: &status})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "boom", apiErr.Body)
}

func TestClient_DeleteNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), "tok", "")

	err := c.DeleteLead(context.Background(), "9")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)
}

func TestClient_Login(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var in LoginInput
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"a","refresh_token":"r","user":{"id":"u1","name":"Ana","email":"ana@example.com"}}`))
	})
	c, sess := newTestClient(t, mux, "", "")

	_, err := c.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "nope"})
	require.ErrorIs(t, err, ErrUnauthenticated)

	user, err := c.Login(context.Background(), LoginInput{Email: "ana@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.Name)
	assert.Equal(t, "a", sess.AccessToken())
	cached, ok := sess.User()
	require.True(t, ok)
	assert.Equal(t, "u1", cached.ID)
}
