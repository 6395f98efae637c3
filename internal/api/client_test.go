package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/trakker/internal/model"
	"github.com/nhle/trakker/internal/session"
	"github.com/nhle/trakker/internal/validation"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Store, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewStore(keyring.NewArrayKeyring(nil))
	require.NoError(t, store.Save(model.Session{
		IsAuthenticated: true,
		AccessToken:     "old-access",
		RefreshToken:    "old-refresh",
	}))

	client := NewClient(Config{BaseURL: server.URL + "/api/", Timeout: 5 * time.Second}, store,
		WithHTTPClient(server.Client()))
	t.Cleanup(client.Close)

	return client, store, server
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestClient_AttachesBearerAndHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotPath string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"boards": []map[string]any{{"id": "b1", "name": "Roadmap"}}},
		})
	})

	boards, err := client.GetBoards(context.Background())
	require.NoError(t, err)
	require.Len(t, boards, 1)
	assert.Equal(t, "Roadmap", boards[0].Name)

	assert.Equal(t, "Bearer old-access", gotAuth)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, "/api/boards", gotPath)
}

func TestClient_PublicCallsSkipBearer(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
	})

	require.NoError(t, client.StartLogin(context.Background(), "ada@example.com"))
	assert.Empty(t, gotAuth)
	assert.Equal(t, "ada@example.com", gotBody["email"])
}

func TestClient_EnvelopeHandling(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       any
		wantMsg    string
		wantStatus int
		wantNoData bool
	}{
		{
			name:       "error on 200 uses server message",
			status:     http.StatusOK,
			body:       map[string]any{"success": false, "error": map[string]any{"code": "forbidden", "message": "Not your board"}},
			wantMsg:    "Not your board",
			wantStatus: http.StatusOK,
		},
		{
			name:       "error without message uses fallback",
			status:     http.StatusOK,
			body:       map[string]any{"error": map[string]any{"code": "oops"}},
			wantMsg:    "Failed to fetch boards",
			wantStatus: http.StatusOK,
		},
		{
			name:       "non-2xx with envelope",
			status:     http.StatusNotFound,
			body:       map[string]any{"error": map[string]any{"message": "Board not found"}},
			wantMsg:    "Board not found",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "non-2xx without envelope",
			status:     http.StatusInternalServerError,
			body:       "boom",
			wantMsg:    "Failed to fetch boards",
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "missing data",
			status:     http.StatusOK,
			body:       map[string]any{"success": true},
			wantNoData: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})

			_, err := client.GetBoards(context.Background())
			require.Error(t, err)

			if tt.wantNoData {
				assert.ErrorIs(t, err, ErrNoData)
				assert.Contains(t, err.Error(), "No boards data returned")
				return
			}

			apiErr, ok := AsAPIError(err)
			require.True(t, ok, "want *APIError, got %T", err)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.wantStatus, apiErr.Status)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestClient_NotFoundHelper(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"message": "Card not found"}})
	})

	_, err := client.GetCard(context.Background(), "c404")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
}

func TestClient_RetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "u1", "email": "ada@example.com"}})
	})

	user, err := client.GetCurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ValidatesBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	_, err := client.CreateBoard(context.Background(), model.CreateBoardRequest{Name: ""})
	assert.True(t, validation.IsValidationError(err))

	err = client.StartLogin(context.Background(), "not-an-email")
	assert.True(t, validation.IsValidationError(err))

	assert.Zero(t, calls.Load())
}

func TestClient_TransportError(t *testing.T) {
	client, _, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.GetBoards(context.Background())
	require.Error(t, err)
	_, isAPI := AsAPIError(err)
	assert.False(t, isAPI)
}

func TestClient_ReorderSendsColumnOrders(t *testing.T) {
	var got model.ReorderColumnsRequest
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/api/boards/b1/columns/reorder", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"columns": []map[string]any{
			{"id": "c2", "name": "Doing", "position": 0},
			{"id": "c1", "name": "To do", "position": 1},
		}}})
	})

	cols, err := client.ReorderColumns(context.Background(), "b1", model.ReorderColumnsRequest{
		ColumnOrders: []model.ColumnOrder{{ID: "c2", Position: 0}, {ID: "c1", Position: 1}},
	})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "c2", cols[0].ID)
	assert.Equal(t, []model.ColumnOrder{{ID: "c2", Position: 0}, {ID: "c1", Position: 1}}, got.ColumnOrders)
}

func TestClient_DeleteReturnsConfirmation(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"id": "c1", "deleted": true}})
	})

	res, err := client.DeleteCard(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
}
