package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gatherpoint/server/internal/api/middleware"
	"github.com/gatherpoint/server/internal/auth"
	"github.com/gatherpoint/server/internal/domain/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type stubEventsRepo struct {
	createFn      func(params events.CreateParams) (*events.Event, error)
	listFn        func(filter events.Filter, sort events.Sort) ([]events.Event, error)
	getFn         func(id int64) (*events.Event, error)
	setApprovedFn func(id int64) (*events.Event, error)
	deleteFn      func(id int64) error
}

func (s stubEventsRepo) Create(_ context.Context, params events.CreateParams) (*events.Event, error) {
	return s.createFn(params)
}

func (s stubEventsRepo) List(_ context.Context, filter events.Filter, sort events.Sort) ([]events.Event, error) {
	return s.listFn(filter, sort)
}

func (s stubEventsRepo) GetByID(_ context.Context, id int64) (*events.Event, error) {
	return s.getFn(id)
}

func (s stubEventsRepo) SetApproved(_ context.Context, id int64) (*events.Event, error) {
	return s.setApprovedFn(id)
}

func (s stubEventsRepo) Delete(_ context.Context, id int64) error {
	return s.deleteFn(id)
}

func newEventsHandler(t *testing.T, repo events.Repository) (*EventsHandler, *auth.JWTManager) {
	t.Helper()
	service := events.NewService(repo, zerolog.Nop())
	tokens := auth.NewJWTManager("test-secret", time.Hour, "test")
	return NewEventsHandler(service, "test"), tokens
}

func bearerFor(t *testing.T, tokens *auth.JWTManager, username, role string) string {
	t.Helper()
	token, err := tokens.Generate("id-"+username, username, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestListNonAdminNeverRequestsPending(t *testing.T) {
	repo := stubEventsRepo{
		listFn: func(filter events.Filter, sort events.Sort) ([]events.Event, error) {
			require.False(t, filter.IncludePending, "anonymous listing must be scoped to approved only")
			require.Equal(t, events.SortDateDesc, sort)
			return []events.Event{}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.List))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/events?includePending=true&sort=desc", nil)
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestListAdminSeesPending(t *testing.T) {
	repo := stubEventsRepo{
		listFn: func(filter events.Filter, sort events.Sort) ([]events.Event, error) {
			require.True(t, filter.IncludePending)
			return []events.Event{
				{ID: 1, Title: "Town hall", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Owner: "root", Approved: false},
			}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.List))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/events?includePending=true", nil)
	request.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var views []eventResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &views))
	require.Len(t, views, 1)
	require.False(t, views[0].Approved)
	require.Equal(t, "2026-09-01", views[0].Date)
	require.Nil(t, views[0].Time)
}

func TestListIncludePendingAcceptsBoolSpellings(t *testing.T) {
	// includePending is a bool query parameter, so 1/t/TRUE count as much as
	// the literal "true".
	for _, raw := range []string{"1", "t", "TRUE"} {
		repo := stubEventsRepo{
			listFn: func(filter events.Filter, _ events.Sort) ([]events.Event, error) {
				require.True(t, filter.IncludePending, "includePending=%s must request pending", raw)
				return []events.Event{}, nil
			},
		}
		handler, tokens := newEventsHandler(t, repo)
		wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.List))

		request := httptest.NewRequest(http.MethodGet, "/api/v1/events?includePending="+raw, nil)
		request.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
		recorder := httptest.NewRecorder()
		wrapped.ServeHTTP(recorder, request)

		require.Equal(t, http.StatusOK, recorder.Code)
	}
}

func TestGetApprovedEventVisibleAnonymously(t *testing.T) {
	repo := stubEventsRepo{
		getFn: func(id int64) (*events.Event, error) {
			require.EqualValues(t, 7, id)
			return &events.Event{ID: 7, Title: "Open day", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Owner: "alice", Approved: true}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Get))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/events/7", nil)
	request.SetPathValue("id", "7")
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var view eventResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	require.Equal(t, "Open day", view.Title)
}

func TestGetPendingEventHiddenFromNonAdmins(t *testing.T) {
	repo := stubEventsRepo{
		getFn: func(int64) (*events.Event, error) {
			return &events.Event{ID: 8, Title: "Queued", Date: time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC), Owner: "alice", Approved: false}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Get))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/events/8", nil)
	request.SetPathValue("id", "8")
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNotFound, recorder.Code)

	asAdmin := httptest.NewRequest(http.MethodGet, "/api/v1/events/8", nil)
	asAdmin.SetPathValue("id", "8")
	asAdmin.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
	recorder = httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, asAdmin)

	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestCreateAnonymousEntersPending(t *testing.T) {
	repo := stubEventsRepo{
		createFn: func(params events.CreateParams) (*events.Event, error) {
			require.Equal(t, events.AnonymousOwner, params.Owner)
			require.False(t, params.Approved)
			require.Nil(t, params.Time)
			return &events.Event{
				ID:       1,
				Title:    params.Title,
				Date:     params.Date,
				Owner:    params.Owner,
				Approved: params.Approved,
			}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Create))

	body := `{"title":"Picnic","date":"2026-09-15","time":""}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var view eventResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	require.Equal(t, events.AnonymousOwner, view.UserID)
	require.False(t, view.Approved)
	require.Nil(t, view.Time)
}

func TestCreateAdminPublishesImmediately(t *testing.T) {
	repo := stubEventsRepo{
		createFn: func(params events.CreateParams) (*events.Event, error) {
			require.Equal(t, "root", params.Owner)
			require.True(t, params.Approved)
			return &events.Event{ID: 2, Title: params.Title, Date: params.Date, Owner: params.Owner, Approved: true}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Create))

	body := `{"title":"Maintenance window","date":"2026-10-01","time":"09:30"}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	request.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
}

func TestCreateIgnoresOwnerInPayload(t *testing.T) {
	repo := stubEventsRepo{
		createFn: func(params events.CreateParams) (*events.Event, error) {
			require.Equal(t, "alice", params.Owner, "owner must come from the token, not the payload")
			return &events.Event{ID: 3, Title: params.Title, Date: params.Date, Owner: params.Owner}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Create))

	body := `{"title":"Spoofed","date":"2026-09-15","userId":"root"}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	request.Header.Set("Authorization", bearerFor(t, tokens, "alice", "member"))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)
}

func TestCreateMissingTitle(t *testing.T) {
	handler, tokens := newEventsHandler(t, stubEventsRepo{
		createFn: func(events.CreateParams) (*events.Event, error) {
			t.Fatal("repository must not be called for invalid input")
			return nil, nil
		},
	})
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Create))

	body := `{"date":"2026-09-15"}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "validation-error")
}

func TestCreateMalformedTimeBecomesAbsent(t *testing.T) {
	repo := stubEventsRepo{
		createFn: func(params events.CreateParams) (*events.Event, error) {
			require.Nil(t, params.Time, "malformed time must normalize to absent, not reject")
			return &events.Event{ID: 4, Title: params.Title, Date: params.Date, Owner: params.Owner}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.Identity(tokens)(http.HandlerFunc(handler.Create))

	body := `{"title":"Picnic","date":"2026-09-15","time":"25:99"}`
	request := httptest.NewRequest(http.MethodPost, "/api/v1/events", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusCreated, recorder.Code)

	var view eventResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	require.Nil(t, view.Time)
}

func approveRequest(token string) *http.Request {
	request := httptest.NewRequest(http.MethodPut, "/api/v1/events/1/approve", nil)
	request.SetPathValue("id", "1")
	if token != "" {
		request.Header.Set("Authorization", token)
	}
	return request
}

func TestApproveRequiresAdmin(t *testing.T) {
	handler, tokens := newEventsHandler(t, stubEventsRepo{
		setApprovedFn: func(int64) (*events.Event, error) {
			t.Fatal("repository must not be called without admin")
			return nil, nil
		},
	})
	wrapped := middleware.RequireAdmin(tokens, "test")(http.HandlerFunc(handler.Approve))

	missing := httptest.NewRecorder()
	wrapped.ServeHTTP(missing, approveRequest(""))
	require.Equal(t, http.StatusUnauthorized, missing.Code)

	member := httptest.NewRecorder()
	wrapped.ServeHTTP(member, approveRequest(bearerFor(t, tokens, "alice", "member")))
	require.Equal(t, http.StatusForbidden, member.Code)
}

func TestApproveAsAdmin(t *testing.T) {
	repo := stubEventsRepo{
		setApprovedFn: func(id int64) (*events.Event, error) {
			require.Equal(t, int64(1), id)
			return &events.Event{ID: id, Title: "Town hall", Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Owner: "root", Approved: true}, nil
		},
	}
	handler, tokens := newEventsHandler(t, repo)
	wrapped := middleware.RequireAdmin(tokens, "test")(http.HandlerFunc(handler.Approve))

	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, approveRequest(bearerFor(t, tokens, "root", "admin")))

	require.Equal(t, http.StatusOK, recorder.Code)

	var view eventResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &view))
	require.True(t, view.Approved)
}

func TestApproveUnknownID(t *testing.T) {
	handler, tokens := newEventsHandler(t, stubEventsRepo{
		setApprovedFn: func(int64) (*events.Event, error) {
			return nil, events.ErrNotFound
		},
	})
	wrapped := middleware.RequireAdmin(tokens, "test")(http.HandlerFunc(handler.Approve))

	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, approveRequest(bearerFor(t, tokens, "root", "admin")))

	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Contains(t, recorder.Body.String(), "not-found")
}

func TestApproveNonNumericID(t *testing.T) {
	handler, tokens := newEventsHandler(t, stubEventsRepo{
		setApprovedFn: func(int64) (*events.Event, error) {
			t.Fatal("repository must not be called for a malformed id")
			return nil, nil
		},
	})
	wrapped := middleware.RequireAdmin(tokens, "test")(http.HandlerFunc(handler.Approve))

	request := httptest.NewRequest(http.MethodPut, "/api/v1/events/abc/approve", nil)
	request.SetPathValue("id", "abc")
	request.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
	recorder := httptest.NewRecorder()
	wrapped.ServeHTTP(recorder, request)

	require.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDeleteAsAdmin(t *testing.T) {
	deleted := false
	handler, tokens := newEventsHandler(t, stubEventsRepo{
		deleteFn: func(id int64) error {
			if deleted {
				return events.ErrNotFound
			}
			deleted = true
			return nil
		},
	})
	wrapped := middleware.RequireAdmin(tokens, "test")(http.HandlerFunc(handler.Delete))

	deleteRequest := func() *http.Request {
		request := httptest.NewRequest(http.MethodDelete, "/api/v1/events/1", nil)
		request.SetPathValue("id", "1")
		request.Header.Set("Authorization", bearerFor(t, tokens, "root", "admin"))
		return request
	}

	first := httptest.NewRecorder()
	wrapped.ServeHTTP(first, deleteRequest())
	require.Equal(t, http.StatusOK, first.Code)

	// A second delete of the same id is not-found, not success.
	second := httptest.NewRecorder()
	wrapped.ServeHTTP(second, deleteRequest())
	require.Equal(t, http.StatusNotFound, second.Code)
}
