package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/eventosumss/api/internal/auth"
	"github.com/eventosumss/api/internal/event"
	"github.com/eventosumss/api/internal/favorite"
	"github.com/eventosumss/api/internal/topic"
	"github.com/eventosumss/api/internal/user"
)

// testEnv wires the full router over in-memory repositories.
type testEnv struct {
	router    http.Handler
	events    *event.InMemoryRepository
	favorites *favorite.InMemoryRepository
	users     *user.InMemoryRepository
	topics    *topic.InMemoryRepository
	tokens    *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	events := event.NewInMemoryRepository()
	favorites := favorite.NewInMemoryRepository(events)
	users := user.NewInMemoryRepository()
	topics := topic.NewInMemoryRepository()
	tokens := auth.NewTokenService("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for id, nombre := range map[int64]string{1: "Deportes", 2: "Música", 3: "Tecnología", 4: "Arte"} {
		topics.Add(&topic.Topic{ID: id, Nombre: nombre})
	}

	router := NewRouter(RouterConfig{
		Events:    NewEventHandlers(events, event.NewInMemoryLocationRepository(events), nil, logger),
		Favorites: NewFavoriteHandlers(favorites, logger),
		Auth:      NewAuthHandlers(users, topics, tokens, logger),
		Topics:    NewTopicHandlers(topics, logger),
		Health:    NewHealthHandlers(nil, logger),
		Tokens:    tokens,
		Logger:    logger,
	})

	return &testEnv{
		router:    router,
		events:    events,
		favorites: favorites,
		users:     users,
		topics:    topics,
		tokens:    tokens,
	}
}

// tokenFor mints a valid bearer token for the given user id.
func (env *testEnv) tokenFor(t *testing.T, userID int64) string {
	t.Helper()
	token, err := env.tokens.Generate(strconv.FormatInt(userID, 10), "test@umss.edu.bo", "")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

// do runs a request through the router and returns the recorder.
func (env *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals a recorder body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

// errorCode extracts the code from an error envelope.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, w, &resp)
	return resp.Error.Code
}

// seedEvent inserts an event directly into the store.
func (env *testEnv) seedEvent(t *testing.T, title string, date time.Time, temaID *int64) *event.Event {
	t.Helper()
	e := &event.Event{
		Title:     title,
		Category:  "general",
		Date:      date,
		Time:      "18:00",
		UsuarioID: 1,
	}
	e.TemaID = temaID
	if err := env.events.Insert(context.Background(), e); err != nil {
		t.Fatalf("seed event: %v", err)
	}
	return e
}

// multipartEvent builds a multipart form body for POST /eventos.
func multipartEvent(t *testing.T, fields map[string]string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}
