package handler

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"invitely/eventhub/internal/blob"
	"invitely/eventhub/internal/config"
	"invitely/eventhub/internal/handler/middleware"
	"invitely/eventhub/internal/repository"
	"invitely/eventhub/internal/service"
	jwtpkg "invitely/eventhub/pkg/jwt"
)

type testServer struct {
	router *gin.Engine
	jwt    *jwtpkg.Manager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: "test"},
		RateLimit:  config.RateLimitConfig{GuestRequests: 1000, Window: time.Minute},
		Invitation: config.InvitationConfig{PublicOrigin: "https://invite.example"},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders: []string{"Authorization", "Content-Type", middleware.HeaderGuestToken},
		},
	}

	store := repository.NewMemoryDocumentStore()
	locker := repository.NewMemoryKeyLocker()
	eventRepo := repository.NewEventRepository(store, locker)
	tokenRepo := repository.NewGuestTokenRepository(store)
	galleryRepo := repository.NewGalleryRepository(store, locker)

	jwtManager := jwtpkg.NewManager([]byte("test-signing-key"), "eventhub", time.Hour)
	blobs := blob.NewMemoryStore("http://localhost", jwtpkg.NewManager([]byte("blob-key"), "eventhub-blob", 0))
	ids := service.NewIDGenerator()
	hub := NewGalleryHub(logger)
	t.Cleanup(func() { _ = hub.Close() })

	authn := service.NewJWTAuthenticator(jwtManager)
	eventService := service.NewEventService(eventRepo, tokenRepo, ids, service.EventServiceConfig{
		DefaultMessage: "You're invited to {event}!",
	}, logger)
	guestService := service.NewGuestService(eventRepo, tokenRepo, logger)
	galleryService := service.NewGalleryService(eventRepo, galleryRepo, blobs, ids, hub, service.GalleryServiceConfig{
		SignedURLTTL:   time.Hour,
		MaxUploadBytes: 1 << 20,
	}, logger)

	router := SetupRouter(cfg, logger, authn, guestService,
		NewEventHandler(eventService, cfg.Invitation.PublicOrigin),
		NewGuestHandler(guestService),
		NewGalleryHandler(galleryService, 1<<20),
		hub,
		NewBlobHandler(blobs),
	)
	return &testServer{router: router, jwt: jwtManager}
}

func (s *testServer) token(t *testing.T, userID, name string) string {
	t.Helper()
	tok, err := s.jwt.GenerateAccessToken(userID, name)
	require.NoError(t, err)
	return tok
}

type requestOption func(*http.Request)

func bearer(tok string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+tok) }
}

func guestToken(tok string) requestOption {
	return func(r *http.Request) { r.Header.Set(middleware.HeaderGuestToken, tok) }
}

func header(k, v string) requestOption {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (s *testServer) do(t *testing.T, method, path string, body any, opts ...requestOption) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func pngDataURL() string {
	data := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	code, body := s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestEventRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "u1", "Organizer")

	code, _ := s.do(t, http.MethodPost, "/events", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := s.do(t, http.MethodPost, "/events", map[string]any{"name": "x"}, bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.EqualValues(t, 401, body["code"])

	code, _ = s.do(t, http.MethodPost, "/events", map[string]any{
		"name": "Party", "occasion": "funeral", "date": "2026-06-01",
	}, bearer(owner))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPost, "/events", map[string]any{
		"name": "Party", "occasion": "Wedding", "date": "2026-06-01", "description": "Garden",
	}, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	event := body["event"].(map[string]any)
	eventID := event["id"].(string)
	assert.Equal(t, "wedding", event["occasion"])
	assert.Equal(t, "u1", event["ownerId"])

	code, body = s.do(t, http.MethodGet, "/events", nil, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["events"], 1)

	code, body = s.do(t, http.MethodPost, "/events/"+eventID+"/guests", map[string]any{
		"guests": []map[string]any{{"phone": "+1 555 0100"}},
	}, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	guests := body["guests"].([]any)
	require.Len(t, guests, 1)
	token := guests[0].(map[string]any)["guestToken"].(string)

	// Another sender is told the event does not exist.
	stranger := s.token(t, "u2", "")
	code, _ = s.do(t, http.MethodPost, "/events/"+eventID+"/guests", map[string]any{
		"guests": []map[string]any{{"phone": "+1"}},
	}, bearer(stranger))
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodPost, "/events/"+eventID+"/send", map[string]any{}, bearer(stranger))
	assert.Equal(t, http.StatusNotFound, code)

	// Owner view vs public view.
	code, body = s.do(t, http.MethodGet, "/events/"+eventID, nil, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "u1", body["event"].(map[string]any)["ownerId"])

	code, body = s.do(t, http.MethodGet, "/events/"+eventID, nil)
	require.Equal(t, http.StatusOK, code)
	public := body["event"].(map[string]any)
	assert.NotContains(t, public, "ownerId")
	raw, _ := json.Marshal(public)
	assert.NotContains(t, string(raw), "+15550100")
	assert.NotContains(t, string(raw), token)

	code, _ = s.do(t, http.MethodGet, "/events/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/events/"+eventID+"/send", map[string]any{
		"message": "Come to {event}", "invitationType": "standard",
	}, bearer(owner), header("Origin", "https://app.example"))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	inv := body["invitations"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://app.example/guest/"+token, inv["link"])
	assert.Equal(t, "Come to Party", inv["message"])
	assert.Equal(t, "+15550100", inv["phone"])

	code, body = s.do(t, http.MethodPost, "/events/"+eventID+"/send", map[string]any{}, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	inv = body["invitations"].([]any)[0].(map[string]any)
	assert.Equal(t, "https://invite.example/guest/"+token, inv["link"])
}

func TestGuestRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "u1", "")
	_, body := s.do(t, http.MethodPost, "/events", map[string]any{
		"name": "Party", "occasion": "birthday", "date": "2026-06-01",
	}, bearer(owner))
	eventID := body["event"].(map[string]any)["id"].(string)
	_, body = s.do(t, http.MethodPost, "/events/"+eventID+"/guests", map[string]any{
		"guests": []map[string]any{{"phone": "+1555"}},
	}, bearer(owner))
	token := body["guests"].([]any)[0].(map[string]any)["guestToken"].(string)

	code, body := s.do(t, http.MethodGet, "/guest/"+token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, eventID, body["eventId"])
	assert.NotContains(t, body["event"].(map[string]any), "ownerId")
	assert.NotContains(t, body["event"].(map[string]any), "guests")

	code, body = s.do(t, http.MethodPut, "/guest/"+token+"/profile", map[string]any{"username": "Alice"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Alice", body["guest"].(map[string]any)["username"])

	code, _ = s.do(t, http.MethodPut, "/guest/unknown/profile", map[string]any{"username": "Eve"})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/guest/"+token+"/profile", map[string]any{
		"profilePhoto": strings.Repeat("a", profileBodyLimit),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)

	code, body = s.do(t, http.MethodDelete, "/guest/"+token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = s.do(t, http.MethodGet, "/guest/"+token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodDelete, "/guest/"+token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGalleryRoutes(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "u1", "Organizer")
	_, body := s.do(t, http.MethodPost, "/events", map[string]any{
		"name": "Party", "occasion": "birthday", "date": "2026-06-01",
	}, bearer(owner))
	eventID := body["event"].(map[string]any)["id"].(string)
	_, otherBody := s.do(t, http.MethodPost, "/events", map[string]any{
		"name": "Other", "occasion": "other", "date": "2026-06-01",
	}, bearer(owner))
	otherEventID := otherBody["event"].(map[string]any)["id"].(string)

	_, body = s.do(t, http.MethodPost, "/events/"+eventID+"/guests", map[string]any{
		"guests": []map[string]any{{"phone": "+1555"}, {"phone": "+1556"}},
	}, bearer(owner))
	guestList := body["guests"].([]any)
	g1 := guestList[0].(map[string]any)
	g2 := guestList[1].(map[string]any)
	t1, t2 := g1["guestToken"].(string), g2["guestToken"].(string)

	upload := map[string]any{"imageData": pngDataURL()}

	code, _ := s.do(t, http.MethodPost, "/gallery/"+eventID+"/upload", upload)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPost, "/gallery/"+otherEventID+"/upload", upload, guestToken(t1))
	assert.Equal(t, http.StatusForbidden, code, "guest of another event")

	code, _ = s.do(t, http.MethodPost, "/gallery/"+eventID+"/upload", upload, guestToken("bogus"))
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body = s.do(t, http.MethodPost, "/gallery/"+eventID+"/upload", upload, guestToken(t1))
	require.Equal(t, http.StatusOK, code)
	image := body["image"].(map[string]any)
	imageID := image["id"].(string)
	assert.Equal(t, g1["id"], image["uploadedBy"])
	assert.Equal(t, g1["username"], image["uploaderName"])
	assert.Equal(t, "guest", image["uploaderType"])

	code, _ = s.do(t, http.MethodPost, "/gallery/missing/upload", upload, bearer(owner))
	assert.Equal(t, http.StatusNotFound, code)

	// Signed URL is served by the blob route.
	u, err := url.Parse(image["url"].(string))
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, u.RequestURI(), nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	req = httptest.NewRequest(http.MethodGet, "/blobs/"+eventID+"/"+imageID+"?token=forged", nil)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	code, body = s.do(t, http.MethodPost, "/gallery/"+eventID+"/like", map[string]any{"imageId": imageID}, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	likes := body["image"].(map[string]any)["likes"].([]any)
	require.Len(t, likes, 1)
	assert.Equal(t, map[string]any{"userId": "u1", "username": "Organizer"}, likes[0])

	code, _ = s.do(t, http.MethodPost, "/gallery/"+eventID+"/like", map[string]any{"imageId": "nope"}, bearer(owner))
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/gallery/"+eventID+"/comment", map[string]any{
		"imageId": imageID, "comment": "Lovely",
	}, guestToken(t2))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Lovely", body["comment"].(map[string]any)["text"])

	code, _ = s.do(t, http.MethodPost, "/gallery/"+eventID+"/comment", map[string]any{"imageId": imageID}, guestToken(t2))
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodGet, "/gallery/"+eventID, nil)
	require.Equal(t, http.StatusOK, code)
	gallery := body["gallery"].([]any)
	require.Len(t, gallery, 1)
	assert.NotEmpty(t, gallery[0].(map[string]any)["url"])
	assert.Len(t, gallery[0].(map[string]any)["comments"], 1)

	code, _ = s.do(t, http.MethodDelete, "/gallery/"+eventID+"/"+imageID, nil, guestToken(t2))
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(t, http.MethodDelete, "/gallery/"+eventID+"/"+imageID, nil, bearer(owner))
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, _ = s.do(t, http.MethodDelete, "/gallery/"+eventID+"/"+imageID, nil, bearer(owner))
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGuestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := middleware.NewRateLimiter(2, time.Minute)
	r := gin.New()
	r.GET("/guest/:token", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	codes := make([]int, 0, 3)
	for range 3 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/guest/abc", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}
