package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamas2/hamak/database"
	"github.com/hamas2/hamak/middleware"
	"github.com/hamas2/hamak/models"
	"github.com/hamas2/hamak/service"
	"github.com/hamas2/hamak/session"
	"github.com/hamas2/hamak/storage"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var mp4Clip = append([]byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom"), make([]byte, 256)...)

type testAPI struct {
	router   *gin.Engine
	issuer   *session.Issuer
	uploader *storage.MemoryUploader
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	limits := storage.Limits{MaxVideoBytes: 4096, MaxImageBytes: 1024}
	uploader := storage.NewMemoryUploader("mem://")
	svc := service.New(database.NewMemoryStore(), uploader, service.Options{
		Limits:           limits,
		PublicBaseURL:    "https://hamak.example/",
		ProgressInterval: time.Millisecond,
	})
	issuer := session.NewIssuer("test-secret", time.Hour)
	h := New(svc, issuer, Options{Limits: limits})

	r := gin.New()
	r.POST("/api/users", h.Register)
	r.GET("/api/users/:id", h.GetProfile)
	r.GET("/api/users/:id/videos", h.GetUserVideos)
	r.GET("/api/feed", h.GetFeed)
	r.GET("/api/videos/:id", h.GetVideo)
	r.GET("/api/videos/:id/share", h.ShareVideo)
	r.GET("/api/videos/:id/comments", h.GetComments)

	auth := r.Group("/api", middleware.SessionMiddleware(issuer))
	auth.GET("/me", h.Me)
	auth.POST("/videos", h.UploadVideo)
	auth.POST("/videos/:id/like", h.LikeVideo)
	auth.POST("/videos/:id/comments", h.AddComment)
	auth.POST("/videos/:id/comments/:cid/like", h.LikeComment)
	auth.POST("/videos/:id/comments/:cid/replies", h.AddReply)
	auth.POST("/videos/:id/comments/:cid/replies/:rid/like", h.LikeReply)

	return &testAPI{router: r, issuer: issuer, uploader: uploader}
}

func (a *testAPI) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) json(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return a.do(t, req, token)
}

func (a *testAPI) register(t *testing.T, name string) (models.User, string) {
	t.Helper()
	w := a.json(t, http.MethodPost, "/api/users", "", gin.H{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		User  models.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.User, resp.Token
}

func videoForm(t *testing.T, description string, clip []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("description", description))
	if clip != nil {
		fw, err := mw.CreateFormFile("file", "clip.mp4")
		require.NoError(t, err)
		_, err = fw.Write(clip)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func (a *testAPI) upload(t *testing.T, token, description string) models.Video {
	t.Helper()
	body, contentType := videoForm(t, description, mp4Clip)
	req := httptest.NewRequest(http.MethodPost, "/api/videos", body)
	req.Header.Set("Content-Type", contentType)
	w := a.do(t, req, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var v models.Video
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegisterJSON(t *testing.T) {
	api := newTestAPI(t)

	user, token := api.register(t, "  Ada ")
	assert.Equal(t, "Ada", user.Name)
	assert.NotEmpty(t, user.ID)

	userID, err := api.issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	w := api.json(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, decode[models.User](t, w).ID)
}

func TestRegisterValidation(t *testing.T) {
	api := newTestAPI(t)

	w := api.json(t, http.MethodPost, "/api/users", "", gin.H{"name": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.json(t, http.MethodPost, "/api/users", "", gin.H{"name": "Ada", "latitude": 91, "longitude": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, api.do(t, req, "").Code)
}

func TestRegisterMultipartRejectsNonImage(t *testing.T) {
	api := newTestAPI(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("name", "Ada"))
	fw, err := mw.CreateFormFile("profilePic", "me.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("plain text, not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/users", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := api.do(t, req, "")

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Zero(t, api.uploader.Len())
}

func TestWriteRoutesRequireSession(t *testing.T) {
	api := newTestAPI(t)

	w := api.json(t, http.MethodPost, "/api/videos/v1/like", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.json(t, http.MethodPost, "/api/videos/v1/comments", "forged", gin.H{"text": "hi"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenForUnknownUser(t *testing.T) {
	api := newTestAPI(t)
	token, err := api.issuer.Issue("ghost")
	require.NoError(t, err)

	body, contentType := videoForm(t, "hello", mp4Clip)
	req := httptest.NewRequest(http.MethodPost, "/api/videos", body)
	req.Header.Set("Content-Type", contentType)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, req, token).Code)
}

func TestUploadAndFeed(t *testing.T) {
	api := newTestAPI(t)
	user, token := api.register(t, "Ada")

	first := api.upload(t, token, "first")
	second := api.upload(t, token, "second")
	assert.Equal(t, user.ID, first.UserID)
	assert.Equal(t, 2, api.uploader.Len())

	w := api.json(t, http.MethodGet, "/api/feed", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decode[[]models.Video](t, w)
	require.Len(t, feed, 2)
	assert.Equal(t, second.ID, feed[0].ID)
	assert.Equal(t, first.ID, feed[1].ID)

	w = api.json(t, http.MethodGet, "/api/videos/"+first.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "first", decode[models.Video](t, w).Description)

	w = api.json(t, http.MethodGet, "/api/videos/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUploadValidation(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ada")

	tests := []struct {
		name        string
		description string
		clip        []byte
		status      int
	}{
		{"missing file", "hello", nil, http.StatusBadRequest},
		{"blank description", "  ", mp4Clip, http.StatusBadRequest},
		{"not a video", "hello", []byte("just some text"), http.StatusUnsupportedMediaType},
		{"too large", "hello", append(append([]byte{}, mp4Clip...), make([]byte, 8192)...), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := videoForm(t, tt.description, tt.clip)
			req := httptest.NewRequest(http.MethodPost, "/api/videos", body)
			req.Header.Set("Content-Type", contentType)
			assert.Equal(t, tt.status, api.do(t, req, token).Code)
		})
	}
	assert.Zero(t, api.uploader.Len())
}

func TestLikeToggle(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ada")
	video := api.upload(t, token, "clip")

	w := api.json(t, http.MethodPost, "/api/videos/"+video.ID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.LikeState{Liked: true, Likes: 1}, decode[service.LikeState](t, w))

	w = api.json(t, http.MethodPost, "/api/videos/"+video.ID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.LikeState{Liked: false, Likes: 0}, decode[service.LikeState](t, w))

	w = api.json(t, http.MethodPost, "/api/videos/nope/like", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommentsAndReplies(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ada")
	video := api.upload(t, token, "clip")
	base := "/api/videos/" + video.ID + "/comments"

	w := api.json(t, http.MethodPost, base, token, gin.H{"text": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.json(t, http.MethodPost, base, token, gin.H{"text": "nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	threads := decode[[]service.Thread](t, w)
	require.Len(t, threads, 1)
	commentID := threads[0].ID

	w = api.json(t, http.MethodPost, base+"/"+commentID+"/replies", token, gin.H{"text": "thanks"})
	require.Equal(t, http.StatusCreated, w.Code)
	threads = decode[[]service.Thread](t, w)
	require.Len(t, threads[0].Replies, 1)
	replyID := threads[0].Replies[0].ID

	w = api.json(t, http.MethodPost, base+"/"+commentID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[service.LikeState](t, w).Liked)

	w = api.json(t, http.MethodPost, base+"/"+commentID+"/replies/"+replyID+"/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[service.LikeState](t, w).Likes)

	w = api.json(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	threads = decode[[]service.Thread](t, w)
	require.Len(t, threads, 1)
	assert.Equal(t, 1, threads[0].Likes)
	assert.Equal(t, 1, threads[0].Replies[0].Likes)

	w = api.json(t, http.MethodPost, "/api/videos/nope/comments", token, gin.H{"text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProfile(t *testing.T) {
	api := newTestAPI(t)
	user, token := api.register(t, "Ada")
	video := api.upload(t, token, "clip")
	api.json(t, http.MethodPost, "/api/videos/"+video.ID+"/like", token, nil)

	w := api.json(t, http.MethodGet, "/api/users/"+user.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[models.Profile](t, w)
	assert.Equal(t, "Ada", profile.User.Name)
	assert.Equal(t, 1, profile.VideoCount)
	assert.Equal(t, 1, profile.TotalLikes)

	w = api.json(t, http.MethodGet, "/api/users/"+user.ID+"/videos", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Video](t, w), 1)

	w = api.json(t, http.MethodGet, "/api/users/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"videos"`)
}

func TestShare(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register(t, "Ada")
	video := api.upload(t, token, "clip")

	w := api.json(t, http.MethodGet, "/api/videos/"+video.ID+"/share", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://hamak.example/?video="+video.ID, decode[map[string]string](t, w)["url"])

	w = api.json(t, http.MethodGet, "/api/videos/nope/share", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.Wrap(service.ErrEmptyText, "comment"), http.StatusBadRequest},
		{badRequest(errors.New("garbled form")), http.StatusBadRequest},
		{badRequest(&http.MaxBytesError{Limit: 1}), http.StatusRequestEntityTooLarge},
		{service.ErrNotSignedIn, http.StatusUnauthorized},
		{errors.Wrap(service.ErrNotFound, "video v1"), http.StatusNotFound},
		{database.ErrConflict, http.StatusConflict},
		{storage.ErrTooLarge, http.StatusRequestEntityTooLarge},
		{storage.ErrUnsupportedType, http.StatusUnsupportedMediaType},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, "fetch feed", errors.New("mongo: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to fetch feed"}`, w.Body.String())
}
