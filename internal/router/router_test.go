package router

import (
	"bytes"
	"image"
	"image/color/palette"
	"image/gif"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/anonto42/litreview/internal/models"
	"github.com/anonto42/litreview/pkg/config"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?_pragma=foreign_keys(1)"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func setupServer(t *testing.T) (*echo.Echo, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	cfg := &config.Config{
		App:  config.AppConfig{Name: "litreview-test"},
		Auth: config.AuthConfig{JWTSecret: "test-secret", SessionTTLHours: 1, BcryptCost: 4},
		Media: config.MediaConfig{
			Root:          t.TempDir(),
			URLPrefix:     "/media",
			ThumbnailSize: 200,
			MaxUploadMB:   1,
		},
	}

	e := echo.New()
	require.NoError(t, SetupRoutes(e, cfg, db, zap.NewNop()))
	return e, db
}

// browser keeps cookies between requests like a real one would.
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, e *echo.Echo) *browser {
	return &browser{t: t, e: e, cookies: map[string]*http.Cookie{}}
}

func (b *browser) send(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.send(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return b.send(req)
}

func (b *browser) postMultipart(target string, fields map[string]string, fileField, fileName string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(b.t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(fileField, fileName)
	require.NoError(b.t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(b.t, err)
	require.NoError(b.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return b.send(req)
}

func (b *browser) signUp(username string) {
	b.t.Helper()
	rec := b.post("/registration", url.Values{
		"username":  {username},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	})
	require.Equal(b.t, http.StatusSeeOther, rec.Code)
	require.Equal(b.t, "/home", rec.Header().Get(echo.HeaderLocation))
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, status int, location string) {
	t.Helper()
	assert.Equal(t, status, rec.Code)
	assert.Equal(t, location, rec.Header().Get(echo.HeaderLocation))
}

func TestAnonymousVisitorsAreSentToLogin(t *testing.T) {
	e, _ := setupServer(t)
	anon := newBrowser(t, e)

	for _, path := range []string{"/", "/home", "/posts", "/follow", "/new_ticket", "/edit_ticket/1"} {
		assertRedirect(t, anon.get(path), http.StatusFound, "/authentication_page")
	}

	rec := anon.get("/authentication_page")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestRegisterLoginLogout(t *testing.T) {
	e, _ := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")

	rec := alice.get("/home")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "You are now connected as alice")

	// the flash is shown once
	rec = alice.get("/home")
	assert.NotContains(t, rec.Body.String(), "You are now connected as alice")

	assertRedirect(t, alice.get("/"), http.StatusFound, "/home")

	assertRedirect(t, alice.post("/logout", url.Values{}), http.StatusSeeOther, "/authentication_page")
	assert.Contains(t, alice.get("/authentication_page").Body.String(), "You are now disconnected.")
	assertRedirect(t, alice.get("/home"), http.StatusFound, "/authentication_page")

	rec = alice.post("/authentication_page", url.Values{"username": {"alice"}, "password": {"nope"}})
	assertRedirect(t, rec, http.StatusSeeOther, "/authentication_page")

	rec = alice.post("/authentication_page", url.Values{"username": {"alice"}, "password": {"correct-horse"}})
	assertRedirect(t, rec, http.StatusSeeOther, "/home")
	assert.Equal(t, http.StatusOK, alice.get("/home").Code)
}

func TestRegistrationErrors(t *testing.T) {
	e, _ := setupServer(t)
	first := newBrowser(t, e)
	first.signUp("reader")

	other := newBrowser(t, e)
	rec := other.post("/registration", url.Values{
		"username":  {"reader"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	})
	assertRedirect(t, rec, http.StatusSeeOther, "/registration")
	assert.Contains(t, other.get("/registration").Body.String(), "A user with that username already exists.")
}

func TestFollowAndFeed(t *testing.T) {
	e, _ := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")
	bob := newBrowser(t, e)
	bob.signUp("bob")

	assertRedirect(t, alice.post("/new_ticket", url.Values{"title": {"Dune"}, "description": {"Worth **reading**?"}}),
		http.StatusSeeOther, "/home")

	body := alice.get("/home").Body.String()
	assert.Contains(t, body, "Your ticket has been successfully created")
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "<strong>reading</strong>")

	assert.NotContains(t, bob.get("/home").Body.String(), "Dune")

	assertRedirect(t, bob.post("/follow", url.Values{"user_name": {"alice"}}), http.StatusSeeOther, "/follow")
	page := bob.get("/follow").Body.String()
	assert.Contains(t, page, "You are now following alice")
	assert.Contains(t, page, "/unfollow/")
	assert.Contains(t, page, "1 subscriptions / 0 subscribers")
	assert.Contains(t, alice.get("/follow").Body.String(), "0 subscriptions / 1 subscribers")

	assertRedirect(t, bob.post("/follow", url.Values{"user_name": {"bob"}}), http.StatusSeeOther, "/follow")
	assert.Contains(t, bob.get("/follow").Body.String(), "you can&#39;t follow yourself")

	body = bob.get("/home").Body.String()
	assert.Contains(t, body, "Dune")
	assert.Contains(t, body, "/new_review/", "bob can answer the ticket")
}

func TestRespondAndOwnership(t *testing.T) {
	e, db := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")
	bob := newBrowser(t, e)
	bob.signUp("bob")

	alice.post("/new_ticket", url.Values{"title": {"Dune"}})
	var ticket models.Ticket
	require.NoError(t, db.First(&ticket, "title = ?", "Dune").Error)
	ticketPath := "/" + strconv.FormatUint(uint64(ticket.ID), 10)

	assert.Equal(t, http.StatusOK, bob.get("/new_review"+ticketPath).Code)
	rec := bob.post("/new_review"+ticketPath, url.Values{"headline": {"Great"}, "rating": {"5"}, "body": {"Loved it"}})
	assertRedirect(t, rec, http.StatusSeeOther, "/home")

	rec = bob.post("/new_review"+ticketPath, url.Values{"headline": {"Again"}, "rating": {"1"}})
	assertRedirect(t, rec, http.StatusSeeOther, "/home")
	assert.Contains(t, bob.get("/home").Body.String(), "You have already reviewed this ticket.")

	// alice sees the answer to her ticket even though she follows nobody
	assert.Contains(t, alice.get("/home").Body.String(), "Great")

	rec = bob.post("/del_ticket"+ticketPath, url.Values{})
	assertRedirect(t, rec, http.StatusSeeOther, "/posts")
	assert.Contains(t, bob.get("/posts").Body.String(), "other people&#39;s tickets")
	require.NoError(t, db.First(&models.Ticket{}, ticket.ID).Error)

	assertRedirect(t, bob.get("/edit_ticket"+ticketPath), http.StatusFound, "/posts")

	rec = alice.post("/del_ticket"+ticketPath, url.Values{})
	assertRedirect(t, rec, http.StatusSeeOther, "/posts")
	var reviews int64
	require.NoError(t, db.Model(&models.Review{}).Where("ticket_id = ?", ticket.ID).Count(&reviews).Error)
	assert.Zero(t, reviews)

	assertRedirect(t, bob.get("/new_review"+ticketPath), http.StatusFound, "/new_review")
}

func TestTicketWithImageUpload(t *testing.T) {
	e, db := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 600, 300))))

	rec := alice.postMultipart("/new_review",
		map[string]string{"title": "Dune", "headline": "Classic", "rating": "4"},
		"image", "cover.PNG", img.Bytes())
	assertRedirect(t, rec, http.StatusSeeOther, "/home")

	var ticket models.Ticket
	require.NoError(t, db.First(&ticket).Error)
	require.NotEmpty(t, ticket.Image)
	assert.True(t, strings.HasSuffix(ticket.Image, ".png"))

	media := alice.get("/media/" + ticket.Image)
	require.Equal(t, http.StatusOK, media.Code)
	cfg, _, err := image.DecodeConfig(media.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 100, cfg.Height)

	rec = alice.postMultipart("/new_ticket", map[string]string{"title": "Bad"}, "image", "cover.png", []byte("plain text"))
	assertRedirect(t, rec, http.StatusSeeOther, "/new_ticket")
	var count int64
	require.NoError(t, db.Model(&models.Ticket{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUploadedFileTypeComesFromContent(t *testing.T) {
	e, db := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")

	var payload bytes.Buffer
	require.NoError(t, gif.Encode(&payload, image.NewPaletted(image.Rect(0, 0, 10, 10), palette.Plan9), nil))
	payload.WriteString("<script>alert(document.cookie)</script>")

	rec := alice.postMultipart("/new_ticket", map[string]string{"title": "Dune"}, "image", "cover.html", payload.Bytes())
	assertRedirect(t, rec, http.StatusSeeOther, "/home")

	var ticket models.Ticket
	require.NoError(t, db.First(&ticket).Error)
	assert.True(t, strings.HasSuffix(ticket.Image, ".gif"), ticket.Image)

	media := alice.get("/media/" + ticket.Image)
	require.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, "image/gif", media.Header().Get(echo.HeaderContentType))
	assert.NotContains(t, media.Body.String(), "<script>")
}

func TestReviewWithoutRatingIsRejected(t *testing.T) {
	e, db := setupServer(t)
	alice := newBrowser(t, e)
	alice.signUp("alice")
	bob := newBrowser(t, e)
	bob.signUp("bob")

	alice.post("/new_ticket", url.Values{"title": {"Dune"}})
	var ticket models.Ticket
	require.NoError(t, db.First(&ticket, "title = ?", "Dune").Error)
	respond := "/new_review/" + strconv.FormatUint(uint64(ticket.ID), 10)

	assertRedirect(t, bob.post(respond, url.Values{"headline": {"No stars"}}), http.StatusSeeOther, respond)
	assert.Contains(t, bob.get(respond).Body.String(), "rating: this field is required")

	assertRedirect(t, bob.post(respond, url.Values{"headline": {"Bad"}, "rating": {"five"}}), http.StatusSeeOther, respond)

	var reviews int64
	require.NoError(t, db.Model(&models.Review{}).Count(&reviews).Error)
	assert.Zero(t, reviews)

	assertRedirect(t, bob.post(respond, url.Values{"headline": {"Zero"}, "rating": {"0"}}), http.StatusSeeOther, "/home")
	var review models.Review
	require.NoError(t, db.First(&review).Error)
	assert.Equal(t, 0, review.Rating)
}

func TestHealth(t *testing.T) {
	e, _ := setupServer(t)
	rec := newBrowser(t, e).get("/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}
