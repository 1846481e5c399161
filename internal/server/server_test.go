package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmigration/backend/internal/intake"
	"github.com/mmigration/backend/internal/reviews"
	"github.com/mmigration/backend/internal/sharepoint"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type uploadCall struct {
	FolderPath string
	FileName   string
}

type recordingUploader struct {
	mu    sync.Mutex
	calls []uploadCall
}

func (u *recordingUploader) Upload(_ context.Context, folderPath, fileName string, _ []byte, _ string) sharepoint.UploadResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls = append(u.calls, uploadCall{FolderPath: folderPath, FileName: fileName})

	return sharepoint.UploadResult{Success: true, FileID: "id", WebURL: "https://example.test/doc"}
}

func (u *recordingUploader) callCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()

	return len(u.calls)
}

type stubProvider struct {
	reviews []reviews.Review
	stats   *reviews.PlaceStats
	err     error
}

func (p *stubProvider) Reviews(context.Context) ([]reviews.Review, error) {
	return p.reviews, p.err
}

func (p *stubProvider) Stats(context.Context) (*reviews.PlaceStats, error) {
	return p.stats, p.err
}

type stubFinder struct {
	place *reviews.Place
	err   error
}

func (f *stubFinder) FindPlace(context.Context, string) (*reviews.Place, error) {
	return f.place, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEngine(t *testing.T, opts Options) *gin.Engine {
	t.Helper()

	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	if opts.Intake == nil {
		opts.Intake = intake.NewService(nil, testLogger())
	}

	return New(opts)
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec.Code, body
}

func multipartRequest(t *testing.T, path string, fields map[string]string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}

	for name, content := range files {
		part, err := w.CreateFormFile("archivos", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func TestRootDescriptor(t *testing.T) {
	engine := newTestEngine(t, Options{})

	code, body := doJSON(t, engine, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "mmigration-backend", body["name"])
	assert.Equal(t, Version, body["version"])
	assert.Contains(t, body, "endpoints")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
		want       string
	}{
		{"configured", true, "configured"},
		{"not configured", false, "not_configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, Options{SharePointConfigured: tt.configured})

			for _, path := range []string{"/health", "/api/forms/health"} {
				code, body := doJSON(t, engine, http.MethodGet, path)

				assert.Equal(t, http.StatusOK, code)
				assert.Equal(t, "ok", body["status"])
				assert.Equal(t, tt.want, body["sharepoint"])
				assert.NotEmpty(t, body["timestamp"])
			}
		})
	}
}

func TestNoRoute(t *testing.T) {
	engine := newTestEngine(t, Options{})

	code, body := doJSON(t, engine, http.MethodGet, "/nope")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Endpoint no encontrado", body["error"])
}

func TestSubmit_UnconfiguredStillAccepts(t *testing.T) {
	engine := newTestEngine(t, Options{
		Intake: intake.NewService(nil, testLogger()),
	})

	req := multipartRequest(t, "/api/forms/intake-test", map[string]string{"nombre": "Juan"}, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Formulario recibido correctamente", body["message"])
}

func TestSubmit_RelaysDocumentAndAttachments(t *testing.T) {
	uploader := &recordingUploader{}
	engine := newTestEngine(t, Options{
		Intake: intake.NewService(uploader, testLogger()),
	})

	req := multipartRequest(t, "/api/forms/asilo",
		map[string]string{"nombre": "Ana", "telefono": "555-123-9876"},
		map[string][]byte{"pasaporte.pdf": []byte("pdf bytes")},
	)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, uploader.callCount())
	assert.Contains(t, uploader.calls[0].FolderPath, "tel-5551239876")
}

func TestSubmit_DefaultFormID(t *testing.T) {
	uploader := &recordingUploader{}
	engine := newTestEngine(t, Options{
		Intake: intake.NewService(uploader, testLogger()),
	})

	req := multipartRequest(t, "/api/forms", map[string]string{"nombre": "Ana"}, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, uploader.callCount())
	assert.Contains(t, uploader.calls[0].FileName, intake.DefaultFormID)
}

func TestSubmit_TooManyFiles(t *testing.T) {
	uploader := &recordingUploader{}
	engine := newTestEngine(t, Options{
		Intake: intake.NewService(uploader, testLogger()),
	})

	files := make(map[string][]byte, maxFiles+1)
	for i := 0; i <= maxFiles; i++ {
		files[fmt.Sprintf("adjunto-%d.txt", i)] = []byte("x")
	}

	req := multipartRequest(t, "/api/forms/asilo", nil, files)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, uploader.callCount())
}

func TestCollectFiles_OversizeFileRejected(t *testing.T) {
	// The size check precedes any read, so a header with an over-limit
	// Size exercises the rejection without materializing 50 MB.
	form := &multipart.Form{
		File: map[string][]*multipart.FileHeader{
			"archivos": {{Filename: "grande.bin", Size: maxFileSize + 1}},
		},
	}

	files, err := collectFiles(form)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "grande.bin")
	assert.Nil(t, files)
}

func TestSubmit_NotMultipart(t *testing.T) {
	engine := newTestEngine(t, Options{})

	req := httptest.NewRequest(http.MethodPost, "/api/forms/x", bytes.NewBufferString(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Error interno del servidor", body["message"])
}

func TestReviews_Unconfigured(t *testing.T) {
	engine := newTestEngine(t, Options{})

	code, body := doJSON(t, engine, http.MethodGet, "/api/reviews")

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "El servicio de reseñas no está configurado", body["message"])
	assert.Equal(t, []any{}, body["data"])
}

func TestReviews_Success(t *testing.T) {
	engine := newTestEngine(t, Options{
		Provider: &stubProvider{reviews: []reviews.Review{
			{Author: "María", Rating: 5, Comment: "Excelente", Date: 1717243200},
			{Author: "Luis", Rating: 4, Comment: "Muy bien", Date: 1717250000},
		}},
	})

	code, body := doJSON(t, engine, http.MethodGet, "/api/reviews")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
	data := body["data"].([]any)
	require.Len(t, data, 2)
	first := data[0].(map[string]any)
	assert.Equal(t, "María", first["author"])
	assert.Equal(t, float64(1717243200), first["date"])
}

func TestReviews_UpstreamError(t *testing.T) {
	engine := newTestEngine(t, Options{
		Provider: &stubProvider{err: errors.New("quota exceeded")},
	})

	code, body := doJSON(t, engine, http.MethodGet, "/api/reviews")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Error al obtener las reseñas", body["message"])
	assert.Equal(t, []any{}, body["data"])
}

func TestReviewStats(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		engine := newTestEngine(t, Options{})

		code, body := doJSON(t, engine, http.MethodGet, "/api/reviews/stats")

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Nil(t, body["data"])
	})

	t.Run("success", func(t *testing.T) {
		engine := newTestEngine(t, Options{
			Provider: &stubProvider{stats: &reviews.PlaceStats{
				Name:          "Oficina Legal",
				AverageRating: 4.8,
				TotalReviews:  120,
			}},
		})

		code, body := doJSON(t, engine, http.MethodGet, "/api/reviews/stats")

		assert.Equal(t, http.StatusOK, code)
		stats := body["data"].(map[string]any)
		assert.Equal(t, "Oficina Legal", stats["name"])
		assert.Equal(t, 4.8, stats["averageRating"])
	})

	t.Run("error surfaces upstream message", func(t *testing.T) {
		upstream := &reviews.UpstreamError{Status: "REQUEST_DENIED", Message: "key invalid"}
		engine := newTestEngine(t, Options{
			Provider: &stubProvider{err: upstream},
		})

		code, body := doJSON(t, engine, http.MethodGet, "/api/reviews/stats")

		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, upstream.Error(), body["message"])
		assert.Contains(t, body["message"], "REQUEST_DENIED")
		assert.Nil(t, body["data"])
	})
}

func TestPlaceLookup(t *testing.T) {
	t.Run("missing query", func(t *testing.T) {
		engine := newTestEngine(t, Options{Finder: &stubFinder{}})

		code, _ := doJSON(t, engine, http.MethodGet, "/api/reviews/place-id")

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("no finder", func(t *testing.T) {
		engine := newTestEngine(t, Options{})

		code, _ := doJSON(t, engine, http.MethodGet, "/api/reviews/place-id?query=oficina")

		assert.Equal(t, http.StatusServiceUnavailable, code)
	})

	t.Run("no match", func(t *testing.T) {
		engine := newTestEngine(t, Options{Finder: &stubFinder{}})

		code, _ := doJSON(t, engine, http.MethodGet, "/api/reviews/place-id?query=oficina")

		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("found", func(t *testing.T) {
		engine := newTestEngine(t, Options{Finder: &stubFinder{place: &reviews.Place{
			PlaceID:          "ChIJabc",
			Name:             "Oficina Legal",
			FormattedAddress: "Calle 1, Ciudad",
		}}})

		code, body := doJSON(t, engine, http.MethodGet, "/api/reviews/place-id?query=oficina")

		assert.Equal(t, http.StatusOK, code)
		place := body["data"].(map[string]any)
		assert.Equal(t, "ChIJabc", place["place_id"])
	})
}

func TestRequestIDEchoed(t *testing.T) {
	engine := newTestEngine(t, Options{})

	t.Run("generated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	})

	t.Run("caller supplied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-Id", "abc-123")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
	})
}

func TestCORS(t *testing.T) {
	engine := newTestEngine(t, Options{CORSOrigin: "example.com"})

	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{"configured origin", "https://example.com", true},
		{"www variant", "https://www.example.com", true},
		{"local dev", "http://localhost:5173", true},
		{"other origin", "https://evil.test", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Absolute target so the request Host differs from the
			// Origin and the CORS check actually runs.
			req := httptest.NewRequest(http.MethodGet, "http://api.backend.test/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tt.allowed {
				assert.Equal(t, tt.origin, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestCORS_NoOriginHeaderPasses(t *testing.T) {
	engine := newTestEngine(t, Options{CORSOrigin: "example.com"})

	code, _ := doJSON(t, engine, http.MethodGet, "/health")

	assert.Equal(t, http.StatusOK, code)
}
