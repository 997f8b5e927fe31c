package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"presentify/config"
	"presentify/deck"
	"presentify/outline"
)

func newTestServer(t *testing.T, mock outline.LLMClient) *Server {
	t.Helper()
	srv := New(config.Default(), zap.NewNop())
	if mock != nil {
		srv.gen.NewClient = func(outline.Settings) (outline.LLMClient, error) { return mock, nil }
	}
	return srv
}

func multipartRequest(t *testing.T, fields map[string]string, filename string, fileData []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("template", filename)
		require.NoError(t, err)
		_, err = fw.Write(fileData)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func doRequest(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, body []byte) (kind, message string) {
	t.Helper()
	var doc struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc.Error.Kind, doc.Error.Message
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Presentify")
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := doRequest(srv, httptest.NewRequest(http.MethodOptions, "/api/generate", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestGenerateFallbackDownload(t *testing.T) {
	srv := newTestServer(t, nil)
	req := multipartRequest(t, map[string]string{
		"text": "Intro\n\nBody line one\nBody line two\n\nConclusion",
	}, "", nil)
	rec := doRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, pptxContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="presentify_output.pptx"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "fallback", rec.Header().Get("X-Outline-Source"))

	slides, err := deck.ReadText(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, slides, 3)
	assert.Equal(t, "Intro", slides[0].Title)
	assert.Equal(t, "Body line one", slides[1].Title)
	assert.Equal(t, []string{"Body line two"}, slides[1].Bullets)
	assert.Equal(t, "Conclusion", slides[2].Title)
}

func TestGenerateWithProvider(t *testing.T) {
	mock := &outline.MockLLM{Response: `{"slides":[{"title":"Model made this","bullets":["point"],"notes":"say hi"}]}`}
	srv := newTestServer(t, mock)

	req := multipartRequest(t, map[string]string{
		"text":     "raw input",
		"provider": "openai",
		"api_key":  "sk-test",
		"notes":    "1",
	}, "", nil)
	rec := doRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "openai", rec.Header().Get("X-Outline-Source"))
	assert.EqualValues(t, 1, mock.Calls())

	slides, err := deck.ReadText(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, slides, 1)
	assert.Equal(t, "Model made this", slides[0].Title)
	assert.Equal(t, "say hi", slides[0].Notes)
}

func TestGenerateProviderFailureStillDownloads(t *testing.T) {
	mock := &outline.MockLLM{Err: assert.AnError}
	srv := newTestServer(t, mock)

	req := multipartRequest(t, map[string]string{
		"text":     "Intro\n\nConclusion",
		"provider": "anthropic",
		"api_key":  "sk-test",
	}, "", nil)
	rec := doRequest(srv, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "fallback", rec.Header().Get("X-Outline-Source"))
	assert.EqualValues(t, 1, mock.Calls(), "no retries")

	_, err := deck.ReadText(rec.Body.Bytes())
	assert.NoError(t, err, "the fallback path still produces a readable deck")
}

func TestGenerateValidation(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string]string
		filename string
		fileData []byte
		wantKind string
	}{
		{
			name:     "missing text",
			fields:   map[string]string{"guidance": "no text given"},
			wantKind: kindInvalidRequest,
		},
		{
			name:     "blank text",
			fields:   map[string]string{"text": "   \n  "},
			wantKind: kindInvalidRequest,
		},
		{
			name:     "unknown provider",
			fields:   map[string]string{"text": "hello", "provider": "clippy"},
			wantKind: kindInvalidRequest,
		},
		{
			name:     "wrong template extension",
			fields:   map[string]string{"text": "hello"},
			filename: "notes.txt",
			fileData: []byte("plain text"),
			wantKind: kindTemplateUnreadable,
		},
		{
			name:     "template not a container",
			fields:   map[string]string{"text": "hello"},
			filename: "broken.pptx",
			fileData: []byte("this is not a zip archive"),
			wantKind: kindTemplateUnreadable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil)
			rec := doRequest(srv, multipartRequest(t, tt.fields, tt.filename, tt.fileData))

			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			kind, message := decodeError(t, rec.Body.Bytes())
			assert.Equal(t, tt.wantKind, kind)
			assert.NotEmpty(t, message)
		})
	}
}

func TestGenerateOversizeTemplateSkipsProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Limits.MaxTemplateBytes = 1024

	srv := New(cfg, zap.NewNop())
	calls := 0
	srv.gen.NewClient = func(outline.Settings) (outline.LLMClient, error) {
		calls++
		return &outline.MockLLM{}, nil
	}

	req := multipartRequest(t, map[string]string{
		"text":     "hello",
		"provider": "openai",
		"api_key":  "sk-test",
	}, "big.pptx", bytes.Repeat([]byte("x"), 2048))
	rec := doRequest(srv, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	kind, _ := decodeError(t, rec.Body.Bytes())
	assert.Equal(t, kindTemplateUnreadable, kind)
	assert.Zero(t, calls, "the template gate runs before any provider work")
}

func TestMetricsExposed(t *testing.T) {
	srv := newTestServer(t, nil)
	doRequest(srv, multipartRequest(t, map[string]string{"text": "hello"}, "", nil))

	rec := doRequest(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "presentify_generate_requests_total")
	assert.Contains(t, rec.Body.String(), `source="fallback"`)
	assert.Contains(t, rec.Body.String(), "presentify_stage_duration_seconds")
}

func TestResolveSettings(t *testing.T) {
	cfg := config.Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o"
	cfg.LLM.APIKeyEnv = "PRESENTIFY_TEST_KEY"
	cfg.LLM.BaseURL = "https://gateway.internal"
	t.Setenv("PRESENTIFY_TEST_KEY", "env-key")

	srv := New(cfg, zap.NewNop())

	form := func(fields map[string]string) *http.Request {
		req := multipartRequest(t, fields, "", nil)
		require.NoError(t, req.ParseMultipartForm(formMemoryLimit))
		return req
	}

	t.Run("request key beats env key", func(t *testing.T) {
		got := srv.resolveSettings(form(map[string]string{"api_key": "req-key"}), "openai")
		assert.Equal(t, "req-key", got.APIKey)
		assert.Equal(t, "gpt-4o", got.Model)
		assert.Equal(t, "https://gateway.internal", got.BaseURL)
	})

	t.Run("empty provider falls back to config", func(t *testing.T) {
		got := srv.resolveSettings(form(nil), "")
		assert.Equal(t, "openai", got.Provider)
		assert.Equal(t, "env-key", got.APIKey)
	})

	t.Run("different provider ignores config credentials", func(t *testing.T) {
		got := srv.resolveSettings(form(map[string]string{"api_key": "other-key"}), "anthropic")
		assert.Equal(t, "anthropic", got.Provider)
		assert.Equal(t, "other-key", got.APIKey)
		assert.Empty(t, got.Model)
		assert.Empty(t, got.BaseURL)
	})
}
