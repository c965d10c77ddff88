package export

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/ledgerline/ledgerline/testing"
)

func TestRenderStatementSendsMultipartHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "multipart/form-data")

		require.NoError(t, r.ParseMultipartForm(10<<20))
		file, _, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()

		htmlContent, err := io.ReadAll(file)
		require.NoError(t, err)

		html := string(htmlContent)
		assert.Contains(t, html, "Balance Sheet")
		assert.Contains(t, html, "As of 2026-06-30")
		assert.Contains(t, html, "Bank")

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("MOCK-PDF-CONTENT"))
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	data, err := exporter.RenderStatement(t.Context(), fixture())
	require.NoError(t, err)
	assert.Equal(t, "MOCK-PDF-CONTENT", string(data))
}

func TestRenderStatementSurfacesGotenbergFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversion failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	exporter := &PDFExporter{Endpoint: srv.URL}
	_, err := exporter.RenderStatement(t.Context(), fixture())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
