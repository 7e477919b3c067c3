package obsidian

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, mux *http.ServeMux) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(mux)
	client, err := NewClient(server.URL, "test-token")
	require.NoError(t, err)
	return server, client
}

func TestClient_ActiveFile_Get(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/active/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, "active file content")
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	content, err := client.ActiveFile.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "active file content", content)
}

func TestClient_ActiveFile_GetNote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/active/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "application/vnd.olrapi.note+json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{"content": "note content", "path": "Daily/2023-06-15.md", "stat": {"size": 100}}`)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	note, err := client.ActiveFile.GetNote(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "note content", note.Content)
	assert.Equal(t, "Daily/2023-06-15.md", note.Path)
	assert.Equal(t, float64(100), note.Stat.Size)
}

func TestClient_ActiveFile_Update(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/active/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "text/markdown", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "replaced", string(body))
		w.WriteHeader(http.StatusNoContent)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	require.NoError(t, client.ActiveFile.Update(context.Background(), "replaced"))
}

func TestClient_Vault_Get(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vault/test.md", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		fmt.Fprint(w, "file content")
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	content, err := client.Vault.Get(context.Background(), "test.md")
	require.NoError(t, err)
	assert.Equal(t, "file content", content)
}

func TestClient_Vault_GetNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vault/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errorCode": 40400, "message": "File does not exist"}`)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	_, err := client.Vault.Get(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "File does not exist", err.Error())
}

func TestClient_ErrorWithoutJSONBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vault/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	_, err := client.Vault.Get(context.Background(), "a.md")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "status code 500")
}

func TestClient_Vault_Create(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/vault/Pins/new.md", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PUT", r.Method)
		assert.Equal(t, "text/markdown", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusNoContent)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	err := client.Vault.Create(context.Background(), "Pins/new.md", "content")
	require.NoError(t, err)
}

func TestClient_Periodic_GetNoteAndPut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/periodic/daily/2023/6/15/", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case "GET":
			assert.Equal(t, "application/vnd.olrapi.note+json", r.Header.Get("Accept"))
			fmt.Fprint(w, `{"content": "", "path": "Daily/2023-06-15.md"}`)
		case "PUT":
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	day := time.Date(2023, 6, 15, 0, 0, 0, 0, time.Local)
	require.NoError(t, client.Periodic.Put(context.Background(), PeriodDaily, day, ""))

	note, err := client.Periodic.GetNote(context.Background(), PeriodDaily, day)
	require.NoError(t, err)
	assert.Equal(t, "Daily/2023-06-15.md", note.Path)
}

func TestClient_Search_FindByFrontmatter(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "application/vnd.olrapi.jsonlogic+json", r.Header.Get("Content-Type"))
		var q map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Contains(t, q, "==")
		fmt.Fprint(w, `[{"filename": "Pins/a.md", "result": true}, {"filename": "Pins/b.md", "result": false}]`)
	})
	server, client := setupTestServer(t, mux)
	defer server.Close()

	files, err := client.Search.FindByFrontmatter(context.Background(), "href", "https://go.dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pins/a.md"}, files)
}

func TestWithCertificate_Missing(t *testing.T) {
	_, err := NewClient("https://127.0.0.1:27124", "k", WithCertificate(filepath.Join(t.TempDir(), "none.crt")))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithInsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "secure")
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "k", WithInsecureTLS())
	require.NoError(t, err)

	content, err := client.Vault.Get(context.Background(), "x.md")
	require.NoError(t, err)
	assert.Equal(t, "secure", content)
}
