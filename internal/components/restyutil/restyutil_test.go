package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

type memoryOutput struct {
	mutex    sync.Mutex
	messages map[string]string
}

func (o *memoryOutput) Write(id string, contents string) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	o.messages[id] = contents
}

func TestDumpResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-page", r.URL.Path)
		w.Write([]byte("<h1>Acme Inc (ACM)</h1>"))
	}))
	defer server.Close()

	output := &memoryOutput{messages: map[string]string{}}
	client := resty.New()
	client.SetHeader("user-agent", "dividend-test")
	DumpResponses(client, output)

	_, err := client.R().Get(server.URL + "/quote/ACM")
	require.NoError(t, err)
	_, err = client.R().Get(server.URL + "/quote/XYZ")
	require.NoError(t, err)

	require.Len(t, output.messages, 2)
	first := output.messages["1.txt"]
	require.Contains(t, first, "GET "+server.URL+"/quote/ACM")
	require.Contains(t, first, "User-Agent: dividend-test")
	require.Contains(t, first, "200 OK")
	require.Contains(t, first, "X-Page: /quote/ACM")
	require.Contains(t, first, "<h1>Acme Inc (ACM)</h1>")
	require.Contains(t, output.messages["2.txt"], "/quote/XYZ")
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")

	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("1.txt", "hello")

	contents, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}

func TestFilesystemOutputKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notes, []byte("keep me"), 0600))

	_, err := NewFilesystemOutput(dir)
	require.ErrorIs(t, err, ErrOutputNotEmpty)

	contents, err := os.ReadFile(notes)
	require.NoError(t, err)
	require.Equal(t, "keep me", string(contents))
}

func TestResetFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "fetcher")
	require.NoError(t, os.MkdirAll(dir, 0777))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stale.txt"), []byte("old"), 0600))

	output, err := ResetFilesystemOutput(dir)
	require.NoError(t, err)
	output.Write("1.txt", "hello")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "1.txt", entries[0].Name())
}
