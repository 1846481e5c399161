package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDrive simulates the Graph item-by-path and create-folder endpoints
// for a single drive. Folders are tracked by path; created folders get
// deterministic IDs derived from their path.
type fakeDrive struct {
	t       *testing.T
	driveID string
	folders map[string]string // path -> item ID
	created []string          // creation order, by segment name
	parents []string          // parent ID used for each creation
	failOn  string            // segment name whose creation fails
}

func newFakeDrive(t *testing.T, existing ...string) *fakeDrive {
	t.Helper()

	f := &fakeDrive{t: t, driveID: "d1", folders: map[string]string{}}
	for _, p := range existing {
		f.folders[p] = "id:" + p
	}

	return f
}

func (f *fakeDrive) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/drives/d1/root:"):
			path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/drives/d1/root:"), ":")
			if id, ok := f.folders[path]; ok {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprintf(w, `{"id":%q,"name":%q,"folder":{"childCount":0}}`, id, path)

				return
			}

			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":{"code":"itemNotFound"}}`)

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/children"):
			parentID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/drives/d1/items/"), "/children")

			var req createFolderRequest
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(f.t, "rename", req.ConflictBehavior)

			if req.Name == f.failOn {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":{"code":"generalException"}}`)

				return
			}

			f.created = append(f.created, req.Name)
			f.parents = append(f.parents, parentID)

			newPath := f.pathOfParent(parentID) + "/" + req.Name
			f.folders[newPath] = "id:" + newPath

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			fmt.Fprintf(w, `{"id":%q,"name":%q,"folder":{"childCount":0}}`, "id:"+newPath, req.Name)

		default:
			f.t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusTeapot)
		}
	}
}

// pathOfParent reverses the "id:<path>" scheme; "root" maps to the empty path.
func (f *fakeDrive) pathOfParent(parentID string) string {
	if parentID == "root" {
		return ""
	}

	return strings.TrimPrefix(parentID, "id:")
}

func TestEnsureFolder_FastPath(t *testing.T) {
	fake := newFakeDrive(t, "/2025/A12345678/asilo")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	id, err := client.EnsureFolder(context.Background(), "d1", "/2025/A12345678/asilo")
	require.NoError(t, err)
	assert.Equal(t, "id:/2025/A12345678/asilo", id)
	assert.Empty(t, fake.created)
}

func TestEnsureFolder_CreatesMissingSegmentsInOrder(t *testing.T) {
	fake := newFakeDrive(t, "/2025")
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	id, err := client.EnsureFolder(context.Background(), "d1", "2025/tel-5551234567/asilo")
	require.NoError(t, err)
	assert.Equal(t, "id:/2025/tel-5551234567/asilo", id)

	// Only the two missing segments are created, parents before children.
	assert.Equal(t, []string{"tel-5551234567", "asilo"}, fake.created)
	assert.Equal(t, []string{"id:/2025", "id:/2025/tel-5551234567"}, fake.parents)
}

func TestEnsureFolder_CreatesFullTreeFromRoot(t *testing.T) {
	fake := newFakeDrive(t)
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	id, err := client.EnsureFolder(context.Background(), "d1", "/2025/temp-1/visa")
	require.NoError(t, err)
	assert.Equal(t, "id:/2025/temp-1/visa", id)
	assert.Equal(t, []string{"2025", "temp-1", "visa"}, fake.created)
	assert.Equal(t, "root", fake.parents[0])
}

func TestEnsureFolder_SegmentFailureAbortsWalk(t *testing.T) {
	fake := newFakeDrive(t, "/2025")
	fake.failOn = "tel-5551234567"
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.EnsureFolder(context.Background(), "d1", "/2025/tel-5551234567/asilo")
	require.Error(t, err)

	var fe *FolderError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "tel-5551234567", fe.Segment)
	assert.ErrorIs(t, err, ErrServerError)

	// The child segment is never attempted after its parent fails.
	assert.NotContains(t, fake.created, "asilo")
}

func TestEnsureFolder_Idempotent(t *testing.T) {
	fake := newFakeDrive(t)
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	first, err := client.EnsureFolder(context.Background(), "d1", "/2025/c1/asilo")
	require.NoError(t, err)

	createdAfterFirst := len(fake.created)

	second, err := client.EnsureFolder(context.Background(), "d1", "/2025/c1/asilo")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, fake.created, createdAfterFirst, "second ensure must not create folders")
}
