package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/docledger/docledger/internal/audit"
	"github.com/docledger/docledger/internal/registry"
	"github.com/docledger/docledger/internal/registry/repository"
)

const ownerSub = "registry-admin"

// fakeContentStore lets tests control hash resolution and presigning.
type fakeContentStore struct {
	known map[string]bool
}

func (f *fakeContentStore) Exists(ctx context.Context, contentHash string) (bool, error) {
	return f.known[contentHash], nil
}

func (f *fakeContentStore) PresignedGetURL(ctx context.Context, contentHash string, expires time.Duration) (string, error) {
	return "https://content.example/" + contentHash, nil
}

func newTestRouter(content ContentStore, verify bool) (*gin.Engine, *registry.Registry) {
	g := gin.New()
	// stand-in for the auth middleware: claims from a test header
	g.Use(func(c *gin.Context) {
		if sub := c.GetHeader("X-Test-Sub"); sub != "" {
			c.Set("claims", map[string]interface{}{"sub": sub})
		}
		c.Next()
	})
	reg := registry.New(ownerSub, repository.NewMemoryStore(), audit.NewRecorder())
	New(reg, content, verify, time.Minute).Register(g.Group("/"))
	return g, reg
}

func doJSON(g *gin.Engine, method, path, sub, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if sub != "" {
		req.Header.Set("X-Test-Sub", sub)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func validHash() string { return strings.Repeat("Q", registry.ContentHashLen) }

func uploadBody(hash string) string {
	b, _ := json.Marshal(map[string]string{
		"contentHash": hash,
		"title":       "Deed",
		"description": "",
		"tags":        "legal",
	})
	return string(b)
}

func TestUploadAndRead(t *testing.T) {
	g, _ := newTestRouter(nil, false)

	w := doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(validHash()))
	require.Equal(t, http.StatusCreated, w.Code)
	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Equal(t, true, created["success"])
	require.Equal(t, "alice", created["owner"])

	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var count map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &count))
	require.Equal(t, float64(1), count["count"])

	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/0", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Equal(t, validHash(), doc["contentHash"])
	require.Equal(t, "Deed", doc["title"])
	require.Equal(t, "legal", doc["tags"])
	require.NotEmpty(t, doc["uploadedAt"])
}

func TestUpload_InvalidHashRejected(t *testing.T) {
	g, _ := newTestRouter(nil, false)

	w := doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(strings.Repeat("Q", 45)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":0`)
}

func TestUpload_MissingCallerIdentity(t *testing.T) {
	g, _ := newTestRouter(nil, false)
	w := doJSON(g, http.MethodPost, "/api/registry/documents", "", uploadBody(validHash()))
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCount_UnknownOwnerIsZero(t *testing.T) {
	g, _ := newTestRouter(nil, false)
	w := doJSON(g, http.MethodGet, "/api/registry/owners/nobody/documents", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":0`)
}

func TestGet_Errors(t *testing.T) {
	g, _ := newTestRouter(nil, false)

	// owner with no documents
	w := doJSON(g, http.MethodGet, "/api/registry/owners/nobody/documents/0", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// index outside the uint8 range
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/300", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// non-numeric index
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/x", "", "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	// index past the sequence length
	w = doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(validHash()))
	require.Equal(t, http.StatusCreated, w.Code)
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/1", "", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmergencyStopFlow(t *testing.T) {
	g, _ := newTestRouter(nil, false)

	// non-owner cannot toggle
	w := doJSON(g, http.MethodPost, "/api/registry/emergency-stop", "mallory", `{"stop":true}`)
	require.Equal(t, http.StatusForbidden, w.Code)

	// owner pauses
	w = doJSON(g, http.MethodPost, "/api/registry/emergency-stop", ownerSub, `{"stop":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	// all other operations are suspended
	w = doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(validHash()))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/0", "", "")
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	// owner resumes
	w = doJSON(g, http.MethodPost, "/api/registry/emergency-stop", ownerSub, `{"stop":false}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(validHash()))
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestEmergencyStop_MissingFlag(t *testing.T) {
	g, _ := newTestRouter(nil, false)
	w := doJSON(g, http.MethodPost, "/api/registry/emergency-stop", ownerSub, `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpload_ContentVerification(t *testing.T) {
	known := validHash()
	cs := &fakeContentStore{known: map[string]bool{known: true}}
	g, _ := newTestRouter(cs, true)

	// unknown hash of the right length is rejected before the append
	unknown := strings.Repeat("R", registry.ContentHashLen)
	w := doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(unknown))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(g, http.MethodPost, "/api/registry/documents", "alice", uploadBody(known))
	require.Equal(t, http.StatusCreated, w.Code)

	// reads carry a presigned content link when a store is attached
	w = doJSON(g, http.MethodGet, "/api/registry/owners/alice/documents/0", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "https://content.example/"+known)
}
