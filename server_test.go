package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Bijush/Avoter/models"
	"github.com/Bijush/Avoter/pkg/blob"
	"github.com/Bijush/Avoter/store"
)

// helper to perform requests against the engine
func performRequest(r http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	return performRequest(r, http.MethodPost, path,
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
}

// multipartBody encodes form fields plus uploaded files under the
// "attachments" field, the way the record form submits.
func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for name, content := range files {
		w, err := mw.CreateFormFile("attachments", name)
		require.NoError(t, err)
		_, err = io.WriteString(w, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func setupTestServer(t *testing.T) (*gin.Engine, *store.MemoryStore, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := store.NewMemoryStore()
	uploadDir := t.TempDir()
	blobs, err := blob.NewStore(uploadDir, publicFilesPrefix)
	require.NoError(t, err)
	srv := newServer(st, blobs, zap.NewNop())
	return newRouter(srv, uploadDir), st, uploadDir
}

func onlyRecord(t *testing.T, st *store.MemoryStore) models.Record {
	t.Helper()
	recs, err := st.List(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestRecordLifecycle(t *testing.T) {
	r, st, _ := setupTestServer(t)

	// create with a partial form: unsubmitted fields default, payment coerces
	resp := postForm(r, "/add", url.Values{"name": {"A. Kumar"}, "payment": {"1500"}})
	require.Equal(t, http.StatusFound, resp.Code)

	rec := onlyRecord(t, st)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "A. Kumar", rec.Name)
	assert.Equal(t, 1500.0, rec.Payment)
	assert.Equal(t, "", rec.Paid)
	assert.Equal(t, "", rec.Complete)
	assert.NotEmpty(t, rec.CreatedAt)
	assert.Equal(t, rec.CreatedAt, rec.UpdatedAt)

	resp = performRequest(r, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "A. Kumar")

	// edit with a subset of fields: absent fields keep stored values
	resp = postForm(r, "/edit/"+rec.ID, url.Values{"new_house": {"H-42"}})
	require.Equal(t, http.StatusFound, resp.Code)
	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "H-42", got.NewHouse)
	assert.Equal(t, "A. Kumar", got.Name)
	assert.Equal(t, 1500.0, got.Payment)

	// targeted remark update answers 204 with no body
	resp = postForm(r, "/update_remark", url.Values{"id": {rec.ID}, "remark": {"paid in full"}})
	require.Equal(t, http.StatusNoContent, resp.Code)
	assert.Empty(t, resp.Body.String())
	got, err = st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "paid in full", got.Remark)
	assert.Equal(t, "H-42", got.NewHouse)

	// delete removes the record from subsequent listings
	resp = postForm(r, "/delete/"+rec.ID, url.Values{})
	require.Equal(t, http.StatusFound, resp.Code)
	_, err = st.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEditUnknownRecordIs404(t *testing.T) {
	r, _, _ := setupTestServer(t)
	resp := performRequest(r, http.MethodGet, "/edit/no-such-id", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	resp = postForm(r, "/edit/no-such-id", url.Values{"name": {"x"}})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestUpdateRemarkRequiresID(t *testing.T) {
	r, _, _ := setupTestServer(t)
	resp := postForm(r, "/update_remark", url.Values{"remark": {"orphan"}})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListingSortedByNameCaseInsensitive(t *testing.T) {
	r, st, _ := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, st.Create(ctx, models.Record{ID: "1", Name: "bob"}))
	require.NoError(t, st.Create(ctx, models.Record{ID: "2", Name: "CAROL"}))
	require.NoError(t, st.Create(ctx, models.Record{ID: "3", Name: "Alice"}))

	resp := performRequest(r, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	body := resp.Body.String()
	iAlice := strings.Index(body, "Alice")
	iBob := strings.Index(body, "bob")
	iCarol := strings.Index(body, "CAROL")
	require.True(t, iAlice >= 0 && iBob >= 0 && iCarol >= 0)
	assert.Less(t, iAlice, iBob)
	assert.Less(t, iBob, iCarol)
}

func TestAttachmentLifecycle(t *testing.T) {
	r, st, uploadDir := setupTestServer(t)

	// x.txt is not an accepted type and must be skipped silently
	body, ct := multipartBody(t,
		map[string]string{"name": "B. Das", "payment": "200"},
		map[string]string{"x.txt": "nope", "scan.pdf": "PDFDATA"})
	resp := performRequest(r, http.MethodPost, "/add", body, ct)
	require.Equal(t, http.StatusFound, resp.Code)

	rec := onlyRecord(t, st)
	require.Equal(t, []string{"/files/" + rec.ID + "/scan.pdf"}, rec.Attachments)
	_, err := os.Stat(filepath.Join(uploadDir, rec.ID, "scan.pdf"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(uploadDir, rec.ID, "x.txt"))
	assert.True(t, os.IsNotExist(err))

	// edit form lists the stored attachment
	resp = performRequest(r, http.MethodGet, "/edit/"+rec.ID, nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "/files/"+rec.ID+"/scan.pdf")

	// removing the attachment deletes the blob and the list entry together
	resp = postForm(r, "/delete_pdf/"+rec.ID+"/scan.pdf", url.Values{})
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "/edit/"+rec.ID, resp.Header().Get("Location"))
	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Attachments)
	_, err = os.Stat(filepath.Join(uploadDir, rec.ID, "scan.pdf"))
	assert.True(t, os.IsNotExist(err))

	// unknown record is a no-op redirect
	resp = postForm(r, "/delete_pdf/no-such-id/scan.pdf", url.Values{})
	assert.Equal(t, http.StatusFound, resp.Code)
}

func TestDeleteRecordRemovesBlobs(t *testing.T) {
	r, st, uploadDir := setupTestServer(t)

	body, ct := multipartBody(t,
		map[string]string{"name": "C. Roy"},
		map[string]string{"proof.jpg": "JPEGDATA"})
	resp := performRequest(r, http.MethodPost, "/add", body, ct)
	require.Equal(t, http.StatusFound, resp.Code)
	rec := onlyRecord(t, st)

	resp = postForm(r, "/delete/"+rec.ID, url.Values{})
	require.Equal(t, http.StatusFound, resp.Code)
	_, err := os.Stat(filepath.Join(uploadDir, rec.ID))
	assert.True(t, os.IsNotExist(err))
	_, err = st.Get(context.Background(), rec.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEditAppendsNewAttachments(t *testing.T) {
	r, st, _ := setupTestServer(t)

	body, ct := multipartBody(t, map[string]string{"name": "D. Sen"},
		map[string]string{"first.pdf": "ONE"})
	resp := performRequest(r, http.MethodPost, "/add", body, ct)
	require.Equal(t, http.StatusFound, resp.Code)
	rec := onlyRecord(t, st)

	body, ct = multipartBody(t, map[string]string{"remark": "second visit"},
		map[string]string{"second.pdf": "TWO"})
	resp = performRequest(r, http.MethodPost, "/edit/"+rec.ID, body, ct)
	require.Equal(t, http.StatusFound, resp.Code)

	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/files/" + rec.ID + "/first.pdf",
		"/files/" + rec.ID + "/second.pdf",
	}, got.Attachments)
	assert.Equal(t, "second visit", got.Remark)
	assert.Equal(t, "D. Sen", got.Name)
}

func TestEditReuploadDoesNotDuplicateAttachment(t *testing.T) {
	r, st, uploadDir := setupTestServer(t)

	body, ct := multipartBody(t, map[string]string{"name": "E. Bora"},
		map[string]string{"scan.pdf": "FIRST"})
	resp := performRequest(r, http.MethodPost, "/add", body, ct)
	require.Equal(t, http.StatusFound, resp.Code)
	rec := onlyRecord(t, st)

	// re-uploading the same filename overwrites the blob; the list must
	// keep a single address for it
	body, ct = multipartBody(t, map[string]string{},
		map[string]string{"scan.pdf": "SECOND"})
	resp = performRequest(r, http.MethodPost, "/edit/"+rec.ID, body, ct)
	require.Equal(t, http.StatusFound, resp.Code)

	got, err := st.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"/files/" + rec.ID + "/scan.pdf"}, got.Attachments)
	b, err := os.ReadFile(filepath.Join(uploadDir, rec.ID, "scan.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "SECOND", string(b))
}

func TestConnectionProbe(t *testing.T) {
	r, _, _ := setupTestServer(t)
	resp := performRequest(r, http.MethodGet, "/test_connection", nil, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "ok", out["status"])
	assert.Equal(t, "memory", out["backend"])
}
