// internal/handlers/evidence_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/countsync/internal/handlers"
)

func multipartRequest(t *testing.T, businessID uuid.UUID, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/inventory/counts/evidence", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Business-ID", businessID.String())
	return req
}

func TestEvidenceHandler_UploadEvidence(t *testing.T) {
	businessID := uuid.New()

	t.Run("stores_image", func(t *testing.T) {
		ts := newTestServer(t)
		ts.store.EXPECT().
			Upload(gomock.Any(), gomock.Any(), gomock.Any(), "image/jpeg").
			DoAndReturn(func(_ context.Context, key string, body io.Reader, _ string) (string, error) {
				assert.True(t, strings.HasPrefix(key, "evidence/"+businessID.String()+"/"))
				assert.True(t, strings.HasSuffix(key, ".jpg"))
				data, _ := io.ReadAll(body)
				assert.Equal(t, []byte("jpeg-bytes"), data)
				return "location", nil
			})
		ts.store.EXPECT().GetPresignedURL(gomock.Any(), gomock.Any(), gomock.Any()).Return("https://signed", nil)

		w := httptest.NewRecorder()
		ts.mux.ServeHTTP(w, multipartRequest(t, businessID, "shelf.JPG", "image/jpeg", []byte("jpeg-bytes")))

		require.Equal(t, http.StatusCreated, w.Code)
		resp := decodeBody[handlers.EvidenceResponse](t, w)
		assert.Equal(t, "https://signed", resp.URL)
		assert.Equal(t, int64(10), resp.Size)
	})

	t.Run("rejects_other_types", func(t *testing.T) {
		ts := newTestServer(t)
		w := httptest.NewRecorder()
		ts.mux.ServeHTTP(w, multipartRequest(t, businessID, "notes.pdf", "application/pdf", []byte("%PDF")))
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("rejects_oversized_files", func(t *testing.T) {
		ts := newTestServer(t)
		w := httptest.NewRecorder()
		ts.mux.ServeHTTP(w, multipartRequest(t, businessID, "big.m4a", "audio/mp4", bytes.Repeat([]byte{1}, 2<<20)))
		assert.Contains(t, []int{http.StatusBadRequest, http.StatusRequestEntityTooLarge}, w.Code)
	})

	t.Run("store_failure", func(t *testing.T) {
		ts := newTestServer(t)
		ts.store.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("bucket gone"))

		w := httptest.NewRecorder()
		ts.mux.ServeHTTP(w, multipartRequest(t, businessID, "note.m4a", "audio/mp4", []byte("aac")))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestEvidenceHandler_GetEvidenceURL(t *testing.T) {
	businessID := uuid.New()
	own := "evidence/" + businessID.String() + "/2024/03/01/a.jpg"

	ts := newTestServer(t)
	ts.store.EXPECT().GetPresignedURL(gomock.Any(), own, gomock.Any()).Return("https://signed/a", nil)

	w := ts.do(http.MethodGet, "/api/v1/inventory/counts/evidence?key="+own, businessID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://signed/a", decodeBody[handlers.EvidenceResponse](t, w).URL)

	other := "evidence/" + uuid.NewString() + "/2024/03/01/a.jpg"
	w = ts.do(http.MethodGet, "/api/v1/inventory/counts/evidence?key="+other, businessID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(http.MethodGet, "/api/v1/inventory/counts/evidence", businessID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
