package validation

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("chef@example.com"))
	assert.Error(t, ValidateEmail(""))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("Chef <chef@example.com>"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("tarte-tatin-42"))
	assert.Error(t, ValidatePassword("short"))
	assert.Error(t, ValidatePassword("mypassword99"))
	assert.Error(t, ValidatePassword(string(bytes.Repeat([]byte("a"), 73))))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("julia.child"))
	assert.Error(t, ValidateUsername("ab"))
	assert.Error(t, ValidateUsername("Julia"))
	assert.Error(t, ValidateUsername("-dash"))
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(5, 1, 5))
	assert.Error(t, ValidateRating(0, 1, 5))
	assert.Error(t, ValidateRating(6, 1, 5))
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("cv", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	_, header, err := req.FormFile("cv")
	require.NoError(t, err)
	return header
}

func TestValidateCV(t *testing.T) {
	assert.NoError(t, ValidateCV(fileHeader(t, "cv.pdf", []byte("%PDF-1.7\n..."))))
	assert.Error(t, ValidateCV(fileHeader(t, "cv.txt", []byte("plain text résumé"))))
	assert.Error(t, ValidateCV(fileHeader(t, "cv.docx", []byte("%PDF-1.7\n..."))))
}
