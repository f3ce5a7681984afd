package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aditya-Garg10/Listygo/internal/images"
)

func multipartContext(t *testing.T, fields map[string]string, fileNames []string) *gin.Context {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	for _, name := range fileNames {
		part, err := writer.CreateFormFile("images", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("fake image bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(http.MethodPost, "/api/listings", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.Request = req
	return c
}

func TestParseListingFormFields(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"name":        "  Sea View Hotel ",
		"location":    "Goa",
		"price":       "120.50",
		"rating":      "4.5",
		"description": "nice place",
		"isFeatured":  "on",
		"imageUrls":   `["https://cdn.example.com/a.jpg"]`,
	}, []string{"room.jpg"})

	input, err := parseListingForm(c, 32<<20)
	require.NoError(t, err)

	assert.True(t, input.NameSet)
	assert.Equal(t, "Sea View Hotel", input.Name)
	assert.Equal(t, 120.50, input.Price)
	assert.Equal(t, 4.5, input.Rating)
	assert.True(t, input.IsFeatured)
	assert.True(t, input.ImageURLsSet)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, input.ImageURLs)
	assert.Len(t, input.Files, 1)
	assert.False(t, input.LocationLinkSet)
}

func TestParseListingFormAbsentVersusEmpty(t *testing.T) {
	c := multipartContext(t, map[string]string{"locationLink": ""}, nil)

	input, err := parseListingForm(c, 32<<20)
	require.NoError(t, err)

	assert.True(t, input.LocationLinkSet)
	assert.Equal(t, "", input.LocationLink)
	assert.False(t, input.NameSet)
	assert.False(t, input.ImageURLsSet)
}

func TestParseListingFormRemovals(t *testing.T) {
	c := multipartContext(t, map[string]string{
		"removeImages":      `["https://cdn.example.com/a.jpg"]`,
		"removeImagesExact": `["https://cdn.example.com/b.jpg"]`,
	}, nil)

	input, err := parseListingForm(c, 32<<20)
	require.NoError(t, err)

	require.Len(t, input.Removals, 2)
	assert.Equal(t, images.Removal{Ref: "https://cdn.example.com/a.jpg"}, input.Removals[0])
	assert.Equal(t, images.Removal{Ref: "https://cdn.example.com/b.jpg", Exact: true}, input.Removals[1])
}

func TestParseListingFormBadPrice(t *testing.T) {
	c := multipartContext(t, map[string]string{"price": "abc"}, nil)

	_, err := parseListingForm(c, 32<<20)
	assert.Error(t, err)
}

func TestParseStringArrayToleratesBareURL(t *testing.T) {
	urls, err := parseStringArray("https://cdn.example.com/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://cdn.example.com/a.jpg"}, urls)

	urls, err = parseStringArray("")
	require.NoError(t, err)
	assert.Empty(t, urls)

	_, err = parseStringArray(`["broken`)
	assert.Error(t, err)
}

func TestParseListingJSON(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body := `{
		"name": "Updated",
		"rating": 3,
		"replaceImages": true,
		"imageUrls": ["https://cdn.example.com/a.jpg"],
		"removeImages": ["https://cdn.example.com/old.jpg"]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/listings/1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	input, err := parseListingJSON(c)
	require.NoError(t, err)

	assert.True(t, input.NameSet)
	assert.Equal(t, "Updated", input.Name)
	assert.True(t, input.RatingSet)
	assert.False(t, input.PriceSet)
	assert.True(t, input.ReplaceImages)
	assert.True(t, input.ImageURLsSet)
	require.Len(t, input.Removals, 1)
	assert.Equal(t, "https://cdn.example.com/old.jpg", input.Removals[0].Ref)
}
