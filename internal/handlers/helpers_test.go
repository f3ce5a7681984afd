package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), page)
	assert.Equal(t, int64(10), limit)

	page, limit, err = parsePaginationParams("3", "25")
	require.NoError(t, err)
	assert.Equal(t, int64(3), page)
	assert.Equal(t, int64(25), limit)

	_, _, err = parsePaginationParams("0", "")
	assert.Error(t, err)

	_, _, err = parsePaginationParams("x", "10")
	assert.Error(t, err)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "beach-resorts", slugify("  Beach Resorts "))
	assert.Equal(t, "cafes-bars", slugify("Cafés & Bars"))
	assert.Equal(t, "", slugify("!!!"))
}

func queryContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/listings?"+rawQuery, nil)
	return c
}

func TestBuildListingFilterOperators(t *testing.T) {
	c := queryContext(t, "price[gte]=100&price[lte]=500&rating[gte]=4&isFeatured=true")

	filter := buildListingFilter(c)

	assert.Equal(t, bson.M{"$gte": 100.0, "$lte": 500.0}, filter["price"])
	assert.Equal(t, bson.M{"$gte": 4.0}, filter["rating"])
	assert.Equal(t, true, filter["isFeatured"])
}

func TestBuildListingFilterReservedAndSearch(t *testing.T) {
	c := queryContext(t, "search=beach&page=2&limit=5&sort=-price")

	filter := buildListingFilter(c)

	assert.NotContains(t, filter, "page")
	assert.NotContains(t, filter, "limit")
	assert.NotContains(t, filter, "sort")
	or, ok := filter["$or"].([]bson.M)
	require.True(t, ok)
	assert.Len(t, or, 3)
}

func TestSplitFilterKey(t *testing.T) {
	field, op := splitFilterKey("price[gte]")
	assert.Equal(t, "price", field)
	assert.Equal(t, "gte", op)

	field, op = splitFilterKey("name")
	assert.Equal(t, "name", field)
	assert.Equal(t, "", op)

	field, _ = splitFilterKey("price[regex]")
	assert.Equal(t, "", field)
}

func TestBuildListingSort(t *testing.T) {
	sort := buildListingSort("")
	require.Len(t, sort, 1)
	assert.Equal(t, "createdAt", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)

	sort = buildListingSort("-price,name")
	require.Len(t, sort, 2)
	assert.Equal(t, "price", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
	assert.Equal(t, "name", sort[1].Key)
	assert.Equal(t, 1, sort[1].Value)
}

func TestBuildProjection(t *testing.T) {
	assert.Nil(t, buildProjection(""))
	assert.Equal(t, bson.M{"name": 1, "price": 1}, buildProjection("name, price"))
}
