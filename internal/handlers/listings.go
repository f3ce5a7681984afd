package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Aditya-Garg10/Listygo/internal/cache"
	"github.com/Aditya-Garg10/Listygo/internal/images"
	"github.com/Aditya-Garg10/Listygo/internal/models"
	"github.com/Aditya-Garg10/Listygo/internal/storage"
)

// reservedListingParams are query keys consumed by the list endpoint itself
// rather than matched against listing fields.
var reservedListingParams = map[string]struct{}{
	"select":   {},
	"sort":     {},
	"page":     {},
	"limit":    {},
	"search":   {},
	"location": {},
}

/* =======================
   LIST (PUBLIC)
======================= */

func GetListings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		filter := buildListingFilter(c)

		ctx := context.Background()

		total, err := db.Collection("listings").CountDocuments(ctx, filter)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(buildListingSort(c.Query("sort")))

		if projection := buildProjection(c.Query("select")); projection != nil {
			opts.SetProjection(projection)
		}

		cursor, err := db.Collection("listings").Find(ctx, filter, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer cursor.Close(ctx)

		listings := make([]models.Listing, 0)
		if err := cursor.All(ctx, &listings); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		pagination := gin.H{}
		if page*limit < total {
			pagination["next"] = gin.H{"page": page + 1, "limit": limit}
		}
		if page > 1 {
			pagination["prev"] = gin.H{"page": page - 1, "limit": limit}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"count":      len(listings),
			"totalCount": total,
			"totalPages": int64(math.Ceil(float64(total) / float64(limit))),
			"pagination": pagination,
			"data":       listings,
		})
	}
}

// buildListingFilter translates the public query grammar into a Mongo filter:
// free-text search, location match, and field filters with an optional
// gt/gte/lt/lte/in operator suffix, e.g. price[lte]=200 or rating[gte]=4.
func buildListingFilter(c *gin.Context) bson.M {
	filter := bson.M{}

	for key, values := range c.Request.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if _, reserved := reservedListingParams[key]; reserved {
			continue
		}

		field, op := splitFilterKey(key)
		if field == "" {
			continue
		}
		value := values[0]

		switch op {
		case "":
			filter[field] = coerceFilterValue(value)
		case "in":
			filter[field] = bson.M{"$in": coerceFilterValues(strings.Split(value, ","))}
		case "gt", "gte", "lt", "lte":
			merged, ok := filter[field].(bson.M)
			if !ok {
				merged = bson.M{}
			}
			merged["$"+op] = coerceFilterValue(value)
			filter[field] = merged
		}
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter["$or"] = []bson.M{
			{"name": bson.M{"$regex": search, "$options": "i"}},
			{"description": bson.M{"$regex": search, "$options": "i"}},
			{"location": bson.M{"$regex": search, "$options": "i"}},
		}
	}

	if location := strings.TrimSpace(c.Query("location")); location != "" {
		filter["location"] = bson.M{"$regex": location, "$options": "i"}
	}

	return filter
}

// splitFilterKey decomposes "price[gte]" into ("price", "gte"); a bare key
// has an empty operator. Unknown operators are dropped.
func splitFilterKey(key string) (string, string) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, ""
	}
	if !strings.HasSuffix(key, "]") {
		return "", ""
	}
	field := key[:open]
	op := key[open+1 : len(key)-1]
	switch op {
	case "gt", "gte", "lt", "lte", "in":
		return field, op
	default:
		return "", ""
	}
}

func coerceFilterValue(value string) interface{} {
	trimmed := strings.TrimSpace(value)
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(trimmed); err == nil {
		return b
	}
	if id, err := primitive.ObjectIDFromHex(trimmed); err == nil {
		return id
	}
	return trimmed
}

func coerceFilterValues(values []string) []interface{} {
	out := make([]interface{}, 0, len(values))
	for _, v := range values {
		out = append(out, coerceFilterValue(v))
	}
	return out
}

func buildListingSort(sortParam string) bson.D {
	sortParam = strings.TrimSpace(sortParam)
	if sortParam == "" {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	sort := bson.D{}
	for _, field := range strings.Split(sortParam, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		sort = append(sort, bson.E{Key: field, Value: order})
	}
	if len(sort) == 0 {
		return bson.D{{Key: "createdAt", Value: -1}}
	}
	return sort
}

func buildProjection(selectParam string) bson.M {
	selectParam = strings.TrimSpace(selectParam)
	if selectParam == "" {
		return nil
	}
	projection := bson.M{}
	for _, field := range strings.Split(selectParam, ",") {
		if field = strings.TrimSpace(field); field != "" {
			projection[field] = 1
		}
	}
	if len(projection) == 0 {
		return nil
	}
	return projection
}

/* =======================
   GET ONE (PUBLIC)
======================= */

func GetListing(db *mongo.Database, listingCache *cache.ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		ctx := context.Background()

		if cached, err := listingCache.Get(ctx, id.Hex()); err == nil && cached != nil {
			c.JSON(http.StatusOK, gin.H{"success": true, "data": cached})
			return
		} else if err != nil {
			zap.S().Warnw("listing cache read failed", "id", id.Hex(), "error", err)
		}

		var listing models.Listing
		err = db.Collection("listings").FindOne(ctx, bson.M{"_id": id}).Decode(&listing)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "listing not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if err := listingCache.Set(ctx, &listing); err != nil {
			zap.S().Warnw("listing cache write failed", "id", id.Hex(), "error", err)
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": listing})
	}
}

/* =======================
   FEATURED / BY CATEGORY (PUBLIC)
======================= */

func GetFeaturedListings(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		opts := options.Find().
			SetLimit(10).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("listings").Find(ctx, bson.M{"isFeatured": true}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer cursor.Close(ctx)

		listings := make([]models.Listing, 0)
		if err := cursor.All(ctx, &listings); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(listings), "data": listings})
	}
}

func GetListingsByCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		categoryID, err := primitive.ObjectIDFromHex(c.Param("categoryId"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid category id")
			return
		}

		ctx := context.Background()

		var category models.Category
		err = db.Collection("categories").FindOne(ctx, bson.M{"_id": categoryID}).Decode(&category)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		cursor, err := db.Collection("listings").Find(ctx, bson.M{"category": categoryID})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer cursor.Close(ctx)

		listings := make([]models.Listing, 0)
		if err := cursor.All(ctx, &listings); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"count":   len(listings),
			"category": gin.H{
				"id":   category.ID.Hex(),
				"name": category.Name,
				"slug": category.Slug,
			},
			"data": listings,
		})
	}
}

/* =======================
   CREATE
======================= */

func CreateListing(db *mongo.Database, ing storage.Ingestor, matcher images.Matcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMultipart(c) {
			respondError(c, http.StatusUnsupportedMediaType, "multipart/form-data required")
			return
		}

		input, err := parseListingForm(c, ing.MaxBytes)
		if err != nil {
			respondMultipartError(c, err)
			return
		}

		if !input.NameSet || input.Name == "" {
			respondError(c, http.StatusBadRequest, "name required")
			return
		}
		if !input.LocationSet || input.Location == "" {
			respondError(c, http.StatusBadRequest, "location required")
			return
		}
		if !input.PriceSet || input.Price <= 0 {
			respondError(c, http.StatusBadRequest, "invalid price")
			return
		}
		if !input.RatingSet || input.Rating < 1 || input.Rating > 5 {
			respondError(c, http.StatusBadRequest, "rating must be between 1 and 5")
			return
		}
		if !input.DescriptionSet || input.Description == "" {
			respondError(c, http.StatusBadRequest, "description required")
			return
		}

		ctx := context.Background()

		var categoryID *primitive.ObjectID
		if input.CategorySet && input.CategoryID != "" {
			id, err := primitive.ObjectIDFromHex(input.CategoryID)
			if err != nil {
				respondError(c, http.StatusBadRequest, "invalid category id")
				return
			}
			count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": id})
			if err != nil {
				respondError(c, http.StatusInternalServerError, "db error")
				return
			}
			if count == 0 {
				respondError(c, http.StatusNotFound, "category not found")
				return
			}
			categoryID = &id
		}

		uploaded, err := ing.Ingest(ctx, input.Files)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		res, err := matcher.Resolve(nil, uploaded, input.ImageURLs, input.ImageURLsSet, images.ModeReplaceAll, nil)
		if err != nil {
			storage.CompensateUploads(ctx, ing.Backend, uploaded)
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		finalImages, err := images.Guard(images.Dedupe(res.Candidate))
		if err != nil {
			storage.CompensateUploads(ctx, ing.Backend, uploaded)
			respondError(c, http.StatusBadRequest, "at least one image is required")
			return
		}

		var locationLink *string
		if input.LocationLinkSet && input.LocationLink != "" {
			locationLink = &input.LocationLink
		}

		now := time.Now()
		listing := models.Listing{
			Name:         input.Name,
			Location:     input.Location,
			LocationLink: locationLink,
			Price:        input.Price,
			Rating:       input.Rating,
			Description:  input.Description,
			Images:       models.StringList(finalImages),
			Amenities:    models.StringList(input.Amenities),
			Category:     categoryID,
			AddedBy:      c.MustGet("userId").(primitive.ObjectID),
			IsFeatured:   input.IsFeaturedSet && input.IsFeatured,
			Revision:     0,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		insert, err := db.Collection("listings").InsertOne(ctx, listing)
		if err != nil {
			zap.S().Errorw("create listing insert failed", "error", err)
			storage.CompensateUploads(ctx, ing.Backend, uploaded)
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		listing.ID = insert.InsertedID.(primitive.ObjectID)
		zap.S().Infow("listing created", "id", listing.ID.Hex(), "images", len(finalImages))
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": listing})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateListing(db *mongo.Database, ing storage.Ingestor, matcher images.Matcher, listingCache *cache.ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		var input ListingFormInput
		if isMultipart(c) {
			input, err = parseListingForm(c, ing.MaxBytes)
			if err != nil {
				respondMultipartError(c, err)
				return
			}
		} else {
			input, err = parseListingJSON(c)
			if err != nil {
				respondError(c, http.StatusBadRequest, err.Error())
				return
			}
		}

		ctx := context.Background()

		// ingestion completes (or fails atomically) before resolution begins
		uploaded, err := ing.Ingest(ctx, input.Files)
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		fail := func(status int, message string) {
			storage.CompensateUploads(ctx, ing.Backend, uploaded)
			respondError(c, status, message)
		}

		// removal directives act on freshly-fetched state, never a stale copy
		var existing models.Listing
		err = db.Collection("listings").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			fail(http.StatusNotFound, "listing not found")
			return
		}
		if err != nil {
			fail(http.StatusInternalServerError, "db error")
			return
		}

		if !callerMayEdit(c, existing.AddedBy) {
			fail(http.StatusForbidden, "not authorized to update this listing")
			return
		}

		updateSet := bson.M{}

		if input.NameSet {
			if input.Name == "" {
				fail(http.StatusBadRequest, "name required")
				return
			}
			updateSet["name"] = input.Name
		}
		if input.LocationSet {
			if input.Location == "" {
				fail(http.StatusBadRequest, "location required")
				return
			}
			updateSet["location"] = input.Location
		}
		if input.LocationLinkSet {
			if input.LocationLink == "" {
				updateSet["locationLink"] = nil
			} else {
				updateSet["locationLink"] = input.LocationLink
			}
		}
		if input.PriceSet {
			if input.Price <= 0 {
				fail(http.StatusBadRequest, "invalid price")
				return
			}
			updateSet["price"] = input.Price
		}
		if input.RatingSet {
			if input.Rating < 1 || input.Rating > 5 {
				fail(http.StatusBadRequest, "rating must be between 1 and 5")
				return
			}
			updateSet["rating"] = input.Rating
		}
		if input.DescriptionSet {
			updateSet["description"] = input.Description
		}
		if input.AmenitiesSet {
			updateSet["amenities"] = models.StringList(input.Amenities)
		}
		if input.IsFeaturedSet {
			updateSet["isFeatured"] = input.IsFeatured
		}
		if input.CategorySet {
			if input.CategoryID == "" {
				updateSet["category"] = nil
			} else {
				categoryID, err := primitive.ObjectIDFromHex(input.CategoryID)
				if err != nil {
					fail(http.StatusBadRequest, "invalid category id")
					return
				}
				count, err := db.Collection("categories").CountDocuments(ctx, bson.M{"_id": categoryID})
				if err != nil {
					fail(http.StatusInternalServerError, "db error")
					return
				}
				if count == 0 {
					fail(http.StatusNotFound, "category not found")
					return
				}
				updateSet["category"] = categoryID
			}
		}

		var removed []string
		imagesTouched := len(uploaded) > 0 || input.ImageURLsSet || len(input.Removals) > 0 || input.ReplaceImages
		if imagesTouched {
			mode := images.ModeAppend
			if input.ReplaceImages {
				mode = images.ModeReplaceAll
			}

			res, err := matcher.Resolve([]string(existing.Images), uploaded, input.ImageURLs, input.ImageURLsSet, mode, input.Removals)
			if err != nil {
				if errors.Is(err, images.ErrImageNotFound) {
					fail(http.StatusNotFound, err.Error())
					return
				}
				fail(http.StatusBadRequest, err.Error())
				return
			}

			finalImages, err := images.Guard(images.Dedupe(res.Candidate))
			if err != nil {
				fail(http.StatusBadRequest, "listing must keep at least one image")
				return
			}

			updateSet["images"] = models.StringList(finalImages)
			removed = res.Removed
		}

		if len(updateSet) == 0 {
			fail(http.StatusBadRequest, "no fields to update")
			return
		}
		updateSet["updatedAt"] = time.Now()

		// conditioned on the revision we resolved against: a concurrent
		// writer bumps it and this write matches nothing
		result, err := db.Collection("listings").UpdateOne(
			ctx,
			bson.M{"_id": id, "revision": existing.Revision},
			bson.M{"$set": updateSet, "$inc": bson.M{"revision": 1}},
		)
		if err != nil {
			fail(http.StatusInternalServerError, "db error")
			return
		}
		if result.MatchedCount == 0 {
			count, err := db.Collection("listings").CountDocuments(ctx, bson.M{"_id": id})
			if err == nil && count == 0 {
				fail(http.StatusNotFound, "listing not found")
				return
			}
			fail(http.StatusConflict, "listing was modified concurrently, retry with fresh state")
			return
		}

		if err := listingCache.Delete(ctx, id.Hex()); err != nil {
			zap.S().Warnw("listing cache invalidation failed", "id", id.Hex(), "error", err)
		}

		// cleanup runs strictly after the record write
		if len(removed) > 0 {
			storage.Cleanup(ctx, ing.Backend, removed)
		}

		var updated models.Listing
		if err := db.Collection("listings").FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": updated})
	}
}

/* =======================
   DELETE
======================= */

func DeleteListing(db *mongo.Database, backend storage.Backend, listingCache *cache.ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		ctx := context.Background()

		var existing models.Listing
		err = db.Collection("listings").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "listing not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if !callerMayEdit(c, existing.AddedBy) {
			respondError(c, http.StatusForbidden, "not authorized to delete this listing")
			return
		}

		if _, err := db.Collection("listings").DeleteOne(ctx, bson.M{"_id": id}); err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if err := listingCache.Delete(ctx, id.Hex()); err != nil {
			zap.S().Warnw("listing cache invalidation failed", "id", id.Hex(), "error", err)
		}

		storage.Cleanup(ctx, backend, []string(existing.Images))

		zap.S().Infow("listing deleted", "id", id.Hex(), "images", len(existing.Images))
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

// callerMayEdit implements the owner-or-admin rule. Role gating on the route
// already restricts mutations to admins; owners keep control of their own
// listings regardless.
func callerMayEdit(c *gin.Context, owner primitive.ObjectID) bool {
	role, _ := c.Get("role")
	if roleValue, _ := role.(string); roleValue == "admin" || roleValue == "super-admin" {
		return true
	}
	userID, ok := c.Get("userId")
	if !ok {
		return false
	}
	id, ok := userID.(primitive.ObjectID)
	return ok && id == owner
}
