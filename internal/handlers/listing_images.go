package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Aditya-Garg10/Listygo/internal/cache"
	"github.com/Aditya-Garg10/Listygo/internal/images"
	"github.com/Aditya-Garg10/Listygo/internal/models"
	"github.com/Aditya-Garg10/Listygo/internal/storage"
)

type removeImageBody struct {
	Image string `json:"image" binding:"required"`
	Exact bool   `json:"exact"`
}

// DeleteListingImage removes a single image from a listing. The reference is
// matched after normalization unless exact is set. The last remaining image
// can never be removed.
func DeleteListingImage(db *mongo.Database, backend storage.Backend, matcher images.Matcher, listingCache *cache.ListingCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		var body removeImageBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondValidationError(c, err)
			return
		}
		body.Image = strings.TrimSpace(body.Image)
		if body.Image == "" {
			respondError(c, http.StatusBadRequest, "image required")
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
			respondError(c, http.StatusForbidden, "not authorized to update this listing")
			return
		}

		removal := images.Removal{Ref: body.Image, Exact: body.Exact}
		res, err := matcher.Resolve([]string(existing.Images), nil, nil, false, images.ModeAppend, []images.Removal{removal})
		if err != nil {
			if errors.Is(err, images.ErrImageNotFound) {
				respondError(c, http.StatusNotFound, "image not found on listing")
				return
			}
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		finalImages, err := images.Guard(images.Dedupe(res.Candidate))
		if err != nil {
			respondError(c, http.StatusBadRequest, "cannot remove the last image of a listing")
			return
		}

		result, err := db.Collection("listings").UpdateOne(
			ctx,
			bson.M{"_id": id, "revision": existing.Revision},
			bson.M{
				"$set": bson.M{"images": models.StringList(finalImages), "updatedAt": time.Now()},
				"$inc": bson.M{"revision": 1},
			},
		)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		if result.MatchedCount == 0 {
			count, err := db.Collection("listings").CountDocuments(ctx, bson.M{"_id": id})
			if err == nil && count == 0 {
				respondError(c, http.StatusNotFound, "listing not found")
				return
			}
			respondError(c, http.StatusConflict, "listing was modified concurrently, retry with fresh state")
			return
		}

		if err := listingCache.Delete(ctx, id.Hex()); err != nil {
			zap.S().Warnw("listing cache invalidation failed", "id", id.Hex(), "error", err)
		}

		storage.Cleanup(ctx, backend, res.Removed)

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"images": finalImages}})
	}
}
