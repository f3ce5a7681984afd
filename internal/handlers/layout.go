package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Aditya-Garg10/Listygo/internal/models"
	"github.com/Aditya-Garg10/Listygo/internal/storage"
)

// GetLayout returns the homepage layout singleton, creating an empty one on
// first access.
func GetLayout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		layout, err := fetchOrCreateLayout(context.Background(), db)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": layout})
	}
}

type layoutBody struct {
	Large1 *string `json:"large1"`
	Large2 *string `json:"large2"`
	Small1 *string `json:"small1"`
	Small2 *string `json:"small2"`
	Small3 *string `json:"small3"`
}

func UpdateLayout(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body layoutBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}

		update := bson.M{}
		for field, value := range map[string]*string{
			"large1": body.Large1,
			"large2": body.Large2,
			"small1": body.Small1,
			"small2": body.Small2,
			"small3": body.Small3,
		} {
			if value != nil {
				update[field] = strings.TrimSpace(*value)
			}
		}
		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, "no fields to update")
			return
		}
		update["lastUpdated"] = time.Now()

		ctx := context.Background()
		if _, err := fetchOrCreateLayout(ctx, db); err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		var layout models.Layout
		err := db.Collection("layouts").FindOneAndUpdate(
			ctx,
			bson.M{},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&layout)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": layout})
	}
}

// UploadLayoutImage stores a single slot image and returns its URL; the
// client then assigns it to a slot via UpdateLayout.
func UploadLayoutImage(ing storage.Ingestor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMultipart(c) {
			respondError(c, http.StatusUnsupportedMediaType, "multipart/form-data required")
			return
		}
		if err := c.Request.ParseMultipartForm(ing.MaxBytes); err != nil {
			respondMultipartError(c, err)
			return
		}

		form := c.Request.MultipartForm
		if form == nil || len(form.File["image"]) == 0 {
			respondError(c, http.StatusBadRequest, "image file required")
			return
		}

		urls, err := ing.Ingest(context.Background(), form.File["image"][:1])
		if err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		zap.S().Infow("layout image uploaded", "url", urls[0])
		c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"url": urls[0]}})
	}
}

func fetchOrCreateLayout(ctx context.Context, db *mongo.Database) (models.Layout, error) {
	var layout models.Layout
	err := db.Collection("layouts").FindOne(ctx, bson.M{}).Decode(&layout)
	if err == nil {
		return layout, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Layout{}, err
	}

	seed := models.Layout{LastUpdated: time.Now()}
	if _, err := db.Collection("layouts").InsertOne(ctx, seed); err != nil {
		return models.Layout{}, err
	}
	if err := db.Collection("layouts").FindOne(ctx, bson.M{}).Decode(&layout); err != nil {
		return models.Layout{}, err
	}
	return layout, nil
}
