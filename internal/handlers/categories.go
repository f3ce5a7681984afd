package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Aditya-Garg10/Listygo/internal/models"
)

func GetCategories(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		filter := bson.M{}
		if c.Query("includeInactive") != "true" {
			filter["isActive"] = true
		}

		cursor, err := db.Collection("categories").Find(ctx, filter,
			options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer cursor.Close(ctx)

		categories := make([]models.Category, 0)
		if err := cursor.All(ctx, &categories); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": len(categories), "data": categories})
	}
}

func GetCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		ref := c.Param("id")

		// id first, slug as fallback so /categories/hotels works too
		filter := bson.M{"slug": ref}
		if id, err := primitive.ObjectIDFromHex(ref); err == nil {
			filter = bson.M{"_id": id}
		}

		var category models.Category
		err := db.Collection("categories").FindOne(ctx, filter).Decode(&category)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
	}
}

type categoryBody struct {
	Name        string `json:"name" validate:"required"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func CreateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body categoryBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}
		if err := validate.Struct(body); err != nil {
			respondValidationError(c, err)
			return
		}

		isActive := true
		if body.IsActive != nil {
			isActive = *body.IsActive
		}

		category := models.Category{
			Name:        strings.TrimSpace(body.Name),
			Slug:        slugify(body.Name),
			Icon:        strings.TrimSpace(body.Icon),
			Description: strings.TrimSpace(body.Description),
			IsActive:    isActive,
			CreatedAt:   time.Now(),
		}
		if category.Slug == "" {
			respondError(c, http.StatusBadRequest, "name must contain letters or digits")
			return
		}

		insert, err := db.Collection("categories").InsertOne(context.Background(), category)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, "category already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		category.ID = insert.InsertedID.(primitive.ObjectID)

		c.JSON(http.StatusCreated, gin.H{"success": true, "data": category})
	}
}

type updateCategoryBody struct {
	Name        *string `json:"name"`
	Icon        *string `json:"icon"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

func UpdateCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		var body updateCategoryBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}

		update := bson.M{}
		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			slug := slugify(name)
			if name == "" || slug == "" {
				respondError(c, http.StatusBadRequest, "name must contain letters or digits")
				return
			}
			update["name"] = name
			update["slug"] = slug
		}
		if body.Icon != nil {
			update["icon"] = strings.TrimSpace(*body.Icon)
		}
		if body.Description != nil {
			update["description"] = strings.TrimSpace(*body.Description)
		}
		if body.IsActive != nil {
			update["isActive"] = *body.IsActive
		}
		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, "no fields to update")
			return
		}

		var category models.Category
		err = db.Collection("categories").FindOneAndUpdate(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&category)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, "category already exists")
				return
			}
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": category})
	}
}

// DeleteCategory refuses to delete a category that still has listings
// attached; detaching them first keeps listing.category references valid.
func DeleteCategory(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid id")
			return
		}

		ctx := context.Background()

		inUse, err := db.Collection("listings").CountDocuments(ctx, bson.M{"category": id})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		if inUse > 0 {
			respondError(c, http.StatusConflict, "category has listings attached")
			return
		}

		result, err := db.Collection("categories").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		if result.DeletedCount == 0 {
			respondError(c, http.StatusNotFound, "category not found")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}
