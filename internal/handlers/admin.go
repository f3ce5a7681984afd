package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aditya-Garg10/Listygo/internal/models"
)

var validate = validator.New()

type registerAdminBody struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=admin super-admin"`
}

// RegisterAdmin creates a new admin account. Only a super-admin reaches this
// handler; the route is gated by middleware.Authorize("super-admin").
func RegisterAdmin(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body registerAdminBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}
		if err := validate.Struct(body); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx := context.Background()
		email := strings.ToLower(strings.TrimSpace(body.Email))

		count, err := db.Collection("admins").CountDocuments(ctx, bson.M{"email": email})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		if count > 0 {
			respondError(c, http.StatusConflict, "email already registered")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "could not hash password")
			return
		}

		role := body.Role
		if role == "" {
			role = "admin"
		}

		admin := models.Admin{
			Name:         strings.TrimSpace(body.Name),
			Email:        email,
			PasswordHash: string(hash),
			Role:         role,
			CreatedAt:    time.Now(),
		}

		insert, err := db.Collection("admins").InsertOne(ctx, admin)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, "email already registered")
				return
			}
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		admin.ID = insert.InsertedID.(primitive.ObjectID)

		zap.S().Infow("admin registered", "id", admin.ID.Hex(), "role", admin.Role)
		sendTokenResponse(c, http.StatusCreated, admin.ID.Hex(), admin.Role, admin.Email, admin)
	}
}

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func LoginAdmin(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body loginBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}
		if err := validate.Struct(body); err != nil {
			respondValidationError(c, err)
			return
		}

		ctx := context.Background()

		var admin models.Admin
		err := db.Collection("admins").
			FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(body.Email))}).
			Decode(&admin)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(body.Password)) != nil {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}

		sendTokenResponse(c, http.StatusOK, admin.ID.Hex(), admin.Role, admin.Email, admin)
	}
}

func LogoutAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		clearTokenCookie(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

func GetAdminMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.MustGet("userId").(primitive.ObjectID)

		var admin models.Admin
		err := db.Collection("admins").FindOne(context.Background(), bson.M{"_id": id}).Decode(&admin)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "admin not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": admin})
	}
}

type updateDetailsBody struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
}

func UpdateAdminDetails(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body updateDetailsBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}
		if err := validate.Struct(body); err != nil {
			respondValidationError(c, err)
			return
		}

		update := bson.M{}
		if name := strings.TrimSpace(body.Name); name != "" {
			update["name"] = name
		}
		if email := strings.ToLower(strings.TrimSpace(body.Email)); email != "" {
			update["email"] = email
		}
		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, "no fields to update")
			return
		}

		id := c.MustGet("userId").(primitive.ObjectID)
		ctx := context.Background()

		var admin models.Admin
		err := db.Collection("admins").FindOneAndUpdate(
			ctx,
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&admin)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "admin not found")
			return
		}
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, "email already registered")
				return
			}
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": admin})
	}
}

type updatePasswordBody struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

func UpdateAdminPassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body updatePasswordBody
		if err := c.ShouldBindJSON(&body); err != nil {
			respondError(c, http.StatusBadRequest, "invalid body")
			return
		}
		if err := validate.Struct(body); err != nil {
			respondValidationError(c, err)
			return
		}

		id := c.MustGet("userId").(primitive.ObjectID)
		ctx := context.Background()

		var admin models.Admin
		err := db.Collection("admins").FindOne(ctx, bson.M{"_id": id}).Decode(&admin)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(body.CurrentPassword)) != nil {
			respondError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "could not hash password")
			return
		}

		_, err = db.Collection("admins").UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{"passwordHash": string(hash)}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		sendTokenResponse(c, http.StatusOK, admin.ID.Hex(), admin.Role, admin.Email, admin)
	}
}

// AdminDashboard aggregates the counts and recent records the admin home
// screen renders.
func AdminDashboard(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()

		listingCount, err := db.Collection("listings").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		userCount, err := db.Collection("users").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		categoryCount, err := db.Collection("categories").CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(5)
		cursor, err := db.Collection("listings").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer cursor.Close(ctx)

		recentListings := make([]models.Listing, 0, 5)
		if err := cursor.All(ctx, &recentListings); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		userCursor, err := db.Collection("users").Find(ctx, bson.M{}, opts)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		defer userCursor.Close(ctx)

		recentUsers := make([]models.User, 0, 5)
		if err := userCursor.All(ctx, &recentUsers); err != nil {
			respondError(c, http.StatusInternalServerError, "decode error")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"totalListings":   listingCount,
				"totalUsers":      userCount,
				"totalCategories": categoryCount,
				"recentListings":  recentListings,
				"recentUsers":     recentUsers,
			},
		})
	}
}
