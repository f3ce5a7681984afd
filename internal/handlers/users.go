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
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aditya-Garg10/Listygo/internal/models"
)

type registerUserBody struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone"`
}

func RegisterUser(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body registerUserBody
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

		count, err := db.Collection("users").CountDocuments(ctx, bson.M{"email": email})
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

		now := time.Now()
		user := models.User{
			Name:         strings.TrimSpace(body.Name),
			Email:        email,
			PasswordHash: string(hash),
			Phone:        strings.TrimSpace(body.Phone),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		insert, err := db.Collection("users").InsertOne(ctx, user)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				respondError(c, http.StatusConflict, "email already registered")
				return
			}
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}
		user.ID = insert.InsertedID.(primitive.ObjectID)

		zap.S().Infow("user registered", "id", user.ID.Hex())
		sendTokenResponse(c, http.StatusCreated, user.ID.Hex(), "user", user.Email, user)
	}
}

func LoginUser(db *mongo.Database) gin.HandlerFunc {
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

		var user models.User
		err := db.Collection("users").
			FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(body.Email))}).
			Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
			respondError(c, http.StatusUnauthorized, "invalid credentials")
			return
		}

		sendTokenResponse(c, http.StatusOK, user.ID.Hex(), "user", user.Email, user)
	}
}

func LogoutUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		clearTokenCookie(c)
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{}})
	}
}

func GetUserMe(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.MustGet("userId").(primitive.ObjectID)

		var user models.User
		err := db.Collection("users").FindOne(context.Background(), bson.M{"_id": id}).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "user not found")
			return
		}
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
	}
}

type updateUserDetailsBody struct {
	Name   string `json:"name"`
	Email  string `json:"email" validate:"omitempty,email"`
	Phone  string `json:"phone"`
	Avatar string `json:"avatar"`
}

func UpdateUserDetails(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body updateUserDetailsBody
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
		if phone := strings.TrimSpace(body.Phone); phone != "" {
			update["phone"] = phone
		}
		if avatar := strings.TrimSpace(body.Avatar); avatar != "" {
			update["avatar"] = avatar
		}
		if len(update) == 0 {
			respondError(c, http.StatusBadRequest, "no fields to update")
			return
		}
		update["updatedAt"] = time.Now()

		id := c.MustGet("userId").(primitive.ObjectID)

		var user models.User
		err := db.Collection("users").FindOneAndUpdate(
			context.Background(),
			bson.M{"_id": id},
			bson.M{"$set": update},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&user)
		if err == mongo.ErrNoDocuments {
			respondError(c, http.StatusNotFound, "user not found")
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

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
	}
}

func UpdateUserPassword(db *mongo.Database) gin.HandlerFunc {
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

		var user models.User
		if err := db.Collection("users").FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.CurrentPassword)) != nil {
			respondError(c, http.StatusUnauthorized, "current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, http.StatusInternalServerError, "could not hash password")
			return
		}

		_, err = db.Collection("users").UpdateOne(ctx, bson.M{"_id": id},
			bson.M{"$set": bson.M{"passwordHash": string(hash), "updatedAt": time.Now()}})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "db error")
			return
		}

		sendTokenResponse(c, http.StatusOK, user.ID.Hex(), "user", user.Email, user)
	}
}
