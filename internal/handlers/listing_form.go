package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Aditya-Garg10/Listygo/internal/images"
)

// ListingFormInput is the decoded multipart create/update payload. The Set
// flags distinguish "field absent" from "field set to its zero value".
type ListingFormInput struct {
	Name            string
	NameSet         bool
	Location        string
	LocationSet     bool
	LocationLink    string
	LocationLinkSet bool
	Price           float64
	PriceSet        bool
	Rating          float64
	RatingSet       bool
	Description     string
	DescriptionSet  bool
	CategoryID      string
	CategorySet     bool
	Amenities       []string
	AmenitiesSet    bool
	IsFeatured      bool
	IsFeaturedSet   bool

	Files []*multipart.FileHeader

	// ImageURLs is the client-asserted URL list (the imageUrls form field).
	ImageURLs    []string
	ImageURLsSet bool

	// ReplaceImages selects full replacement over append.
	ReplaceImages bool

	// Removals collects removeImages (normalized match) and
	// removeImagesExact (byte-exact match) directives, in field order.
	Removals []images.Removal
}

func parseListingForm(c *gin.Context, maxMemory int64) (ListingFormInput, error) {
	if err := c.Request.ParseMultipartForm(maxMemory); err != nil {
		return ListingFormInput{}, err
	}

	input := ListingFormInput{}

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := c.GetPostForm("location"); ok {
		input.Location = strings.TrimSpace(value)
		input.LocationSet = true
	}
	if value, ok := c.GetPostForm("locationLink"); ok {
		input.LocationLink = strings.TrimSpace(value)
		input.LocationLinkSet = true
	}
	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := c.GetPostForm("category"); ok {
		input.CategoryID = strings.TrimSpace(value)
		input.CategorySet = true
	}

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("invalid price: %s", value)
		}
		input.Price = parsed
		input.PriceSet = true
	}
	if value, ok := c.GetPostForm("rating"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("invalid rating: %s", value)
		}
		input.Rating = parsed
		input.RatingSet = true
	}

	if value, ok := c.GetPostForm("isFeatured"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("isFeatured must be boolean")
		}
		input.IsFeatured = parsed
		input.IsFeaturedSet = true
	}

	if amenities := c.PostFormArray("amenities"); len(amenities) > 0 {
		input.Amenities = trimAll(amenities)
		input.AmenitiesSet = true
	}

	if value, ok := c.GetPostForm("imageUrls"); ok {
		urls, err := parseStringArray(value)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("imageUrls must be a JSON array of strings")
		}
		input.ImageURLs = urls
		input.ImageURLsSet = true
	}

	if value, ok := c.GetPostForm("replaceImages"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("replaceImages must be boolean")
		}
		input.ReplaceImages = parsed
	}

	if value, ok := c.GetPostForm("removeImages"); ok {
		refs, err := parseStringArray(value)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("removeImages must be a JSON array of strings")
		}
		for _, ref := range refs {
			input.Removals = append(input.Removals, images.Removal{Ref: ref})
		}
	}
	if value, ok := c.GetPostForm("removeImagesExact"); ok {
		refs, err := parseStringArray(value)
		if err != nil {
			return ListingFormInput{}, fmt.Errorf("removeImagesExact must be a JSON array of strings")
		}
		for _, ref := range refs {
			input.Removals = append(input.Removals, images.Removal{Ref: ref, Exact: true})
		}
	}

	if form := c.Request.MultipartForm; form != nil {
		input.Files = form.File["images"]
	}

	return input, nil
}

// listingJSONBody mirrors the multipart field set for JSON update requests.
// Pointer fields distinguish absent from zero-valued.
type listingJSONBody struct {
	Name              *string   `json:"name"`
	Location          *string   `json:"location"`
	LocationLink      *string   `json:"locationLink"`
	Price             *float64  `json:"price"`
	Rating            *float64  `json:"rating"`
	Description       *string   `json:"description"`
	Category          *string   `json:"category"`
	Amenities         *[]string `json:"amenities"`
	IsFeatured        *bool     `json:"isFeatured"`
	ImageURLs         *[]string `json:"imageUrls"`
	ReplaceImages     bool      `json:"replaceImages"`
	RemoveImages      []string  `json:"removeImages"`
	RemoveImagesExact []string  `json:"removeImagesExact"`
}

func parseListingJSON(c *gin.Context) (ListingFormInput, error) {
	var body listingJSONBody
	if err := c.ShouldBindJSON(&body); err != nil {
		return ListingFormInput{}, fmt.Errorf("invalid body: %w", err)
	}

	input := ListingFormInput{ReplaceImages: body.ReplaceImages}

	if body.Name != nil {
		input.Name = strings.TrimSpace(*body.Name)
		input.NameSet = true
	}
	if body.Location != nil {
		input.Location = strings.TrimSpace(*body.Location)
		input.LocationSet = true
	}
	if body.LocationLink != nil {
		input.LocationLink = strings.TrimSpace(*body.LocationLink)
		input.LocationLinkSet = true
	}
	if body.Price != nil {
		input.Price = *body.Price
		input.PriceSet = true
	}
	if body.Rating != nil {
		input.Rating = *body.Rating
		input.RatingSet = true
	}
	if body.Description != nil {
		input.Description = strings.TrimSpace(*body.Description)
		input.DescriptionSet = true
	}
	if body.Category != nil {
		input.CategoryID = strings.TrimSpace(*body.Category)
		input.CategorySet = true
	}
	if body.Amenities != nil {
		input.Amenities = trimAll(*body.Amenities)
		input.AmenitiesSet = true
	}
	if body.IsFeatured != nil {
		input.IsFeatured = *body.IsFeatured
		input.IsFeaturedSet = true
	}
	if body.ImageURLs != nil {
		input.ImageURLs = trimAll(*body.ImageURLs)
		input.ImageURLsSet = true
	}
	for _, ref := range body.RemoveImages {
		input.Removals = append(input.Removals, images.Removal{Ref: ref})
	}
	for _, ref := range body.RemoveImagesExact {
		input.Removals = append(input.Removals, images.Removal{Ref: ref, Exact: true})
	}

	return input, nil
}

// parseStringArray accepts a JSON array or, tolerantly, a single bare URL
// (some frontend versions send the field unencoded).
func parseStringArray(value string) ([]string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var urls []string
		if err := json.Unmarshal([]byte(trimmed), &urls); err != nil {
			return nil, err
		}
		return trimAll(urls), nil
	}
	return []string{trimmed}, nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data")
}

func respondMultipartError(c *gin.Context, err error) {
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		respondError(c, http.StatusUnsupportedMediaType, "multipart/form-data required")
		return
	}
	respondError(c, http.StatusBadRequest, err.Error())
}
