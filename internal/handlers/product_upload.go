package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MultipartProductInput is a product form where every field is optional and
// the *Set flags tell which ones were sent.
type MultipartProductInput struct {
	Name           string
	NameSet        bool
	Description    string
	DescriptionSet bool
	SellPrice      float64
	SellPriceSet   bool
	PromoPrice     float64
	PromoPriceSet  bool
	ClearPromo     bool
	CategoryID     string
	CategoryIDSet  bool
	Badge          string
	BadgeSet       bool
	IsActive       bool
	IsActiveSet    bool
	IsFeatured     bool
	IsFeaturedSet  bool
	ImageURL       string
	ImageSet       bool
}

func parseMultipartProductRequest(c *gin.Context, uploads Uploads) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		return MultipartProductInput{}, err
	}

	input := MultipartProductInput{}

	if value, ok := lastPostForm(c, "name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}
	if value, ok := lastPostForm(c, "description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}
	if value, ok := lastPostForm(c, "badge"); ok {
		input.Badge = strings.TrimSpace(value)
		input.BadgeSet = true
	}
	if value, ok := lastPostForm(c, "categoryId"); ok {
		input.CategoryID = strings.TrimSpace(value)
		input.CategoryIDSet = true
	}

	if value, ok := lastPostForm(c, "sellPrice"); ok {
		parsed, err := parsePrice(value)
		if err != nil {
			return MultipartProductInput{}, errors.New("sellPrice must be a number")
		}
		input.SellPrice = parsed
		input.SellPriceSet = true
	}

	// an empty promoPrice field ends the promotion
	if value, ok := lastPostForm(c, "promoPrice"); ok {
		if strings.TrimSpace(value) == "" {
			input.ClearPromo = true
		} else {
			parsed, err := parsePrice(value)
			if err != nil {
				return MultipartProductInput{}, errors.New("promoPrice must be a number")
			}
			input.PromoPrice = parsed
			input.PromoPriceSet = true
		}
	}

	if value, ok := lastPostForm(c, "isActive"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, errors.New("isActive must be boolean")
		}
		input.IsActive = parsed
		input.IsActiveSet = true
	}
	if value, ok := lastPostForm(c, "isFeatured"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, errors.New("isFeatured must be boolean")
		}
		input.IsFeatured = parsed
		input.IsFeaturedSet = true
	}

	file, err := c.FormFile("image")
	if err == nil {
		url, err := uploads.Save(file, "products")
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.ImageURL = url
		input.ImageSet = true
	} else if !errors.Is(err, http.ErrMissingFile) {
		zap.L().Warn("product image unreadable", zap.Error(err))
		return MultipartProductInput{}, err
	}

	return input, nil
}

// lastPostForm returns the last value sent for key. Forms with a hidden
// fallback input before a checkbox send the field twice.
func lastPostForm(c *gin.Context, key string) (string, bool) {
	values, ok := c.GetPostFormArray(key)
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[len(values)-1], true
}

func parsePrice(value string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(strings.TrimSpace(value), ",", ".", 1), 64)
}

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}

func respondMultipartError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
