package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Restaurant struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name            string             `bson:"name" json:"name"`
	Document        string             `bson:"document,omitempty" json:"document,omitempty"`
	Phone           string             `bson:"phone,omitempty" json:"phone,omitempty"`
	LogoURL         string             `bson:"logoUrl,omitempty" json:"logoUrl,omitempty"`
	BannerURL       string             `bson:"bannerUrl,omitempty" json:"bannerUrl,omitempty"`
	PrimaryColor    string             `bson:"primaryColor,omitempty" json:"primaryColor,omitempty"`
	NameColor       string             `bson:"nameColor,omitempty" json:"nameColor,omitempty"`
	PromoBannerText string             `bson:"promoBannerText,omitempty" json:"promoBannerText,omitempty"`
	OpenTime        string             `bson:"openTime,omitempty" json:"openTime,omitempty"`
	CloseTime       string             `bson:"closeTime,omitempty" json:"closeTime,omitempty"`
	IsOpen          bool               `bson:"isOpen" json:"isOpen"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}
