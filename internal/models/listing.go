package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Listing is the persisted listing document. Images is ordered (display
// priority) and never empty after a successful write. Revision is an opaque
// optimistic-lock token: updates are conditioned on the revision the caller
// observed and bump it on every write.
type Listing struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Location     string              `bson:"location" json:"location"`
	LocationLink *string             `bson:"locationLink" json:"locationLink"`
	Price        float64             `bson:"price" json:"price"`
	Rating       float64             `bson:"rating" json:"rating"`
	Description  string              `bson:"description" json:"description"`
	Images       StringList          `bson:"images" json:"images"`
	Amenities    StringList          `bson:"amenities,omitempty" json:"amenities,omitempty"`
	Category     *primitive.ObjectID `bson:"category,omitempty" json:"category,omitempty"`
	AddedBy      primitive.ObjectID  `bson:"addedBy" json:"addedBy"`
	IsFeatured   bool                `bson:"isFeatured" json:"isFeatured"`
	Revision     int64               `bson:"revision" json:"-"`
	CreatedAt    time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `bson:"updatedAt" json:"updatedAt"`
}
