package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Layout is the singleton homepage layout configuration.
type Layout struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Large1      string             `bson:"large1" json:"large1"`
	Large2      string             `bson:"large2" json:"large2"`
	Small1      string             `bson:"small1" json:"small1"`
	Small2      string             `bson:"small2" json:"small2"`
	Small3      string             `bson:"small3" json:"small3"`
	LastUpdated time.Time          `bson:"lastUpdated" json:"lastUpdated"`
}
