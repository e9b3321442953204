package mango

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Model is the base struct that all persisted mango models embed.
// It carries the document identifier, which stays zero until the first
// Save generates one (or the caller assigns one explicitly).
type Model struct {
	ID bson.ObjectID `bson:"_id,omitempty" mango:"blank"`
}

// TimeStamped is a Model with automatic created/modified timestamps.
// Created is set once on first save; Modified is refreshed on every save.
// Both are stored in UTC, truncated to millisecond precision, because
// MongoDB does not store finer resolution.
type TimeStamped struct {
	Model    `bson:",inline"`
	Created  time.Time `bson:"created"  mango:"blank,auto=created"`
	Modified time.Time `bson:"modified" mango:"blank,auto=modified"`
}
