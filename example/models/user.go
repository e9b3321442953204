package models

import (
	"github.com/mango-odm/mango"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role represents a user role.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleMod   Role = "mod"
)

// User is an example model demonstrating mango schema features.
// Fields are required unless tagged blank.
type User struct {
	mango.TimeStamped `bson:",inline"`
	Email             string        `bson:"email"    mango:"unique,index,format=email,min=5,max=100"`
	Name              string        `bson:"name"     mango:"immutable,min=2,max=60"`
	Role              Role          `bson:"role"     mango:"enum=admin|user|mod,default=user"`
	Age               int           `bson:"age"      mango:"blank,min=13,max=120"`
	Profile           bson.ObjectID `bson:"profile"  mango:"blank,ref=profiles"`
	Verified          bool          `bson:"verified" mango:"blank"`
}

// Indexes returns compound indexes for the User model.
func (u *User) Indexes() []mango.CompoundIndex {
	return []mango.CompoundIndex{
		mango.NewCompoundIndex("email", "role"),
	}
}

func init() {
	if err := mango.Register(&User{}, "users"); err != nil {
		panic(err)
	}
}
