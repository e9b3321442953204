package models

import (
	"github.com/mango-odm/mango"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Status represents a post publication status.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Comment is an embedded document; it has no collection of its own and is
// validated as part of its containing Post.
type Comment struct {
	Author string `bson:"author" mango:"min=2,max=60"`
	Text   string `bson:"text"   mango:"min=1,max=2000"`
}

// Post is an example model for blog posts.
type Post struct {
	mango.TimeStamped `bson:",inline"`
	Title             string        `bson:"title"    mango:"min=1,max=200"`
	Body              string        `bson:"body"`
	Author            bson.ObjectID `bson:"author"   mango:"index,ref=users"`
	Status            Status        `bson:"status"   mango:"enum=draft|published|archived,default=draft"`
	Tags              []string      `bson:"tags"     mango:"blank,index"`
	Comments          []Comment     `bson:"comments" mango:"blank"`
}

// Indexes returns compound indexes for the Post model.
func (p *Post) Indexes() []mango.CompoundIndex {
	return []mango.CompoundIndex{
		mango.NewCompoundIndex("author", "status"),
		mango.NewUniqueCompoundIndex("title", "author"),
	}
}

func init() {
	if err := mango.Register(&Post{}, "posts"); err != nil {
		panic(err)
	}
}
