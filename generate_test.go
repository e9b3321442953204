package mango

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discoveredUsers() DiscoveredCollection {
	return DiscoveredCollection{
		Name: "users",
		Fields: []DiscoveredField{
			{BSONName: "_id", GoType: "bson.ObjectID", IsRequired: true},
			{BSONName: "email", GoType: "string", IsRequired: true, IsUnique: true},
			{BSONName: "name", GoType: "string", IsRequired: true},
			{BSONName: "age", GoType: "int64"},
			{BSONName: "last_login", GoType: "time.Time"},
			{BSONName: "created", GoType: "time.Time", IsRequired: true},
			{BSONName: "modified", GoType: "time.Time", IsRequired: true},
		},
	}
}

func TestGenerateModel(t *testing.T) {
	src, err := GenerateModel(discoveredUsers(), GenerateOptions{
		PackageName: "models",
		EmbedModel:  true,
	})
	require.NoError(t, err)
	out := string(src)

	assert.Contains(t, out, "package models")
	assert.Contains(t, out, "type User struct {")
	// created+modified discovered → TimeStamped embed, and the three
	// managed fields drop out of the struct body.
	assert.Contains(t, out, "mango.TimeStamped `bson:\",inline\"`")
	assert.NotContains(t, out, "Created ")
	assert.NotContains(t, out, "`bson:\"_id\"`")

	assert.Regexp(t, "Email\\s+string\\s+`bson:\"email\" mango:\"unique\"`", out)
	assert.Regexp(t, "LastLogin\\s+time.Time\\s+`bson:\"last_login\" mango:\"blank\"`", out)
	assert.Contains(t, out, `mango.Register(&User{}, "users")`)

	// gofmt-clean output imports exactly what it uses.
	assert.Contains(t, out, `"time"`)
	assert.Contains(t, out, `"github.com/mango-odm/mango"`)
	assert.NotContains(t, out, "mongo-driver")
}

func TestGenerateModel_PlainModel(t *testing.T) {
	coll := DiscoveredCollection{
		Name: "sessions",
		Fields: []DiscoveredField{
			{BSONName: "_id", GoType: "bson.ObjectID", IsRequired: true},
			{BSONName: "token", GoType: "string", IsRequired: true},
		},
	}
	src, err := GenerateModel(coll, GenerateOptions{EmbedModel: true})
	require.NoError(t, err)
	out := string(src)

	// No created/modified pair → plain Model embed.
	assert.Contains(t, out, "mango.Model `bson:\",inline\"`")
	assert.NotContains(t, out, "TimeStamped")
	assert.Contains(t, out, "package models") // default package name
}

func TestGenerateModel_NoEmbed(t *testing.T) {
	coll := DiscoveredCollection{
		Name: "events",
		Fields: []DiscoveredField{
			{BSONName: "_id", GoType: "bson.ObjectID", IsRequired: true},
			{BSONName: "kind", GoType: "string", IsRequired: true},
		},
	}
	src, err := GenerateModel(coll, GenerateOptions{PackageName: "events"})
	require.NoError(t, err)
	out := string(src)

	assert.NotContains(t, out, "mango.Model")
	assert.Regexp(t, "ID\\s+bson.ObjectID\\s+`bson:\"_id\"`", out)
	assert.Contains(t, out, `"go.mongodb.org/mongo-driver/v2/bson"`)
}

func TestGenerateModel_Gofmt(t *testing.T) {
	src, err := GenerateModel(discoveredUsers(), GenerateOptions{EmbedModel: true})
	require.NoError(t, err)

	// format.Source already ran; sanity-check there are no stray tabs
	// before the package clause and the file ends with a newline.
	out := string(src)
	require.True(t, strings.HasSuffix(out, "\n"))
	require.False(t, strings.HasPrefix(out, "\t"))
}
