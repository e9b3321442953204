package mango

import (
	"fmt"
	"go/format"
	"strings"

	"github.com/mango-odm/mango/internal"
)

// GenerateOptions configures model source generation from discovery results.
type GenerateOptions struct {
	PackageName string // package name for the generated file
	OutputDir   string // informational; callers decide where to write
	EmbedModel  bool   // embed mango.Model / mango.TimeStamped
}

// GenerateModel renders a discovered collection as Go model source with
// bson and mango struct tags. The output is gofmt-formatted.
func GenerateModel(coll DiscoveredCollection, opts GenerateOptions) ([]byte, error) {
	if opts.PackageName == "" {
		opts.PackageName = "models"
	}

	structName := internal.SanitizeStructName(coll.Name)

	hasCreated := hasDiscoveredField(coll, "created")
	hasModified := hasDiscoveredField(coll, "modified")
	timeStamped := opts.EmbedModel && hasCreated && hasModified

	var b strings.Builder
	fmt.Fprintf(&b, "// Code generated by mango discover from collection %q. Edit as needed.\n\n", coll.Name)
	fmt.Fprintf(&b, "package %s\n\n", opts.PackageName)

	imports := collectImports(coll, opts, timeStamped)
	if len(imports) > 0 {
		b.WriteString("import (\n")
		for _, imp := range imports {
			fmt.Fprintf(&b, "\t%q\n", imp)
		}
		b.WriteString(")\n\n")
	}

	fmt.Fprintf(&b, "// %s maps documents of the %q collection.\n", structName, coll.Name)
	fmt.Fprintf(&b, "type %s struct {\n", structName)
	if opts.EmbedModel {
		if timeStamped {
			b.WriteString("\tmango.TimeStamped `bson:\",inline\"`\n")
		} else {
			b.WriteString("\tmango.Model `bson:\",inline\"`\n")
		}
	}

	for _, f := range coll.Fields {
		if f.BSONName == "_id" && opts.EmbedModel {
			continue
		}
		if timeStamped && (f.BSONName == "created" || f.BSONName == "modified") {
			continue
		}

		goName := internal.ToExportedName(f.BSONName)
		mangoTag := internal.FormatMangoTag(f.IsUnique, f.IsIndexed, !f.IsRequired)
		if mangoTag != "" {
			fmt.Fprintf(&b, "\t%s %s `bson:%q mango:%q`\n", goName, f.GoType, f.BSONName, mangoTag)
		} else {
			fmt.Fprintf(&b, "\t%s %s `bson:%q`\n", goName, f.GoType, f.BSONName)
		}
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(&b, "func init() {\n")
	fmt.Fprintf(&b, "\tif err := mango.Register(&%s{}, %q); err != nil {\n", structName, coll.Name)
	b.WriteString("\t\tpanic(err)\n\t}\n}\n")

	src, err := format.Source([]byte(b.String()))
	if err != nil {
		return nil, fmt.Errorf("mango generate: collection %s: %w", coll.Name, err)
	}
	return src, nil
}

func hasDiscoveredField(coll DiscoveredCollection, bsonName string) bool {
	for _, f := range coll.Fields {
		if f.BSONName == bsonName {
			return true
		}
	}
	return false
}

// collectImports decides the import block for a generated model file.
func collectImports(coll DiscoveredCollection, opts GenerateOptions, timeStamped bool) []string {
	needTime := false
	needBSON := false
	for _, f := range coll.Fields {
		if f.BSONName == "_id" && opts.EmbedModel {
			continue
		}
		if timeStamped && (f.BSONName == "created" || f.BSONName == "modified") {
			continue
		}
		if strings.Contains(f.GoType, "time.Time") {
			needTime = true
		}
		if strings.Contains(f.GoType, "bson.") {
			needBSON = true
		}
	}

	var imports []string
	if needTime {
		imports = append(imports, "time")
	}
	if opts.EmbedModel {
		imports = append(imports, "github.com/mango-odm/mango")
	}
	if needBSON {
		imports = append(imports, "go.mongodb.org/mongo-driver/v2/bson")
	}
	return imports
}
