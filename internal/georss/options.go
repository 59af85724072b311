package georss

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/georss/internal/vector"
)

// Format selects the feed flavour written by Create.
type Format string

const (
	FormatRSS  Format = "RSS"
	FormatAtom Format = "ATOM"
)

// Dialect selects how geometries are encoded on output.
type Dialect string

const (
	DialectSimple Dialect = "SIMPLE"
	DialectGML    Dialect = "GML"
	DialectW3C    Dialect = "W3C_GEO"
)

// Creation option keys.
const (
	OptFormat               = "FORMAT"
	OptGeomDialect          = "GEOM_DIALECT"
	OptUseExtensions        = "USE_EXTENSIONS"
	OptWriteHeaderAndFooter = "WRITE_HEADER_AND_FOOTER"
	OptHeader               = "HEADER"
	OptTitle                = "TITLE"
	OptDescription          = "DESCRIPTION"
	OptLink                 = "LINK"
	OptUpdated              = "UPDATED"
	OptAuthorName           = "AUTHOR_NAME"
	OptID                   = "ID"
)

// creationOptions is published in the driver metadata.
var creationOptions = []vector.OptionSpec{
	{Name: OptFormat, Type: "string-select", Values: []string{"RSS", "ATOM"}, Default: "RSS", Description: "Feed flavour"},
	{Name: OptGeomDialect, Type: "string-select", Values: []string{"SIMPLE", "GML", "W3C_GEO"}, Default: "SIMPLE", Description: "Geometry encoding"},
	{Name: OptUseExtensions, Type: "boolean", Default: "NO", Description: "Write fields that are not core RSS/Atom elements"},
	{Name: OptWriteHeaderAndFooter, Type: "boolean", Default: "YES", Description: "Write the document header and footer"},
	{Name: OptHeader, Type: "string", Description: "Raw XML written instead of the generated channel or feed header"},
	{Name: OptTitle, Type: "string", Default: "title", Description: "Channel or feed title"},
	{Name: OptDescription, Type: "string", Default: "channel_description", Description: "RSS channel description"},
	{Name: OptLink, Type: "string", Default: "channel_link", Description: "RSS channel link"},
	{Name: OptUpdated, Type: "string", Description: "Atom feed update time (RFC 3339); defaults to now"},
	{Name: OptAuthorName, Type: "string", Default: "author", Description: "Atom feed author name"},
	{Name: OptID, Type: "string", Description: "Atom feed id; defaults to a urn:uuid"},
}

// createConfig is the validated form of the creation options.
type createConfig struct {
	format               Format
	dialect              Dialect
	useExtensions        bool
	writeHeaderAndFooter bool
	header               string
	title                string
	description          string
	link                 string
	updated              string
	authorName           string
	id                   string
}

// parseCreateOptions validates opts and fills in defaults.
func parseCreateOptions(opts vector.Options) (createConfig, error) {
	cfg := createConfig{
		format:               Format(strings.ToUpper(opts.Get(OptFormat, string(FormatRSS)))),
		dialect:              Dialect(strings.ToUpper(opts.Get(OptGeomDialect, string(DialectSimple)))),
		useExtensions:        opts.Bool(OptUseExtensions, false),
		writeHeaderAndFooter: opts.Bool(OptWriteHeaderAndFooter, true),
		header:               opts.Get(OptHeader, ""),
		title:                opts.Get(OptTitle, "title"),
		description:          opts.Get(OptDescription, "channel_description"),
		link:                 opts.Get(OptLink, "channel_link"),
		updated:              opts.Get(OptUpdated, ""),
		authorName:           opts.Get(OptAuthorName, "author"),
		id:                   opts.Get(OptID, ""),
	}

	switch cfg.format {
	case FormatRSS, FormatAtom:
	default:
		return cfg, eris.Errorf("georss: invalid %s=%s (valid: RSS, ATOM)", OptFormat, cfg.format)
	}

	switch cfg.dialect {
	case DialectSimple, DialectGML, DialectW3C:
	default:
		return cfg, eris.Errorf("georss: invalid %s=%s (valid: SIMPLE, GML, W3C_GEO)", OptGeomDialect, cfg.dialect)
	}

	if cfg.format == FormatAtom {
		if cfg.updated == "" {
			cfg.updated = time.Now().UTC().Format(time.RFC3339)
		}
		if cfg.id == "" {
			cfg.id = "urn:uuid:" + uuid.NewString()
		}
	}

	return cfg, nil
}
