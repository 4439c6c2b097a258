package wordpress

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

type rendered struct {
	Rendered string `json:"rendered"`
}

type term struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

type media struct {
	SourceURL string `json:"source_url"`
}

type embedded struct {
	Terms         [][]term `json:"wp:term"`
	FeaturedMedia []media  `json:"wp:featuredmedia"`
}

// acf holds the custom fields the directory reads. ACF returns "" or false for
// unset fields, so the coordinates are decoded leniently.
type acf struct {
	Latitude   flexFloat `json:"latitude"`
	Longitude  flexFloat `json:"longitude"`
	Provenance string    `json:"provenance"`
}

type post struct {
	ID       int      `json:"id"`
	Slug     string   `json:"slug"`
	Type     string   `json:"type"`
	Link     string   `json:"link"`
	Modified string   `json:"modified_gmt"`
	Title    rendered `json:"title"`
	Excerpt  rendered `json:"excerpt"`
	ACF      *acf     `json:"acf"`
	Embedded embedded `json:"_embedded"`
}

// flexFloat decodes a number, a numeric string, or an empty value.
type flexFloat struct {
	Value float64
	Valid bool
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" || string(b) == "false" || string(b) == `""` {
		*f = flexFloat{}
		return nil
	}
	s := strings.Trim(string(b), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		// Free-text junk in a coordinate field is treated as missing.
		*f = flexFloat{}
		return nil
	}
	*f = flexFloat{Value: v, Valid: true}
	return nil
}

var _ json.Unmarshaler = (*flexFloat)(nil)
