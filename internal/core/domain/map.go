package domain

// MarkerSpec describes a marker to place on a map.
type MarkerSpec struct {
	SiteID   string   `json:"site_id"`
	Position GeoPoint `json:"position"`
	Title    string   `json:"title"`
	Icon     string   `json:"icon,omitempty"`
}

// InfoContent is what a marker's popup shows.
type InfoContent struct {
	SiteID     string   `json:"site_id"`
	Title      string   `json:"title"`
	County     string   `json:"county,omitempty"`
	Saints     []string `json:"saints,omitempty"`
	MoreSaints bool     `json:"more_saints,omitempty"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Link       string   `json:"link"`
}
