package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys used across services.
const (
	KeyProfile   = attribute.Key("sacredsites.profile")
	KeyFacet     = attribute.Key("sacredsites.facet")
	KeySiteCount = attribute.Key("sacredsites.site_count")
	KeyDropped   = attribute.Key("sacredsites.dropped")
	KeyPostType  = attribute.Key("wordpress.post_type")
	KeyPage      = attribute.Key("wordpress.page")
	KeySource    = attribute.Key("import.source")
)
