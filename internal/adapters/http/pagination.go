package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       any        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// parsePagination reads offset and limit, clamping limit to (0, maxLimit].
func parsePagination(c *fiber.Ctx, defLimit, maxLimit int) (offset, limit int) {
	offset = max(c.QueryInt("offset", 0), 0)
	limit = c.QueryInt("limit", defLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defLimit
	}
	return offset, limit
}

// paginate returns the window of items selected by p.
func paginate[T any](items []T, p Pagination) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	return items[p.Offset:min(p.Offset+p.Limit, len(items))]
}

// SetLinkHeaders adds RFC 8288 Link headers for paginated responses. Query
// parameters other than offset and limit are carried over so filtered listings
// page through the same filter.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	base := c.Path()
	keep := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(k, v []byte) {
		if key := string(k); key != "offset" && key != "limit" {
			keep.Add(key, string(v))
		}
	})

	link := func(offset int, rel string) string {
		q := url.Values{}
		for k, v := range keep {
			q[k] = v
		}
		q.Set("offset", strconv.Itoa(offset))
		q.Set("limit", strconv.Itoa(p.Limit))
		return fmt.Sprintf(`<%s?%s>; rel="%s"`, base, q.Encode(), rel)
	}

	links := []string{link(0, "first")}
	if p.Offset > 0 {
		links = append(links, link(max(p.Offset-p.Limit, 0), "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, link(p.Offset+p.Limit, "next"))
	}
	links = append(links, link(max(p.Total-p.Limit, 0), "last"))

	c.Set("Link", strings.Join(links, ", "))
}
