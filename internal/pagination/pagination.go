// Package pagination reads page requests and writes the Link / X-Total-Count
// response headers.
package pagination

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/skcgolf/skc-api/internal/repository"
)

const (
	DefaultSize = 20
	MaxSize     = 100

	TotalCountHeader = "X-Total-Count"
)

// Parse reads page, size and sort query parameters. Sort properties are
// mapped through columns; unknown properties are rejected.
func Parse(c *fiber.Ctx, columns map[string]string) (repository.Pageable, error) {
	p := repository.Pageable{Page: 0, Size: DefaultSize}

	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, fmt.Errorf("invalid page %q", v)
		}
		p.Page = n
	}
	if v := c.Query("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, fmt.Errorf("invalid size %q", v)
		}
		if n > MaxSize {
			n = MaxSize
		}
		p.Size = n
	}
	// the row offset page*size must fit in an int32
	if p.Page > math.MaxInt32/p.Size {
		return p, fmt.Errorf("page %d is out of range", p.Page)
	}

	for _, raw := range c.Context().QueryArgs().PeekMulti("sort") {
		order, err := parseSort(string(raw), columns)
		if err != nil {
			return p, err
		}
		p.Sort = append(p.Sort, order)
	}
	return p, nil
}

func parseSort(raw string, columns map[string]string) (repository.Order, error) {
	field, dir, _ := strings.Cut(raw, ",")
	column, ok := columns[strings.TrimSpace(field)]
	if !ok {
		return repository.Order{}, fmt.Errorf("cannot sort by %q", field)
	}
	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", "asc":
		return repository.Order{Column: column}, nil
	case "desc":
		return repository.Order{Column: column, Desc: true}, nil
	default:
		return repository.Order{}, fmt.Errorf("invalid sort direction %q", dir)
	}
}

// LinkHeader renders next, prev, last and first links in that order.
func LinkHeader(baseURL string, page repository.Pageable, total int64) string {
	totalPages := 0
	if page.Size > 0 {
		totalPages = int((total + int64(page.Size) - 1) / int64(page.Size))
	}

	var b strings.Builder
	if page.Page+1 < totalPages {
		b.WriteString(link(baseURL, page.Page+1, page.Size, "next"))
		b.WriteString(",")
	}
	if page.Page > 0 {
		b.WriteString(link(baseURL, page.Page-1, page.Size, "prev"))
		b.WriteString(",")
	}
	last := 0
	if totalPages > 0 {
		last = totalPages - 1
	}
	b.WriteString(link(baseURL, last, page.Size, "last"))
	b.WriteString(",")
	b.WriteString(link(baseURL, 0, page.Size, "first"))
	return b.String()
}

func link(baseURL string, page, size int, rel string) string {
	return fmt.Sprintf("<%s?page=%d&size=%d>; rel=\"%s\"", baseURL, page, size, rel)
}

// SetHeaders writes the pagination headers for the current request path.
func SetHeaders(c *fiber.Ctx, page repository.Pageable, total int64) {
	c.Set(TotalCountHeader, strconv.FormatInt(total, 10))
	c.Set(fiber.HeaderLink, LinkHeader(c.Path(), page, total))
}
