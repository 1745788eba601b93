package catalog

import (
	"net/url"
	"strconv"
	"strings"
)

// Price buckets offered by the filter bar.
var PriceRanges = []string{"under-100", "100-500", "500-1000", "1000-2000", "above-2000"}

var SortOptions = []string{"alphabetical", "price-asc", "price-desc", "rating-desc", "rating-asc"}

// Query is the product listing filter.
type Query struct {
	Page        int
	Category    string
	PriceRanges []string
	Ratings     []int
	Sort        string
	Search      string
}

// ParseQuery reads a listing query, dropping unknown buckets, sorts and
// ratings instead of rejecting the request.
func ParseQuery(v url.Values) Query {
	q := Query{Page: 1}

	if p, err := strconv.Atoi(v.Get("page")); err == nil && p > 0 {
		q.Page = p
	}
	if c := strings.TrimSpace(v.Get("category")); c != "" && c != "All" {
		q.Category = c
	}
	for _, r := range splitList(v["price"]) {
		if r == "all" {
			q.PriceRanges = nil
			break
		}
		if contains(PriceRanges, r) && !contains(q.PriceRanges, r) {
			q.PriceRanges = append(q.PriceRanges, r)
		}
	}
	for _, r := range splitList(v["rating"]) {
		n, err := strconv.Atoi(r)
		if err != nil || n < 1 || n > 5 {
			continue
		}
		q.Ratings = append(q.Ratings, n)
	}
	if s := v.Get("sort"); contains(SortOptions, s) {
		q.Sort = s
	}
	q.Search = strings.TrimSpace(v.Get("search"))
	return q
}

// Values renders the query as the backend expects it: multi-value filters
// comma-joined, empty filters omitted.
func (q Query) Values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if len(q.PriceRanges) > 0 {
		v.Set("price", strings.Join(q.PriceRanges, ","))
	}
	if len(q.Ratings) > 0 {
		parts := make([]string, len(q.Ratings))
		for i, r := range q.Ratings {
			parts[i] = strconv.Itoa(r)
		}
		v.Set("rating", strings.Join(parts, ","))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
