package db

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// likeEscape is the ESCAPE character used for substring filters. '!' is
// accepted as-is by sqlite, postgres and mysql.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")

// containsPattern builds a case-folded LIKE pattern matching s anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func containsClause(column string) string {
	return "LOWER(" + column + ") LIKE ? ESCAPE '" + likeEscape + "'"
}

// trimmedOrNil returns nil for blank filter input.
func trimmedOrNil(s string) *string {
	return optionalString(strings.TrimSpace(s))
}

// SalesFilter narrows the sales listing. A nil field means no constraint.
type SalesFilter struct {
	ProductKeyword *string
}

func ParseSalesFilter(keyword string) SalesFilter {
	return SalesFilter{ProductKeyword: trimmedOrNil(keyword)}
}

func (f SalesFilter) scope(q *gorm.DB) *gorm.DB {
	if f.ProductKeyword != nil {
		q = q.Where(containsClause("products.name"), containsPattern(*f.ProductKeyword))
	}
	return q
}

// ViewFilter narrows the view event listing. Start and End are inclusive
// calendar days; End covers the whole day. Ignored names the bounds that
// were supplied but could not be parsed.
type ViewFilter struct {
	CustomerName *string
	Start        *time.Time
	End          *time.Time
	Ignored      []string
}

// ParseViewFilter builds a ViewFilter from raw query values. A malformed
// date is dropped and reported in Ignored; the other criteria still apply.
func ParseViewFilter(customerName, start, end string) ViewFilter {
	f := ViewFilter{CustomerName: trimmedOrNil(customerName), Ignored: []string{}}
	f.Start = parseDay(start, "start_date", &f.Ignored)
	f.End = parseDay(end, "end_date", &f.Ignored)
	return f
}

func parseDay(s, name string, ignored *[]string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		*ignored = append(*ignored, name)
		return nil
	}
	return &t
}

func (f ViewFilter) scope(q *gorm.DB) *gorm.DB {
	if f.CustomerName != nil {
		q = q.Where(containsClause("customers.name"), containsPattern(*f.CustomerName))
	}
	if f.Start != nil {
		q = q.Where("view_events.viewed_at >= ?", f.Start.UTC())
	}
	if f.End != nil {
		q = q.Where("view_events.viewed_at < ?", f.End.UTC().AddDate(0, 0, 1))
	}
	return q
}

// ProductFilter narrows the product listing by a name substring.
type ProductFilter struct {
	Keyword *string
}

func ParseProductFilter(keyword string) ProductFilter {
	return ProductFilter{Keyword: trimmedOrNil(keyword)}
}

func (f ProductFilter) scope(q *gorm.DB) *gorm.DB {
	if f.Keyword != nil {
		q = q.Where(containsClause("products.name"), containsPattern(*f.Keyword))
	}
	return q
}
