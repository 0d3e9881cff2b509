// Package sqlfilter turns catalog filter criteria into a SQL WHERE clause
// shared by the relational listing stores.
package sqlfilter

import (
	"fmt"
	"strings"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
)

// Dialect renders the placeholders and case-insensitive comparisons of one
// SQL engine.
type Dialect struct {
	Placeholder  func(n int) string
	ContainsFold func(column, placeholder string) string
	EqualFold    func(column, placeholder string) string
}

var Postgres = Dialect{
	Placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	ContainsFold: func(column, ph string) string {
		return fmt.Sprintf(`%s ILIKE %s ESCAPE '\'`, column, ph)
	},
	EqualFold: func(column, ph string) string {
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, ph)
	},
}

var SQLite = Dialect{
	Placeholder: func(int) string { return "?" },
	ContainsFold: func(column, ph string) string {
		return fmt.Sprintf(`LOWER(%s) LIKE LOWER(%s) ESCAPE '\'`, column, ph)
	},
	EqualFold: func(column, ph string) string {
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, ph)
	},
}

// Where builds the conjunction of every non-empty criterion. It returns an
// empty clause when nothing constrains the search. Placeholders are numbered
// from 1.
func Where(d Dialect, c domain.FilterCriteria) (string, []interface{}) {
	var conds []string
	var args []interface{}
	next := func() string { return d.Placeholder(len(args)) }

	if c.Location != "" {
		args = append(args, "%"+EscapeLike(c.Location)+"%")
		conds = append(conds, d.ContainsFold("location", next()))
	}
	if c.PropertyType != "" {
		args = append(args, c.PropertyType)
		conds = append(conds, d.EqualFold("property_type", next()))
	}
	if c.TenantPreference != "" {
		args = append(args, c.TenantPreference)
		conds = append(conds, d.EqualFold("tenant_preference", next()))
	}
	if c.MaxPrice != nil {
		args = append(args, *c.MaxPrice)
		conds = append(conds, "price <= "+next())
	}
	if c.OwnerID != "" {
		args = append(args, c.OwnerID)
		conds = append(conds, "owner_id = "+next())
	}
	return strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike makes s match literally inside a LIKE pattern.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}
