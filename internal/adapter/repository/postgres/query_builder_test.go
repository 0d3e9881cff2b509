package postgres

import (
	"testing"

	"github.com/Abdurahmanit/GroupProject/room-service/internal/listing/domain"
	"github.com/stretchr/testify/assert"
)

func TestBuildCountQuery(t *testing.T) {
	query, args := buildCountQuery(domain.FilterCriteria{})
	assert.Equal(t, `SELECT COUNT(*) FROM rooms`, query)
	assert.Empty(t, args)

	query, args = buildCountQuery(domain.FilterCriteria{Location: "pune", PropertyType: "2BHK"})
	assert.Equal(t, `SELECT COUNT(*) FROM rooms WHERE location ILIKE $1 ESCAPE '\' AND LOWER(property_type) = LOWER($2)`, query)
	assert.Equal(t, []interface{}{"%pune%", "2BHK"}, args)
}

func TestBuildFindQuery(t *testing.T) {
	price := 9000.0
	query, args := buildFindQuery(domain.FilterCriteria{MaxPrice: &price}, domain.NewPageWindow(3))

	assert.Contains(t, query, `WHERE price <= $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`)
	assert.Equal(t, []interface{}{9000.0, 9, 18}, args)
}

func TestBuildFindQuery_NoFilter(t *testing.T) {
	query, args := buildFindQuery(domain.FilterCriteria{}, domain.NewPageWindow(1))

	assert.NotContains(t, query, "WHERE")
	assert.Contains(t, query, `LIMIT $1 OFFSET $2`)
	assert.Equal(t, []interface{}{9, 0}, args)
}
