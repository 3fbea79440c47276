package repository

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseValues(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestParsePetSearchQueryDefaults(t *testing.T) {
	q, err := ParsePetSearchQuery(parseValues(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 10, q.Limit)
	assert.Empty(t, q.Filters)
	assert.Equal(t, []SortKey{{Field: "createdAt", Desc: true}}, q.Sort)
}

func TestParsePetSearchQueryFilters(t *testing.T) {
	q, err := ParsePetSearchQuery(parseValues(t,
		"species=Dog&adoptionFee[lte]=200&size[in]=Small,%20Medium"))
	require.NoError(t, err)
	require.Len(t, q.Filters, 3)

	byField := map[string]FieldFilter{}
	for _, f := range q.Filters {
		byField[f.Field] = f
	}
	assert.Equal(t, FieldFilter{Field: "species", Op: "eq", Value: "Dog"}, byField["species"])
	assert.Equal(t, FieldFilter{Field: "adoptionFee", Op: "lte", Value: "200"}, byField["adoptionFee"])
	assert.Equal(t, []string{"Small", "Medium"}, byField["size"].Values)
}

func TestParsePetSearchQueryRejectsUnknown(t *testing.T) {
	_, err := ParsePetSearchQuery(parseValues(t, "favoriteFood=fish"))
	assert.ErrorContains(t, err, "unknown filter field")

	_, err = ParsePetSearchQuery(parseValues(t, "adoptionFee[between]=1"))
	assert.ErrorContains(t, err, "unknown filter operator")

	_, err = ParsePetSearchQuery(parseValues(t, "sort=favoriteFood"))
	assert.ErrorContains(t, err, "unknown sort field")

	_, err = ParsePetSearchQuery(parseValues(t, "select=passwordHash"))
	assert.ErrorContains(t, err, "unknown select field")
}

func TestParsePetSearchQuerySortAndSelect(t *testing.T) {
	q, err := ParsePetSearchQuery(parseValues(t, "sort=-adoptionFee,name&select=name,adoptionFee"))
	require.NoError(t, err)
	assert.Equal(t, []SortKey{{Field: "adoptionFee", Desc: true}, {Field: "name"}}, q.Sort)
	assert.Equal(t, []string{"name", "adoptionFee"}, q.Select)
}

func TestParsePetSearchQueryPagination(t *testing.T) {
	q, err := ParsePetSearchQuery(parseValues(t, "page=3&limit=50"))
	require.NoError(t, err)
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.Limit)

	// Invalid values keep defaults, oversized limits are capped.
	q, err = ParsePetSearchQuery(parseValues(t, "page=zero&limit=500"))
	require.NoError(t, err)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.Limit)
}

func TestWhereClause(t *testing.T) {
	q := PetSearchQuery{
		Filters: []FieldFilter{
			{Field: "species", Op: "eq", Value: "Dog"},
			{Field: "adoptionFee", Op: "gte", Value: "100"},
			{Field: "size", Op: "in", Values: []string{"Small", "Medium"}},
		},
		Search: "Shep",
	}
	where, args := q.whereClause()
	assert.Equal(t,
		"species = ? AND adoption_fee_cents >= ? AND size IN (?,?) AND "+
			"(LOWER(name) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(description) LIKE ?)",
		where)
	assert.Equal(t, []any{"Dog", "100", "Small", "Medium", "%shep%", "%shep%", "%shep%"}, args)

	// No filters collapses to a tautology.
	where, args = PetSearchQuery{}.whereClause()
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestOrderClause(t *testing.T) {
	q := PetSearchQuery{Sort: []SortKey{{Field: "adoptionFee", Desc: true}, {Field: "name"}}}
	assert.Equal(t, "adoption_fee_cents DESC, name ASC", q.orderClause())
	assert.Equal(t, "created_at DESC", PetSearchQuery{}.orderClause())
}
