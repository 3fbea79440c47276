package repository

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pawhaven/pet-adoption-api/internal/model"
)

// PetSearchQuery is the typed filter/sort/pagination configuration for
// the pet catalog. It enumerates every recognized option and is fully
// validated by ParsePetSearchQuery before it reaches SQL, replacing
// ad-hoc query-object construction from raw request parameters.
type PetSearchQuery struct {
	Filters []FieldFilter // validated field-operator filters
	Search  string        // full-text query over name/breed/description
	Select  []string      // projected field names (API names)
	Sort    []SortKey     // ordered sort keys
	Page    int
	Limit   int
}

// FieldFilter is one field comparison, e.g. adoptionFee gte 100.
type FieldFilter struct {
	Field  string   // API field name
	Op     string   // eq, gt, gte, lt, lte or in
	Value  string   // raw value for scalar ops
	Values []string // parsed list for the in operator
}

// SortKey is one ordered sort field.
type SortKey struct {
	Field string
	Desc  bool
}

// searchFields maps API field names to pet columns usable in filters
// and sorts. Anything outside this map is rejected up front.
var searchFields = map[string]string{
	"name":              "name",
	"species":           "species",
	"breed":             "breed",
	"size":              "size",
	"gender":            "gender",
	"color":             "color",
	"adoptionStatus":    "adoption_status",
	"adoptionFee":       "adoption_fee_cents",
	"ageYears":          "age_years",
	"ageMonths":         "age_months",
	"vaccinated":        "vaccinated",
	"neutered":          "neutered",
	"specialNeeds":      "special_needs",
	"goodWithKids":      "good_with_kids",
	"goodWithOtherPets": "good_with_other_pets",
	"activityLevel":     "activity_level",
	"city":              "city",
	"state":             "state",
	"country":           "country",
	"createdAt":         "created_at",
}

// selectFields lists the API field names that can be projected with
// the select parameter. Photos are always included.
var selectFields = map[string]bool{
	"name": true, "species": true, "breed": true, "age": true,
	"size": true, "gender": true, "color": true, "description": true,
	"medical": true, "behavior": true, "adoptionStatus": true,
	"adoptionFee": true, "location": true, "createdAt": true, "updatedAt": true,
}

var filterOps = map[string]string{
	"eq": "=", "gt": ">", "gte": ">=", "lt": "<", "lte": "<=",
}

// reserved parameters handled outside the filter grammar.
var reservedParams = map[string]bool{
	"select": true, "sort": true, "page": true, "limit": true, "search": true,
}

// ParsePetSearchQuery builds a validated PetSearchQuery from URL query
// values. Filters use either plain equality (?species=Dog) or the
// operator form (?adoptionFee[gte]=100, ?size[in]=Small,Medium).
// Unknown fields, operators, sort keys or select fields yield an error
// that handlers report as BadRequest.
func ParsePetSearchQuery(values url.Values) (PetSearchQuery, error) {
	q := PetSearchQuery{Page: 1, Limit: 10}
	for key, vals := range values {
		if reservedParams[key] || len(vals) == 0 {
			continue
		}
		field, op := key, "eq"
		if i := strings.IndexByte(key, '['); i >= 0 && strings.HasSuffix(key, "]") {
			field, op = key[:i], key[i+1:len(key)-1]
		}
		if _, ok := searchFields[field]; !ok {
			return q, fmt.Errorf("unknown filter field %q", field)
		}
		if op == "in" {
			parts := strings.Split(vals[0], ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			q.Filters = append(q.Filters, FieldFilter{Field: field, Op: op, Values: parts})
			continue
		}
		if _, ok := filterOps[op]; !ok {
			return q, fmt.Errorf("unknown filter operator %q", op)
		}
		q.Filters = append(q.Filters, FieldFilter{Field: field, Op: op, Value: vals[0]})
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	if sel := values.Get("select"); sel != "" {
		for _, f := range strings.Split(sel, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if !selectFields[f] {
				return q, fmt.Errorf("unknown select field %q", f)
			}
			q.Select = append(q.Select, f)
		}
	}
	if sort := values.Get("sort"); sort != "" {
		for _, f := range strings.Split(sort, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			desc := strings.HasPrefix(f, "-")
			name := strings.TrimPrefix(f, "-")
			if _, ok := searchFields[name]; !ok {
				return q, fmt.Errorf("unknown sort field %q", name)
			}
			q.Sort = append(q.Sort, SortKey{Field: name, Desc: desc})
		}
	} else {
		q.Sort = []SortKey{{Field: "createdAt", Desc: true}}
	}
	if p := values.Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			q.Page = n
		}
	}
	if l := values.Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			q.Limit = n
		}
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return q, nil
}

// whereClause assembles the WHERE fragment and its arguments.
func (q PetSearchQuery) whereClause() (string, []any) {
	where := []string{}
	args := []any{}
	for _, f := range q.Filters {
		col := searchFields[f.Field]
		if f.Op == "in" {
			placeholders := make([]string, len(f.Values))
			for i, v := range f.Values {
				placeholders[i] = "?"
				args = append(args, v)
			}
			where = append(where, col+" IN ("+strings.Join(placeholders, ",")+")")
			continue
		}
		where = append(where, col+" "+filterOps[f.Op]+" ?")
		args = append(args, f.Value)
	}
	if q.Search != "" {
		needle := "%" + strings.ToLower(q.Search) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(breed) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, needle, needle, needle)
	}
	if len(where) == 0 {
		return "1=1", args
	}
	return strings.Join(where, " AND "), args
}

// orderClause assembles the ORDER BY fragment from validated sort keys.
func (q PetSearchQuery) orderClause() string {
	parts := make([]string, 0, len(q.Sort))
	for _, s := range q.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		parts = append(parts, searchFields[s.Field]+" "+dir)
	}
	if len(parts) == 0 {
		return "created_at DESC"
	}
	return strings.Join(parts, ", ")
}

// Search runs the catalog query: a COUNT over the filter followed by a
// LIMIT/OFFSET page, then a single photo fetch for the page.
func (r *PetRepo) Search(ctx context.Context, q PetSearchQuery) ([]model.Pet, map[uint64][]model.PetPhoto, int64, error) {
	cond, args := q.whereClause()

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pets WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, nil, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	dataArgs := append(append([]any{}, args...), q.Limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+petColumns+` FROM pets WHERE `+cond+
			` ORDER BY `+q.orderClause()+` LIMIT ? OFFSET ?`, dataArgs...)
	if err != nil {
		return nil, nil, 0, err
	}
	defer rows.Close()

	pets := make([]model.Pet, 0, q.Limit)
	ids := make([]uint64, 0, q.Limit)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, nil, 0, err
		}
		pets = append(pets, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, 0, err
	}

	photos, err := r.photosFor(ctx, ids)
	if err != nil {
		return nil, nil, 0, err
	}
	return pets, photos, total, nil
}
