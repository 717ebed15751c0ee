package services

import "strings"

// FavoriteFilter holds the optional list filters. Zero values mean "not set".
type FavoriteFilter struct {
	Search     string // Substring of the favorite text.
	CategoryID *int64 // Exact category.
	TagID      *int64 // Catalog tag id, matched by name against the embedded list.
	TagName    string // Exact element of the embedded tag list.
}

// Predicate is a WHERE fragment and its bind parameters. The same value is
// applied to both the count and the list query so they select one row set.
type Predicate struct {
	Clause string
	Args   []any
}

// Where returns the clause prefixed with WHERE, or "" when no filter is set.
func (p Predicate) Where() string {
	if p.Clause == "" {
		return ""
	}
	return " WHERE " + p.Clause
}

// tagsArray guards json_each against legacy rows whose tags column is not
// valid JSON; such rows match no tag filter instead of failing the query.
const tagsArray = `json_each(CASE WHEN json_valid(f.tags) THEN f.tags ELSE '[]' END)`

// BuildFavoritePredicate composes the filter into a parameterized clause
// over the favorites table aliased as f. Conditions are ANDed in a fixed
// order (search, category, tag id, tag name) so bind order is stable.
func BuildFavoritePredicate(filter FavoriteFilter) Predicate {
	var conds []string
	var args []any

	if filter.Search != "" {
		conds = append(conds, `f.text LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}
	if filter.CategoryID != nil {
		conds = append(conds, "f.category_id = ?")
		args = append(args, *filter.CategoryID)
	}
	if filter.TagID != nil {
		conds = append(conds, `EXISTS (SELECT 1 FROM `+tagsArray+` je
			JOIN tags t ON t.name = je.value WHERE t.id = ?)`)
		args = append(args, *filter.TagID)
	}
	if filter.TagName != "" {
		conds = append(conds, `EXISTS (SELECT 1 FROM `+tagsArray+` je WHERE je.value = ?)`)
		args = append(args, filter.TagName)
	}

	return Predicate{Clause: strings.Join(conds, " AND "), Args: args}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
