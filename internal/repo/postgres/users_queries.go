package postgres

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/geocoder89/accounthub/internal/domain/user"
)

const userColumns = "id, email, password_hash, name, role, created_at, updated_at"

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// buildSearchUsersQuery turns a filter into a SELECT with stable ordering.
// Nil filter fields add no condition.
func buildSearchUsersQuery(filter user.SearchFilter) (string, []interface{}, error) {
	q := psql.Select(userColumns).From("users")

	if filter.EmailContains != nil {
		q = q.Where(sq.ILike{"email": containsPattern(*filter.EmailContains)})
	}

	if filter.NameContains != nil {
		q = q.Where(sq.ILike{"name": containsPattern(*filter.NameContains)})
	}

	if filter.Role != nil {
		q = q.Where(sq.Eq{"role": string(*filter.Role)})
	}

	return q.OrderBy("created_at ASC", "id ASC").ToSql()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern escapes LIKE wildcards so the fragment matches literally.
func containsPattern(fragment string) string {
	return "%" + likeEscaper.Replace(fragment) + "%"
}
