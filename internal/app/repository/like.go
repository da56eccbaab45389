package repository

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the escape
func escapeLike(s string) string {
	return likeEscaper.Replace(strings.TrimSpace(s))
}
