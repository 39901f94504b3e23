package sqlite

import "strings"

// sqlite reports constraint failures only through the message text.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

type scanner interface {
	Scan(dest ...any) error
}
