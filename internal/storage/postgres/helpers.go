package postgres

// derefString safely dereferences a string pointer, returning empty string if nil
func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// nullableString converts an empty string to nil so the column stores NULL
// rather than an empty value.
func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
