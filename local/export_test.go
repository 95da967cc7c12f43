package local

// SnakeCase exports snakeCase for testing.
func SnakeCase(s string) string {
	return snakeCase(s)
}
