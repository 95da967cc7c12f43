package mcpcli

// Usage tracks token consumption as reported by the generation endpoint.
// Endpoints that do not report counts leave both fields at zero.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Total returns the sum of input and output tokens.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens
}
