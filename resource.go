package mcpcli

// ResourceStore serves named text documents loaded at startup.
// Read returns an error wrapping ErrResourceNotFound when name does not
// resolve to exactly one document.
type ResourceStore interface {
	List() []string
	Read(name string) (string, error)
}
