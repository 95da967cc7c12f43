package mock

import "github.com/fwojciec/mcpcli"

// Interface compliance check.
var _ mcpcli.ResourceStore = (*ResourceStore)(nil)

// ResourceStore is a test double for mcpcli.ResourceStore.
type ResourceStore struct {
	ListFn func() []string
	ReadFn func(name string) (string, error)
}

// List delegates to ListFn.
func (r *ResourceStore) List() []string {
	return r.ListFn()
}

// Read delegates to ReadFn.
func (r *ResourceStore) Read(name string) (string, error) {
	return r.ReadFn(name)
}
