package infitable

import "fmt"

// QueryIdentity scopes a cache entry: the table's query key plus the sort
// spec its rows were requested with.
type QueryIdentity struct {
	Key  string
	Sort SortSpec
}

// String returns the cache key of the identity.
func (q QueryIdentity) String() string {
	if q.Sort.IsEmpty() {
		return fmt.Sprintf("%q", q.Key)
	}

	return fmt.Sprintf("%q|%s|%s", q.Key, q.Sort.Column, q.Sort.Direction)
}
