// Package storeutil holds helpers shared by the collection stores.
package storeutil

import "go.mongodb.org/mongo-driver/mongo/options"

// DefaultPageSize bounds owner listings when the caller passes no limit.
// Drive trees routinely hold more entries than fit an admin table, so the
// default is sized for a browse view.
const DefaultPageSize = 50

// Paginate returns find options with skip/limit for a 1-based page.
// Non-positive limits fall back to DefaultPageSize; non-positive pages to
// the first page.
func Paginate(limit, page int64) *options.FindOptions {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return options.Find().SetLimit(limit).SetSkip((page - 1) * limit)
}
