package match

import "github.com/jamesbell/askjames/internal/domain/entry"

// EntrySource provides the frozen knowledge base entries to scan.
type EntrySource interface {
	Entries() []entry.Entry
	Dimensions() int
}
