package specification

import "gorm.io/gorm"

// Specification narrows a repository query. Repositories apply the given
// specifications in order, so filters and ordering compose freely.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
