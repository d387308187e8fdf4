package sqlstore

import "database/sql"

// Repositories bundles every repository of one database.
type Repositories struct {
	Checks *CheckRepository
	Errors *CheckErrorRepository
	Advice *AdviceRepository
}

func NewRepositories(db *sql.DB, d Dialect) Repositories {
	return Repositories{
		Checks: NewCheckRepository(db, d),
		Errors: NewCheckErrorRepository(db, d),
		Advice: NewAdviceRepository(db, d),
	}
}
