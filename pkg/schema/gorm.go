package schema

import (
	"gorm.io/gorm"
)

// AllModels returns every schema model for GORM AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Paper{},
		&PaperLink{},
		&PaperFlag{},
		&Author{},
		&AuthorLink{},
		&AuthorAlias{},
		&AuthorInstitution{},
		&Venue{},
		&VenueLink{},
		&VenueAlias{},
		&Release{},
		&Topic{},
		&Institution{},
		&InstitutionAlias{},
		&PaperAuthor{},
		&PaperAuthorInstitution{},
		&PaperRelease{},
		&PaperTopic{},
		&Scraper{},
		&CanonicalID{},
		&ScraperData{},
	}
}

// Migrate runs GORM AutoMigrate to create or update the schema.
// It is idempotent and safe to run multiple times.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
