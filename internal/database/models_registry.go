package database

import "talenthub/internal/models"

// PersistentModels returns the schema-managed GORM models in dependency order.
func PersistentModels() []any {
	return []any{
		&models.User{},
		&models.Challenge{},
		&models.Image{},
		&models.Video{},
	}
}
