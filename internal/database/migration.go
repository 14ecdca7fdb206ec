package database

import (
	"fmt"

	"github.com/muhfarrasm/HematYu-Service/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.KategoriPemasukan{},
		&models.KategoriPengeluaran{},
		&models.KategoriTarget{},
		&models.Pemasukan{},
		&models.Pengeluaran{},
		&models.Target{},
		&models.RelasiTargetPemasukan{},
		&models.AuditLog{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
