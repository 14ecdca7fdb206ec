package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// KategoriPemasukan is a user-owned bucket for income entries.
type KategoriPemasukan struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	NamaKategori string    `gorm:"size:255;not null" json:"nama_kategori"`
	Deskripsi    string    `gorm:"size:500" json:"deskripsi"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (KategoriPemasukan) TableName() string { return "kategori_pemasukan" }

// KategoriPengeluaran additionally carries a budget ceiling (anggaran).
type KategoriPengeluaran struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	UserID       uint            `gorm:"index;not null" json:"user_id"`
	NamaKategori string          `gorm:"size:255;not null" json:"nama_kategori"`
	Deskripsi    string          `gorm:"size:500" json:"deskripsi"`
	Anggaran     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"anggaran"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (KategoriPengeluaran) TableName() string { return "kategori_pengeluaran" }

// KategoriTarget is a user-owned bucket for savings targets.
type KategoriTarget struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`
	NamaKategori string    `gorm:"size:255;not null" json:"nama_kategori"`
	Deskripsi    string    `gorm:"size:500" json:"deskripsi"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User User `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (KategoriTarget) TableName() string { return "kategori_target" }
