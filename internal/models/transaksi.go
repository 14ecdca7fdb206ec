package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Pemasukan is a single income record.
// Amounts are stored as exact decimal(15,2); JSON output casts to float
// for display only.
type Pemasukan struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"index;not null" json:"user_id"`
	KategoriID     uint             `gorm:"index;not null" json:"kategori_id"`
	Jumlah         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"jumlah"`
	Deskripsi      string           `gorm:"type:text" json:"deskripsi"`
	Tanggal        time.Time        `gorm:"index;not null" json:"tanggal"`
	BuktiTransaksi string           `gorm:"size:255" json:"bukti_transaksi"`
	Lokasi         string           `gorm:"size:255" json:"lokasi"`
	Latitude       *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude      *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitude"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	User     User              `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Kategori KategoriPemasukan `gorm:"foreignKey:KategoriID;constraint:OnDelete:CASCADE" json:"kategori,omitempty"`
}

func (Pemasukan) TableName() string { return "pemasukan" }

// Pengeluaran is a single expense record.
type Pengeluaran struct {
	ID             uint             `gorm:"primaryKey" json:"id"`
	UserID         uint             `gorm:"index;not null" json:"user_id"`
	KategoriID     uint             `gorm:"index;not null" json:"kategori_id"`
	Jumlah         decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"jumlah"`
	Deskripsi      string           `gorm:"size:500" json:"deskripsi"`
	Tanggal        time.Time        `gorm:"index;not null" json:"tanggal"`
	BuktiTransaksi string           `gorm:"size:255" json:"bukti_transaksi"`
	Lokasi         string           `gorm:"size:255" json:"lokasi"`
	Latitude       *decimal.Decimal `gorm:"type:decimal(10,8)" json:"latitude"`
	Longitude      *decimal.Decimal `gorm:"type:decimal(11,8)" json:"longitude"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`

	User     User                `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Kategori KategoriPengeluaran `gorm:"foreignKey:KategoriID;constraint:OnDelete:CASCADE" json:"kategori,omitempty"`
}

func (Pengeluaran) TableName() string { return "pengeluaran" }
