package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Target status values.
const (
	StatusAktif         = "aktif"
	StatusTercapai      = "tercapai"
	StatusTidakTercapai = "tidak_tercapai"
)

// Target is a savings goal. Terkumpul and Status are derived from the
// allocations referencing the target and recomputed on every allocation
// write (service.RecomputeTarget).
type Target struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	UserID           uint            `gorm:"index;not null" json:"user_id"`
	KategoriTargetID uint            `gorm:"index;not null" json:"kategori_target_id"`
	NamaTarget       string          `gorm:"size:255;not null" json:"nama_target"`
	TargetDana       decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"target_dana"`
	Terkumpul        decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"terkumpul"`
	TargetTanggal    time.Time       `gorm:"index;not null" json:"target_tanggal"`
	Deskripsi        string          `gorm:"size:500" json:"deskripsi"`
	Status           string          `gorm:"size:16;index;not null;default:aktif" json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`

	User     User           `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Kategori KategoriTarget `gorm:"foreignKey:KategoriTargetID;constraint:OnDelete:CASCADE" json:"kategori,omitempty"`
}

func (Target) TableName() string { return "target" }

// PersentaseTercapai returns the achieved percentage, 0 when the goal is 0.
func (t *Target) PersentaseTercapai() float64 {
	if t.TargetDana.IsZero() {
		return 0
	}
	p, _ := t.Terkumpul.Div(t.TargetDana).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return p
}

// SisaTarget returns the amount still missing from the goal.
func (t *Target) SisaTarget() decimal.Decimal {
	return t.TargetDana.Sub(t.Terkumpul)
}

// RelasiTargetPemasukan earmarks part of an income entry toward a target.
// The (id_target, id_pemasukan) pair is unique.
type RelasiTargetPemasukan struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	IDTarget      uint            `gorm:"column:id_target;uniqueIndex:idx_relasi_pair;not null" json:"id_target"`
	IDPemasukan   uint            `gorm:"column:id_pemasukan;uniqueIndex:idx_relasi_pair;not null" json:"id_pemasukan"`
	JumlahAlokasi decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"jumlah_alokasi"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`

	Target    Target    `gorm:"foreignKey:IDTarget;constraint:OnDelete:CASCADE" json:"target,omitempty"`
	Pemasukan Pemasukan `gorm:"foreignKey:IDPemasukan;constraint:OnDelete:CASCADE" json:"pemasukan,omitempty"`
}

func (RelasiTargetPemasukan) TableName() string { return "relasi_target_pemasukan" }
