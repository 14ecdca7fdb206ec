// Package service holds the domain rules that span more than one table:
// the allocation consistency engine and the expense-against-income balance
// check. Handlers call these instead of inlining the arithmetic so the
// rules are testable in isolation.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound signals an absent row or one owned by another user. Handlers
// render both as 404 so existence never leaks.
var ErrNotFound = errors.New("record not found")

// MinAlokasi is the smallest allowed allocation amount (Rp 1000).
var MinAlokasi = decimal.NewFromInt(1000)

// ValidationError carries field-keyed messages for a 422 response.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *ValidationError) any() bool { return len(e.Fields) > 0 }

// AlokasiInput is the caller-supplied part of an allocation.
type AlokasiInput struct {
	IDTarget      uint
	IDPemasukan   uint
	JumlahAlokasi decimal.Decimal
}

// CreateAlokasi validates and persists a new allocation, then refreshes the
// target's terkumpul/status. The whole read-check-write sequence runs in one
// transaction so two concurrent requests cannot jointly overdraw an entry
// or a target.
func CreateAlokasi(db *gorm.DB, userID uint, in AlokasiInput) (*models.RelasiTargetPemasukan, error) {
	var relasi *models.RelasiTargetPemasukan
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := validateAlokasi(tx, userID, in, nil); err != nil {
			return err
		}

		relasi = &models.RelasiTargetPemasukan{
			IDTarget:      in.IDTarget,
			IDPemasukan:   in.IDPemasukan,
			JumlahAlokasi: in.JumlahAlokasi,
		}
		if err := tx.Create(relasi).Error; err != nil {
			return err
		}
		return RecomputeTarget(tx, in.IDTarget)
	})
	if err != nil {
		return nil, err
	}
	return relasi, nil
}

// UpdateAlokasi revalidates and rewrites an existing allocation. The prior
// amount counts as headroom on the entry and target it already occupied.
// If the target reference changes, both old and new targets are refreshed.
func UpdateAlokasi(db *gorm.DB, userID uint, id uint, in AlokasiInput) (*models.RelasiTargetPemasukan, error) {
	var relasi models.RelasiTargetPemasukan
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := findAlokasi(tx, userID, id, &relasi); err != nil {
			return err
		}
		if err := validateAlokasi(tx, userID, in, &relasi); err != nil {
			return err
		}

		oldTarget := relasi.IDTarget
		relasi.IDTarget = in.IDTarget
		relasi.IDPemasukan = in.IDPemasukan
		relasi.JumlahAlokasi = in.JumlahAlokasi
		if err := tx.Save(&relasi).Error; err != nil {
			return err
		}

		if err := RecomputeTarget(tx, in.IDTarget); err != nil {
			return err
		}
		if oldTarget != in.IDTarget {
			return RecomputeTarget(tx, oldTarget)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &relasi, nil
}

// DeleteAlokasi removes an allocation and refreshes its target.
func DeleteAlokasi(db *gorm.DB, userID uint, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var relasi models.RelasiTargetPemasukan
		if err := findAlokasi(tx, userID, id, &relasi); err != nil {
			return err
		}
		if err := tx.Delete(&relasi).Error; err != nil {
			return err
		}
		return RecomputeTarget(tx, relasi.IDTarget)
	})
}

// findAlokasi loads an allocation whose both ends belong to userID.
func findAlokasi(tx *gorm.DB, userID uint, id uint, dst *models.RelasiTargetPemasukan) error {
	err := tx.
		Joins("JOIN target ON target.id = relasi_target_pemasukan.id_target").
		Joins("JOIN pemasukan ON pemasukan.id = relasi_target_pemasukan.id_pemasukan").
		Where("relasi_target_pemasukan.id = ? AND target.user_id = ? AND pemasukan.user_id = ?", id, userID, userID).
		First(dst).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// validateAlokasi checks every precondition of an allocation write. When
// prior is non-nil the write is an update and prior's amount counts as
// headroom where it already sits.
func validateAlokasi(tx *gorm.DB, userID uint, in AlokasiInput, prior *models.RelasiTargetPemasukan) error {
	verr := &ValidationError{}

	if in.JumlahAlokasi.LessThan(MinAlokasi) {
		verr.add("jumlah_alokasi", "Jumlah alokasi minimal Rp 1.000")
	}

	var target models.Target
	targetOK := false
	if err := tx.First(&target, "id = ?", in.IDTarget).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		verr.add("id_target", "Target tidak valid")
	} else if target.UserID != userID {
		verr.add("id_target", "Anda tidak memiliki akses ke target ini")
	} else if target.Status != models.StatusAktif {
		verr.add("id_target", "Target sudah tidak aktif")
	} else {
		targetOK = true
	}

	var pemasukan models.Pemasukan
	pemasukanOK := false
	if err := tx.First(&pemasukan, "id = ?", in.IDPemasukan).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		verr.add("id_pemasukan", "Pemasukan tidak valid")
	} else if pemasukan.UserID != userID {
		verr.add("id_pemasukan", "Anda tidak memiliki akses ke pemasukan ini")
	} else {
		pemasukanOK = true
	}

	// pair uniqueness, ignoring the row being updated
	if targetOK && pemasukanOK {
		dup := tx.Model(&models.RelasiTargetPemasukan{}).
			Where("id_target = ? AND id_pemasukan = ?", in.IDTarget, in.IDPemasukan)
		if prior != nil {
			dup = dup.Where("id != ?", prior.ID)
		}
		var count int64
		if err := dup.Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			verr.add("id_pemasukan", "Pemasukan sudah dialokasikan ke target ini")
		}
	}

	if verr.any() {
		return verr
	}

	// headroom on the income entry: other allocations + this one must not
	// exceed the entry amount
	allocated, err := sumAlokasi(tx, "id_pemasukan = ?", in.IDPemasukan)
	if err != nil {
		return err
	}
	if prior != nil && prior.IDPemasukan == in.IDPemasukan {
		allocated = allocated.Sub(prior.JumlahAlokasi)
	}
	sisaPemasukan := pemasukan.Jumlah.Sub(allocated)
	if in.JumlahAlokasi.GreaterThan(sisaPemasukan) {
		verr.add("jumlah_alokasi",
			"Jumlah alokasi melebihi sisa pemasukan. Sisa: Rp "+sisaPemasukan.StringFixed(2))
	}

	// headroom on the target
	sisaTarget := target.TargetDana.Sub(target.Terkumpul)
	if prior != nil && prior.IDTarget == in.IDTarget {
		sisaTarget = sisaTarget.Add(prior.JumlahAlokasi)
	}
	if in.JumlahAlokasi.GreaterThan(sisaTarget) {
		verr.add("jumlah_alokasi",
			"Jumlah alokasi melebihi sisa target. Sisa: Rp "+sisaTarget.StringFixed(2))
	}

	if verr.any() {
		return verr
	}
	return nil
}

// RecomputeTarget rewrites terkumpul as the sum of the target's current
// allocations and re-derives status: tercapai once the goal is met,
// tidak_tercapai once the deadline passed unmet, otherwise aktif.
func RecomputeTarget(tx *gorm.DB, targetID uint) error {
	var target models.Target
	if err := tx.First(&target, "id = ?", targetID).Error; err != nil {
		return err
	}

	total, err := sumAlokasi(tx, "id_target = ?", targetID)
	if err != nil {
		return err
	}

	status := models.StatusAktif
	if total.GreaterThanOrEqual(target.TargetDana) {
		status = models.StatusTercapai
	} else if target.TargetTanggal.Before(time.Now()) {
		status = models.StatusTidakTercapai
	}

	return tx.Model(&target).Updates(map[string]interface{}{
		"terkumpul": total,
		"status":    status,
	}).Error
}

func sumAlokasi(tx *gorm.DB, cond string, arg interface{}) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := tx.Model(&models.RelasiTargetPemasukan{}).
		Where(cond, arg).
		Select("SUM(jumlah_alokasi)").
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
