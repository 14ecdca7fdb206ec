package service

import (
	"github.com/muhfarrasm/HematYu-Service/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TotalPemasukan returns the user's all-time income sum.
func TotalPemasukan(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	return sumJumlah(tx.Model(&models.Pemasukan{}).Where("user_id = ?", userID))
}

// TotalPengeluaran returns the user's all-time expense sum.
func TotalPengeluaran(tx *gorm.DB, userID uint) (decimal.Decimal, error) {
	return sumJumlah(tx.Model(&models.Pengeluaran{}).Where("user_id = ?", userID))
}

// CheckSaldo rejects an expense write that would push the user's all-time
// expenses past their all-time income. excludeID skips the row being
// replaced on update (0 on create). Returns a ValidationError naming the
// remaining headroom, or nil when the write fits.
func CheckSaldo(tx *gorm.DB, userID uint, jumlah decimal.Decimal, excludeID uint) error {
	totalPemasukan, err := TotalPemasukan(tx, userID)
	if err != nil {
		return err
	}

	q := tx.Model(&models.Pengeluaran{}).Where("user_id = ?", userID)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	totalPengeluaran, err := sumJumlah(q)
	if err != nil {
		return err
	}

	if totalPengeluaran.Add(jumlah).GreaterThan(totalPemasukan) {
		sisa := totalPemasukan.Sub(totalPengeluaran)
		verr := &ValidationError{}
		verr.add("jumlah", "Jumlah pengeluaran melebihi sisa saldo. Sisa: Rp "+sisa.StringFixed(2))
		return verr
	}
	return nil
}

func sumJumlah(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := q.Select("SUM(jumlah)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}
