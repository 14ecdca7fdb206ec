package handler

import (
	"net/http"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/service"
	"github.com/muhfarrasm/HematYu-Service/internal/storage"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PengeluaranHandler serves expense CRUD, the balance rule and totals.
type PengeluaranHandler struct {
	DB    *gorm.DB
	Bukti *storage.BuktiStore
}

func NewPengeluaranHandler(db *gorm.DB, bukti *storage.BuktiStore) *PengeluaranHandler {
	return &PengeluaranHandler{DB: db, Bukti: bukti}
}

func (h *PengeluaranHandler) find(c *gin.Context, userID, id uint) (*models.Pengeluaran, bool) {
	var pengeluaran models.Pengeluaran
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&pengeluaran).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat pengeluaran")
		}
		return nil, false
	}
	return &pengeluaran, true
}

// Index lists expenses of one month (defaults to the current one) with the
// month's total.
func (h *PengeluaranHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	now := time.Now()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())

	var pengeluaran []models.Pengeluaran
	if err := h.DB.Preload("Kategori").
		Where("user_id = ? AND strftime('%m', tanggal) = ? AND strftime('%Y', tanggal) = ?",
			user.ID, monthPad(month), yearStr(year)).
		Order("tanggal DESC").
		Find(&pengeluaran).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat pengeluaran")
		return
	}

	total := decimal.Zero
	for _, p := range pengeluaran {
		total = total.Add(p.Jumlah)
	}

	util.Success(c, gin.H{
		"pengeluaran": pengeluaran,
		"total":       total.InexactFloat64(),
		"month":       month,
		"year":        year,
	})
}

func (h *PengeluaranHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req transaksiReq
	if err := c.ShouldBind(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	tanggal, errs := validateTransaksi(h.DB, user.ID, &req, "kategori_pengeluaran")
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	bukti, ok := saveBukti(c, h.Bukti)
	if !ok {
		return
	}

	pengeluaran := models.Pengeluaran{
		UserID:         user.ID,
		KategoriID:     req.KategoriID,
		Jumlah:         req.Jumlah,
		Deskripsi:      req.Deskripsi,
		Tanggal:        tanggal,
		BuktiTransaksi: bukti,
		Lokasi:         req.Lokasi,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
	}

	// balance rule and insert share one transaction so concurrent writes
	// cannot jointly overdraw the saldo
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := service.CheckSaldo(tx, user.ID, req.Jumlah, 0); err != nil {
			return err
		}
		return tx.Create(&pengeluaran).Error
	})
	if err != nil {
		h.Bukti.Delete(bukti)
		renderServiceError(c, err)
		return
	}

	util.Created(c, "Pengeluaran berhasil ditambahkan", pengeluaran)
}

func (h *PengeluaranHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var pengeluaran models.Pengeluaran
	if err := h.DB.Preload("Kategori").
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&pengeluaran).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat pengeluaran")
		}
		return
	}

	util.Success(c, pengeluaran)
}

func (h *PengeluaranHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	pengeluaran, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var req transaksiReq
	if err := c.ShouldBind(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	tanggal, errs := validateTransaksi(h.DB, user.ID, &req, "kategori_pengeluaran")
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	oldBukti := pengeluaran.BuktiTransaksi
	newBukti, ok := saveBukti(c, h.Bukti)
	if !ok {
		return
	}
	if newBukti != "" {
		pengeluaran.BuktiTransaksi = newBukti
	}

	pengeluaran.KategoriID = req.KategoriID
	pengeluaran.Jumlah = req.Jumlah
	pengeluaran.Deskripsi = req.Deskripsi
	pengeluaran.Tanggal = tanggal
	pengeluaran.Lokasi = req.Lokasi
	pengeluaran.Latitude = req.Latitude
	pengeluaran.Longitude = req.Longitude

	// replaced amount is excluded from the balance sum
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := service.CheckSaldo(tx, user.ID, req.Jumlah, pengeluaran.ID); err != nil {
			return err
		}
		return tx.Save(pengeluaran).Error
	})
	if err != nil {
		h.Bukti.Delete(newBukti)
		renderServiceError(c, err)
		return
	}
	if newBukti != "" && oldBukti != "" {
		h.Bukti.Delete(oldBukti)
	}

	util.SuccessMsg(c, "Pengeluaran berhasil diperbarui", pengeluaran)
}

func (h *PengeluaranHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	pengeluaran, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	if err := h.DB.Delete(pengeluaran).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus pengeluaran")
		return
	}
	h.Bukti.Delete(pengeluaran.BuktiTransaksi)

	util.SuccessMsg(c, "Pengeluaran berhasil dihapus", nil)
}

// MonthlyTotal returns per-month expense sums for one year.
func (h *PengeluaranHandler) MonthlyTotal(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	year := queryInt(c, "year", time.Now().Year())

	type monthTotal struct {
		Bulan int
		Total decimal.Decimal
	}
	var rows []monthTotal
	if err := h.DB.Model(&models.Pengeluaran{}).
		Select("CAST(strftime('%m', tanggal) AS INTEGER) as bulan, SUM(jumlah) as total").
		Where("user_id = ? AND strftime('%Y', tanggal) = ?", user.ID, yearStr(year)).
		Group("bulan").
		Order("bulan").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat total")
		return
	}

	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		items = append(items, gin.H{
			"bulan": r.Bulan,
			"total": r.Total.InexactFloat64(),
		})
	}

	util.Success(c, gin.H{
		"data": items,
		"year": year,
	})
}

// MonthlyCategorySummary groups one month's expenses by category.
func (h *PengeluaranHandler) MonthlyCategorySummary(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	now := time.Now()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())

	type catTotal struct {
		KategoriID   uint
		NamaKategori string
		Total        decimal.Decimal
	}
	var rows []catTotal
	if err := h.DB.Model(&models.Pengeluaran{}).
		Select("pengeluaran.kategori_id, kategori_pengeluaran.nama_kategori, SUM(pengeluaran.jumlah) as total").
		Joins("JOIN kategori_pengeluaran ON kategori_pengeluaran.id = pengeluaran.kategori_id").
		Where("pengeluaran.user_id = ? AND strftime('%m', pengeluaran.tanggal) = ? AND strftime('%Y', pengeluaran.tanggal) = ?",
			user.ID, monthPad(month), yearStr(year)).
		Group("pengeluaran.kategori_id, kategori_pengeluaran.nama_kategori").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}

	total := decimal.Zero
	items := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		total = total.Add(r.Total)
		items = append(items, gin.H{
			"kategori_id":   r.KategoriID,
			"nama_kategori": r.NamaKategori,
			"total":         r.Total.InexactFloat64(),
		})
	}

	util.Success(c, gin.H{
		"summary": items,
		"total":   total.InexactFloat64(),
		"month":   month,
		"year":    year,
	})
}
