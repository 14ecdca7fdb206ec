package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// KategoriPemasukanHandler serves income-category CRUD and stats.
type KategoriPemasukanHandler struct {
	DB *gorm.DB
}

func NewKategoriPemasukanHandler(db *gorm.DB) *KategoriPemasukanHandler {
	return &KategoriPemasukanHandler{DB: db}
}

type kategoriReq struct {
	NamaKategori string `json:"nama_kategori"`
	Deskripsi    string `json:"deskripsi"`
}

// validateKategoriNama checks the shared name rules for all category kinds:
// required, max 255 and unique per user within the given table (excluding
// excludeID on update).
func validateKategoriNama(db *gorm.DB, table string, userID uint, nama string, excludeID uint) map[string][]string {
	errs := map[string][]string{}
	nama = strings.TrimSpace(nama)
	if nama == "" {
		errs["nama_kategori"] = append(errs["nama_kategori"], "Nama kategori wajib diisi")
		return errs
	}
	if len(nama) > 255 {
		errs["nama_kategori"] = append(errs["nama_kategori"], "Nama kategori maksimal 255 karakter")
		return errs
	}

	q := db.Table(table).Where("nama_kategori = ? AND user_id = ?", nama, userID)
	if excludeID != 0 {
		q = q.Where("id != ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err == nil && count > 0 {
		errs["nama_kategori"] = append(errs["nama_kategori"], "Nama kategori sudah digunakan")
	}
	return errs
}

// Index lists categories with usage count and summed amount.
func (h *KategoriPemasukanHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var categories []models.KategoriPemasukan
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("nama_kategori").
		Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}

	type usage struct {
		KategoriID uint
		Count      int64
		Total      decimal.Decimal
	}
	var usages []usage
	if err := h.DB.Model(&models.Pemasukan{}).
		Select("kategori_id, COUNT(*) as count, SUM(jumlah) as total").
		Where("user_id = ?", user.ID).
		Group("kategori_id").
		Scan(&usages).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}
	usageByID := make(map[uint]usage, len(usages))
	for _, u := range usages {
		usageByID[u.KategoriID] = u
	}

	items := make([]gin.H, 0, len(categories))
	for _, k := range categories {
		u := usageByID[k.ID]
		items = append(items, gin.H{
			"id":                   k.ID,
			"nama_kategori":        k.NamaKategori,
			"deskripsi":            k.Deskripsi,
			"user_id":              k.UserID,
			"pemasukan_count":      u.Count,
			"pemasukan_sum_jumlah": u.Total.InexactFloat64(),
			"created_at":           k.CreatedAt,
			"updated_at":           k.UpdatedAt,
		})
	}

	util.Success(c, items)
}

func (h *KategoriPemasukanHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req kategoriReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := validateKategoriNama(h.DB, "kategori_pemasukan", user.ID, req.NamaKategori, 0); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category := models.KategoriPemasukan{
		UserID:       user.ID,
		NamaKategori: strings.TrimSpace(req.NamaKategori),
		Deskripsi:    req.Deskripsi,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat kategori")
		return
	}

	util.Created(c, "Kategori berhasil dibuat", category)
}

func (h *KategoriPemasukanHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var category models.KategoriPemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		}
		return
	}

	var pemasukan []models.Pemasukan
	if err := h.DB.Where("kategori_id = ? AND user_id = ?", category.ID, user.ID).
		Order("tanggal DESC").
		Find(&pemasukan).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}

	util.Success(c, gin.H{
		"kategori":  category,
		"pemasukan": pemasukan,
	})
}

func (h *KategoriPemasukanHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var category models.KategoriPemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		}
		return
	}

	var req kategoriReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := validateKategoriNama(h.DB, "kategori_pemasukan", user.ID, req.NamaKategori, category.ID); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category.NamaKategori = strings.TrimSpace(req.NamaKategori)
	category.Deskripsi = req.Deskripsi
	if err := h.DB.Save(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui kategori")
		return
	}

	util.SuccessMsg(c, "Kategori berhasil diperbarui", category)
}

func (h *KategoriPemasukanHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var category models.KategoriPemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		}
		return
	}

	var used int64
	if err := h.DB.Model(&models.Pemasukan{}).
		Where("kategori_id = ?", category.ID).
		Count(&used).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memeriksa kategori")
		return
	}
	if used > 0 {
		util.ValidationError(c, map[string][]string{
			"kategori": {"Tidak dapat menghapus kategori yang sudah digunakan di transaksi"},
		})
		return
	}

	if err := h.DB.Delete(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus kategori")
		return
	}

	util.SuccessMsg(c, "Kategori berhasil dihapus", nil)
}

// Stats returns per-day totals of the category for one month.
func (h *KategoriPemasukanHandler) Stats(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var category models.KategoriPemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		}
		return
	}

	now := time.Now()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())

	type dailyTotal struct {
		Date  string
		Total decimal.Decimal
	}
	var rows []dailyTotal
	if err := h.DB.Model(&models.Pemasukan{}).
		Select("strftime('%Y-%m-%d', tanggal) as date, SUM(jumlah) as total").
		Where("kategori_id = ? AND strftime('%m', tanggal) = ? AND strftime('%Y', tanggal) = ?",
			category.ID, monthPad(month), yearStr(year)).
		Group("date").
		Order("date").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}

	total := decimal.Zero
	transactions := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		total = total.Add(r.Total)
		transactions = append(transactions, gin.H{
			"date":  r.Date,
			"total": r.Total.InexactFloat64(),
		})
	}

	var message interface{}
	if len(rows) <= 1 {
		message = "Belum cukup transaksi di bulan ini untuk statistik harian."
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": message,
		"data": gin.H{
			"total":        total.InexactFloat64(),
			"transactions": transactions,
			"month":        month,
			"year":         year,
		},
	})
}
