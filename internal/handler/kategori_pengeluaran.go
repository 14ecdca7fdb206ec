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

// KategoriPengeluaranHandler serves expense-category CRUD and the budget
// statistics endpoints.
type KategoriPengeluaranHandler struct {
	DB *gorm.DB
}

func NewKategoriPengeluaranHandler(db *gorm.DB) *KategoriPengeluaranHandler {
	return &KategoriPengeluaranHandler{DB: db}
}

type kategoriPengeluaranReq struct {
	NamaKategori string          `json:"nama_kategori"`
	Deskripsi    string          `json:"deskripsi"`
	Anggaran     decimal.Decimal `json:"anggaran"`
}

func (h *KategoriPengeluaranHandler) validate(userID uint, req *kategoriPengeluaranReq, excludeID uint) map[string][]string {
	errs := validateKategoriNama(h.DB, "kategori_pengeluaran", userID, req.NamaKategori, excludeID)
	if req.Anggaran.IsNegative() {
		errs["anggaran"] = append(errs["anggaran"], "Anggaran tidak boleh negatif")
	}
	return errs
}

func (h *KategoriPengeluaranHandler) find(c *gin.Context, userID, id uint) (*models.KategoriPengeluaran, bool) {
	var category models.KategoriPengeluaran
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&category).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		}
		return nil, false
	}
	return &category, true
}

// totalPengeluaran sums the category's expenses, optionally narrowed to a
// month and/or year.
func (h *KategoriPengeluaranHandler) totalPengeluaran(kategoriID uint, month, year int) (decimal.Decimal, error) {
	q := h.DB.Model(&models.Pengeluaran{}).Where("kategori_id = ?", kategoriID)
	if month > 0 {
		q = q.Where("strftime('%m', tanggal) = ?", monthPad(month))
	}
	if year > 0 {
		q = q.Where("strftime('%Y', tanggal) = ?", yearStr(year))
	}
	var total decimal.NullDecimal
	if err := q.Select("SUM(jumlah)").Row().Scan(&total); err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

func persentaseAnggaran(total, anggaran decimal.Decimal) float64 {
	if anggaran.IsZero() {
		return 0
	}
	p, _ := total.Div(anggaran).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return p
}

func (h *KategoriPengeluaranHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var categories []models.KategoriPengeluaran
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
	if err := h.DB.Model(&models.Pengeluaran{}).
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
			"id":                     k.ID,
			"nama_kategori":          k.NamaKategori,
			"deskripsi":              k.Deskripsi,
			"anggaran":               k.Anggaran.InexactFloat64(),
			"user_id":                k.UserID,
			"pengeluaran_count":      u.Count,
			"pengeluaran_sum_jumlah": u.Total.InexactFloat64(),
			"created_at":             k.CreatedAt,
			"updated_at":             k.UpdatedAt,
		})
	}

	util.Success(c, items)
}

func (h *KategoriPengeluaranHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req kategoriPengeluaranReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := h.validate(user.ID, &req, 0); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category := models.KategoriPengeluaran{
		UserID:       user.ID,
		NamaKategori: strings.TrimSpace(req.NamaKategori),
		Deskripsi:    req.Deskripsi,
		Anggaran:     req.Anggaran,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat kategori")
		return
	}

	util.Created(c, "Kategori pengeluaran berhasil dibuat", category)
}

func (h *KategoriPengeluaranHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var pengeluaran []models.Pengeluaran
	if err := h.DB.Where("kategori_id = ? AND user_id = ?", category.ID, user.ID).
		Order("tanggal DESC").
		Find(&pengeluaran).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}

	total, err := h.totalPengeluaran(category.ID, 0, 0)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}

	util.Success(c, gin.H{
		"kategori":    category,
		"pengeluaran": pengeluaran,
		"statistik": gin.H{
			"total_pengeluaran":   total.InexactFloat64(),
			"persentase_anggaran": persentaseAnggaran(total, category.Anggaran),
			"sisa_anggaran":       category.Anggaran.Sub(total).InexactFloat64(),
		},
	})
}

func (h *KategoriPengeluaranHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var req kategoriPengeluaranReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := h.validate(user.ID, &req, category.ID); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category.NamaKategori = strings.TrimSpace(req.NamaKategori)
	category.Deskripsi = req.Deskripsi
	category.Anggaran = req.Anggaran
	if err := h.DB.Save(category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui kategori")
		return
	}

	util.SuccessMsg(c, "Kategori pengeluaran berhasil diperbarui", category)
}

func (h *KategoriPengeluaranHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var used int64
	if err := h.DB.Model(&models.Pengeluaran{}).
		Where("kategori_id = ?", category.ID).
		Count(&used).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memeriksa kategori")
		return
	}
	if used > 0 {
		util.ValidationError(c, map[string][]string{
			"kategori": {"Tidak dapat menghapus kategori yang sudah digunakan di transaksi pengeluaran"},
		})
		return
	}

	if err := h.DB.Delete(category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus kategori")
		return
	}

	util.SuccessMsg(c, "Kategori pengeluaran berhasil dihapus", nil)
}

// DailyStats returns one bucket per calendar day of a month; days without
// rows emit zero, never a missing key.
func (h *KategoriPengeluaranHandler) DailyStats(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	month := queryInt(c, "month", 0)
	year := queryInt(c, "year", 0)
	if month < 1 || month > 12 || year < 2000 {
		util.ValidationError(c, map[string][]string{
			"month": {"Parameter month (1-12) dan year wajib diisi"},
		})
		return
	}

	type dayTotal struct {
		Day   int
		Total decimal.Decimal
	}
	var rows []dayTotal
	if err := h.DB.Model(&models.Pengeluaran{}).
		Select("CAST(strftime('%d', tanggal) AS INTEGER) as day, SUM(jumlah) as total").
		Where("kategori_id = ? AND strftime('%m', tanggal) = ? AND strftime('%Y', tanggal) = ?",
			category.ID, monthPad(month), yearStr(year)).
		Group("day").
		Order("day").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	byDay := make(map[int]decimal.Decimal, len(rows))
	for _, r := range rows {
		byDay[r.Day] = r.Total
	}

	daysInMonth := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Day()
	dailyData := make(map[int]float64, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		dailyData[day] = byDay[day].InexactFloat64()
	}

	total, err := h.totalPengeluaran(category.ID, month, year)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}

	util.Success(c, gin.H{
		"total":      total.InexactFloat64(),
		"presentase": persentaseAnggaran(total, category.Anggaran),
		"sisa":       category.Anggaran.Sub(total).InexactFloat64(),
		"daily_data": dailyData,
		"month":      month,
		"year":       year,
	})
}

// MonthlyStats returns one bucket per month of a year with Indonesian
// month labels, zero-filled.
func (h *KategoriPengeluaranHandler) MonthlyStats(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	category, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	year := queryInt(c, "year", 0)
	if year < 2000 {
		util.ValidationError(c, map[string][]string{
			"year": {"Parameter year wajib diisi"},
		})
		return
	}

	type monthTotal struct {
		Month int
		Total decimal.Decimal
	}
	var rows []monthTotal
	if err := h.DB.Model(&models.Pengeluaran{}).
		Select("CAST(strftime('%m', tanggal) AS INTEGER) as month, SUM(jumlah) as total").
		Where("kategori_id = ? AND strftime('%Y', tanggal) = ?", category.ID, yearStr(year)).
		Group("month").
		Order("month").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	byMonth := make(map[int]decimal.Decimal, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r.Total
	}

	monthlyData := make(map[string]float64, 12)
	for month := 1; month <= 12; month++ {
		monthlyData[bulanNames[month-1]] = byMonth[month].InexactFloat64()
	}

	total, err := h.totalPengeluaran(category.ID, 0, year)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}

	util.Success(c, gin.H{
		"total":        total.InexactFloat64(),
		"presentase":   persentaseAnggaran(total, category.Anggaran),
		"sisa":         category.Anggaran.Sub(total).InexactFloat64(),
		"monthly_data": monthlyData,
		"year":         year,
	})
}
