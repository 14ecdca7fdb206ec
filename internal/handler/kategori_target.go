package handler

import (
	"net/http"
	"strings"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// KategoriTargetHandler serves target-category CRUD and stats.
type KategoriTargetHandler struct {
	DB *gorm.DB
}

func NewKategoriTargetHandler(db *gorm.DB) *KategoriTargetHandler {
	return &KategoriTargetHandler{DB: db}
}

func (h *KategoriTargetHandler) find(c *gin.Context, userID, id uint) (*models.KategoriTarget, bool) {
	var category models.KategoriTarget
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

func (h *KategoriTargetHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var categories []models.KategoriTarget
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("nama_kategori").
		Find(&categories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}

	type usage struct {
		KategoriTargetID uint
		Count            int64
		TotalDana        decimal.Decimal
		TotalTerkumpul   decimal.Decimal
	}
	var usages []usage
	if err := h.DB.Model(&models.Target{}).
		Select("kategori_target_id, COUNT(*) as count, SUM(target_dana) as total_dana, SUM(terkumpul) as total_terkumpul").
		Where("user_id = ?", user.ID).
		Group("kategori_target_id").
		Scan(&usages).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}
	usageByID := make(map[uint]usage, len(usages))
	for _, u := range usages {
		usageByID[u.KategoriTargetID] = u
	}

	items := make([]gin.H, 0, len(categories))
	for _, k := range categories {
		u := usageByID[k.ID]
		persentase := 0.0
		if u.TotalDana.IsPositive() {
			persentase, _ = u.TotalTerkumpul.Div(u.TotalDana).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		}
		items = append(items, gin.H{
			"id":                    k.ID,
			"nama_kategori":         k.NamaKategori,
			"deskripsi":             k.Deskripsi,
			"user_id":               k.UserID,
			"jumlah_target":         u.Count,
			"total_target_dana":     u.TotalDana.InexactFloat64(),
			"total_terkumpul":       u.TotalTerkumpul.InexactFloat64(),
			"persentase_pencapaian": persentase,
			"created_at":            k.CreatedAt,
			"updated_at":            k.UpdatedAt,
		})
	}

	util.Success(c, items)
}

func (h *KategoriTargetHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req kategoriReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := validateKategoriNama(h.DB, "kategori_target", user.ID, req.NamaKategori, 0); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category := models.KategoriTarget{
		UserID:       user.ID,
		NamaKategori: strings.TrimSpace(req.NamaKategori),
		Deskripsi:    req.Deskripsi,
	}
	if err := h.DB.Create(&category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat kategori")
		return
	}

	util.Created(c, "Kategori target berhasil dibuat", category)
}

func (h *KategoriTargetHandler) Show(c *gin.Context) {
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

	var targets []models.Target
	if err := h.DB.Where("kategori_target_id = ? AND user_id = ?", category.ID, user.ID).
		Order("created_at DESC").
		Find(&targets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat kategori")
		return
	}

	totalDana := decimal.Zero
	totalTerkumpul := decimal.Zero
	byStatus := map[string]int{
		models.StatusAktif:         0,
		models.StatusTercapai:      0,
		models.StatusTidakTercapai: 0,
	}
	for _, t := range targets {
		totalDana = totalDana.Add(t.TargetDana)
		totalTerkumpul = totalTerkumpul.Add(t.Terkumpul)
		byStatus[t.Status]++
	}
	persentase := 0.0
	if totalDana.IsPositive() {
		persentase, _ = totalTerkumpul.Div(totalDana).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	util.Success(c, gin.H{
		"kategori": category,
		"targets":  targets,
		"statistik": gin.H{
			"total_target_dana":            totalDana.InexactFloat64(),
			"total_terkumpul":              totalTerkumpul.InexactFloat64(),
			"persentase_pencapaian":        persentase,
			"jumlah_target_aktif":          byStatus[models.StatusAktif],
			"jumlah_target_tercapai":       byStatus[models.StatusTercapai],
			"jumlah_target_tidak_tercapai": byStatus[models.StatusTidakTercapai],
		},
	})
}

func (h *KategoriTargetHandler) Update(c *gin.Context) {
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

	var req kategoriReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"nama_kategori": {"Nama kategori wajib diisi"}})
		return
	}
	if errs := validateKategoriNama(h.DB, "kategori_target", user.ID, req.NamaKategori, category.ID); len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	category.NamaKategori = strings.TrimSpace(req.NamaKategori)
	category.Deskripsi = req.Deskripsi
	if err := h.DB.Save(category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui kategori")
		return
	}

	util.SuccessMsg(c, "Kategori target berhasil diperbarui", category)
}

func (h *KategoriTargetHandler) Destroy(c *gin.Context) {
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
	if err := h.DB.Model(&models.Target{}).
		Where("kategori_target_id = ?", category.ID).
		Count(&used).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memeriksa kategori")
		return
	}
	if used > 0 {
		util.ValidationError(c, map[string][]string{
			"kategori": {"Tidak dapat menghapus kategori yang sudah digunakan dalam target"},
		})
		return
	}

	if err := h.DB.Delete(category).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus kategori")
		return
	}

	util.SuccessMsg(c, "Kategori target berhasil dihapus", nil)
}

// MonthlyStats buckets the category's targets by creation month for one
// year; every month emits a bucket even when empty.
func (h *KategoriTargetHandler) MonthlyStats(c *gin.Context) {
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

	type monthRow struct {
		Month          int
		Count          int64
		TotalTarget    decimal.Decimal
		TotalTerkumpul decimal.Decimal
	}
	var rows []monthRow
	if err := h.DB.Model(&models.Target{}).
		Select("CAST(strftime('%m', created_at) AS INTEGER) as month, COUNT(*) as count, SUM(target_dana) as total_target, SUM(terkumpul) as total_terkumpul").
		Where("kategori_target_id = ? AND strftime('%Y', created_at) = ?", category.ID, yearStr(year)).
		Group("month").
		Order("month").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	byMonth := make(map[int]monthRow, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}

	monthlyData := make(map[string]gin.H, 12)
	var totalTargets int64
	totalDana := decimal.Zero
	totalTerkumpul := decimal.Zero
	for month := 1; month <= 12; month++ {
		r := byMonth[month]
		totalTargets += r.Count
		totalDana = totalDana.Add(r.TotalTarget)
		totalTerkumpul = totalTerkumpul.Add(r.TotalTerkumpul)
		monthlyData[bulanNames[month-1]] = gin.H{
			"target_count":    r.Count,
			"total_target":    r.TotalTarget.InexactFloat64(),
			"total_terkumpul": r.TotalTerkumpul.InexactFloat64(),
		}
	}

	util.Success(c, gin.H{
		"monthly_data": monthlyData,
		"year":         year,
		"total_statistics": gin.H{
			"total_targets":     totalTargets,
			"total_target_dana": totalDana.InexactFloat64(),
			"total_terkumpul":   totalTerkumpul.InexactFloat64(),
		},
	})
}

// StatusDistribution groups the category's targets by status.
func (h *KategoriTargetHandler) StatusDistribution(c *gin.Context) {
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

	type statusRow struct {
		Status         string
		Count          int64
		TotalTarget    decimal.Decimal
		TotalTerkumpul decimal.Decimal
	}
	var rows []statusRow
	if err := h.DB.Model(&models.Target{}).
		Select("status, COUNT(*) as count, SUM(target_dana) as total_target, SUM(terkumpul) as total_terkumpul").
		Where("kategori_target_id = ?", category.ID).
		Group("status").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	byStatus := make(map[string]statusRow, len(rows))
	for _, r := range rows {
		byStatus[r.Status] = r
	}

	distribution := make(map[string]gin.H, 3)
	for _, status := range []string{models.StatusAktif, models.StatusTercapai, models.StatusTidakTercapai} {
		r := byStatus[status]
		distribution[status] = gin.H{
			"count":           r.Count,
			"total_target":    r.TotalTarget.InexactFloat64(),
			"total_terkumpul": r.TotalTerkumpul.InexactFloat64(),
		}
	}

	util.Success(c, gin.H{
		"kategori":     category.NamaKategori,
		"distribution": distribution,
	})
}
