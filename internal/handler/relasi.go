package handler

import (
	"net/http"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/service"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RelasiHandler serves the target-income allocation endpoints. The rules
// themselves live in the service package.
type RelasiHandler struct {
	DB *gorm.DB
}

func NewRelasiHandler(db *gorm.DB) *RelasiHandler {
	return &RelasiHandler{DB: db}
}

type relasiReq struct {
	IDTarget      uint            `json:"id_target"`
	IDPemasukan   uint            `json:"id_pemasukan"`
	JumlahAlokasi decimal.Decimal `json:"jumlah_alokasi"`
}

func relasiResponse(r *models.RelasiTargetPemasukan) gin.H {
	resp := gin.H{
		"id":             r.ID,
		"id_target":      r.IDTarget,
		"id_pemasukan":   r.IDPemasukan,
		"jumlah_alokasi": r.JumlahAlokasi.InexactFloat64(),
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
	}
	if r.Target.ID != 0 {
		resp["target"] = gin.H{
			"id":          r.Target.ID,
			"nama_target": r.Target.NamaTarget,
			"target_dana": r.Target.TargetDana.InexactFloat64(),
			"terkumpul":   r.Target.Terkumpul.InexactFloat64(),
			"status":      r.Target.Status,
		}
	}
	if r.Pemasukan.ID != 0 {
		resp["pemasukan"] = gin.H{
			"id":        r.Pemasukan.ID,
			"jumlah":    r.Pemasukan.Jumlah.InexactFloat64(),
			"tanggal":   r.Pemasukan.Tanggal.Format("2006-01-02"),
			"deskripsi": r.Pemasukan.Deskripsi,
		}
	}
	return resp
}

// userRelasi scopes allocations to rows whose target belongs to the user.
func (h *RelasiHandler) userRelasi(userID uint) *gorm.DB {
	return h.DB.Model(&models.RelasiTargetPemasukan{}).
		Joins("JOIN target ON target.id = relasi_target_pemasukan.id_target").
		Where("target.user_id = ?", userID)
}

func (h *RelasiHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var relasi []models.RelasiTargetPemasukan
	if err := h.userRelasi(user.ID).
		Preload("Target").Preload("Pemasukan").
		Order("relasi_target_pemasukan.created_at DESC").
		Find(&relasi).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		return
	}

	items := make([]gin.H, 0, len(relasi))
	for i := range relasi {
		items = append(items, relasiResponse(&relasi[i]))
	}

	util.Success(c, items)
}

func (h *RelasiHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req relasiReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	relasi, err := service.CreateAlokasi(h.DB, user.ID, service.AlokasiInput{
		IDTarget:      req.IDTarget,
		IDPemasukan:   req.IDPemasukan,
		JumlahAlokasi: req.JumlahAlokasi,
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}

	if err := h.DB.Preload("Target").Preload("Pemasukan").
		First(relasi, relasi.ID).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		return
	}

	util.Created(c, "Alokasi berhasil ditambahkan", relasiResponse(relasi))
}

func (h *RelasiHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var relasi models.RelasiTargetPemasukan
	err := h.userRelasi(user.ID).
		Preload("Target").Preload("Pemasukan").
		Where("relasi_target_pemasukan.id = ?", id).
		First(&relasi).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		}
		return
	}

	util.Success(c, relasiResponse(&relasi))
}

func (h *RelasiHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var req relasiReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	relasi, err := service.UpdateAlokasi(h.DB, user.ID, id, service.AlokasiInput{
		IDTarget:      req.IDTarget,
		IDPemasukan:   req.IDPemasukan,
		JumlahAlokasi: req.JumlahAlokasi,
	})
	if err != nil {
		renderServiceError(c, err)
		return
	}

	if err := h.DB.Preload("Target").Preload("Pemasukan").
		First(relasi, relasi.ID).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		return
	}

	util.SuccessMsg(c, "Alokasi berhasil diperbarui", relasiResponse(relasi))
}

func (h *RelasiHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := service.DeleteAlokasi(h.DB, user.ID, id); err != nil {
		renderServiceError(c, err)
		return
	}

	util.SuccessMsg(c, "Alokasi berhasil dihapus", nil)
}

// ByPemasukan lists an income entry's allocations plus its remaining
// unallocated amount.
func (h *RelasiHandler) ByPemasukan(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var pemasukan models.Pemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&pemasukan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat pemasukan")
		}
		return
	}

	var relasi []models.RelasiTargetPemasukan
	if err := h.DB.Preload("Target").
		Where("id_pemasukan = ?", pemasukan.ID).
		Order("created_at DESC").
		Find(&relasi).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		return
	}

	allocated := decimal.Zero
	items := make([]gin.H, 0, len(relasi))
	for i := range relasi {
		allocated = allocated.Add(relasi[i].JumlahAlokasi)
		items = append(items, relasiResponse(&relasi[i]))
	}

	util.Success(c, gin.H{
		"pemasukan": gin.H{
			"id":        pemasukan.ID,
			"jumlah":    pemasukan.Jumlah.InexactFloat64(),
			"tanggal":   pemasukan.Tanggal.Format("2006-01-02"),
			"deskripsi": pemasukan.Deskripsi,
		},
		"alokasi":           items,
		"total_alokasi":     allocated.InexactFloat64(),
		"sisa_dialokasikan": pemasukan.Jumlah.Sub(allocated).InexactFloat64(),
	})
}

// ByTarget lists a target's allocations with the contributing entries.
func (h *RelasiHandler) ByTarget(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var target models.Target
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
		}
		return
	}

	var relasi []models.RelasiTargetPemasukan
	if err := h.DB.Preload("Pemasukan").
		Where("id_target = ?", target.ID).
		Order("created_at DESC").
		Find(&relasi).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat alokasi")
		return
	}

	items := make([]gin.H, 0, len(relasi))
	for i := range relasi {
		items = append(items, relasiResponse(&relasi[i]))
	}

	util.Success(c, gin.H{
		"target":      targetResponse(&target),
		"alokasi":     items,
		"jumlah_data": len(items),
	})
}

// SummaryByTarget buckets a target's allocations by the month of the
// contributing income entry.
func (h *RelasiHandler) SummaryByTarget(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var target models.Target
	if err := h.DB.Where("id = ? AND user_id = ?", id, user.ID).First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
		}
		return
	}

	type monthRow struct {
		Period string
		Count  int64
		Total  decimal.Decimal
	}
	var rows []monthRow
	if err := h.DB.Model(&models.RelasiTargetPemasukan{}).
		Select("strftime('%Y-%m', pemasukan.tanggal) as period, COUNT(*) as count, SUM(relasi_target_pemasukan.jumlah_alokasi) as total").
		Joins("JOIN pemasukan ON pemasukan.id = relasi_target_pemasukan.id_pemasukan").
		Where("relasi_target_pemasukan.id_target = ?", target.ID).
		Group("period").
		Order("period").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}

	perBulan := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		perBulan = append(perBulan, gin.H{
			"period":        r.Period,
			"jumlah_data":   r.Count,
			"total_alokasi": r.Total.InexactFloat64(),
		})
	}

	util.Success(c, gin.H{
		"target":    targetResponse(&target),
		"per_bulan": perBulan,
	})
}
