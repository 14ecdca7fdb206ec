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

// TargetHandler serves savings-target CRUD and summary.
type TargetHandler struct {
	DB *gorm.DB
}

func NewTargetHandler(db *gorm.DB) *TargetHandler {
	return &TargetHandler{DB: db}
}

type targetReq struct {
	NamaTarget       string          `json:"nama_target"`
	TargetDana       decimal.Decimal `json:"target_dana"`
	TargetTanggal    string          `json:"target_tanggal"`
	Deskripsi        string          `json:"deskripsi"`
	KategoriTargetID uint            `json:"kategori_target_id"`
}

// validate checks target rules. The deadline must lie in the future only
// on create; updates may keep a date that has since passed.
func (h *TargetHandler) validate(userID uint, req *targetReq, isCreate bool) (map[string][]string, *models.Target) {
	errs := map[string][]string{}

	if req.NamaTarget == "" {
		errs["nama_target"] = append(errs["nama_target"], "Nama target wajib diisi")
	} else if len(req.NamaTarget) > 255 {
		errs["nama_target"] = append(errs["nama_target"], "Nama target maksimal 255 karakter")
	}

	if req.TargetDana.LessThanOrEqual(decimal.Zero) {
		errs["target_dana"] = append(errs["target_dana"], "Target dana minimal Rp 0.01")
	}

	target := &models.Target{}
	if req.TargetTanggal == "" {
		errs["target_tanggal"] = append(errs["target_tanggal"], "Target tanggal wajib diisi")
	} else {
		t, err := util.ParseTanggal(req.TargetTanggal)
		if err != nil {
			errs["target_tanggal"] = append(errs["target_tanggal"], "Format tanggal tidak valid")
		} else if isCreate && !util.AfterToday(t) {
			errs["target_tanggal"] = append(errs["target_tanggal"], "Target tanggal harus setelah hari ini")
		} else {
			target.TargetTanggal = t
		}
	}

	if req.KategoriTargetID == 0 {
		errs["kategori_target_id"] = append(errs["kategori_target_id"], "Kategori target wajib dipilih")
	} else {
		var count int64
		if err := h.DB.Model(&models.KategoriTarget{}).
			Where("id = ? AND user_id = ?", req.KategoriTargetID, userID).
			Count(&count).Error; err == nil && count == 0 {
			errs["kategori_target_id"] = append(errs["kategori_target_id"], "Kategori target tidak valid")
		}
	}

	return errs, target
}

func targetResponse(t *models.Target) gin.H {
	return gin.H{
		"id":                 t.ID,
		"nama_target":        t.NamaTarget,
		"target_dana":        t.TargetDana.InexactFloat64(),
		"terkumpul":          t.Terkumpul.InexactFloat64(),
		"target_tanggal":     t.TargetTanggal.Format("2006-01-02"),
		"deskripsi":          t.Deskripsi,
		"status":             t.Status,
		"persentase":         t.PersentaseTercapai(),
		"sisa_target":        t.SisaTarget().InexactFloat64(),
		"kategori_target_id": t.KategoriTargetID,
		"created_at":         t.CreatedAt,
		"updated_at":         t.UpdatedAt,
	}
}

func (h *TargetHandler) find(c *gin.Context, userID, id uint) (*models.Target, bool) {
	var target models.Target
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&target).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
		}
		return nil, false
	}
	return &target, true
}

// Index lists targets with optional status/date filters and sorting.
func (h *TargetHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	q := h.DB.Where("user_id = ?", user.ID)

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if start, end := c.Query("start_date"), c.Query("end_date"); start != "" && end != "" {
		q = q.Where("target_tanggal BETWEEN ? AND ?", start, end)
	}

	sortBy := c.DefaultQuery("sort_by", "target_tanggal")
	switch sortBy {
	case "target_tanggal", "target_dana", "terkumpul", "nama_target", "created_at":
	default:
		sortBy = "target_tanggal"
	}
	dir := "ASC"
	if c.DefaultQuery("sort_dir", "asc") == "desc" {
		dir = "DESC"
	}

	var targets []models.Target
	if err := q.Order(sortBy + " " + dir).Find(&targets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
		return
	}

	items := make([]gin.H, 0, len(targets))
	for i := range targets {
		items = append(items, targetResponse(&targets[i]))
	}

	util.Success(c, items)
}

func (h *TargetHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req targetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	errs, parsed := h.validate(user.ID, &req, true)
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	target := models.Target{
		UserID:           user.ID,
		KategoriTargetID: req.KategoriTargetID,
		NamaTarget:       req.NamaTarget,
		TargetDana:       req.TargetDana,
		Terkumpul:        decimal.Zero,
		TargetTanggal:    parsed.TargetTanggal,
		Deskripsi:        req.Deskripsi,
		Status:           models.StatusAktif,
	}
	if err := h.DB.Create(&target).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat target")
		return
	}

	util.Created(c, "Target berhasil dibuat", targetResponse(&target))
}

// Show returns a target with its allocations and their income entries.
func (h *TargetHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	target, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var relasi []models.RelasiTargetPemasukan
	if err := h.DB.Preload("Pemasukan").
		Where("id_target = ?", target.ID).
		Order("created_at DESC").
		Find(&relasi).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
		return
	}

	alokasi := make([]gin.H, 0, len(relasi))
	for _, r := range relasi {
		alokasi = append(alokasi, gin.H{
			"id":              r.ID,
			"jumlah_alokasi":  r.JumlahAlokasi.InexactFloat64(),
			"tanggal_alokasi": r.CreatedAt.Format("2006-01-02"),
			"pemasukan": gin.H{
				"id":        r.Pemasukan.ID,
				"jumlah":    r.Pemasukan.Jumlah.InexactFloat64(),
				"tanggal":   r.Pemasukan.Tanggal.Format("2006-01-02"),
				"deskripsi": r.Pemasukan.Deskripsi,
			},
		})
	}

	resp := targetResponse(target)
	resp["alokasi"] = alokasi

	util.Success(c, resp)
}

func (h *TargetHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	target, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var req targetReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	errs, parsed := h.validate(user.ID, &req, false)
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	danaChanged := !target.TargetDana.Equal(req.TargetDana)

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		target.NamaTarget = req.NamaTarget
		target.TargetDana = req.TargetDana
		target.TargetTanggal = parsed.TargetTanggal
		target.Deskripsi = req.Deskripsi
		target.KategoriTargetID = req.KategoriTargetID
		if err := tx.Save(target).Error; err != nil {
			return err
		}
		// goal changes can flip the derived status either way
		if danaChanged {
			return service.RecomputeTarget(tx, target.ID)
		}
		return nil
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui target")
		return
	}

	if danaChanged {
		if err := h.DB.First(target, target.ID).Error; err != nil {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat target")
			return
		}
	}

	util.SuccessMsg(c, "Target berhasil diperbarui", targetResponse(target))
}

// Destroy removes a target together with its allocations.
func (h *TargetHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	target, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id_target = ?", target.ID).
			Delete(&models.RelasiTargetPemasukan{}).Error; err != nil {
			return err
		}
		return tx.Delete(target).Error
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus target")
		return
	}

	util.SuccessMsg(c, "Target berhasil dihapus", nil)
}

// Summary returns counts by status plus collected sums over active targets.
func (h *TargetHandler) Summary(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var totalTarget, activeTargets, achievedTargets int64
	if err := h.DB.Model(&models.Target{}).
		Where("user_id = ?", user.ID).
		Count(&totalTarget).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}
	if err := h.DB.Model(&models.Target{}).
		Where("user_id = ? AND status = ?", user.ID, models.StatusAktif).
		Count(&activeTargets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}
	if err := h.DB.Model(&models.Target{}).
		Where("user_id = ? AND status = ?", user.ID, models.StatusTercapai).
		Count(&achievedTargets).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}

	type sums struct {
		TotalNeeded    decimal.Decimal
		TotalCollected decimal.Decimal
	}
	var s sums
	if err := h.DB.Model(&models.Target{}).
		Select("SUM(target_dana) as total_needed, SUM(terkumpul) as total_collected").
		Where("user_id = ? AND status = ?", user.ID, models.StatusAktif).
		Scan(&s).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat ringkasan")
		return
	}

	percentage := 0.0
	if s.TotalNeeded.IsPositive() {
		percentage, _ = s.TotalCollected.Div(s.TotalNeeded).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	}

	util.Success(c, gin.H{
		"total_target":         totalTarget,
		"active_targets":       activeTargets,
		"achieved_targets":     achievedTargets,
		"total_needed":         s.TotalNeeded.InexactFloat64(),
		"total_collected":      s.TotalCollected.InexactFloat64(),
		"percentage_collected": percentage,
	})
}
