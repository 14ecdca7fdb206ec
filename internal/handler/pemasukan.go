package handler

import (
	"net/http"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/storage"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PemasukanHandler serves income CRUD and totals.
type PemasukanHandler struct {
	DB    *gorm.DB
	Bukti *storage.BuktiStore
}

func NewPemasukanHandler(db *gorm.DB, bukti *storage.BuktiStore) *PemasukanHandler {
	return &PemasukanHandler{DB: db, Bukti: bukti}
}

// transaksiReq is shared by pemasukan and pengeluaran writes. Bound from
// JSON or multipart form; the receipt file rides separately as
// bukti_transaksi.
type transaksiReq struct {
	Jumlah     decimal.Decimal  `json:"jumlah" form:"jumlah"`
	Deskripsi  string           `json:"deskripsi" form:"deskripsi"`
	Tanggal    string           `json:"tanggal" form:"tanggal"`
	KategoriID uint             `json:"kategori_id" form:"kategori_id"`
	Lokasi     string           `json:"lokasi" form:"lokasi"`
	Latitude   *decimal.Decimal `json:"latitude" form:"latitude"`
	Longitude  *decimal.Decimal `json:"longitude" form:"longitude"`
}

// validateTransaksi checks the rules shared by both transaction kinds and
// resolves the date. kategoriTable names the category table the reference
// must exist in, scoped to the user.
func validateTransaksi(db *gorm.DB, userID uint, req *transaksiReq, kategoriTable string) (time.Time, map[string][]string) {
	errs := map[string][]string{}

	if err := util.ValidateJumlah(req.Jumlah); err != nil {
		errs["jumlah"] = append(errs["jumlah"], "Jumlah minimal Rp 0.01")
	}

	var tanggal time.Time
	if req.Tanggal == "" {
		errs["tanggal"] = append(errs["tanggal"], "Tanggal wajib diisi")
	} else {
		var err error
		tanggal, err = util.ParseTanggal(req.Tanggal)
		if err != nil {
			errs["tanggal"] = append(errs["tanggal"], "Format tanggal tidak valid")
		} else if util.AfterToday(tanggal) {
			errs["tanggal"] = append(errs["tanggal"], "Tanggal tidak boleh lebih dari hari ini")
		}
	}

	if req.KategoriID == 0 {
		errs["kategori_id"] = append(errs["kategori_id"], "Kategori wajib dipilih")
	} else {
		var count int64
		if err := db.Table(kategoriTable).
			Where("id = ? AND user_id = ?", req.KategoriID, userID).
			Count(&count).Error; err == nil && count == 0 {
			errs["kategori_id"] = append(errs["kategori_id"], "Kategori tidak valid atau tidak ditemukan")
		}
	}

	if err := util.ValidateKoordinat(req.Latitude, req.Longitude); err != nil {
		errs["lokasi"] = append(errs["lokasi"], "Koordinat lokasi tidak valid")
	}

	return tanggal, errs
}

// saveBukti handles an optional receipt upload. ok is false when the file
// was present but rejected; the validation message is already written.
func saveBukti(c *gin.Context, store *storage.BuktiStore) (filename string, ok bool) {
	fh, err := c.FormFile("bukti_transaksi")
	if err != nil {
		return "", true // no file attached
	}
	name, err := store.Save(c, fh)
	if err != nil {
		util.ValidationError(c, map[string][]string{
			"bukti_transaksi": {err.Error()},
		})
		return "", false
	}
	return name, true
}

func (h *PemasukanHandler) find(c *gin.Context, userID, id uint) (*models.Pemasukan, bool) {
	var pemasukan models.Pemasukan
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&pemasukan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat pemasukan")
		}
		return nil, false
	}
	return &pemasukan, true
}

// Index lists income records, optionally narrowed to month+year.
func (h *PemasukanHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	q := h.DB.Preload("Kategori").Where("user_id = ?", user.ID)

	month := queryInt(c, "month", 0)
	year := queryInt(c, "year", 0)
	if month > 0 && year > 0 {
		q = q.Where("strftime('%m', tanggal) = ? AND strftime('%Y', tanggal) = ?",
			monthPad(month), yearStr(year))
	}

	var pemasukan []models.Pemasukan
	if err := q.Order("tanggal DESC").Find(&pemasukan).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat pemasukan")
		return
	}

	util.Success(c, pemasukan)
}

func (h *PemasukanHandler) Store(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	var req transaksiReq
	if err := c.ShouldBind(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	tanggal, errs := validateTransaksi(h.DB, user.ID, &req, "kategori_pemasukan")
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	bukti, ok := saveBukti(c, h.Bukti)
	if !ok {
		return
	}

	pemasukan := models.Pemasukan{
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
	if err := h.DB.Create(&pemasukan).Error; err != nil {
		h.Bukti.Delete(bukti)
		util.Error(c, http.StatusInternalServerError, "Gagal menambahkan pemasukan")
		return
	}

	util.Created(c, "Pemasukan berhasil ditambahkan", pemasukan)
}

func (h *PemasukanHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	var pemasukan models.Pemasukan
	if err := h.DB.Preload("Kategori").
		Where("id = ? AND user_id = ?", id, user.ID).
		First(&pemasukan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat pemasukan")
		}
		return
	}

	util.Success(c, pemasukan)
}

func (h *PemasukanHandler) Update(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	pemasukan, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	var req transaksiReq
	if err := c.ShouldBind(&req); err != nil {
		util.ValidationError(c, map[string][]string{"body": {"Data tidak dapat dibaca"}})
		return
	}

	tanggal, errs := validateTransaksi(h.DB, user.ID, &req, "kategori_pemasukan")
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	oldBukti := pemasukan.BuktiTransaksi
	newBukti, ok := saveBukti(c, h.Bukti)
	if !ok {
		return
	}
	if newBukti != "" {
		pemasukan.BuktiTransaksi = newBukti
	}

	pemasukan.KategoriID = req.KategoriID
	pemasukan.Jumlah = req.Jumlah
	pemasukan.Deskripsi = req.Deskripsi
	pemasukan.Tanggal = tanggal
	pemasukan.Lokasi = req.Lokasi
	pemasukan.Latitude = req.Latitude
	pemasukan.Longitude = req.Longitude

	if err := h.DB.Save(pemasukan).Error; err != nil {
		h.Bukti.Delete(newBukti)
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui pemasukan")
		return
	}
	if newBukti != "" && oldBukti != "" {
		h.Bukti.Delete(oldBukti)
	}

	util.SuccessMsg(c, "Pemasukan berhasil diperbarui", pemasukan)
}

func (h *PemasukanHandler) Destroy(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	pemasukan, ok := h.find(c, user.ID, id)
	if !ok {
		return
	}

	if err := h.DB.Delete(pemasukan).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal menghapus pemasukan")
		return
	}
	h.Bukti.Delete(pemasukan.BuktiTransaksi)

	util.SuccessMsg(c, "Pemasukan berhasil dihapus", nil)
}

// MonthlyTotal sums income for one month.
func (h *PemasukanHandler) MonthlyTotal(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
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

	var total decimal.NullDecimal
	if err := h.DB.Model(&models.Pemasukan{}).
		Where("user_id = ? AND strftime('%m', tanggal) = ? AND strftime('%Y', tanggal) = ?",
			user.ID, monthPad(month), yearStr(year)).
		Select("SUM(jumlah)").
		Row().Scan(&total); err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat total")
		return
	}

	util.Success(c, gin.H{
		"total": total.Decimal.InexactFloat64(),
		"month": month,
		"year":  year,
	})
}

// YearlyTotal returns income sums for the trailing twelve months, oldest
// first, zero-filled.
func (h *PemasukanHandler) YearlyTotal(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	type monthTotal struct {
		Period string
		Total  decimal.Decimal
	}
	var rows []monthTotal
	if err := h.DB.Model(&models.Pemasukan{}).
		Select("strftime('%Y-%m', tanggal) as period, SUM(jumlah) as total").
		Where("user_id = ?", user.ID).
		Group("period").
		Scan(&rows).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat total")
		return
	}
	byPeriod := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		byPeriod[r.Period] = r.Total
	}

	now := time.Now()
	// anchor on the first of the month so day-of-month overflow cannot
	// skip a bucket
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	series := make([]gin.H, 0, 12)
	for i := 11; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		key := m.Format("2006-01")
		series = append(series, gin.H{
			"period": m.Format("Jan 2006"),
			"month":  int(m.Month()),
			"year":   m.Year(),
			"total":  byPeriod[key].InexactFloat64(),
		})
	}

	util.Success(c, series)
}
