package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler writes a user's transactions out as CSV or XLSX.
type ExportHandler struct {
	DB *gorm.DB
}

func NewExportHandler(db *gorm.DB) *ExportHandler {
	return &ExportHandler{DB: db}
}

// exportRow is one flattened transaction line shared by both formats.
type exportRow struct {
	Jenis     string
	Tanggal   string
	Kategori  string
	Jumlah    string
	Deskripsi string
	Lokasi    string
}

var exportHeader = []string{"Jenis", "Tanggal", "Kategori", "Jumlah", "Deskripsi", "Lokasi"}

// rows collects the user's income and expense records, newest first,
// optionally narrowed to one year.
func (h *ExportHandler) rows(userID uint, year int) ([]exportRow, error) {
	incomeQ := h.DB.Preload("Kategori").Where("user_id = ?", userID)
	expenseQ := h.DB.Preload("Kategori").Where("user_id = ?", userID)
	if year > 0 {
		incomeQ = incomeQ.Where("strftime('%Y', tanggal) = ?", yearStr(year))
		expenseQ = expenseQ.Where("strftime('%Y', tanggal) = ?", yearStr(year))
	}

	var pemasukan []models.Pemasukan
	if err := incomeQ.Order("tanggal DESC").Find(&pemasukan).Error; err != nil {
		return nil, err
	}
	var pengeluaran []models.Pengeluaran
	if err := expenseQ.Order("tanggal DESC").Find(&pengeluaran).Error; err != nil {
		return nil, err
	}

	out := make([]exportRow, 0, len(pemasukan)+len(pengeluaran))
	for _, p := range pemasukan {
		out = append(out, exportRow{
			Jenis:     "Pemasukan",
			Tanggal:   p.Tanggal.Format("2006-01-02"),
			Kategori:  p.Kategori.NamaKategori,
			Jumlah:    p.Jumlah.StringFixed(2),
			Deskripsi: p.Deskripsi,
			Lokasi:    p.Lokasi,
		})
	}
	for _, p := range pengeluaran {
		out = append(out, exportRow{
			Jenis:     "Pengeluaran",
			Tanggal:   p.Tanggal.Format("2006-01-02"),
			Kategori:  p.Kategori.NamaKategori,
			Jumlah:    p.Jumlah.StringFixed(2),
			Deskripsi: p.Deskripsi,
			Lokasi:    p.Lokasi,
		})
	}
	return out, nil
}

// CSV streams the transactions as a UTF-8 CSV. The BOM keeps Excel from
// mangling non-ASCII text.
func (h *ExportHandler) CSV(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	rows, err := h.rows(user.ID, queryInt(c, "year", 0))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
		return
	}

	var buf bytes.Buffer
	buf.WriteString("\xEF\xBB\xBF")
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
		return
	}
	for _, r := range rows {
		if err := w.Write([]string{r.Jenis, r.Tanggal, r.Kategori, r.Jumlah, r.Deskripsi, r.Lokasi}); err != nil {
			util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
			return
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
		return
	}

	filename := fmt.Sprintf("transaksi-%s.csv", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// XLSX writes the transactions as a spreadsheet.
func (h *ExportHandler) XLSX(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	rows, err := h.rows(user.ID, queryInt(c, "year", 0))
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Transaksi"
	f.SetSheetName("Sheet1", sheet)

	for i, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, name)
	}
	for rowIdx, r := range rows {
		values := []string{r.Jenis, r.Tanggal, r.Kategori, r.Jumlah, r.Deskripsi, r.Lokasi}
		for colIdx, v := range values {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal mengekspor data")
		return
	}

	filename := fmt.Sprintf("transaksi-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}
