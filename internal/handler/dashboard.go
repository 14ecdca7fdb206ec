package handler

import (
	"net/http"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/service"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardHandler aggregates income and expenses into chart-ready series.
type DashboardHandler struct {
	DB *gorm.DB
}

func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{DB: db}
}

// Show dispatches on the range query: 1month (daily buckets), 12month
// (monthly buckets) or alltime.
func (h *DashboardHandler) Show(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	switch c.DefaultQuery("range", "1month") {
	case "1month":
		h.oneMonth(c, user.ID)
	case "12month":
		h.twelveMonths(c, user.ID)
	case "alltime":
		h.allTime(c, user.ID)
	default:
		util.ValidationError(c, map[string][]string{
			"range": {"Range harus 1month, 12month, atau alltime"},
		})
	}
}

// periodSum holds one aggregated bucket keyed by a strftime period.
type periodSum struct {
	Period string
	Total  decimal.Decimal
}

func (h *DashboardHandler) sumByPeriod(model interface{}, userID uint, expr string, from, to time.Time) (map[string]decimal.Decimal, error) {
	var rows []periodSum
	err := h.DB.Model(model).
		Select(expr+" as period, SUM(jumlah) as total").
		Where("user_id = ? AND tanggal >= ? AND tanggal < ?", userID, from, to).
		Group("period").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	byPeriod := make(map[string]decimal.Decimal, len(rows))
	for _, r := range rows {
		byPeriod[r.Period] = r.Total
	}
	return byPeriod, nil
}

// oneMonth emits one bucket per day of the requested month (defaults to
// the current one). The current month stops at today; past months run to
// their last day. Days without records still get a zeroed bucket.
func (h *DashboardHandler) oneMonth(c *gin.Context, userID uint) {
	now := time.Now()
	month := queryInt(c, "month", int(now.Month()))
	year := queryInt(c, "year", now.Year())
	if month < 1 || month > 12 {
		util.ValidationError(c, map[string][]string{
			"month": {"Parameter month harus 1-12"},
		})
		return
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	lastDay := monthStart.AddDate(0, 1, -1).Day()
	if year == now.Year() && time.Month(month) == now.Month() {
		lastDay = now.Day()
	}

	income, err := h.sumByPeriod(&models.Pemasukan{}, userID, "strftime('%d', tanggal)", monthStart, monthEnd)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}
	expense, err := h.sumByPeriod(&models.Pengeluaran{}, userID, "strftime('%d', tanggal)", monthStart, monthEnd)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}

	chart := make([]gin.H, 0, lastDay)
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	for day := 1; day <= lastDay; day++ {
		d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		key := d.Format("02")
		in := income[key]
		out := expense[key]
		totalIncome = totalIncome.Add(in)
		totalExpense = totalExpense.Add(out)
		chart = append(chart, gin.H{
			"period":      d.Format("02-Jan"),
			"pemasukan":   in.InexactFloat64(),
			"pengeluaran": out.InexactFloat64(),
			"saldo":       in.Sub(out).InexactFloat64(),
		})
	}

	h.render(c, "1month", chart, totalIncome, totalExpense, userID)
}

// twelveMonths emits the trailing twelve calendar months, oldest first.
func (h *DashboardHandler) twelveMonths(c *gin.Context, userID uint) {
	now := time.Now()
	// first-of-month anchor keeps AddDate from skipping short months
	anchor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	from := anchor.AddDate(0, -11, 0)
	to := anchor.AddDate(0, 1, 0)

	income, err := h.sumByPeriod(&models.Pemasukan{}, userID, "strftime('%Y-%m', tanggal)", from, to)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}
	expense, err := h.sumByPeriod(&models.Pengeluaran{}, userID, "strftime('%Y-%m', tanggal)", from, to)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}

	chart := make([]gin.H, 0, 12)
	totalIncome := decimal.Zero
	totalExpense := decimal.Zero
	for i := 11; i >= 0; i-- {
		m := anchor.AddDate(0, -i, 0)
		key := m.Format("2006-01")
		in := income[key]
		out := expense[key]
		totalIncome = totalIncome.Add(in)
		totalExpense = totalExpense.Add(out)
		chart = append(chart, gin.H{
			"period":      m.Format("Jan 2006"),
			"pemasukan":   in.InexactFloat64(),
			"pengeluaran": out.InexactFloat64(),
			"saldo":       in.Sub(out).InexactFloat64(),
		})
	}

	h.render(c, "12month", chart, totalIncome, totalExpense, userID)
}

// allTime returns lifetime totals plus the five most recent records of
// each kind.
func (h *DashboardHandler) allTime(c *gin.Context, userID uint) {
	totalIncome, err := service.TotalPemasukan(h.DB, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}
	totalExpense, err := service.TotalPengeluaran(h.DB, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}

	var recentIncome []models.Pemasukan
	if err := h.DB.Preload("Kategori").
		Where("user_id = ?", userID).
		Order("tanggal DESC, id DESC").
		Limit(5).
		Find(&recentIncome).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}
	var recentExpense []models.Pengeluaran
	if err := h.DB.Preload("Kategori").
		Where("user_id = ?", userID).
		Order("tanggal DESC, id DESC").
		Limit(5).
		Find(&recentExpense).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}

	util.Success(c, gin.H{
		"range":              "alltime",
		"total_pemasukan":    totalIncome.InexactFloat64(),
		"total_pengeluaran":  totalExpense.InexactFloat64(),
		"current_balance":    totalIncome.Sub(totalExpense).InexactFloat64(),
		"recent_pemasukan":   recentIncome,
		"recent_pengeluaran": recentExpense,
	})
}

func (h *DashboardHandler) render(c *gin.Context, rng string, chart []gin.H, totalIncome, totalExpense decimal.Decimal, userID uint) {
	lifetimeIncome, err := service.TotalPemasukan(h.DB, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}
	lifetimeExpense, err := service.TotalPengeluaran(h.DB, userID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat dashboard")
		return
	}

	util.Success(c, gin.H{
		"range":             rng,
		"chart_data":        chart,
		"total_pemasukan":   totalIncome.InexactFloat64(),
		"total_pengeluaran": totalExpense.InexactFloat64(),
		"saldo":             totalIncome.Sub(totalExpense).InexactFloat64(),
		"current_balance":   lifetimeIncome.Sub(lifetimeExpense).InexactFloat64(),
	})
}
