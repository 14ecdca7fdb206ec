package router

import (
	"github.com/muhfarrasm/HematYu-Service/internal/config"
	"github.com/muhfarrasm/HematYu-Service/internal/handler"
	"github.com/muhfarrasm/HematYu-Service/internal/middleware"
	"github.com/muhfarrasm/HematYu-Service/internal/storage"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and mounts every API route.
func SetupRouter(cfg *config.Config, db *gorm.DB, bukti *storage.BuktiStore) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// stored receipt images
	r.Static("/uploads/bukti", bukti.Dir)

	api := r.Group("/api")

	authHandler := handler.NewAuthHandler(db, cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpireHours)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret, db), middleware.AuditMiddleware(db))

	protected.POST("/auth/logout", authHandler.Logout)
	protected.POST("/auth/refresh", authHandler.Refresh)
	protected.GET("/auth/me", authHandler.Me)

	kp := handler.NewKategoriPemasukanHandler(db)
	protected.GET("/kategori-pemasukan", kp.Index)
	protected.POST("/kategori-pemasukan", kp.Store)
	protected.GET("/kategori-pemasukan/:id", kp.Show)
	protected.PUT("/kategori-pemasukan/:id", kp.Update)
	protected.DELETE("/kategori-pemasukan/:id", kp.Destroy)
	protected.GET("/kategori-pemasukan/:id/stats", kp.Stats)

	kg := handler.NewKategoriPengeluaranHandler(db)
	protected.GET("/kategori-pengeluaran", kg.Index)
	protected.POST("/kategori-pengeluaran", kg.Store)
	protected.GET("/kategori-pengeluaran/:id", kg.Show)
	protected.PUT("/kategori-pengeluaran/:id", kg.Update)
	protected.DELETE("/kategori-pengeluaran/:id", kg.Destroy)
	protected.GET("/kategori-pengeluaran/:id/daily-stats", kg.DailyStats)
	protected.GET("/kategori-pengeluaran/:id/monthly-stats", kg.MonthlyStats)

	kt := handler.NewKategoriTargetHandler(db)
	protected.GET("/kategori-target", kt.Index)
	protected.POST("/kategori-target", kt.Store)
	protected.GET("/kategori-target/:id", kt.Show)
	protected.PUT("/kategori-target/:id", kt.Update)
	protected.DELETE("/kategori-target/:id", kt.Destroy)
	protected.GET("/kategori-target/:id/monthly-stats", kt.MonthlyStats)
	protected.GET("/kategori-target/:id/status-distribution", kt.StatusDistribution)

	pm := handler.NewPemasukanHandler(db, bukti)
	// fixed paths precede :id so the wildcard cannot shadow them
	protected.GET("/pemasukan/total/monthly", pm.MonthlyTotal)
	protected.GET("/pemasukan/total/12monthly", pm.YearlyTotal)
	protected.GET("/pemasukan", pm.Index)
	protected.POST("/pemasukan", pm.Store)
	protected.GET("/pemasukan/:id", pm.Show)
	protected.PUT("/pemasukan/:id", pm.Update)
	protected.DELETE("/pemasukan/:id", pm.Destroy)

	pg := handler.NewPengeluaranHandler(db, bukti)
	protected.GET("/pengeluaran/total/monthly", pg.MonthlyTotal)
	protected.GET("/pengeluaran/monthly-category-summary", pg.MonthlyCategorySummary)
	protected.GET("/pengeluaran", pg.Index)
	protected.POST("/pengeluaran", pg.Store)
	protected.GET("/pengeluaran/:id", pg.Show)
	protected.PUT("/pengeluaran/:id", pg.Update)
	protected.DELETE("/pengeluaran/:id", pg.Destroy)

	tg := handler.NewTargetHandler(db)
	protected.GET("/target/summary", tg.Summary)
	protected.GET("/target", tg.Index)
	protected.POST("/target", tg.Store)
	protected.GET("/target/:id", tg.Show)
	protected.PUT("/target/:id", tg.Update)
	protected.DELETE("/target/:id", tg.Destroy)

	rl := handler.NewRelasiHandler(db)
	protected.GET("/relasi-target-pemasukan", rl.Index)
	protected.POST("/relasi-target-pemasukan", rl.Store)
	protected.GET("/relasi-target-pemasukan/by-pemasukan/:id", rl.ByPemasukan)
	protected.GET("/relasi-target-pemasukan/by-target/:id", rl.ByTarget)
	protected.GET("/relasi-target-pemasukan/summary-by-target/:id", rl.SummaryByTarget)
	protected.GET("/relasi-target-pemasukan/:id", rl.Show)
	protected.PUT("/relasi-target-pemasukan/:id", rl.Update)
	protected.DELETE("/relasi-target-pemasukan/:id", rl.Destroy)

	dash := handler.NewDashboardHandler(db)
	protected.GET("/dashboard", dash.Show)

	ex := handler.NewExportHandler(db)
	protected.GET("/export/csv", ex.CSV)
	protected.GET("/export/xlsx", ex.XLSX)

	ak := handler.NewAktivitasHandler(db)
	protected.GET("/aktivitas", ak.Index)

	return r
}
