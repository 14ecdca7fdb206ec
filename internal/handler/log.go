package handler

import (
	"net/http"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AktivitasHandler lists the caller's recorded activity.
type AktivitasHandler struct {
	DB *gorm.DB
}

func NewAktivitasHandler(db *gorm.DB) *AktivitasHandler {
	return &AktivitasHandler{DB: db}
}

const maxAktivitasLimit = 200

func (h *AktivitasHandler) Index(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	limit := queryInt(c, "limit", 50)
	if limit < 1 || limit > maxAktivitasLimit {
		limit = 50
	}

	var logs []models.AuditLog
	if err := h.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat aktivitas")
		return
	}

	util.Success(c, logs)
}
