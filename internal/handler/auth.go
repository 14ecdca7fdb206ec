package handler

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/service"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/badoux/checkmail"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// AuthHandler serves register/login/logout/refresh/me.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	Issuer    string
	TokenTTL  time.Duration
}

func NewAuthHandler(db *gorm.DB, jwtSecret, issuer string, ttlHours int) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		Issuer:    issuer,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
	}
}

type registerReq struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{
			"body": {"Username, email dan password wajib diisi"},
		})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	errs := map[string][]string{}
	if !usernameRe.MatchString(req.Username) {
		errs["username"] = append(errs["username"], "Username harus 3-20 karakter huruf, angka atau garis bawah")
	}
	if err := checkmail.ValidateFormat(req.Email); err != nil {
		errs["email"] = append(errs["email"], "Format email tidak valid")
	}
	if !isStrongPassword(req.Password) {
		errs["password"] = append(errs["password"], "Password harus 8-32 karakter dengan huruf besar, huruf kecil dan angka")
	}
	if len(errs) > 0 {
		util.ValidationError(c, errs)
		return
	}

	var count int64
	if err := h.DB.Model(&models.User{}).
		Where("LOWER(username) = LOWER(?) OR LOWER(email) = LOWER(?)", req.Username, req.Email).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memeriksa data user")
		return
	}
	if count > 0 {
		util.ValidationError(c, map[string][]string{
			"username": {"Username atau email sudah terdaftar"},
		})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memproses password")
		return
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
	}
	if err := h.DB.Create(&user).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat user")
		return
	}

	token, expiresIn, err := h.issueToken(&user)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat token")
		return
	}

	util.Created(c, "User registered successfully", gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"token":      token,
		"token_type": "bearer",
		"expires_in": expiresIn,
	})
}

// 8-32 characters with upper, lower and digit
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, map[string][]string{
			"body": {"Email dan password wajib diisi"},
		})
		return
	}

	var user models.User
	if err := h.DB.Where("LOWER(email) = LOWER(?)", strings.TrimSpace(req.Email)).
		First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusUnauthorized, "Invalid credentials")
		} else {
			util.Error(c, http.StatusInternalServerError, "Gagal memuat data user")
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		util.Error(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresIn, err := h.issueToken(&user)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat token")
		return
	}

	util.SuccessMsg(c, "Login successful", gin.H{
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
		"token":      token,
		"token_type": "bearer",
		"expires_in": expiresIn,
	})
}

// issueToken opens a session row and signs a JWT bound to it.
func (h *AuthHandler) issueToken(user *models.User) (string, int, error) {
	session := models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(h.TokenTTL),
	}
	if err := h.DB.Create(&session).Error; err != nil {
		return "", 0, err
	}

	token, err := util.GenerateToken(h.JWTSecret, h.Issuer, user.ID, session.ID, h.TokenTTL)
	if err != nil {
		return "", 0, err
	}
	return token, int(h.TokenTTL.Seconds()), nil
}

// Logout revokes the session behind the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	v, ok := c.Get("currentSession")
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	session := v.(*models.Session)

	if err := h.DB.Model(session).Update("revoked", true).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal logout")
		return
	}

	util.SuccessMsg(c, "Successfully logged out", nil)
}

// Refresh rotates the session: the old one is revoked and a fresh token is
// returned.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}
	v, ok := c.Get("currentSession")
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return
	}
	old := v.(*models.Session)

	if err := h.DB.Model(old).Update("revoked", true).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memperbarui token")
		return
	}

	token, expiresIn, err := h.issueToken(user)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal membuat token")
		return
	}

	util.Success(c, gin.H{
		"token":      token,
		"token_type": "bearer",
		"expires_in": expiresIn,
	})
}

// Me returns the logged-in identity plus all-time totals.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		return
	}

	totalPemasukan, err := service.TotalPemasukan(h.DB, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}
	totalPengeluaran, err := service.TotalPengeluaran(h.DB, user.ID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, "Gagal memuat statistik")
		return
	}

	util.Success(c, gin.H{
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"email":      user.Email,
			"created_at": user.CreatedAt,
		},
		"stats": gin.H{
			"total_pemasukan":   totalPemasukan.InexactFloat64(),
			"total_pengeluaran": totalPengeluaran.InexactFloat64(),
			"sisa_saldo":        totalPemasukan.Sub(totalPengeluaran).InexactFloat64(),
		},
	})
}
