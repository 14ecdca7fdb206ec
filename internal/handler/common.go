package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/muhfarrasm/HematYu-Service/internal/models"
	"github.com/muhfarrasm/HematYu-Service/internal/service"
	"github.com/muhfarrasm/HematYu-Service/internal/util"

	"github.com/gin-gonic/gin"
)

// currentUser pulls the user placed in the context by AuthMiddleware.
// Writes a 401 and returns nil if the middleware did not run.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get("currentUser")
	if !ok {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return nil
	}
	user, ok := v.(*models.User)
	if !ok || user == nil {
		util.Error(c, http.StatusUnauthorized, "Unauthorized")
		return nil
	}
	return user
}

// paramID parses the :id path parameter. A malformed id behaves like a
// missing row (404), never a distinct error.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		return 0, false
	}
	return uint(id), true
}

// renderServiceError maps service failures onto the error taxonomy:
// validation conflicts are 422 with field-keyed messages, missing or
// foreign-owned rows are 404, anything else is a 500.
func renderServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		util.ValidationError(c, verr.Fields)
		return
	}
	if errors.Is(err, service.ErrNotFound) {
		util.Error(c, http.StatusNotFound, "Data tidak ditemukan")
		return
	}
	util.Error(c, http.StatusInternalServerError, "Terjadi kesalahan pada server")
}

// bulanNames are the Indonesian month labels used by the statistics
// endpoints.
var bulanNames = []string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// monthPad renders a month number the way sqlite's strftime('%m') does.
func monthPad(month int) string {
	return fmt.Sprintf("%02d", month)
}

func yearStr(year int) string {
	return strconv.Itoa(year)
}

// queryInt reads an integer query parameter with a default.
func queryInt(c *gin.Context, key string, def int) int {
	s := c.Query(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
