package util

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every JSON response carries status "success" or "error", an optional
// message and optional data. Validation failures add field-keyed errors.

// Success writes a 200 success envelope.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"data":   data,
	})
}

// SuccessMsg writes a 200 success envelope with a message.
func SuccessMsg(c *gin.Context, message string, data interface{}) {
	body := gin.H{
		"status":  "success",
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(http.StatusOK, body)
}

// Created writes a 201 success envelope with a message.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": message,
		"data":    data,
	})
}

// Error writes an error envelope with the given HTTP status.
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"status":  "error",
		"message": message,
	})
}

// ValidationError writes a 422 envelope with field-keyed messages so the
// caller can render an actionable message per field.
func ValidationError(c *gin.Context, errors map[string][]string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"status":  "error",
		"message": "Data yang diberikan tidak valid",
		"errors":  errors,
	})
}
