// Package response формирует JSON-ответы API в едином конверте.
package response

import (
	"encoding/json"
	"net/http"
)

// Коды результата в конверте ответа.
const (
	CodeSuccess             = "SUCCESS"
	CodeFailed              = "FAILED"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeBadRequest          = "BAD_REQUEST"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// Envelope описывает конверт, в который заворачивается любой ответ API.
type Envelope struct {
	Data           any    `json:"data"`
	Message        string `json:"message,omitempty"`
	StatusCode     int    `json:"statusCode"`
	Code           string `json:"code"`
	AdditionalData any    `json:"additionalData,omitempty"`
}

// Write отправляет конверт с HTTP-статусом env.StatusCode.
func Write(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	_ = json.NewEncoder(w).Encode(env)
}

// OK отправляет 200 с данными.
func OK(w http.ResponseWriter, data any, message string) {
	Write(w, Envelope{Data: data, Message: message, StatusCode: http.StatusOK, Code: CodeSuccess})
}

// Created отправляет 201 с данными.
func Created(w http.ResponseWriter, data any, message string) {
	Write(w, Envelope{Data: data, Message: message, StatusCode: http.StatusCreated, Code: CodeSuccess})
}

// Error отправляет ответ об ошибке с кодом, соответствующим статусу.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, Envelope{Message: message, StatusCode: status, Code: CodeFor(status)})
}

// ErrorWithCode отправляет ответ об ошибке с явно заданным кодом.
func ErrorWithCode(w http.ResponseWriter, status int, code, message string) {
	Write(w, Envelope{Message: message, StatusCode: status, Code: code})
}

// ValidationError отправляет 400 с сообщениями по полям в additionalData.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	Write(w, Envelope{
		Message:        "Validation failed",
		StatusCode:     http.StatusBadRequest,
		Code:           CodeBadRequest,
		AdditionalData: errs,
	})
}

// Unauthorized отправляет 401.
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, message)
}

// InternalError отправляет 500 без подробностей.
func InternalError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "An unexpected error occurred")
}

// CodeFor возвращает код конверта для HTTP-статуса.
func CodeFor(status int) string {
	switch {
	case status == http.StatusNotFound:
		return CodeNotFound
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusBadRequest:
		return CodeBadRequest
	case status >= 500:
		return CodeInternalServerError
	case status >= 200 && status < 300:
		return CodeSuccess
	default:
		return CodeFailed
	}
}
