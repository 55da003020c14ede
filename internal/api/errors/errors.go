// Пакет errors — JSON-ответы с ошибками API snapfeed.
// Единый формат: {"error": "<сообщение>"}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors

import (
	"encoding/json"
	"net/http"
)

// Сообщения ошибок, которые видит клиент.
const (
	MsgUnauthorized   = "Unauthorized"
	MsgNoFile         = "No file uploaded"
	MsgEmptyFile      = "Empty file"
	MsgFileTooLarge   = "File too large"
	MsgInvalidJSON    = "Invalid JSON body"
	MsgNotFound       = "Not found"
	MsgInternalError  = "Internal Server Error"
	MsgMethodNotAllow = "Method not allowed"
)

// errorBody — структура тела ответа ошибки.
type errorBody struct {
	Error string `json:"error"`
}

// WriteError записывает ответ ошибки с указанным статусом.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{Error: message})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// Unauthorized — 401 сессия отсутствует.
func Unauthorized(w http.ResponseWriter) {
	WriteError(w, http.StatusUnauthorized, MsgUnauthorized)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// InternalError — 500 внутренняя ошибка. Детали не раскрываются клиенту.
func InternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, MsgInternalError)
}
