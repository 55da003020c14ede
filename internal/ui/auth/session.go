// Пакет auth — сессии веб-интерфейса snapfeed и вход через Keycloak.
//
// Сессия хранит только идентичность пользователя. Она целиком лежит в cookie
// snapfeed_session, зашифрованная AES-256-GCM; имя cookie входит в
// additional data, поэтому шифротекст другой cookie не расшифруется как сессия.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hkdf"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	coreauth "github.com/bigkaa/snapfeed/internal/auth"
	"github.com/bigkaa/snapfeed/internal/domain/model"
)

// SessionCookieName — имя cookie зашифрованной сессии.
const SessionCookieName = "snapfeed_session"

// SessionTTL — срок жизни сессии. Сессия не продлевается: по истечении нужен новый вход.
const SessionTTL = 24 * time.Hour

// hkdfInfo — контекст выработки ключа из SF_SESSION_SECRET.
const hkdfInfo = "snapfeed session v1"

var (
	// ErrNoSession — в запросе нет cookie сессии.
	ErrNoSession = errors.New("сессия отсутствует")
	// ErrSessionExpired — срок сессии истёк.
	ErrSessionExpired = errors.New("сессия истекла")
)

// SessionData — содержимое session cookie.
type SessionData struct {
	UserID  string `json:"uid"`
	Subject string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	// IDToken — для id_token_hint при выходе из Keycloak.
	IDToken string `json:"idt,omitempty"`
	// ExpiresAt — Unix-время истечения.
	ExpiresAt int64 `json:"exp"`
}

// Expired сообщает, истекла ли сессия к моменту now.
func (s *SessionData) Expired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt
}

// Principal — пользователь сессии.
func (s *SessionData) Principal() *coreauth.Principal {
	return &coreauth.Principal{
		UserID:  s.UserID,
		Subject: s.Subject,
		Email:   s.Email,
		Name:    s.Name,
	}
}

// SessionManager выдаёт, читает и удаляет session cookie.
type SessionManager struct {
	aead   cipher.AEAD
	secure bool
	now    func() time.Time
}

// NewSessionManager создаёт менеджер сессий. Ключ AES-256 вырабатывается
// из secret через HKDF-SHA256. Пустой secret даёт случайный ключ,
// и сессии не переживают рестарт.
func NewSessionManager(secret string, secure bool) (*SessionManager, error) {
	var key []byte
	if secret == "" {
		key = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
	} else {
		var err error
		if key, err = hkdf.Key(sha256.New, []byte(secret), nil, hkdfInfo, 32); err != nil {
			return nil, fmt.Errorf("ошибка выработки ключа сессии: %w", err)
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}
	return &SessionManager{aead: aead, secure: secure, now: time.Now}, nil
}

// Secure сообщает, ставится ли флаг Secure на cookie.
func (sm *SessionManager) Secure() bool { return sm.secure }

// Issue открывает сессию пользователя после входа и записывает cookie.
func (sm *SessionManager) Issue(w http.ResponseWriter, user *model.User, idToken string) (*SessionData, error) {
	session := &SessionData{
		UserID:    user.ID,
		Subject:   user.Subject,
		Email:     user.Email,
		Name:      user.Name,
		IDToken:   idToken,
		ExpiresAt: sm.now().Add(SessionTTL).Unix(),
	}
	value, err := sm.Encrypt(session)
	if err != nil {
		return nil, err
	}
	sm.writeCookie(w, value, int(SessionTTL.Seconds()))
	return session, nil
}

// Load читает сессию запроса. Без cookie — ErrNoSession, по истечении срока — ErrSessionExpired.
func (sm *SessionManager) Load(r *http.Request) (*SessionData, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrNoSession
	}
	session, err := sm.Decrypt(cookie.Value)
	if err != nil {
		return nil, err
	}
	if session.Expired(sm.now()) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// PrincipalFromRequest — пользователь действующей сессии запроса.
func (sm *SessionManager) PrincipalFromRequest(r *http.Request) (*coreauth.Principal, bool) {
	session, err := sm.Load(r)
	if err != nil {
		return nil, false
	}
	return session.Principal(), true
}

// Clear удаляет session cookie.
func (sm *SessionManager) Clear(w http.ResponseWriter) {
	sm.writeCookie(w, "", -1)
}

// Encrypt шифрует сессию в значение cookie: base64url(nonce || ciphertext).
func (sm *SessionManager) Encrypt(session *SessionData) (string, error) {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return "", fmt.Errorf("ошибка сериализации сессии: %w", err)
	}
	nonce := make([]byte, sm.aead.NonceSize(), sm.aead.NonceSize()+len(plaintext)+sm.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}
	sealed := sm.aead.Seal(nonce, nonce, plaintext, []byte(SessionCookieName))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt расшифровывает значение cookie. Срок сессии не проверяется.
func (sm *SessionManager) Decrypt(value string) (*SessionData, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования сессии: %w", err)
	}
	n := sm.aead.NonceSize()
	if len(sealed) < n+sm.aead.Overhead() {
		return nil, errors.New("зашифрованная сессия слишком короткая")
	}
	plaintext, err := sm.aead.Open(nil, sealed[:n], sealed[n:], []byte(SessionCookieName))
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}

	var session SessionData
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return nil, fmt.Errorf("ошибка десериализации сессии: %w", err)
	}
	if session.UserID == "" {
		return nil, errors.New("сессия без пользователя")
	}
	return &session, nil
}

func (sm *SessionManager) writeCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
