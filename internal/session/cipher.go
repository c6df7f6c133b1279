package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// Cipher шифрует сохраняемые данные сессии через AES-256-GCM.
// Формат шифротекста: base64url(nonce || ciphertext).
type Cipher struct {
	gcm cipher.AEAD
	// ephemeral — ключ сгенерирован случайно и не переживёт рестарт.
	ephemeral bool
}

// NewCipher создаёт шифр из секрета DH_SESSION_SECRET.
// Секрет — base64 от 32 байт или произвольная строка (хешируется SHA-256).
// Пустой секрет — случайный ключ (сессии не переживают рестарт).
func NewCipher(secret string) (*Cipher, error) {
	var keyBytes []byte
	ephemeral := false

	if secret == "" {
		keyBytes = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, keyBytes); err != nil {
			return nil, fmt.Errorf("ошибка генерации ключа сессии: %w", err)
		}
		ephemeral = true
	} else {
		var err error
		keyBytes, err = base64.StdEncoding.DecodeString(secret)
		if err != nil || len(keyBytes) != 32 {
			sum := sha256.Sum256([]byte(secret))
			keyBytes = sum[:]
		}
	}

	block, err := aes.NewCipher(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания GCM: %w", err)
	}

	return &Cipher{gcm: gcm, ephemeral: ephemeral}, nil
}

// Ephemeral сообщает, что ключ сгенерирован случайно.
func (c *Cipher) Ephemeral() bool {
	return c.ephemeral
}

// Encrypt шифрует plaintext и возвращает base64url-строку.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("ошибка генерации nonce: %w", err)
	}

	ciphertext := c.gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.URLEncoding.EncodeToString(ciphertext), nil
}

// Decrypt расшифровывает строку, полученную от Encrypt.
func (c *Cipher) Decrypt(encrypted string) ([]byte, error) {
	ciphertext, err := base64.URLEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("ошибка декодирования base64: %w", err)
	}

	nonceSize := c.gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, errors.New("зашифрованные данные слишком короткие")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := c.gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("ошибка дешифрования сессии: %w", err)
	}
	return plaintext, nil
}
