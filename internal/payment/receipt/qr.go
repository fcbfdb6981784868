// Package receipt renders payment receipts as QR codes whose payload only this service can read back.
package receipt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"campus-cafeteria/internal/models"

	"github.com/skip2/go-qrcode"
)

// Payload is what a receipt QR encodes.
type Payload struct {
	ReceiptID     string               `json:"receipt_id"`
	TransactionID string               `json:"transaction_id"`
	PaymentID     string               `json:"payment_id"`
	OrderID       string               `json:"order_id"`
	Amount        float64              `json:"amount"`
	Method        models.PaymentMethod `json:"method"`
	IssuedAt      time.Time            `json:"issued_at"`
}

type QRGenerator struct {
	aead cipher.AEAD
	size int
}

func NewQRGenerator(secret string) (*QRGenerator, error) {
	key := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &QRGenerator{aead: aead, size: 256}, nil
}

func (q *QRGenerator) Token(p *models.Payment) (string, error) {
	data, err := json.Marshal(Payload{
		ReceiptID:     p.ReceiptID,
		TransactionID: p.TransactionID,
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Method:        p.Method,
		IssuedAt:      p.CreatedAt,
	})
	if err != nil {
		return "", err
	}

	nonce := make([]byte, q.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := q.aead.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// PNG renders the receipt token as a QR image.
func (q *QRGenerator) PNG(p *models.Payment) ([]byte, error) {
	token, err := q.Token(p)
	if err != nil {
		return nil, fmt.Errorf("failed to build receipt token: %w", err)
	}
	return qrcode.Encode(token, qrcode.Medium, q.size)
}

// decode opens a token produced by Token.
func (q *QRGenerator) decode(token string) (*Payload, error) {
	sealed, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("malformed receipt token: %w", err)
	}
	if len(sealed) < q.aead.NonceSize() {
		return nil, errors.New("malformed receipt token")
	}
	nonce, ciphertext := sealed[:q.aead.NonceSize()], sealed[q.aead.NonceSize():]
	data, err := q.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errors.New("receipt token was not issued by this service")
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("malformed receipt payload: %w", err)
	}
	return &payload, nil
}
