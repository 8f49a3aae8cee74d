package services

import (
	"encoding/base64"
	"fmt"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// QREncoder renders permit tokens into scannable PNG data URIs.
type QREncoder struct {
	frontendURL string
}

func NewQREncoder(frontendURL string) *QREncoder {
	return &QREncoder{frontendURL: frontendURL}
}

// Payload selects what the QR carries. With a frontend URL configured the
// QR encodes a browser verification link; otherwise the raw token, for
// native scanner apps that post it to /view-permit themselves.
func (e *QREncoder) Payload(token string) string {
	if e.frontendURL == "" {
		return token
	}
	return fmt.Sprintf("%s/viewPermit/?token=%s", e.frontendURL, url.QueryEscape(token))
}

// Encode renders the payload as a PNG and returns it as an embeddable
// data URI. Deterministic for a given payload.
func (e *QREncoder) Encode(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR image: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
