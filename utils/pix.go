package utils

import (
	qrcode "github.com/skip2/go-qrcode"
)

// PixQR renders the PIX key as a QR code PNG so the payment screen can
// show something scannable next to the copyable key.
func PixQR(pixKey string, size int) ([]byte, error) {
	return qrcode.Encode(pixKey, qrcode.Medium, size)
}
