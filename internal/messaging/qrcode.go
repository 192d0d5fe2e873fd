package messaging

import (
	"encoding/base64"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCodePNG はリンクのQR画像（PNG）
func QRCodePNG(link string) ([]byte, error) {
	return qrcode.Encode(link, qrcode.Medium, qrSize)
}

// QRCodeDataURL は <img src> にそのまま入れられる形
func QRCodeDataURL(link string) (string, error) {
	png, err := QRCodePNG(link)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
