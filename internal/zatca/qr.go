package zatca

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the default pixel size of rendered QR images.
const QRSize = 256

// QRPNG renders the Base64 TLV payload as a PNG QR image at medium error
// correction, the level tax-authority scanners are calibrated for.
func QRPNG(payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = QRSize
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("zatca: render qr: %w", err)
	}
	return png, nil
}
