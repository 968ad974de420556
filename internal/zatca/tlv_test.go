package zatca

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeTLVLayout(t *testing.T) {
	p := Payload{
		SellerName: "ACME",
		VATNumber:  "300000000000003",
		Timestamp:  "2024-01-01T00:00:00.000Z",
		Total:      "115.00",
		VAT:        "15.00",
	}
	buf, err := EncodeTLV(p)
	require.NoError(t, err)

	// First record: tag 1, length 4, "ACME".
	require.GreaterOrEqual(t, len(buf), 6)
	assert.Equal(t, byte(1), buf[0])
	assert.Equal(t, byte(4), buf[1])
	assert.Equal(t, "ACME", string(buf[2:6]))

	// Second record starts right after: tag 2, length 15.
	assert.Equal(t, byte(2), buf[6])
	assert.Equal(t, byte(15), buf[7])
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []Payload{
		{
			SellerName: "ACME",
			VATNumber:  "300000000000003",
			Timestamp:  "2024-01-01T00:00:00.000Z",
			Total:      "115.00",
			VAT:        "15.00",
		},
		{
			SellerName: "مقهى البن الذهبي",
			VATNumber:  "310123456700003",
			Timestamp:  "2025-06-30T18:45:12.000Z",
			Total:      "57.50",
			VAT:        "7.50",
		},
		{
			SellerName: "",
			VATNumber:  "",
			Timestamp:  "",
			Total:      "0.00",
			VAT:        "0.00",
		},
		{
			SellerName: strings.Repeat("x", 255),
			VATNumber:  "300000000000003",
			Timestamp:  "2024-12-31T23:59:59.000Z",
			Total:      "99999999.99",
			VAT:        "13043478.26",
		},
	}
	for _, p := range cases {
		encoded, err := Encode(p)
		require.NoError(t, err)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, p, decoded)
	}
}

func TestRoundTripPreservesSellerNameBytes(t *testing.T) {
	// decomposed form: "Cafe" + combining acute accent, not the precomposed é
	p := Payload{
		SellerName: "Café",
		VATNumber:  "300000000000003",
		Timestamp:  "2026-03-15T12:00:00.000Z",
		Total:      "115.00",
		VAT:        "15.00",
	}
	encoded, err := Encode(p)
	require.NoError(t, err)
	decoded, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte(p.SellerName), []byte(decoded.SellerName))
}

func TestEncodeRejectsOversizedField(t *testing.T) {
	p := Payload{SellerName: strings.Repeat("x", 256), Total: "0.00", VAT: "0.00"}
	_, err := EncodeTLV(p)
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestEncodeOversizedMultibyteField(t *testing.T) {
	// 100 Arabic letters occupy 200 bytes; 150 exceed the one-byte length.
	p := Payload{SellerName: strings.Repeat("م", 150)}
	_, err := EncodeTLV(p)
	assert.ErrorIs(t, err, ErrFieldTooLong)
}

func TestDecodeRejectsMalformedBuffers(t *testing.T) {
	valid, err := EncodeTLV(Payload{SellerName: "A", VATNumber: "3", Timestamp: "t", Total: "1.00", VAT: "0.13"})
	require.NoError(t, err)

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeTLV(valid[:len(valid)-1])
		assert.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("wrong tag order", func(t *testing.T) {
		swapped := append([]byte(nil), valid...)
		swapped[0] = 2
		_, err := DecodeTLV(swapped)
		assert.ErrorIs(t, err, ErrUnexpectedTag)
	})
	t.Run("trailing bytes", func(t *testing.T) {
		padded := append(append([]byte(nil), valid...), 0x00)
		_, err := DecodeTLV(padded)
		assert.ErrorIs(t, err, ErrTrailingBytes)
	})
	t.Run("empty", func(t *testing.T) {
		_, err := DecodeTLV(nil)
		assert.ErrorIs(t, err, ErrTruncated)
	})
	t.Run("bad base64", func(t *testing.T) {
		_, err := Decode("!!not base64!!")
		assert.Error(t, err)
	})
}

func TestQRPNGRendersImage(t *testing.T) {
	encoded, err := Encode(Payload{
		SellerName: "ACME",
		VATNumber:  "300000000000003",
		Timestamp:  "2024-01-01T00:00:00.000Z",
		Total:      "115.00",
		VAT:        "15.00",
	})
	require.NoError(t, err)

	png, err := QRPNG(encoded, 0)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	// PNG magic header.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
