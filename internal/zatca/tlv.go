// Package zatca implements the ZATCA e-invoicing QR payload: a Tag-Length-Value
// binary encoding of the five phase-one invoice fields, Base64 wrapped for
// storage and embedded into a scannable QR image.
package zatca

import (
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// Tags of the five phase-one TLV records, in mandated order.
const (
	TagSellerName = 1
	TagVATNumber  = 2
	TagTimestamp  = 3
	TagTotal      = 4
	TagVATAmount  = 5
)

var (
	// ErrFieldTooLong indicates a field whose UTF-8 encoding exceeds the
	// one-byte length prefix. This is a hard limit of the format.
	ErrFieldTooLong = errors.New("zatca: field exceeds 255 bytes")
	// ErrTruncated indicates the buffer ended inside a TLV record.
	ErrTruncated = errors.New("zatca: truncated TLV payload")
	// ErrUnexpectedTag indicates records out of the mandated 1..5 order.
	ErrUnexpectedTag = errors.New("zatca: unexpected TLV tag")
	// ErrTrailingBytes indicates data after the fifth record.
	ErrTrailingBytes = errors.New("zatca: trailing bytes after final record")
)

// Payload holds the five invoice fields carried by the QR code. Total and VAT
// are fixed two-decimal strings; Timestamp is the invoice issue time in
// ISO 8601.
type Payload struct {
	SellerName string
	VATNumber  string
	Timestamp  string
	Total      string
	VAT        string
}

// EncodeTLV serialises the payload as five TLV records with one-byte tags and
// lengths. The caller's bytes are written unchanged so DecodeTLV is an exact
// inverse; the seller name's length is additionally checked in NFC form so
// canonically equivalent Arabic names share one limit.
func EncodeTLV(p Payload) ([]byte, error) {
	if len(norm.NFC.String(p.SellerName)) > 255 {
		return nil, fmt.Errorf("%w: tag %d is %d bytes normalised", ErrFieldTooLong, TagSellerName, len(norm.NFC.String(p.SellerName)))
	}
	fields := []string{
		p.SellerName,
		p.VATNumber,
		p.Timestamp,
		p.Total,
		p.VAT,
	}
	var buf []byte
	for i, field := range fields {
		raw := []byte(field)
		if len(raw) > 255 {
			return nil, fmt.Errorf("%w: tag %d is %d bytes", ErrFieldTooLong, i+1, len(raw))
		}
		buf = append(buf, byte(i+1), byte(len(raw)))
		buf = append(buf, raw...)
	}
	return buf, nil
}

// Encode returns the Base64 form of the TLV payload, as stored on the invoice
// and embedded in the QR image.
func Encode(p Payload) (string, error) {
	raw, err := EncodeTLV(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTLV walks the buffer tag by tag and reconstructs the payload. It is
// the exact left inverse of EncodeTLV for all valid inputs.
func DecodeTLV(buf []byte) (Payload, error) {
	var fields [5]string
	offset := 0
	for tag := 1; tag <= 5; tag++ {
		if offset+2 > len(buf) {
			return Payload{}, ErrTruncated
		}
		if int(buf[offset]) != tag {
			return Payload{}, fmt.Errorf("%w: got %d, want %d", ErrUnexpectedTag, buf[offset], tag)
		}
		length := int(buf[offset+1])
		offset += 2
		if offset+length > len(buf) {
			return Payload{}, ErrTruncated
		}
		fields[tag-1] = string(buf[offset : offset+length])
		offset += length
	}
	if offset != len(buf) {
		return Payload{}, ErrTrailingBytes
	}
	return Payload{
		SellerName: fields[0],
		VATNumber:  fields[1],
		Timestamp:  fields[2],
		Total:      fields[3],
		VAT:        fields[4],
	}, nil
}

// Decode inverts Encode.
func Decode(encoded string) (Payload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Payload{}, fmt.Errorf("zatca: invalid base64: %w", err)
	}
	return DecodeTLV(raw)
}
