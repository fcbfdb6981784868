package utils

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
	"time"
)

var refEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// RandomSuffix returns n characters of crypto-random base32 (A-Z, 2-7).
func RandomSuffix(n int) string {
	buf := make([]byte, (n*5+7)/8+1)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the clock.
		return fmt.Sprintf("%0*d", n, time.Now().UnixNano()%1e9)[:n]
	}
	return strings.ToUpper(refEncoding.EncodeToString(buf))[:n]
}

// SequencedReference formats PREFIX-YYYYMMDD-NNNNNN.
func SequencedReference(prefix string, day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, day.Format("20060102"), seq)
}

// RandomReference formats PREFIX-YYYYMMDD-XXXXXXXXXX with a random suffix.
func RandomReference(prefix string, day time.Time) string {
	return fmt.Sprintf("%s-%s-%s", prefix, day.Format("20060102"), RandomSuffix(10))
}

func GenerateTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN-%d-%s", now.UnixMilli(), RandomSuffix(9))
}

func GenerateReceiptID(now time.Time) string {
	return fmt.Sprintf("COMP-%s-%s", now.Format("20060102"), RandomSuffix(8))
}
