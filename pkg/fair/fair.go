package fair

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strconv"
)

// GenerateServerSeed создаёт случайный server seed (hex, 256 бит)
func GenerateServerSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SeedHash - публичный коммит на seed, публикуется до начала раунда
func SeedHash(seed string) string {
	h := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(h[:])
}

// VerifySeed проверяет, что раскрытый seed соответствует опубликованному хэшу
func VerifySeed(seed, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(SeedHash(seed)), []byte(hash)) == 1
}

// DeriveFloat64 детерминированно получает число в [0,1) из serverSeed, salt и номера раунда.
// HMAC-SHA256(serverSeed, salt|roundID), первые 8 байт / 2^64.
func DeriveFloat64(serverSeed, salt string, roundID uint64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	mac.Write([]byte(salt + "|" + strconv.FormatUint(roundID, 10)))
	sum := mac.Sum(nil)

	num := new(big.Int).SetBytes(sum[:8])
	denom := new(big.Int).Lsh(big.NewInt(1), 64)
	f, _ := new(big.Rat).SetFrac(num, denom).Float64()
	// Float64 может округлить (2^64-1)/2^64 до 1.0
	if f >= 1 {
		f = 0.9999999999999999
	}
	return f
}
