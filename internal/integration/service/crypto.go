package service

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"strings"

	"github.com/smallbiznis/paybridge/internal/integration/domain"
	"golang.org/x/crypto/hkdf"
	"gorm.io/datatypes"
)

const (
	envelopeVersion = 1
	keyInfo         = "paybridge/platform-credentials/v1"
)

var emptyObject = datatypes.JSON("{}")

type encryptedPayload struct {
	Version    int    `json:"version"`
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type sealer struct {
	key []byte
}

func newSealer(secret string) (*sealer, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return &sealer{}, nil
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return &sealer{key: key}, nil
}

func (s *sealer) seal(creds domain.Credentials) (datatypes.JSON, error) {
	if creds.Empty() {
		return emptyObject, nil
	}
	if len(s.key) == 0 {
		return nil, domain.ErrEncryptionKeyMissing
	}

	payload, err := json.Marshal(creds)
	if err != nil {
		return nil, err
	}
	gcm, err := s.gcm()
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out, err := json.Marshal(encryptedPayload{
		Version:    envelopeVersion,
		Nonce:      base64.RawStdEncoding.EncodeToString(nonce),
		Ciphertext: base64.RawStdEncoding.EncodeToString(gcm.Seal(nil, nonce, payload, nil)),
	})
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(out), nil
}

func (s *sealer) open(raw datatypes.JSON) (domain.Credentials, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, emptyObject) || bytes.Equal(trimmed, []byte("null")) {
		return domain.Credentials{}, nil
	}
	if len(s.key) == 0 {
		return domain.Credentials{}, domain.ErrEncryptionKeyMissing
	}

	var envelope encryptedPayload
	if err := json.Unmarshal(trimmed, &envelope); err != nil || envelope.Version != envelopeVersion {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}
	nonce, err := base64.RawStdEncoding.DecodeString(envelope.Nonce)
	if err != nil {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}
	ciphertext, err := base64.RawStdEncoding.DecodeString(envelope.Ciphertext)
	if err != nil {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}
	gcm, err := s.gcm()
	if err != nil {
		return domain.Credentials{}, err
	}
	if len(nonce) != gcm.NonceSize() {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}
	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}

	var creds domain.Credentials
	if err := json.Unmarshal(plain, &creds); err != nil {
		return domain.Credentials{}, domain.ErrCorruptCredentials
	}
	return creds, nil
}

func (s *sealer) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
