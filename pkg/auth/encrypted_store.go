package auth

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
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	pbkdf2Iterations = 100000
	keySize          = 32
	saltSize         = 32
)

// EncryptedFileStore keeps credentials in an AES-GCM encrypted JSON file
type EncryptedFileStore struct {
	path       string
	passphrase []byte
}

type encryptedFile struct {
	Salt      string    `json:"salt"`
	Encrypted string    `json:"encrypted"`
	Version   int       `json:"version"`
	Modified  time.Time `json:"modified"`
}

// NewEncryptedFileStore creates an encrypted file store at the given path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	passphrase, err := getPassphrase(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{path: path, passphrase: passphrase}, nil
}

// getPassphrase uses ZHEXPORT_PASSPHRASE when set, otherwise a generated
// one persisted next to the credentials file
func getPassphrase(dir string) ([]byte, error) {
	if env := os.Getenv("ZHEXPORT_PASSPHRASE"); env != "" {
		return []byte(env), nil
	}

	passphraseFile := filepath.Join(dir, ".passphrase")
	if data, err := os.ReadFile(passphraseFile); err == nil && len(data) > 0 {
		return data, nil
	}

	raw := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return nil, fmt.Errorf("failed to generate passphrase: %w", err)
	}
	encoded := []byte(base64.StdEncoding.EncodeToString(raw))

	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(passphraseFile, encoded, 0600); err != nil {
		return nil, fmt.Errorf("failed to save passphrase: %w", err)
	}
	return encoded, nil
}

// Store saves an account to the encrypted file
func (e *EncryptedFileStore) Store(account *Account) error {
	accounts, err := e.loadAccounts()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if accounts == nil {
		accounts = make(map[string]*Account)
	}

	accounts[account.Name] = account
	return e.saveAccounts(accounts)
}

// Retrieve gets an account from the encrypted file
func (e *EncryptedFileStore) Retrieve(name string) (*Account, error) {
	accounts, err := e.loadAccounts()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrCredentialsNotFound
		}
		return nil, err
	}

	account, ok := accounts[name]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return account, nil
}

// List returns all accounts in the encrypted file
func (e *EncryptedFileStore) List() ([]*Account, error) {
	accounts, err := e.loadAccounts()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var result []*Account
	for _, account := range accounts {
		result = append(result, account)
	}
	return result, nil
}

// Delete removes an account from the encrypted file
func (e *EncryptedFileStore) Delete(name string) error {
	accounts, err := e.loadAccounts()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCredentialsNotFound
		}
		return err
	}

	if _, ok := accounts[name]; !ok {
		return ErrCredentialsNotFound
	}

	delete(accounts, name)
	return e.saveAccounts(accounts)
}

// Exists checks whether an account is present
func (e *EncryptedFileStore) Exists(name string) bool {
	accounts, err := e.loadAccounts()
	if err != nil {
		return false
	}
	_, ok := accounts[name]
	return ok
}

func (e *EncryptedFileStore) loadAccounts() (map[string]*Account, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		return nil, err
	}

	var file encryptedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	ciphertext, err := base64.StdEncoding.DecodeString(file.Encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	plaintext, err := e.decrypt(ciphertext, salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	var accounts map[string]*Account
	if err := json.Unmarshal(plaintext, &accounts); err != nil {
		return nil, fmt.Errorf("failed to parse accounts: %w", err)
	}
	return accounts, nil
}

func (e *EncryptedFileStore) saveAccounts(accounts map[string]*Account) error {
	plaintext, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("failed to marshal accounts: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	ciphertext, err := e.encrypt(plaintext, salt)
	if err != nil {
		return fmt.Errorf("failed to encrypt accounts: %w", err)
	}

	file := encryptedFile{
		Salt:      base64.StdEncoding.EncodeToString(salt),
		Encrypted: base64.StdEncoding.EncodeToString(ciphertext),
		Version:   1,
		Modified:  time.Now(),
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return err
	}

	// atomic write: temp file then rename
	tmpPath := e.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	if err := os.Rename(tmpPath, e.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save credentials file: %w", err)
	}
	return nil
}

func (e *EncryptedFileStore) deriveKey(salt []byte) []byte {
	return pbkdf2.Key(e.passphrase, salt, pbkdf2Iterations, keySize, sha256.New)
}

func (e *EncryptedFileStore) encrypt(plaintext, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func (e *EncryptedFileStore) decrypt(ciphertext, salt []byte) ([]byte, error) {
	block, err := aes.NewCipher(e.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]

	return gcm.Open(nil, nonce, ciphertext, nil)
}
