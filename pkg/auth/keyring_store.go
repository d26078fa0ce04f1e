package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "zhexport"
	keyringPrefix  = "zhihu_"
)

// KeyringStore stores credentials in the system keychain
type KeyringStore struct {
	service string
}

// NewKeyringStore creates a keyring store, probing that the backend works
func NewKeyringStore() (*KeyringStore, error) {
	store := &KeyringStore{service: keyringService}

	testKey := keyringPrefix + "availability_test"
	if err := keyring.Set(store.service, testKey, "test"); err != nil {
		return nil, fmt.Errorf("keyring unavailable: %w", err)
	}
	_ = keyring.Delete(store.service, testKey)

	return store, nil
}

// Store saves an account to the keyring
func (k *KeyringStore) Store(account *Account) error {
	data, err := json.Marshal(account)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if err := keyring.Set(k.service, keyringPrefix+account.Name, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.updateAccountList(account.Name, true)
}

// Retrieve gets an account from the keyring
func (k *KeyringStore) Retrieve(name string) (*Account, error) {
	data, err := keyring.Get(k.service, keyringPrefix+name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var account Account
	if err := json.Unmarshal([]byte(data), &account); err != nil {
		return nil, fmt.Errorf("failed to unmarshal account: %w", err)
	}
	return &account, nil
}

// List returns all accounts tracked in the keyring
func (k *KeyringStore) List() ([]*Account, error) {
	names, err := k.getAccountList()
	if err != nil {
		return nil, err
	}

	var accounts []*Account
	for _, name := range names {
		if account, err := k.Retrieve(name); err == nil {
			accounts = append(accounts, account)
		}
	}
	return accounts, nil
}

// Delete removes an account from the keyring
func (k *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(k.service, keyringPrefix+name); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return k.updateAccountList(name, false)
}

// Exists checks whether an account is present
func (k *KeyringStore) Exists(name string) bool {
	_, err := keyring.Get(k.service, keyringPrefix+name)
	return err == nil
}

// The keyring API has no enumeration, so account names are tracked in a
// dedicated index entry.
const accountListKey = keyringPrefix + "account_list"

func (k *KeyringStore) getAccountList() ([]string, error) {
	data, err := keyring.Get(k.service, accountListKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	if data == "" {
		return nil, nil
	}
	return strings.Split(data, ","), nil
}

func (k *KeyringStore) updateAccountList(name string, add bool) error {
	names, err := k.getAccountList()
	if err != nil {
		return err
	}

	var updated []string
	for _, n := range names {
		if n != name && n != "" {
			updated = append(updated, n)
		}
	}
	if add {
		updated = append(updated, name)
	}

	return keyring.Set(k.service, accountListKey, strings.Join(updated, ","))
}
