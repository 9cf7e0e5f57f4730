/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/zalando/go-keyring"

	applog "transcribeer/internal/log"
)

// Service/keys for OS keyring.
const (
	keyringService   = "Transcribeer"
	keyringAccessKey = "access_code"
)

// TokenStore abstracts keyring, so we can stub in tests.
type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error   { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error       { return keyring.Delete(service, key) }

// OSKeyring returns the TokenStore backed by the platform keychain.
func OSKeyring() TokenStore { return osKeyring{} }

// MemoryTokenStore keeps secrets in process memory. Used by tests and by FallbackTokenStore
// once the keychain turned out to be unusable.
type MemoryTokenStore struct {
	m map[string]string
}

func NewMemoryTokenStore() *MemoryTokenStore { return &MemoryTokenStore{m: map[string]string{}} }

func (s *MemoryTokenStore) Get(service, key string) (string, error) {
	v, ok := s.m[service+"/"+key]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (s *MemoryTokenStore) Set(service, key, value string) error {
	s.m[service+"/"+key] = value
	return nil
}

func (s *MemoryTokenStore) Delete(service, key string) error {
	delete(s.m, service+"/"+key)
	return nil
}

// FallbackTokenStore uses Primary until it fails with anything but keyring.ErrNotFound
// (no secret service on headless hosts) and Fallback from then on.
type FallbackTokenStore struct {
	Primary  TokenStore
	Fallback TokenStore

	mu     sync.Mutex
	broken bool
}

// KeyringWithFallback returns the OS keychain backed by an in-memory store.
func KeyringWithFallback() *FallbackTokenStore {
	return &FallbackTokenStore{Primary: OSKeyring(), Fallback: NewMemoryTokenStore()}
}

func (f *FallbackTokenStore) pick() TokenStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.broken {
		return f.Fallback
	}
	return f.Primary
}

// do runs op on the current store and retries on Fallback when Primary breaks.
func (f *FallbackTokenStore) do(op func(TokenStore) error) error {
	s := f.pick()
	err := op(s)
	if err == nil || errors.Is(err, keyring.ErrNotFound) || s == f.Fallback {
		return err
	}
	f.mu.Lock()
	f.broken = true
	f.mu.Unlock()
	applog.WithComponent("config").Warn("keychain unavailable; keeping secrets in memory", slog.Any("err", err))
	return op(f.Fallback)
}

func (f *FallbackTokenStore) Get(service, key string) (string, error) {
	var v string
	err := f.do(func(s TokenStore) error {
		var err error
		v, err = s.Get(service, key)
		return err
	})
	return v, err
}

func (f *FallbackTokenStore) Set(service, key, value string) error {
	return f.do(func(s TokenStore) error { return s.Set(service, key, value) })
}

func (f *FallbackTokenStore) Delete(service, key string) error {
	return f.do(func(s TokenStore) error { return s.Delete(service, key) })
}

// Settings persists small UI state (the last accepted access code) in a TokenStore.
type Settings struct {
	Store TokenStore
}

// AccessCode returns the stored value, or "" when nothing was saved yet.
func (s Settings) AccessCode() (string, error) {
	v, err := s.Store.Get(keyringService, keyringAccessKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(v), nil
}

func (s Settings) SetAccessCode(v string) error {
	return s.Store.Set(keyringService, keyringAccessKey, v)
}

func (s Settings) ClearAccessCode() error {
	err := s.Store.Delete(keyringService, keyringAccessKey)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
