// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists sessions as a single JSON document on disk.
//
// It is meant for single-process deployments and command-line use. Every write
// goes to a temporary file that is renamed over the document, so a crash never
// leaves a truncated file behind.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a [FileStore] writing to path. Parent directories are
// created on first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements [Store].
func (store *FileStore) Load(_ context.Context, key string) (Session, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.read()
	if err != nil {
		return Session{}, err
	}

	record, found := records[key]
	if !found {
		return Session{}, ErrNoSession
	}
	return record, nil
}

// Save implements [Store].
func (store *FileStore) Save(_ context.Context, key string, record Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.read()
	if err != nil {
		return err
	}

	records[key] = record
	return store.write(records)
}

// Delete implements [Store].
func (store *FileStore) Delete(_ context.Context, key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.read()
	if err != nil {
		return err
	}

	if _, found := records[key]; !found {
		return nil
	}

	delete(records, key)
	return store.write(records)
}

// Replace implements [Store].
func (store *FileStore) Replace(_ context.Context, key, refreshToken string, record Session) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.read()
	if err != nil {
		return err
	}

	if current, found := records[key]; !found || current.RefreshToken != refreshToken {
		return ErrSessionChanged
	}

	records[key] = record
	return store.write(records)
}

// DeleteIf implements [Store].
func (store *FileStore) DeleteIf(_ context.Context, key, refreshToken string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	records, err := store.read()
	if err != nil {
		return err
	}

	if current, found := records[key]; !found || current.RefreshToken != refreshToken {
		return ErrSessionChanged
	}

	delete(records, key)
	return store.write(records)
}

// read loads the whole document. A missing file is an empty document.
func (store *FileStore) read() (map[string]Session, error) {
	records := make(map[string]Session)

	data, err := os.ReadFile(store.path)
	if errors.Is(err, fs.ErrNotExist) {
		return records, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session_file_read_failed: %w", err)
	}

	if len(data) == 0 {
		return records, nil
	}

	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("session_file_decode_failed: %w", err)
	}
	return records, nil
}

// write replaces the document atomically via rename.
func (store *FileStore) write(records map[string]Session) error {
	directory := filepath.Dir(store.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("session_file_mkdir_failed: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("session_file_encode_failed: %w", err)
	}

	temp, err := os.CreateTemp(directory, ".sessions-*.json")
	if err != nil {
		return fmt.Errorf("session_file_temp_failed: %w", err)
	}
	tempName := temp.Name()

	if _, err := temp.Write(data); err != nil {
		_ = temp.Close()
		_ = os.Remove(tempName)
		return fmt.Errorf("session_file_write_failed: %w", err)
	}

	if err := temp.Close(); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("session_file_close_failed: %w", err)
	}

	if err := os.Rename(tempName, store.path); err != nil {
		_ = os.Remove(tempName)
		return fmt.Errorf("session_file_rename_failed: %w", err)
	}

	return nil
}
