package crontab

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Source reads and replaces the raw table text. Write replaces the whole
// table in one operation, which is as atomic as the backing store allows.
type Source interface {
	Read() (string, error)
	Write(content string) error
}

// UserCrontab accesses the invoking user's crontab through the crontab
// binary, the only portable way to mutate it.
type UserCrontab struct{}

// Read returns the current table, or "" when the user has no crontab yet.
func (UserCrontab) Read() (string, error) {
	out, err := exec.Command("crontab", "-l").Output()
	if err != nil {
		// "no crontab for <user>" exits non-zero with the message on
		// stderr; treat it as an empty table.
		if exitErr, ok := err.(*exec.ExitError); ok &&
			strings.Contains(strings.ToLower(string(exitErr.Stderr)), "no crontab") {
			return "", nil
		}
		return "", fmt.Errorf("failed to read crontab: %w", err)
	}
	return string(out), nil
}

// Write installs content as the user's crontab. The content is staged in a
// temp file and handed to the crontab binary, which swaps the table in a
// single operation.
func (UserCrontab) Write(content string) error {
	tmp, err := os.CreateTemp("", "lambdalabs-crontab-*")
	if err != nil {
		return fmt.Errorf("failed to stage crontab: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage crontab: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage crontab: %w", err)
	}

	if out, err := exec.Command("crontab", tmp.Name()).CombinedOutput(); err != nil {
		return fmt.Errorf("failed to install crontab: %v: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// FileSource stores the table in a plain file. Tests use it, and the
// LAMBDALABS_CRONTAB environment variable selects it for systems where the
// crontab binary is unavailable.
type FileSource struct {
	Path string
}

// Read returns the file's content, or "" when it does not exist.
func (s FileSource) Read() (string, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read crontab file: %w", err)
	}
	return string(data), nil
}

// Write replaces the file atomically via a temp file in the same directory.
func (s FileSource) Write(content string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create crontab directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage crontab file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to stage crontab file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync crontab file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to stage crontab file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("failed to replace crontab file: %w", err)
	}
	return nil
}
