package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/idlab-discover/tinynas-cli/internal/apperr"
	"github.com/idlab-discover/tinynas-cli/internal/topology"
)

const (
	// DescriptionPrefix is the file name prefix of per-trial descriptions.
	DescriptionPrefix = "model_trial_"
	// DescriptionExt is the extension of description files.
	DescriptionExt = ".yaml"
)

// DescriptionFile is a description found on disk.
type DescriptionFile struct {
	Path    string
	Name    string
	Number  int
	ModTime time.Time
}

// DescriptionName returns the base name (without extension) for a trial.
func DescriptionName(number int) string {
	return DescriptionPrefix + strconv.Itoa(number)
}

// trialNumber extracts n from model_trial_<n>.yaml.
func trialNumber(base string) (int, bool) {
	if !strings.HasPrefix(base, DescriptionPrefix) || !strings.HasSuffix(base, DescriptionExt) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, DescriptionPrefix), DescriptionExt))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// WriteDescription stores content as <dir>/model_trial_<number>.yaml. An
// existing file is never replaced: the call fails with an error wrapping
// os.ErrExist.
func WriteDescription(dir string, number int, content string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create descriptions dir: %w", err)
	}
	path := filepath.Join(dir, DescriptionName(number)+DescriptionExt)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("write description: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return "", fmt.Errorf("write description %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write description %s: %w", path, err)
	}
	return path, nil
}

// ListDescriptions returns the numbered descriptions in dir ordered by
// trial number. A missing directory yields an empty list.
func ListDescriptions(dir string) ([]DescriptionFile, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []DescriptionFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ok := trialNumber(e.Name())
		if !ok {
			continue
		}
		df := DescriptionFile{
			Path:   filepath.Join(dir, e.Name()),
			Name:   strings.TrimSuffix(e.Name(), DescriptionExt),
			Number: n,
		}
		if info, err := e.Info(); err == nil {
			df.ModTime = info.ModTime()
		}
		out = append(out, df)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// NextTrialNumber returns the first trial number after the highest one
// already present in dir, or 0 when there is none.
func NextTrialNumber(dir string) (int, error) {
	files, err := ListDescriptions(dir)
	if err != nil {
		return 0, err
	}
	if len(files) == 0 {
		return 0, nil
	}
	return files[len(files)-1].Number + 1, nil
}

// ResolveDescription maps a model name to a file. name may be a path, a
// file name in dir, or a bare name such as "model_trial_10".
func ResolveDescription(dir, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.User("no architecture description given")
	}

	candidates := []string{name}
	if !strings.ContainsRune(name, filepath.Separator) {
		file := name
		if filepath.Ext(file) == "" {
			file += DescriptionExt
		}
		candidates = append(candidates, filepath.Join(dir, file))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", &apperr.UserError{
		Message: fmt.Sprintf("architecture description %q not found", name),
		Hint:    "looked in " + dir,
	}
}

// ReadDescription loads and parses a description file.
func ReadDescription(path string) (*topology.Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	d, err := topology.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}
