// Package configutil reads json5 configuration files layered with local overrides.
package configutil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// Layers lists the files a configuration at `name` is assembled from, later files override
// earlier ones: `config.json5` is followed by `config.local.json5`.
func Layers(name string) []string {
	ext := filepath.Ext(name)
	return []string{
		name,
		strings.TrimSuffix(name, ext) + ".local" + ext,
	}
}

func readLayer[T any](path string) (layer T, found bool, err error) {
	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return layer, false, nil
	}
	if err != nil {
		return layer, false, err
	}
	err = json5.Unmarshal(contents, &layer)
	if err != nil {
		return layer, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return layer, true, nil
}

// ReadConfig merges every layer of `name` that exists, fields set in a later layer win.
// An error wrapping os.ErrNotExist is returned when no layer exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	found := false

	for _, path := range Layers(name) {
		layer, ok, err := readLayer[T](path)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		if !found {
			out = layer
			found = true
			continue
		}
		err = mergo.Merge(&out, layer, mergo.WithOverride)
		if err != nil {
			return out, fmt.Errorf("merge %s: %w", path, err)
		}
		slog.Info("merged config override", "path", path)
	}

	if !found {
		return out, fmt.Errorf("read config %s: %w", name, os.ErrNotExist)
	}
	return out, nil
}

// ReadOrDefault is ReadConfig where every field the files leave unset keeps its value from
// `defaults`. A missing configuration is not an error.
func ReadOrDefault[T any](name string, defaults T) (T, error) {
	config, err := ReadConfig[T](name)
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config found, using defaults", "name", name)
		return defaults, nil
	}
	if err != nil {
		return defaults, err
	}
	err = mergo.Merge(&config, defaults)
	if err != nil {
		return defaults, err
	}
	return config, nil
}
