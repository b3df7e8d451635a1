// Copyright 2024 The radboot Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package acquire

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Stamp records the last successful pin of a source tree.
type Stamp struct {
	Remote   string    `json:"remote"`
	Revision string    `json:"revision"`
	PinnedAt time.Time `json:"pinned_at"`
}

// Stamps maps source tree names to their last pin.
type Stamps map[string]*Stamp

type stampFile struct {
	Stamps Stamps `json:"stamps"`
}

func (s Stamps) set(name string, stamp *Stamp) {
	s[name] = stamp
}

// LoadStamps reads the stamp file at path. A missing file yields empty
// Stamps.
func LoadStamps(path string) (Stamps, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Stamps{}, nil
	}
	if err != nil {
		return nil, err
	}
	var f stampFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Stamps == nil {
		f.Stamps = Stamps{}
	}
	return f.Stamps, nil
}

func saveStamps(path string, stamps Stamps) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(stampFile{Stamps: stamps}, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
