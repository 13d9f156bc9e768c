package lockfile

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

var ErrMissing = errors.New("missing lockfile")

func Read(ctx context.Context, cfgPath string) (*Lock, error) {
	log := logr.FromContextOrDiscard(ctx)
	lock, err := os.Open(Name(cfgPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMissing
		}
		log.Error(err, "failed to open lockfile")
		return nil, err
	}
	defer lock.Close()
	// read the lockfile
	var lockFile Lock
	if err := json.NewDecoder(lock).Decode(&lockFile); err != nil {
		log.Error(err, "failed to read lockfile")
		return nil, err
	}
	// the name is used as the key so it
	// isn't serialised
	for k, v := range lockFile.Packages {
		v.Name = k
		lockFile.Packages[k] = v
	}
	return &lockFile, nil
}

// Write saves the lockfile next to the given
// configuration file.
func Write(ctx context.Context, cfgPath string, lock *Lock) error {
	log := logr.FromContextOrDiscard(ctx)
	f, err := os.Create(Name(cfgPath))
	if err != nil {
		log.Error(err, "failed to create lockfile")
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "\t")
	return enc.Encode(lock)
}

func Name(s string) string {
	return strings.TrimSuffix(s, filepath.Ext(s)) + "-lock.json"
}
