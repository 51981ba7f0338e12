package sessions

import (
	"context"
	"fmt"
	"strings"

	"github.com/peterbourgon/diskv/v3"
	"github.com/pkg/errors"
)

var _ Store = (*DiskStore)(nil)

const appSeparator = "~"

// DiskStore keeps session values on disk, one directory per application and
// one file per key.
type DiskStore struct {
	dv *diskv.Diskv
}

// NewDiskStore stores values below baseDir. Values are cached in memory up to
// cacheSize bytes.
func NewDiskStore(baseDir string, cacheSize uint64) (*DiskStore, error) {
	if baseDir == "" {
		return nil, errors.New("[NewDiskStore] base directory is empty")
	}
	return &DiskStore{
		dv: diskv.New(diskv.Options{
			BasePath:     baseDir,
			Transform:    appDirectory,
			CacheSizeMax: cacheSize,
			PathPerm:     0o700,
			FilePerm:     0o600,
		}),
	}, nil
}

func (s *DiskStore) Get(ctx context.Context, appID string, keyPath ...string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	key, err := diskKey(appID, keyPath)
	if err != nil {
		return "", false, err
	}
	if !s.dv.Has(key) {
		return "", false, nil
	}
	value, err := s.dv.Read(key)
	if err != nil {
		return "", false, errors.Wrapf(err, "[DiskStore Get] read %s", key)
	}
	return string(value), true, nil
}

func (s *DiskStore) Set(ctx context.Context, appID string, value string, keyPath ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := diskKey(appID, keyPath)
	if err != nil {
		return err
	}
	if err := s.dv.Write(key, []byte(value)); err != nil {
		return errors.Wrapf(err, "[DiskStore Set] write %s", key)
	}
	return nil
}

func (s *DiskStore) Delete(ctx context.Context, appID string, keyPath ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := diskKey(appID, keyPath)
	if err != nil {
		return err
	}
	if !s.dv.Has(key) {
		return nil
	}
	if err := s.dv.Erase(key); err != nil {
		return errors.Wrapf(err, "[DiskStore Delete] erase %s", key)
	}
	return nil
}

// diskKey encodes the app id and key path into a single file name. Both are
// escaped so neither can name a path outside the base directory.
func diskKey(appID string, keyPath []string) (string, error) {
	if appID == "" {
		return "", errors.New("[DiskStore] app id is empty")
	}
	if _, err := joinKey(keyPath); err != nil {
		return "", err
	}
	parts := make([]string, len(keyPath))
	for i, part := range keyPath {
		parts[i] = escape(part)
	}
	return escape(appID) + appSeparator + strings.Join(parts, "."), nil
}

func appDirectory(key string) []string {
	app, _, found := strings.Cut(key, appSeparator)
	if !found {
		return []string{}
	}
	return []string{app}
}

func escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
