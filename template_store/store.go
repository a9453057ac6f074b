package template_store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"acoustic-listener/config"
	"acoustic-listener/logging"
	"acoustic-listener/template"

	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/afero"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

const keyPrefix = "template/"

type storeImpl struct {
	db     *badger.DB
	logger *zap.Logger
}

type Config struct {
	// Dir is the badger directory. It is ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *zap.Logger
}

func New(cfg *Config) (Interface, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("dir is empty")
	}

	logger := logging.OrNop(cfg.Logger)

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(badgerLogger{logger.Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open template cache: %w", err)
	}

	return &storeImpl{
		db:     db,
		logger: logger,
	}, nil
}

func (s *storeImpl) Get(key string) (*template.Template, bool, error) {
	var data []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}

		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read template %s: %w", key, err)
	}

	var t template.Template
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, false, fmt.Errorf("decode template %s: %w", key, err)
	}

	return &t, true, nil
}

func (s *storeImpl) Put(key string, t *template.Template) error {
	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode template %s: %w", key, err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), data)
	})
	if err != nil {
		return fmt.Errorf("write template %s: %w", key, err)
	}

	s.logger.Info("Cached template.", zap.String("key", key), zap.Int("bytes", len(data)))

	return nil
}

func (s *storeImpl) Close() error {
	return s.db.Close()
}

type sourceStamp struct {
	Path    string
	Size    int64
	ModTime int64
}

// keyMaterial is everything a built template depends on.
type keyMaterial struct {
	Sources           []sourceStamp
	BlockDuration     float64
	Band              config.Band
	Contrast          config.Contrast
	Margins           map[string]config.Range
	IndependentBounds map[string]config.Range
}

// Key identifies the template built from paths, in order, with settings. It
// changes when a source file is modified.
func Key(fs afero.Fs, paths []string, settings *config.Config) (string, error) {
	m := keyMaterial{
		BlockDuration:     settings.BlockDuration,
		Band:              settings.CompareBand,
		Contrast:          settings.Contrast,
		Margins:           settings.Margins,
		IndependentBounds: settings.IndependentBounds,
	}

	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", p, err)
		}

		m.Sources = append(m.Sources, sourceStamp{
			Path:    p,
			Size:    info.Size(),
			ModTime: info.ModTime().UnixNano(),
		})
	}

	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(m); err != nil {
		return "", fmt.Errorf("encode template key: %w", err)
	}

	sum := sha256.Sum256(buf.Bytes())

	return hex.EncodeToString(sum[:]), nil
}

// badgerLogger routes badger's logging into zap.
type badgerLogger struct {
	*zap.SugaredLogger
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warnf(format, args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.Debugf(format, args...)
}
