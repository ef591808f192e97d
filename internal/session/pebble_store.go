package session

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// PebbleStore is the durable Store, backed by a local Pebble database.
type PebbleStore struct {
	db     *pebble.DB
	path   string
	clock  func() int64
	logger *zap.Logger
}

// NewPebbleStore creates a PebbleStore instance (not yet opened).
func NewPebbleStore(dbPath string, logger *zap.Logger) *PebbleStore {
	return &PebbleStore{
		path:   dbPath,
		clock:  nowUnix,
		logger: logger,
	}
}

// Init opens the Pebble database.
func (s *PebbleStore) Init() error {
	opts := &pebble.Options{
		Logger: &pebbleLogger{s.logger},
	}
	db, err := pebble.Open(s.path, opts)
	if err != nil {
		return fmt.Errorf("pebble open %s: %w", s.path, err)
	}
	s.db = db
	s.logger.Info("Session store opened", zap.String("path", s.path))
	return nil
}

// Close flushes and closes the database.
func (s *PebbleStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Persist writes the credential record.
func (s *PebbleStore) Persist(owner solana.PublicKey, salt string, cred *Credential) error {
	data, err := encodeRecord(owner, cred)
	if err != nil {
		return err
	}
	if err := s.db.Set([]byte(storeKey(owner, salt)), data, pebble.Sync); err != nil {
		return fmt.Errorf("pebble set: %w", err)
	}
	return nil
}

// Restore reads and re-derives a credential; see Store.
func (s *PebbleStore) Restore(owner solana.PublicKey, salt string) (*Credential, error) {
	key := []byte(storeKey(owner, salt))

	data, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pebble get: %w", err)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	closer.Close()

	cred, expired, err := decodeRecord(buf, owner, s.clock())
	if err != nil {
		return nil, err
	}
	if expired {
		if err := s.db.Delete(key, pebble.Sync); err != nil {
			s.logger.Warn("failed to delete expired session record", zap.Error(err))
		}
		return nil, nil
	}
	return cred, nil
}

// Revoke deletes the record.
func (s *PebbleStore) Revoke(owner solana.PublicKey, salt string) error {
	if err := s.db.Delete([]byte(storeKey(owner, salt)), pebble.Sync); err != nil {
		return fmt.Errorf("pebble delete: %w", err)
	}
	return nil
}

// pebbleLogger adapts zap.Logger to the pebble.Logger interface.
type pebbleLogger struct {
	z *zap.Logger
}

func (l *pebbleLogger) Infof(format string, args ...any) {
	l.z.Sugar().Infof(format, args...)
}

func (l *pebbleLogger) Fatalf(format string, args ...any) {
	l.z.Sugar().Fatalf(format, args...)
}
