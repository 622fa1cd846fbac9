package session

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"
)

var keyTokens = []byte("tokens")

type sessionRecord struct {
	Access  string `msgpack:"access"`
	Refresh string `msgpack:"refresh"`
}

func (r *sessionRecord) MarshalBinary() ([]byte, error) {
	type alias sessionRecord
	return msgpack.Marshal((*alias)(r))
}

func (r *sessionRecord) UnmarshalBinary(data []byte) error {
	type alias sessionRecord
	return msgpack.Unmarshal(data, (*alias)(r))
}

// persist writes the current token pair. Callers hold s.mu.
func (s *Store) persist() error {
	rec := sessionRecord{Access: s.access, Refresh: s.refresh}
	data, err := rec.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSession).Put(keyTokens, data)
	})
}

func (s *Store) load() (sessionRecord, error) {
	var rec sessionRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSession).Get(keyTokens)
		if data == nil {
			return nil
		}
		return rec.UnmarshalBinary(data)
	})
	if err != nil {
		return sessionRecord{}, fmt.Errorf("failed to load session record: %w", err)
	}
	return rec, nil
}
