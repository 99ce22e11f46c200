package sqlite

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/0x5457/corpus-embeddings/internal/util"
	_ "modernc.org/sqlite"
)

// CacheStore persists embeddings keyed by model and content hash.
type CacheStore struct {
	db *sql.DB
}

func NewCacheStore(path string) (*CacheStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// encode workers write concurrently; sqlite allows one writer
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &CacheStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS embedding_cache (
		model TEXT NOT NULL,
		hash TEXT NOT NULL,
		vector BLOB NOT NULL,
		PRIMARY KEY (model, hash)
	);`)
	return err
}

func (s *CacheStore) Close() error { return s.db.Close() }

func (s *CacheStore) Get(model string, texts []string) ([][]float32, []bool, error) {
	vecs := make([][]float32, len(texts))
	hits := make([]bool, len(texts))
	stmt, err := s.db.Prepare(`SELECT vector FROM embedding_cache WHERE model = ? AND hash = ?`)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = stmt.Close() }()
	for i, text := range texts {
		var blob []byte
		err := stmt.QueryRow(model, util.ContentHash(model, text)).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		v, err := decode(blob)
		if err != nil {
			return nil, nil, err
		}
		vecs[i], hits[i] = v, true
	}
	return vecs, hits, nil
}

func (s *CacheStore) Put(model string, texts []string, vecs [][]float32) error {
	if len(texts) != len(vecs) {
		return fmt.Errorf("texts and vectors length mismatch")
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO embedding_cache(model, hash, vector) VALUES(?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = stmt.Close() }()
	for i, text := range texts {
		if _, err := stmt.Exec(model, util.ContentHash(model, text), encode(vecs[i])); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func encode(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decode(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("corrupt cached vector of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
