package sqlvec

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/0x5457/corpus-embeddings/internal/models"
	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps corpus documents and their vectors in one sqlite-vec database.
type Store struct {
	db        *sql.DB
	dimension int
}

func New(path string, dimension int) (*Store, error) {
	// enable sqlite-vec for all future connections
	sqlite_vec.Auto()
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if err := migrate(db, dimension); err != nil {
		_ = db.Close()
		return nil, err
	}
	if dimension <= 0 {
		dimension = existingDimension(db)
	}
	return &Store{db: db, dimension: dimension}, nil
}

// existingDimension reads the vector width of a previously populated database.
func existingDimension(db *sql.DB) int {
	var dim int
	if err := db.QueryRow(`SELECT vec_length(embedding) FROM vec_embeddings LIMIT 1`).
		Scan(&dim); err != nil {
		return 0
	}
	return dim
}

func migrate(db *sql.DB, dim int) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		category TEXT,
		start_line INTEGER,
		end_line INTEGER,
		content TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	CREATE TABLE IF NOT EXISTS vec_map (
		rid INTEGER UNIQUE NOT NULL,
		id TEXT UNIQUE NOT NULL
	);`); err != nil {
		return err
	}
	// vec0 dimension is fixed per table; without one, creation waits for the first Upsert
	if dim > 0 {
		return createVecTable(db, dim)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func createVecTable(db execer, dim int) error {
	_, err := db.Exec(fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
		embedding float32[%d] distance_metric=cosine
	);`, dim))
	return err
}

func (s *Store) Close() error { return s.db.Close() }

// Dimension is the vector width of the store, zero until known.
func (s *Store) Dimension() int { return s.dimension }

func (s *Store) Upsert(docs []models.Document, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("documents and embeddings length mismatch")
	}
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := s.ensureVecTable(tx, embeddings); err != nil {
		_ = tx.Rollback()
		return err
	}

	docStmt, err := tx.Prepare(`INSERT INTO documents(id,source,category,start_line,end_line,content)
		VALUES(?,?,?,?,?,?)
		ON CONFLICT(id) DO UPDATE SET
		source=excluded.source,
		category=excluded.category,
		start_line=excluded.start_line,
		end_line=excluded.end_line,
		content=excluded.content`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = docStmt.Close() }()

	insertVecStmt, err := tx.Prepare(`INSERT INTO vec_embeddings(embedding) VALUES(?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = insertVecStmt.Close() }()
	// vec0 tables reject INSERT OR REPLACE; replacing is delete then insert.
	deleteVecStmt, err := tx.Prepare(`DELETE FROM vec_embeddings WHERE rowid = ?`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = deleteVecStmt.Close() }()
	insertVecAtStmt, err := tx.Prepare(
		`INSERT INTO vec_embeddings(rowid, embedding) VALUES(?, ?)`,
	)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = insertVecAtStmt.Close() }()
	upsertMapStmt, err := tx.Prepare(`INSERT OR REPLACE INTO vec_map(rid, id) VALUES(?, ?)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = upsertMapStmt.Close() }()
	selectRidStmt, err := tx.Prepare(`SELECT rid FROM vec_map WHERE id = ?`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer func() { _ = selectRidStmt.Close() }()

	for i, d := range docs {
		if len(embeddings[i]) != s.dimension {
			_ = tx.Rollback()
			return fmt.Errorf("embedding for %s has %d dimensions, store has %d",
				d.ID, len(embeddings[i]), s.dimension)
		}
		if _, err := docStmt.Exec(
			d.ID, d.Source, d.Category, d.StartLine, d.EndLine, d.Content,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
		v, err := sqlite_vec.SerializeFloat32(embeddings[i])
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		var rid sql.NullInt64
		if err := selectRidStmt.QueryRow(d.ID).Scan(&rid); err != nil &&
			!errors.Is(err, sql.ErrNoRows) {
			_ = tx.Rollback()
			return err
		}
		if rid.Valid {
			if _, err := deleteVecStmt.Exec(rid.Int64); err != nil {
				_ = tx.Rollback()
				return err
			}
			if _, err := insertVecAtStmt.Exec(rid.Int64, v); err != nil {
				_ = tx.Rollback()
				return err
			}
			continue
		}
		res, err := insertVecStmt.Exec(v)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		newRid, err := res.LastInsertId()
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := upsertMapStmt.Exec(newRid, d.ID); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) DeleteBySource(source string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	rows, err := tx.Query(`SELECT m.rid FROM documents d
		JOIN vec_map m ON m.id = d.id
		WHERE d.source = ?`, source)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	var rids []int64
	for rows.Next() {
		var rid int64
		if err := rows.Scan(&rid); err != nil {
			_ = rows.Close()
			_ = tx.Rollback()
			return err
		}
		rids = append(rids, rid)
	}
	_ = rows.Close()
	for _, rid := range rids {
		if _, err := tx.Exec(`DELETE FROM vec_embeddings WHERE rowid = ?`, rid); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`DELETE FROM vec_map WHERE rid = ?`, rid); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM documents WHERE source = ?`, source); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *Store) Query(embedding []float32, topK int) ([]models.SemanticHit, error) {
	if topK <= 0 {
		topK = 5
	}
	if s.dimension == 0 {
		return nil, nil
	}
	v, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`
		WITH knn AS (
			SELECT rowid, distance
			FROM vec_embeddings
			WHERE embedding MATCH ? AND k = ?
		)
		SELECT d.id, d.source, d.category, d.start_line, d.end_line, d.content, k.distance
		FROM knn k
		JOIN vec_map m ON m.rid = k.rowid
		JOIN documents d ON d.id = m.id
		ORDER BY k.distance ASC
	`, v, topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var hits []models.SemanticHit
	for rows.Next() {
		var d models.Document
		var category sql.NullString
		var distance float32
		if err := rows.Scan(
			&d.ID, &d.Source, &category, &d.StartLine, &d.EndLine, &d.Content, &distance,
		); err != nil {
			return nil, err
		}
		d.Category = category.String
		hits = append(hits, models.SemanticHit{Document: d, Score: 1 - distance})
	}
	return hits, rows.Err()
}

func (s *Store) ensureVecTable(tx *sql.Tx, embeddings [][]float32) error {
	var name string
	err := tx.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='vec_embeddings'`).
		Scan(&name)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if name == "vec_embeddings" {
		if s.dimension == 0 {
			s.dimension = len(embeddings[0])
		}
		return nil
	}
	if len(embeddings[0]) == 0 {
		return fmt.Errorf("cannot create vec_embeddings: unknown embedding dimension")
	}
	if err := createVecTable(tx, len(embeddings[0])); err != nil {
		return err
	}
	s.dimension = len(embeddings[0])
	return nil
}
