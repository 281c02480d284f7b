package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gowebpki/jcs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrIdempotencyConflict = errors.New("idempotency key used with different payload")
	ErrValidation          = errors.New("validation error")
)

// Store caches HTTP response bodies per Idempotency-Key in PostgreSQL.
type Store struct {
	db *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{db: db} }

// =========================
// RFC 8785 (JCS) canonical forms
// =========================

// Canonical returns the RFC 8785 canonical JSON of v.
func Canonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(raw)
}

// CanonicalHash is the hex sha256 of Canonical(v). Equal requests hash
// equally regardless of field order or whitespace in the original body.
func CanonicalHash(v any) (string, error) {
	b, err := Canonical(v)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

func checkKey(key, requestHash string) error {
	if strings.TrimSpace(key) == "" || strings.TrimSpace(requestHash) == "" {
		return ErrValidation
	}
	return nil
}

// Lookup returns the stored body for key. A key stored under a different
// request hash is a conflict.
func (s *Store) Lookup(ctx context.Context, key, requestHash string) ([]byte, bool, error) {
	if err := checkKey(key, requestHash); err != nil {
		return nil, false, err
	}

	var storedHash, body string
	err := s.db.QueryRow(ctx,
		`SELECT request_hash, response_canonical FROM instruction_replay WHERE key=$1`,
		key,
	).Scan(&storedHash, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if storedHash != requestHash {
		return nil, false, ErrIdempotencyConflict
	}
	return []byte(body), true, nil
}

// Save stores body under key. Saving the same key and hash twice keeps the
// first body.
func (s *Store) Save(ctx context.Context, key, requestHash string, body []byte) error {
	if err := checkKey(key, requestHash); err != nil {
		return err
	}
	canon, err := jcs.Transform(body)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Serialize per key so two first-time writers cannot interleave.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO instruction_replay(key, request_hash, response_json, response_canonical)
		 VALUES($1,$2,$3::jsonb,$4)
		 ON CONFLICT (key) DO NOTHING`,
		key, requestHash, json.RawMessage(canon), string(canon),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		var existing string
		if err := tx.QueryRow(ctx,
			`SELECT request_hash FROM instruction_replay WHERE key=$1`, key,
		).Scan(&existing); err != nil {
			return err
		}
		if existing != requestHash {
			return ErrIdempotencyConflict
		}
	}

	return tx.Commit(ctx)
}
