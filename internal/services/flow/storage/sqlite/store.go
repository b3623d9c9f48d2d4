package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/louisbranch/lancerflow/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/lancerflow/internal/services/flow/accdiff"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage"
	"github.com/louisbranch/lancerflow/internal/services/flow/storage/sqlite/migrations"
	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
	"github.com/louisbranch/lancerflow/internal/systems/lancer"
	_ "modernc.org/sqlite"
)

const (
	kindActor = "actor"
	kindItem  = "item"
)

// Store persists documents in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite document store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutActor inserts or replaces an actor document.
func (s *Store) PutActor(ctx context.Context, actor lancer.Actor) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	actor.UUID = strings.TrimSpace(actor.UUID)
	if actor.UUID == "" {
		return fmt.Errorf("actor uuid is required")
	}
	if actor.Type == "" {
		return fmt.Errorf("actor type is required")
	}
	body, err := json.Marshal(actor)
	if err != nil {
		return fmt.Errorf("encode actor %s: %w", actor.UUID, err)
	}
	return s.put(ctx, actor.UUID, kindActor, string(actor.Type), actor.Name, "", body)
}

// PutItem inserts or replaces an item document.
func (s *Store) PutItem(ctx context.Context, item lancer.Item) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	item.UUID = strings.TrimSpace(item.UUID)
	if item.UUID == "" {
		return fmt.Errorf("item uuid is required")
	}
	if item.Type == "" {
		return fmt.Errorf("item type is required")
	}
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item %s: %w", item.UUID, err)
	}
	return s.put(ctx, item.UUID, kindItem, string(item.Type), item.Name, item.ActorUUID, body)
}

func (s *Store) put(ctx context.Context, uuid, kind, docType, name, actorUUID string, body []byte) error {
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO documents (uuid, kind, doc_type, name, actor_uuid, body, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(uuid) DO UPDATE SET
		   kind = excluded.kind,
		   doc_type = excluded.doc_type,
		   name = excluded.name,
		   actor_uuid = excluded.actor_uuid,
		   body = excluded.body,
		   updated_at = excluded.updated_at`,
		uuid, kind, docType, name, nullable(actorUUID), string(body), s.now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put %s %s: %w", kind, uuid, err)
	}
	return nil
}

// GetActor returns one actor by uuid.
func (s *Store) GetActor(ctx context.Context, uuid string) (lancer.Actor, error) {
	var actor lancer.Actor
	if err := s.getDocument(ctx, kindActor, uuid, &actor); err != nil {
		return lancer.Actor{}, err
	}
	return actor, nil
}

// GetItem returns one item by uuid.
func (s *Store) GetItem(ctx context.Context, uuid string) (lancer.Item, error) {
	var item lancer.Item
	if err := s.getDocument(ctx, kindItem, uuid, &item); err != nil {
		return lancer.Item{}, err
	}
	return item, nil
}

func (s *Store) getDocument(ctx context.Context, kind, uuid string, dst any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return fmt.Errorf("%s uuid is required", kind)
	}
	var body string
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE uuid = ? AND kind = ?`, uuid, kind,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s %s: %w", kind, uuid, err)
	}
	if err := json.Unmarshal([]byte(body), dst); err != nil {
		return fmt.Errorf("decode %s %s: %w", kind, uuid, err)
	}
	return nil
}

// ListActors returns every actor ordered by name.
func (s *Store) ListActors(ctx context.Context) ([]lancer.Actor, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT body FROM documents WHERE kind = ? ORDER BY name ASC, uuid ASC`, kindActor)
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	defer rows.Close()

	actors := []lancer.Actor{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list actors: %w", err)
		}
		var actor lancer.Actor
		if err := json.Unmarshal([]byte(body), &actor); err != nil {
			return nil, fmt.Errorf("list actors: decode: %w", err)
		}
		actors = append(actors, actor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	return actors, nil
}

// ListItems returns the items owned by actorUUID ordered by name.
func (s *Store) ListItems(ctx context.Context, actorUUID string) ([]lancer.Item, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT body FROM documents WHERE kind = ? AND actor_uuid = ? ORDER BY name ASC, uuid ASC`,
		kindItem, strings.TrimSpace(actorUUID))
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []lancer.Item{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		var item lancer.Item
		if err := json.Unmarshal([]byte(body), &item); err != nil {
			return nil, fmt.Errorf("list items: decode: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// Resolve loads the documents behind id. An item id resolves to the item and
// its owning actor; an item whose actor is gone resolves with a nil Actor.
func (s *Store) Resolve(ctx context.Context, id string) (tech.Resolved, error) {
	actor, err := s.GetActor(ctx, id)
	if err == nil {
		return tech.Resolved{Actor: &actor}, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return tech.Resolved{}, err
	}

	item, err := s.GetItem(ctx, id)
	if err != nil {
		return tech.Resolved{}, err
	}
	res := tech.Resolved{Item: &item}
	if item.ActorUUID == "" {
		return res, nil
	}
	owner, err := s.GetActor(ctx, item.ActorUUID)
	switch {
	case err == nil:
		res.Actor = &owner
	case !errors.Is(err, storage.ErrNotFound):
		return tech.Resolved{}, err
	}
	return res, nil
}

// Update applies patch to the stored document inside a transaction. The
// patched body must still decode and keep its uuid.
func (s *Store) Update(ctx context.Context, uuid string, patch map[string]any) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return fmt.Errorf("document uuid is required")
	}
	if len(patch) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update %s: %w", uuid, err)
	}
	defer func() { _ = tx.Rollback() }()

	var kind, body string
	err = tx.QueryRowContext(ctx, `SELECT kind, body FROM documents WHERE uuid = ?`, uuid).Scan(&kind, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", uuid, err)
	}

	patched, err := lancer.ApplyPatch([]byte(body), patch)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidPatch, err)
	}
	name, docType, actorUUID, err := describe(kind, patched)
	if err != nil {
		return err
	}
	if docUUID(patched) != uuid {
		return fmt.Errorf("%w: uuid cannot change", storage.ErrInvalidPatch)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE documents
		    SET body = ?, name = ?, doc_type = ?, actor_uuid = ?, updated_at = ?
		  WHERE uuid = ?`,
		string(patched), name, docType, nullable(actorUUID), s.now().UTC().UnixMilli(), uuid,
	); err != nil {
		return fmt.Errorf("update %s: %w", uuid, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit update %s: %w", uuid, err)
	}
	return nil
}

// Targets returns target references for actor ids, in the order given.
func (s *Store) Targets(ctx context.Context, ids []string) ([]accdiff.TargetRef, error) {
	targets := make([]accdiff.TargetRef, 0, len(ids))
	for _, id := range ids {
		actor, err := s.GetActor(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("target %s: %w", id, err)
		}
		targets = append(targets, storage.TargetFromActor(actor))
	}
	return targets, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// describe re-reads the indexed columns from a patched body.
func describe(kind string, body []byte) (name, docType, actorUUID string, err error) {
	switch kind {
	case kindActor:
		var actor lancer.Actor
		if err := json.Unmarshal(body, &actor); err != nil {
			return "", "", "", fmt.Errorf("%w: %v", storage.ErrInvalidPatch, err)
		}
		return actor.Name, string(actor.Type), "", nil
	default:
		var item lancer.Item
		if err := json.Unmarshal(body, &item); err != nil {
			return "", "", "", fmt.Errorf("%w: %v", storage.ErrInvalidPatch, err)
		}
		return item.Name, string(item.Type), item.ActorUUID, nil
	}
}

func docUUID(body []byte) string {
	var doc struct {
		UUID string `json:"uuid"`
	}
	_ = json.Unmarshal(body, &doc)
	return doc.UUID
}

func nullable(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var (
	_ storage.DocumentStore = (*Store)(nil)
	_ storage.TargetStore   = (*Store)(nil)
	_ tech.Resolver         = (*Store)(nil)
	_ tech.Updater          = (*Store)(nil)
)
