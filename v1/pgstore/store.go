package pgstore

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aleph-Alpha/querykit/v1/docstore"
)

// row is one stored document.
type row struct {
	ID  int64
	Doc []byte
}

// table returns the table backing collection.
func (s *Store) table(collection string) string {
	return s.cfg.tablePrefix() + collection
}

func (s *Store) where(f docstore.Filter) (clause.Expr, error) {
	frag, err := whereFilter(f)
	if err != nil {
		return clause.Expr{}, fmt.Errorf("%w: %w", ErrUnsupportedFilter, err)
	}
	return frag.expr(), nil
}

// Migrate enables unaccent and creates the tables of the given collections
// with a GIN index over doc.
func (s *Store) Migrate(ctx context.Context, collections ...string) error {
	db := s.DB().WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS unaccent").Error; err != nil {
		return fmt.Errorf("enable unaccent: %w", err)
	}
	for _, c := range collections {
		t := s.table(c)
		if err := db.Exec("CREATE TABLE IF NOT EXISTS ? (id bigserial PRIMARY KEY, doc jsonb NOT NULL DEFAULT '{}'::jsonb)",
			clause.Table{Name: t}).Error; err != nil {
			return fmt.Errorf("create table %s: %w", t, err)
		}
		if err := db.Exec("CREATE INDEX IF NOT EXISTS ? ON ? USING gin (doc jsonb_path_ops)",
			clause.Table{Name: t + "_doc_idx"}, clause.Table{Name: t}).Error; err != nil {
			return fmt.Errorf("create index on %s: %w", t, err)
		}
	}
	return nil
}

func (s *Store) Find(ctx context.Context, collection string, f docstore.Filter, opts docstore.FindOptions) ([]docstore.Document, error) {
	where, err := s.where(f)
	if err != nil {
		return nil, err
	}

	order := orderBy(opts.Sort)
	q := s.DB().WithContext(ctx).
		Table(s.table(collection)).
		Select("id", "doc").
		Where(where).
		Order(clause.OrderBy{Expression: order.expr()})
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}

	var rows []row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, TranslateError(err)
	}

	out := make([]docstore.Document, 0, len(rows))
	for _, r := range rows {
		d, err := r.document()
		if err != nil {
			return nil, err
		}
		out = append(out, project(d, opts.Projection))
	}
	return out, nil
}

func (s *Store) FindOne(ctx context.Context, collection string, f docstore.Filter) (docstore.Document, error) {
	docs, err := s.Find(ctx, collection, f, docstore.FindOptions{Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

// Distinct flattens array values, like the in-memory store.
func (s *Store) Distinct(ctx context.Context, collection, field string, f docstore.Filter) ([]any, error) {
	where, err := whereFilter(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedFilter, err)
	}

	target := docPath(field)
	query := sprintf(
		"SELECT DISTINCT el.v AS v FROM %s, jsonb_array_elements(CASE WHEN jsonb_typeof(%s) = 'array' THEN %s ELSE jsonb_build_array(%s) END) AS el(v) WHERE %s IS NOT NULL AND (%s)",
		raw("?", clause.Table{Name: s.table(collection)}), target, target, target, target, where,
	)

	var values []string
	if err := s.DB().WithContext(ctx).Raw("?", query.expr()).Scan(&values).Error; err != nil {
		return nil, TranslateError(err)
	}

	out := make([]any, 0, len(values))
	for _, v := range values {
		d, err := decodeDocument([]byte(`{"v":` + v + `}`))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidData, err)
		}
		out = append(out, d["v"])
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, collection string, doc docstore.Document) error {
	body, err := storedBody(doc)
	if err != nil {
		return err
	}
	err = s.DB().WithContext(ctx).
		Exec("INSERT INTO ? (doc) VALUES (?::jsonb)", clause.Table{Name: s.table(collection)}, body).Error
	return TranslateError(err)
}

// Upsert merges set into the first matching document (lowest id) or inserts
// docstore.UpsertSeed(f, set), in one transaction.
func (s *Store) Upsert(ctx context.Context, collection string, f docstore.Filter, set docstore.Document) error {
	where, err := s.where(f)
	if err != nil {
		return err
	}
	table := clause.Table{Name: s.table(collection)}

	err = s.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		err := tx.Table(s.table(collection)).
			Select("id").
			Where(where).
			Order("id").
			Limit(1).
			Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
			Scan(&ids).Error
		if err != nil {
			return err
		}

		if len(ids) == 0 {
			body, err := storedBody(docstore.UpsertSeed(f, set))
			if err != nil {
				return err
			}
			return tx.Exec("INSERT INTO ? (doc) VALUES (?::jsonb)", table, body).Error
		}

		body, err := storedBody(set)
		if err != nil {
			return err
		}
		return tx.Exec("UPDATE ? SET doc = doc || ?::jsonb WHERE id = ?", table, body, ids[0]).Error
	})
	return TranslateError(err)
}

func (s *Store) Delete(ctx context.Context, collection string, f docstore.Filter) (int64, error) {
	where, err := s.where(f)
	if err != nil {
		return 0, err
	}
	res := s.DB().WithContext(ctx).
		Exec("DELETE FROM ? WHERE ?", clause.Table{Name: s.table(collection)}, where)
	if res.Error != nil {
		return 0, TranslateError(res.Error)
	}
	return res.RowsAffected, nil
}

// storedBody encodes doc without the internal id, which lives in the id column.
func storedBody(doc docstore.Document) (string, error) {
	stored := make(docstore.Document, len(doc))
	for k, v := range doc {
		if k != idKey {
			stored[k] = v
		}
	}
	body, err := jsonText(stored)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidData, err)
	}
	return body, nil
}

func (r row) document() (docstore.Document, error) {
	d, err := decodeDocument(r.Doc)
	if err != nil {
		return nil, fmt.Errorf("%w: row %d: %w", ErrInvalidData, r.ID, err)
	}
	d[idKey] = strconv.FormatInt(r.ID, 10)
	return d, nil
}
