package ioindex

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gnexport/pkg/export"
	"github.com/tidwall/gjson"
	_ "modernc.org/sqlite"
)

const createOccurrences = `CREATE TABLE IF NOT EXISTS occurrences (
  id INTEGER PRIMARY KEY,
  doc TEXT NOT NULL
)`

// loadBatch is the number of documents inserted in one transaction.
const loadBatch = 10_000

var sortField = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteIndex is a local occurrence index. Documents are stored as JSON
// and queried with the clause subset supported by toSQL.
type SQLiteIndex struct {
	path string
	db   *sql.DB
}

// OpenSQLite opens or creates a local index file.
func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, IndexOpenError(path, fmt.Errorf("empty path"))
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, IndexOpenError(path, err)
	}
	if _, err = db.Exec(createOccurrences); err != nil {
		db.Close()
		return nil, IndexOpenError(path, err)
	}
	return &SQLiteIndex{path: path, db: db}, nil
}

// Close closes the database.
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

// Query returns one page of documents.
func (s *SQLiteIndex) Query(
	ctx context.Context,
	q export.IndexQuery,
) (*export.Page, error) {
	where, args, err := whereClause(q.Query, q.Filters)
	if err != nil {
		return nil, err
	}

	res := &export.Page{}
	row := s.db.QueryRowContext(ctx,
		"SELECT count(*) FROM occurrences WHERE "+where, args...)
	if err = row.Scan(&res.TotalFound); err != nil {
		return nil, s.queryError(err)
	}

	if q.Rows > 0 {
		res.Documents, err = s.documents(ctx, q, where, args)
		if err != nil {
			return nil, err
		}
	}

	if len(q.Facets) > 0 {
		res.Facets = make(map[string][]export.FacetCount)
		for _, f := range q.Facets {
			fc, err := s.facet(ctx, where, args, f, q.FacetLimit)
			if err != nil {
				return nil, err
			}
			res.Facets[f] = fc
		}
	}
	return res, nil
}

// FacetCounts returns value counts of a field.
func (s *SQLiteIndex) FacetCounts(
	ctx context.Context,
	query string,
	filters []string,
	field string,
) ([]export.FacetCount, error) {
	where, args, err := whereClause(query, filters)
	if err != nil {
		return nil, err
	}
	return s.facet(ctx, where, args, field, 0)
}

func (s *SQLiteIndex) documents(
	ctx context.Context,
	q export.IndexQuery,
	where string,
	args []any,
) ([]export.Document, error) {
	order, err := orderBy(q.Sort)
	if err != nil {
		return nil, err
	}
	qs := "SELECT doc FROM occurrences WHERE " + where +
		" ORDER BY " + order + " LIMIT ? OFFSET ?"
	args = append(append([]any{}, args...), q.Rows, q.Offset)

	rows, err := s.db.QueryContext(ctx, qs, args...)
	if err != nil {
		return nil, s.queryError(err)
	}
	defer rows.Close()

	var res []export.Document
	for rows.Next() {
		var doc string
		if err = rows.Scan(&doc); err != nil {
			return nil, s.queryError(err)
		}
		res = append(res, project(decodeDoc(gjson.Parse(doc)), q.Fields))
	}
	if err = rows.Err(); err != nil {
		return nil, s.queryError(err)
	}
	return res, nil
}

func (s *SQLiteIndex) facet(
	ctx context.Context,
	where string,
	args []any,
	field string,
	limit int,
) ([]export.FacetCount, error) {
	qs := `SELECT CAST(j.value AS TEXT), count(*)
  FROM occurrences, json_each(occurrences.doc, ?) AS j
  WHERE j.value IS NOT NULL AND ` + where + `
  GROUP BY 1
  ORDER BY 2 DESC, 1`
	fargs := append([]any{`$."` + field + `"`}, args...)
	if limit > 0 {
		qs += " LIMIT ?"
		fargs = append(fargs, limit)
	}

	rows, err := s.db.QueryContext(ctx, qs, fargs...)
	if err != nil {
		return nil, s.queryError(err)
	}
	defer rows.Close()

	var res []export.FacetCount
	for rows.Next() {
		var fc export.FacetCount
		if err = rows.Scan(&fc.Value, &fc.Count); err != nil {
			return nil, s.queryError(err)
		}
		res = append(res, fc)
	}
	if err = rows.Err(); err != nil {
		return nil, s.queryError(err)
	}
	return res, nil
}

// Clear removes all documents from the index.
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM occurrences"); err != nil {
		return IndexLoadError(s.path, 0, err)
	}
	return nil
}

// Load imports JSON-lines documents into the index and returns the number
// of loaded documents. Each line must be a JSON object.
func (s *SQLiteIndex) Load(ctx context.Context, r io.Reader, name string) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var count, line int
	tx, stmt, err := s.begin(ctx)
	if err != nil {
		return 0, IndexLoadError(name, line, err)
	}

	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
			tx.Rollback()
			return count, IndexLoadError(name, line, fmt.Errorf("not a JSON object"))
		}
		if _, err = stmt.ExecContext(ctx, text); err != nil {
			tx.Rollback()
			return count, IndexLoadError(name, line, err)
		}
		count++

		if count%loadBatch == 0 {
			if err = tx.Commit(); err != nil {
				return count, IndexLoadError(name, line, err)
			}
			slog.Info("Occurrences loaded", "count", humanize.Comma(int64(count)))
			if tx, stmt, err = s.begin(ctx); err != nil {
				return count, IndexLoadError(name, line, err)
			}
		}
	}
	if err = scanner.Err(); err != nil {
		tx.Rollback()
		return count, IndexLoadError(name, line, err)
	}
	if err = tx.Commit(); err != nil {
		return count, IndexLoadError(name, line, err)
	}
	return count, nil
}

func (s *SQLiteIndex) begin(ctx context.Context) (*sql.Tx, *sql.Stmt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO occurrences (doc) VALUES (?)")
	if err != nil {
		tx.Rollback()
		return nil, nil, err
	}
	return tx, stmt, nil
}

func (s *SQLiteIndex) queryError(err error) error {
	res := IndexResponseError(0, "local index query failed", err)
	msg := err.Error()
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") {
		return export.Transient(res)
	}
	return res
}

func whereClause(query string, filters []string) (string, []any, error) {
	var conds []string
	var args []any
	for _, c := range append([]string{query}, filters...) {
		cond, cargs, err := toSQL(c)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, "("+cond+")")
		args = append(args, cargs...)
	}
	return strings.Join(conds, " AND "), args, nil
}

// orderBy translates an index sort clause. The internal document
// order key maps to the row id.
func orderBy(sort string) (string, error) {
	var res []string
	for _, part := range strings.Split(sort, ",") {
		fs := strings.Fields(part)
		if len(fs) == 0 {
			continue
		}
		dir := "ASC"
		if len(fs) > 1 && strings.EqualFold(fs[1], "desc") {
			dir = "DESC"
		}
		if fs[0] == "_docid_" {
			res = append(res, "id "+dir)
			continue
		}
		if !sortField.MatchString(fs[0]) {
			return "", QueryFilterError(sort, fmt.Errorf("bad sort field"))
		}
		res = append(res,
			`json_extract(doc, '$."`+fs[0]+`"') `+dir)
	}
	res = append(res, "id")
	return strings.Join(res, ", "), nil
}
