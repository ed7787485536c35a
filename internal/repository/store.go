// AngelaMos | 2026
// store.go

// Package repository provides a generic, tenant-scoped table store.
// Every statement it builds carries the tenant column as a predicate or
// as an inserted value; callers cannot opt out.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/carterperez-dev/templates/tenant-api/internal/core"
)

var ErrUnknownColumn = errors.New("unknown column")

// Values maps column names to values for inserts and updates.
type Values map[string]any

// Filter is an equality filter. A nil value matches NULL.
type Filter map[string]any

type Query struct {
	Where   Filter
	OrderBy []string
	Limit   uint64
	Offset  uint64
}

type SoftDelete struct {
	Column   string
	Value    any
	AtColumn string
}

type Table struct {
	Name            string
	Columns         []string
	IDColumn        string
	TenantColumn    string
	UpdatedAtColumn string
	DefaultOrder    string
	SoftDelete      *SoftDelete
}

type Store[T any] struct {
	db      core.DBTX
	table   Table
	known   map[string]struct{}
	builder sq.StatementBuilderType
}

func NewStore[T any](db core.DBTX, table Table) *Store[T] {
	if table.IDColumn == "" {
		table.IDColumn = "id"
	}
	if table.TenantColumn == "" {
		table.TenantColumn = "tenant_id"
	}

	known := make(map[string]struct{}, len(table.Columns))
	for _, c := range table.Columns {
		known[c] = struct{}{}
	}

	return &Store[T]{
		db:      db,
		table:   table,
		known:   known,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (s *Store[T]) Table() Table {
	return s.table
}

func (s *Store[T]) Create(ctx context.Context, tenantID string, values Values) (*T, error) {
	op := "create " + s.entity()

	data, err := s.scopedValues(tenantID, values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.builder.
		Insert(s.table.Name).
		SetMap(data).
		Suffix("RETURNING " + s.columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	var out T
	if err := s.conn(ctx).GetContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return &out, nil
}

func (s *Store[T]) FindUnique(ctx context.Context, tenantID, id string) (*T, error) {
	return s.FindFirst(ctx, tenantID, Filter{s.table.IDColumn: id})
}

func (s *Store[T]) FindFirst(ctx context.Context, tenantID string, filter Filter) (*T, error) {
	op := "find " + s.entity()

	where, err := s.scopedFilter(tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q := s.builder.
		Select(s.table.Columns...).
		From(s.table.Name).
		Where(where).
		Limit(1)
	if s.table.DefaultOrder != "" {
		q = q.OrderBy(s.table.DefaultOrder)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	var out T
	err = s.conn(ctx).GetContext(ctx, &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return &out, nil
}

func (s *Store[T]) FindAll(ctx context.Context, tenantID string) ([]T, error) {
	return s.FindWithFilters(ctx, tenantID, Query{})
}

func (s *Store[T]) FindWithFilters(ctx context.Context, tenantID string, q Query) ([]T, error) {
	op := "list " + s.entity()

	where, err := s.scopedFilter(tenantID, q.Where)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	order := q.OrderBy
	if len(order) == 0 && s.table.DefaultOrder != "" {
		order = []string{s.table.DefaultOrder}
	}
	if err := s.checkOrder(order); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	b := s.builder.
		Select(s.table.Columns...).
		From(s.table.Name).
		Where(where)
	if len(order) > 0 {
		b = b.OrderBy(order...)
	}
	if q.Limit > 0 {
		b = b.Limit(q.Limit)
	}
	if q.Offset > 0 {
		b = b.Offset(q.Offset)
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	out := []T{}
	if err := s.conn(ctx).SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return out, nil
}

func (s *Store[T]) Update(ctx context.Context, tenantID, id string, values Values) (*T, error) {
	op := "update " + s.entity()

	if len(values) == 0 {
		return nil, fmt.Errorf("%s: no values: %w", op, core.ErrInvalidInput)
	}
	if err := s.checkColumns(values); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	where, err := s.scopedFilter(tenantID, Filter{s.table.IDColumn: id})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	set := make(map[string]any, len(values)+1)
	for k, v := range values {
		if k == s.table.TenantColumn || k == s.table.IDColumn {
			continue
		}
		set[k] = v
	}
	if col := s.table.UpdatedAtColumn; col != "" {
		if _, ok := set[col]; !ok {
			set[col] = sq.Expr("NOW()")
		}
	}

	query, args, err := s.builder.
		Update(s.table.Name).
		SetMap(set).
		Where(where).
		Suffix("RETURNING " + s.columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	var out T
	err = s.conn(ctx).GetContext(ctx, &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return &out, nil
}

// SoftDelete flags the row as deleted and stamps the deletion time.
func (s *Store[T]) SoftDelete(ctx context.Context, tenantID, id string) (*T, error) {
	sd := s.table.SoftDelete
	if sd == nil {
		return nil, fmt.Errorf(
			"soft delete %s: table has no soft delete columns: %w",
			s.entity(),
			core.ErrInvalidInput,
		)
	}

	values := Values{sd.Column: sd.Value}
	if sd.AtColumn != "" {
		values[sd.AtColumn] = sq.Expr("NOW()")
	}

	return s.Update(ctx, tenantID, id, values)
}

// Delete removes matching rows. It reports false, not an error, when
// nothing matched.
func (s *Store[T]) Delete(ctx context.Context, tenantID string, filter Filter) (bool, error) {
	op := "delete " + s.entity()

	where, err := s.scopedFilter(tenantID, filter)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.builder.
		Delete(s.table.Name).
		Where(where).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: build query: %w", op, err)
	}

	result, err := s.conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, translate(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return rows > 0, nil
}

func (s *Store[T]) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	op := "count " + s.entity()

	where, err := s.scopedFilter(tenantID, filter)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	query, args, err := s.builder.
		Select("COUNT(*)").
		From(s.table.Name).
		Where(where).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: build query: %w", op, err)
	}

	var n int
	if err := s.conn(ctx).GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("%s: %w", op, translate(err))
	}

	return n, nil
}

func (s *Store[T]) Exists(ctx context.Context, tenantID string, filter Filter) (bool, error) {
	n, err := s.Count(ctx, tenantID, filter)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ErrCrossTenantConflict is returned by Upsert when the conflicting row
// belongs to another tenant.
var ErrCrossTenantConflict = fmt.Errorf("row owned by another tenant: %w", core.ErrConflict)

// Upsert inserts create, or applies update to the row that conflicts on
// conflictColumns. The conflict target must include the tenant column, and
// the update only applies to a row of the same tenant.
func (s *Store[T]) Upsert(
	ctx context.Context,
	tenantID string,
	conflictColumns []string,
	create, update Values,
) (*T, error) {
	op := "upsert " + s.entity()

	if len(conflictColumns) == 0 {
		return nil, fmt.Errorf("%s: no conflict columns: %w", op, core.ErrInvalidInput)
	}
	scoped := false
	for _, c := range conflictColumns {
		if _, ok := s.known[c]; !ok {
			return nil, fmt.Errorf("%s: %q: %w", op, c, ErrUnknownColumn)
		}
		scoped = scoped || c == s.table.TenantColumn
	}
	if !scoped {
		return nil, fmt.Errorf(
			"%s: conflict target must include %s: %w",
			op, s.table.TenantColumn, core.ErrInvalidInput,
		)
	}
	if err := s.checkColumns(update); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := s.scopedValues(tenantID, create)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	setClause, setArgs := s.conflictSet(update)
	setArgs = append(setArgs, tenantID)

	query, args, err := s.builder.
		Insert(s.table.Name).
		SetMap(data).
		Suffix(
			fmt.Sprintf(
				"ON CONFLICT (%s) DO UPDATE SET %s WHERE %s.%s = ? RETURNING %s",
				strings.Join(conflictColumns, ", "),
				setClause,
				s.table.Name,
				s.table.TenantColumn,
				s.columnList(),
			),
			setArgs...,
		).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: build query: %w", op, err)
	}

	var out T
	err = s.conn(ctx).GetContext(ctx, &out, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrCrossTenantConflict)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, translate(err))
	}

	return &out, nil
}

func (s *Store[T]) conn(ctx context.Context) core.DBTX {
	return core.Conn(ctx, s.db)
}

// translate maps driver errors callers branch on to core sentinels.
func translate(err error) error {
	switch {
	case core.IsDuplicateKeyError(err):
		return core.ErrDuplicateKey
	case core.IsInvalidTextError(err):
		return fmt.Errorf("%w: %w", core.ErrInvalidInput, err)
	default:
		return err
	}
}

func (s *Store[T]) conflictSet(update Values) (string, []any) {
	keys := make([]string, 0, len(update))
	for k := range update {
		if k == s.table.TenantColumn || k == s.table.IDColumn {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" = ?")
		args = append(args, update[k])
	}

	if col := s.table.UpdatedAtColumn; col != "" {
		if _, ok := update[col]; !ok {
			parts = append(parts, col+" = NOW()")
		}
	}

	// DO UPDATE needs at least one assignment for RETURNING to yield the row.
	if len(parts) == 0 {
		tc := s.table.TenantColumn
		parts = append(parts, tc+" = EXCLUDED."+tc)
	}

	return strings.Join(parts, ", "), args
}

func (s *Store[T]) scopedFilter(tenantID string, filter Filter) (sq.Eq, error) {
	if tenantID == "" {
		return nil, core.ErrTenantRequired
	}

	where := make(sq.Eq, len(filter)+1)
	for k, v := range filter {
		if _, ok := s.known[k]; !ok {
			return nil, fmt.Errorf("%q: %w", k, ErrUnknownColumn)
		}
		where[k] = v
	}
	where[s.table.TenantColumn] = tenantID

	return where, nil
}

func (s *Store[T]) scopedValues(tenantID string, values Values) (map[string]any, error) {
	if tenantID == "" {
		return nil, core.ErrTenantRequired
	}
	if err := s.checkColumns(values); err != nil {
		return nil, err
	}

	data := make(map[string]any, len(values)+1)
	for k, v := range values {
		data[k] = v
	}
	data[s.table.TenantColumn] = tenantID

	return data, nil
}

func (s *Store[T]) checkColumns(values Values) error {
	for k := range values {
		if _, ok := s.known[k]; !ok {
			return fmt.Errorf("%q: %w", k, ErrUnknownColumn)
		}
	}
	return nil
}

func (s *Store[T]) checkOrder(order []string) error {
	for _, o := range order {
		fields := strings.Fields(o)
		if len(fields) == 0 || len(fields) > 2 {
			return fmt.Errorf("order %q: %w", o, core.ErrInvalidInput)
		}
		if _, ok := s.known[fields[0]]; !ok {
			return fmt.Errorf("order %q: %w", o, ErrUnknownColumn)
		}
		if len(fields) == 2 {
			dir := strings.ToUpper(fields[1])
			if dir != "ASC" && dir != "DESC" {
				return fmt.Errorf("order %q: %w", o, core.ErrInvalidInput)
			}
		}
	}
	return nil
}

func (s *Store[T]) columnList() string {
	return strings.Join(s.table.Columns, ", ")
}

func (s *Store[T]) entity() string {
	return strings.TrimSuffix(s.table.Name, "s")
}
