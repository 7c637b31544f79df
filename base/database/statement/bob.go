package statement

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/mysql"
	mysqldialect "github.com/stephenafamo/bob/dialect/mysql/dialect"
	mysqldm "github.com/stephenafamo/bob/dialect/mysql/dm"
	mysqlim "github.com/stephenafamo/bob/dialect/mysql/im"
	mysqlsm "github.com/stephenafamo/bob/dialect/mysql/sm"
	mysqlum "github.com/stephenafamo/bob/dialect/mysql/um"
	"github.com/stephenafamo/bob/dialect/sqlite"
	sqlitedialect "github.com/stephenafamo/bob/dialect/sqlite/dialect"
	"github.com/stephenafamo/bob/dialect/sqlite/dm"
	"github.com/stephenafamo/bob/dialect/sqlite/im"
	"github.com/stephenafamo/bob/dialect/sqlite/sm"
	"github.com/stephenafamo/bob/dialect/sqlite/um"

	"github.com/safing/recorddb/base/database/query"
)

type buildable interface {
	Build(ctx context.Context) (string, []any, error)
}

func build(ctx context.Context, q buildable) (Statement, error) {
	sql, args, err := q.Build(ctx)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: sql, Args: args}, nil
}

type sqliteBuilder struct{}

func (sqliteBuilder) where(filter []query.Pair) []bob.Expression {
	exprs := make([]bob.Expression, 0, len(filter))
	for _, p := range filter {
		exprs = append(exprs, sqlite.Quote(p.Field).EQ(sqlite.Arg(p.Value)))
	}
	return exprs
}

func (sqliteBuilder) insert(ctx context.Context, table string, columns []string, values []any) (Statement, error) {
	args := make([]bob.Expression, 0, len(values))
	for _, v := range values {
		args = append(args, sqlite.Arg(v))
	}
	return build(ctx, sqlite.Insert(
		im.Into(table, columns...),
		im.Values(args...),
	))
}

func (b sqliteBuilder) update(ctx context.Context, table string, columns []string, values []any, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*sqlitedialect.UpdateQuery]{
		um.Table(table),
	}
	for i, column := range columns {
		mods = append(mods, um.SetCol(column).ToArg(values[i]))
	}
	for _, e := range b.where(filter) {
		mods = append(mods, um.Where(e))
	}
	return build(ctx, sqlite.Update(mods...))
}

func (b sqliteBuilder) delete(ctx context.Context, table string, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*sqlitedialect.DeleteQuery]{
		dm.From(table),
	}
	for _, e := range b.where(filter) {
		mods = append(mods, dm.Where(e))
	}
	return build(ctx, sqlite.Delete(mods...))
}

func (b sqliteBuilder) selectAll(ctx context.Context, table string, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*sqlitedialect.SelectQuery]{
		sm.Columns("*"),
		sm.From(table),
	}
	for _, e := range b.where(filter) {
		mods = append(mods, sm.Where(e))
	}
	return build(ctx, sqlite.Select(mods...))
}

type mysqlBuilder struct{}

func (mysqlBuilder) where(filter []query.Pair) []bob.Expression {
	exprs := make([]bob.Expression, 0, len(filter))
	for _, p := range filter {
		exprs = append(exprs, mysql.Quote(p.Field).EQ(mysql.Arg(p.Value)))
	}
	return exprs
}

func (mysqlBuilder) insert(ctx context.Context, table string, columns []string, values []any) (Statement, error) {
	args := make([]bob.Expression, 0, len(values))
	for _, v := range values {
		args = append(args, mysql.Arg(v))
	}
	return build(ctx, mysql.Insert(
		mysqlim.Into(table, columns...),
		mysqlim.Values(args...),
	))
}

func (b mysqlBuilder) update(ctx context.Context, table string, columns []string, values []any, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*mysqldialect.UpdateQuery]{
		mysqlum.Table(table),
	}
	for i, column := range columns {
		mods = append(mods, mysqlum.SetCol(column).ToArg(values[i]))
	}
	for _, e := range b.where(filter) {
		mods = append(mods, mysqlum.Where(e))
	}
	return build(ctx, mysql.Update(mods...))
}

func (b mysqlBuilder) delete(ctx context.Context, table string, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*mysqldialect.DeleteQuery]{
		mysqldm.From(table),
	}
	for _, e := range b.where(filter) {
		mods = append(mods, mysqldm.Where(e))
	}
	return build(ctx, mysql.Delete(mods...))
}

func (b mysqlBuilder) selectAll(ctx context.Context, table string, filter []query.Pair) (Statement, error) {
	mods := []bob.Mod[*mysqldialect.SelectQuery]{
		mysqlsm.Columns("*"),
		mysqlsm.From(table),
	}
	for _, e := range b.where(filter) {
		mods = append(mods, mysqlsm.Where(e))
	}
	return build(ctx, mysql.Select(mods...))
}
