package storage

import (
	"context"
)

const insertPerson = `INSERT OR IGNORE INTO people (name) VALUES (?)`

func (q *Queries) InsertPerson(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, insertPerson, name)
	return err
}

const listPeople = `SELECT name FROM people ORDER BY rowid`

func (q *Queries) ListPeople(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listPeople)
}

const upsertStore = `
INSERT INTO stores (name, default_category, default_sub_category) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    default_category = excluded.default_category,
    default_sub_category = excluded.default_sub_category
`

func (q *Queries) UpsertStore(ctx context.Context, arg Store) error {
	_, err := q.db.ExecContext(ctx, upsertStore, arg.Name, arg.DefaultCategory, arg.DefaultSubCategory)
	return err
}

const listStores = `SELECT name, default_category, default_sub_category FROM stores ORDER BY rowid`

func (q *Queries) ListStores(ctx context.Context) ([]Store, error) {
	rows, err := q.db.QueryContext(ctx, listStores)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Store
	for rows.Next() {
		var i Store
		if err := rows.Scan(&i.Name, &i.DefaultCategory, &i.DefaultSubCategory); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCategory = `INSERT OR IGNORE INTO categories (name) VALUES (?)`

func (q *Queries) InsertCategory(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, insertCategory, name)
	return err
}

const listCategories = `SELECT name FROM categories ORDER BY rowid`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	return q.listStrings(ctx, listCategories)
}

const insertSubCategory = `INSERT OR IGNORE INTO sub_categories (category, name) VALUES (?, ?)`

func (q *Queries) InsertSubCategory(ctx context.Context, arg SubCategory) error {
	_, err := q.db.ExecContext(ctx, insertSubCategory, arg.Category, arg.Name)
	return err
}

const listSubCategories = `SELECT category, name FROM sub_categories ORDER BY rowid`

func (q *Queries) ListSubCategories(ctx context.Context) ([]SubCategory, error) {
	rows, err := q.db.QueryContext(ctx, listSubCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SubCategory
	for rows.Next() {
		var i SubCategory
		if err := rows.Scan(&i.Category, &i.Name); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
