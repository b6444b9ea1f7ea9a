// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockBackend(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresBackend(db), mock
}

func TestPostgresBackendLoad(t *testing.T) {
	p, mock := newMockBackend(t)

	mock.ExpectQuery(`SELECT value FROM documents WHERE namespace`).
		WithArgs("client", KeyTheme).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`"dark"`)))

	got, err := p.Load(context.Background(), "client", KeyTheme)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `"dark"` {
		t.Errorf("Load = %s", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresBackendLoadMissing(t *testing.T) {
	p, mock := newMockBackend(t)

	mock.ExpectQuery(`SELECT value FROM documents WHERE namespace`).
		WithArgs("client", KeyBrandContext).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	_, err := p.Load(context.Background(), "client", KeyBrandContext)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load error = %v, want ErrNotFound", err)
	}
}

func TestPostgresBackendSaveUpserts(t *testing.T) {
	p, mock := newMockBackend(t)

	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("client", KeySavedPosts, []byte(`[]`), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.Save(context.Background(), "client", KeySavedPosts, []byte(`[]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresBackendDelete(t *testing.T) {
	p, mock := newMockBackend(t)

	mock.ExpectExec(`DELETE FROM documents`).
		WithArgs("client", KeyUsage).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := p.Delete(context.Background(), "client", KeyUsage); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestPostgresBackendPropagatesErrors(t *testing.T) {
	p, mock := newMockBackend(t)

	mock.ExpectExec(`INSERT INTO documents`).WillReturnError(errors.New("connection reset"))

	err := p.Save(context.Background(), "client", KeyTheme, []byte(`"light"`))
	if err == nil {
		t.Fatal("expected error")
	}
}
