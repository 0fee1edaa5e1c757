package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"vaultapi/internal/model"
	"vaultapi/internal/repository"
)

var fileCols = []string{"id", "owner_id", "username", "storage_key", "display_name", "size_bytes", "is_archive", "uploaded_at"}

func TestFilePostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	now := time.Now().UTC()
	rec := &model.FileRecord{
		ID:          "file-uuid",
		OwnerID:     "owner-uuid",
		StorageKey:  "user_uploads/owner-uuid/report.pdf",
		DisplayName: "Report.pdf",
		SizeBytes:   2048,
		IsArchive:   false,
		UploadedAt:  now,
	}

	rows := sqlmock.NewRows([]string{"id", "owner_id", "storage_key", "display_name", "size_bytes", "is_archive", "uploaded_at"}).
		AddRow(rec.ID, rec.OwnerID, rec.StorageKey, rec.DisplayName, rec.SizeBytes, rec.IsArchive, rec.UploadedAt)

	mock.ExpectQuery("INSERT INTO files").
		WithArgs(rec.ID, rec.OwnerID, rec.StorageKey, rec.DisplayName, rec.SizeBytes, rec.IsArchive, rec.UploadedAt).
		WillReturnRows(rows)

	result, err := repo.Create(ctx, rec)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, rec.ID, result.ID)
	assert.Equal(t, rec.StorageKey, result.StorageKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_FindByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows(fileCols).
			AddRow("file-1", "owner-1", "alice", "user_uploads/owner-1/a.txt", "a.txt", 10, false, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files f JOIN users u").
			WithArgs("file-1").
			WillReturnRows(rows)

		rec, err := repo.FindByID(ctx, "file-1")

		assert.NoError(t, err)
		assert.NotNil(t, rec)
		assert.Equal(t, "file-1", rec.ID)
		assert.Equal(t, "alice", rec.OwnerUsername)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM files f JOIN users u").
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		rec, err := repo.FindByID(ctx, "missing")

		assert.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, rec)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("owner scope", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WithArgs("owner-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(fileCols).
			AddRow("file-2", "owner-1", "alice", "user_uploads/owner-1/b.txt", "b.txt", 20, false, time.Now()).
			AddRow("file-1", "owner-1", "alice", "user_uploads/owner-1/a.txt", "a.txt", 10, false, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files f JOIN users u (.+) ORDER BY f.uploaded_at DESC").
			WithArgs("owner-1", 50, 0).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.FileQuery{
			Scope:    repository.Scope{OwnerID: "owner-1"},
			Ordering: repository.Ordering{Key: repository.SortUploadedAt, Desc: true},
			Page:     repository.PageQuery{Limit: 50, Offset: 0},
		})

		assert.NoError(t, err)
		assert.Equal(t, 2, res.Total)
		assert.Len(t, res.Items, 2)
		assert.Equal(t, "file-2", res.Items[0].ID)
	})

	t.Run("unrestricted scope sorts by username", func(t *testing.T) {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

		rows := sqlmock.NewRows(fileCols).
			AddRow("file-3", "owner-2", "bob", "user_uploads/owner-2/c.txt", "c.txt", 30, false, time.Now())

		mock.ExpectQuery("SELECT (.+) FROM files f JOIN users u (.+) ORDER BY u.username ASC").
			WithArgs(50, 10).
			WillReturnRows(rows)

		res, err := repo.List(ctx, repository.FileQuery{
			Scope:    repository.Scope{All: true},
			Ordering: repository.Ordering{Key: repository.SortOwnerUsername},
			Page:     repository.PageQuery{Limit: 50, Offset: 10},
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, "bob", res.Items[0].OwnerUsername)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_UpdateNameAndKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("updated", func(t *testing.T) {
		mock.ExpectExec("UPDATE files SET display_name").
			WithArgs("file-1", "new.txt", "user_uploads/owner-1/new.txt").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateNameAndKey(ctx, "file-1", "new.txt", "user_uploads/owner-1/new.txt")

		assert.NoError(t, err)
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec("UPDATE files SET display_name").
			WithArgs("missing", "new.txt", "key").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateNameAndKey(ctx, "missing", "new.txt", "key")

		assert.ErrorIs(t, err, sql.ErrNoRows)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_UpdateCurrent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	mock.ExpectExec("UPDATE files SET storage_key").
		WithArgs("file-1", "user_uploads/owner-1/v2/a.txt", int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateCurrent(ctx, "file-1", "user_uploads/owner-1/v2/a.txt", 42)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFilePostgres_Delete(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewFilePostgres(db)
	ctx := context.Background()

	t.Run("deleted", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM files").
			WithArgs("file-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Delete(ctx, "file-1"))
	})

	t.Run("missing row is not an error", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM files").
			WithArgs("missing").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.Delete(ctx, "missing"))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		ordering repository.Ordering
		expected string
	}{
		{repository.Ordering{Key: repository.SortUploadedAt, Desc: true}, "f.uploaded_at DESC"},
		{repository.Ordering{Key: repository.SortOwnerUsername}, "u.username ASC"},
		{repository.Ordering{Key: repository.SortDisplayName, Desc: true}, "f.display_name DESC"},
		{repository.Ordering{Key: repository.SortSizeBytes}, "f.size_bytes ASC"},
		{repository.Ordering{}, "f.uploaded_at ASC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, orderClause(tt.ordering))
	}
}
