package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"streamclips/domain/model"
)

func newMockGorm(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestClipRepositoryUpdateStatusIf(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewClipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "clips" SET`).
		WithArgs(string(model.ClipStatusEdited), sqlmock.AnyArg(), "clip-1", string(model.ClipStatusProcessing)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ok, err := repo.UpdateStatusIf(context.Background(), "clip-1", model.ClipStatusProcessing, model.ClipStatusEdited)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipRepositoryUpdateStatusIfLostRace(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewClipRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "clips" SET`).
		WithArgs(string(model.ClipStatusReady), sqlmock.AnyArg(), "clip-1", string(model.ClipStatusEdited)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	ok, err := repo.UpdateStatusIf(context.Background(), "clip-1", model.ClipStatusEdited, model.ClipStatusReady)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipRepositoryUpdateStatusIfRejectsIllegalTransition(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewClipRepository(db)

	// No SQL expected: the transition table already rules backwards moves out.
	ok, err := repo.UpdateStatusIf(context.Background(), "clip-1", model.ClipStatusPublished, model.ClipStatusProcessing)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipRepositoryGetByID(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewClipRepository(db)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "clips" WHERE id = \$1`).
		WithArgs("clip-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "streamer_id", "title", "duration", "viral_score", "status", "created_at"}).
			AddRow("clip-1", "streamer-1", "Tiroteo en el banco", 30, 85, string(model.ClipStatusReady), now))

	clip, err := repo.GetByID(context.Background(), "clip-1")
	require.NoError(t, err)
	assert.Equal(t, "clip-1", clip.ID)
	assert.Equal(t, 85, clip.ViralScore)
	assert.Equal(t, model.ClipStatusReady, clip.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClipRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockGorm(t)
	repo := NewClipRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "clips" WHERE id = \$1`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	clip, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Nil(t, clip)
	require.NoError(t, mock.ExpectationsWereMet())
}
