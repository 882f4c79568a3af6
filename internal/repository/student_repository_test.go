package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStudentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func studentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "student_number", "full_name", "email", "active", "created_at", "updated_at"}).
		AddRow("s1", "2021-001", "Ana Marin", "ana@school.test", true, now, now)
}

func TestStudentRepositorySearchWithQuery(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("full_name ILIKE $1 OR email ILIKE $1 OR student_number ILIKE $1")).
		WithArgs("%ana%").
		WillReturnRows(studentRows())

	students, err := repo.Search(context.Background(), "ana", 50)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ana Marin", students[0].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositorySearchWithoutQuery(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE active = TRUE ORDER BY full_name LIMIT 100")).
		WillReturnRows(studentRows())

	students, err := repo.Search(context.Background(), "", 0)
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDs(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE id IN ($1,$2)")).
		WithArgs("s1", "s2").
		WillReturnRows(studentRows())

	students, err := repo.FindByIDs(context.Background(), []string{"s1", "s2"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindByIDsEmptyInput(t *testing.T) {
	db, mock, cleanup := newStudentRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	students, err := repo.FindByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, students)
	require.NoError(t, mock.ExpectationsWereMet())
}
