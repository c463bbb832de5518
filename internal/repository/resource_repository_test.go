package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tutorconnect-api/internal/models"
)

func TestResourceRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "teacher_id", "title", "description", "subject", "url", "created_at"}).
		AddRow("r1", "t1", "Algebra notes", "", "Math", "https://example.com/a.pdf", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE 1=1 AND teacher_id = $1 AND LOWER(subject) = LOWER($2) ORDER BY created_at DESC")).
		WithArgs("t1", "math").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ResourceFilter{TeacherID: "t1", Subject: "math"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "https://example.com/a.pdf", list[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryCreateDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec("INSERT INTO resources").
		WithArgs(sqlmock.AnyArg(), "t1", "Notes", "", "Math", "https://example.com", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	res := &models.Resource{TeacherID: "t1", Title: "Notes", Subject: "Math", URL: "https://example.com"}
	require.NoError(t, repo.Create(context.Background(), res))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs(res.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), res.ID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
