package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-fees-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "academic_year", "batch_year", "seat_type", "quota_type", "base_fees",
		"description", "created_by", "deleted", "created_at", "updated_at",
	})
}

func TestTemplateRepositoryFindActiveByKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	quota := models.QuotaMerit
	now := time.Now().UTC()
	rows := templateRows().
		AddRow("tpl-1", "2024-25", "2023", "MANAGEMENT", "MERIT", "120000",
			nil, "admin-1", false, now, now)

	mock.ExpectQuery(regexp.QuoteMeta("quota_type IS NOT DISTINCT FROM $4")).
		WithArgs("2024-25", "2023", "MANAGEMENT", &quota).
		WillReturnRows(rows)

	templates, err := repo.FindActiveByKey(context.Background(), models.TemplateKey{
		AcademicYear: "2024-25",
		BatchYear:    "2023",
		SeatType:     models.SeatManagement,
		QuotaType:    &quota,
	})
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "tpl-1", templates[0].ID)
	assert.True(t, templates[0].BaseFees.Equal(decimal.NewFromInt(120000)))
}

func TestTemplateRepositoryFindActiveByKeyNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("quota_type IS NOT DISTINCT FROM $4")).
		WithArgs("2024-25", "2023", "GOVERNMENT", nil).
		WillReturnRows(templateRows())

	templates, err := repo.FindActiveByKey(context.Background(), models.TemplateKey{
		AcademicYear: "2024-25",
		BatchYear:    "2023",
		SeatType:     models.SeatGovernment,
	})
	require.NoError(t, err)
	assert.Empty(t, templates)
}

func TestTemplateRepositoryExistsActiveKey(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM fee_templates")).
		WithArgs("2024-25", "2023", "GOVERNMENT", nil).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActiveKey(context.Background(), models.TemplateKey{
		AcademicYear: "2024-25",
		BatchYear:    "2023",
		SeatType:     models.SeatGovernment,
	}, "")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTemplateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO fee_templates")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	template := &models.FeeTemplate{
		AcademicYear: "2024-25",
		BatchYear:    "2023",
		SeatType:     models.SeatGovernment,
		BaseFees:     decimal.NewFromInt(25000),
		CreatedBy:    "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), template))
	assert.NotEmpty(t, template.ID)
	assert.False(t, template.CreatedAt.IsZero())
}

func TestTemplateRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTemplateRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE fee_templates SET deleted = TRUE")).
		WithArgs("tpl-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), "tpl-1"))
}
