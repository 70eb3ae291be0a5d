package database

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
)

func TestCreateUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("ada@example.com", "ada", "hash", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	u := &models.User{Email: "ada@example.com", Username: "ada", PasswordHash: "hash"}
	require.NoError(t, db.CreateUser(context.Background(), u))
	assert.Equal(t, int64(1), u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestCreateUser_Duplicate(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantMsg    string
	}{
		{"email", "users_email_key", "email ada@example.com"},
		{"username", "users_username_key", "username ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)

			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&pq.Error{
					Code:       "23505",
					Message:    "duplicate key value violates unique constraint",
					Constraint: tt.constraint,
				})

			u := &models.User{Email: "ada@example.com", Username: "ada", PasswordHash: "hash"}
			err := db.CreateUser(context.Background(), u)
			assert.ErrorIs(t, err, errs.ErrAlreadyExists)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestGetUserByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password_hash", "created_at"}).
			AddRow(1, "ada@example.com", "ada", "hash", now))

	u, err := db.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "hash", u.PasswordHash)
}

func TestGetUserByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs(int64(5)).
		WillReturnError(sql.ErrNoRows)

	_, err := db.GetUserByID(context.Background(), 5)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
