package db_test

import (
	"testing"

	"project_hub/internal/db"
	"project_hub/internal/domain"
	"project_hub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMigrateCreatesAllTables(t *testing.T) {
	gdb := testutil.NewDB(t)
	for _, m := range domain.Models() {
		assert.True(t, gdb.Migrator().HasTable(m), "%T", m)
	}
}

func TestEnsureAdminCreatesAndPromotes(t *testing.T) {
	gdb := testutil.NewDB(t)

	require.NoError(t, db.EnsureAdmin(gdb, "root@example.com", "Root", "supersecret"))
	var admin domain.User
	require.NoError(t, gdb.Where("email = ?", "root@example.com").First(&admin).Error)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte("supersecret")))

	plain := domain.User{Email: "plain@example.com", Name: "Plain", Password: "x", Role: domain.RoleUser}
	require.NoError(t, gdb.Create(&plain).Error)
	require.NoError(t, db.EnsureAdmin(gdb, "plain@example.com", "", ""))
	require.NoError(t, gdb.First(&plain, plain.ID).Error)
	assert.Equal(t, domain.RoleAdmin, plain.Role)
}
