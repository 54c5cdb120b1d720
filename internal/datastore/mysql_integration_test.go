//go:build integration && mysql

// Run with: go test -tags="integration,mysql" ./internal/datastore/...
// Requires a Docker daemon for testcontainers.
package datastore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/canonicaltags/ctags/internal/datastore/entities"
)

func startMySQL(t *testing.T) *MySQLConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MySQL integration test in short mode (requires Docker)")
	}

	ctx := context.Background()
	container, err := tcmysql.Run(ctx, "mysql:8.0",
		tcmysql.WithDatabase("ctags_test"),
		tcmysql.WithUsername("ctags"),
		tcmysql.WithPassword("ctags"),
	)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	return &MySQLConfig{
		Host:        host,
		Port:        port.Port(),
		Username:    "ctags",
		Password:    "ctags",
		Database:    "ctags_test",
		TablePrefix: "ctags_",
	}
}

func TestMySQLManagerInitialize(t *testing.T) {
	m, err := NewMySQLManager(startMySQL(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	require.NoError(t, m.Initialize())
	assert.True(t, m.Exists())
	assert.True(t, m.IsMySQL())
	assert.True(t, m.DB().Migrator().HasTable("ctags_tagged_items"))

	first := &entities.Tag{}
	first.SetName(entities.LocaleEn, "golang")
	require.NoError(t, m.DB().Create(first).Error)

	dup := &entities.Tag{}
	dup.SetName(entities.LocaleEn, "golang")
	require.Error(t, m.DB().Create(dup).Error, "per-locale names are unique")

	require.NoError(t, m.DB().Create(&entities.Tag{}).Error)
	require.NoError(t, m.DB().Create(&entities.Tag{}).Error, "blank names never collide")
}
