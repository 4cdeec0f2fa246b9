package database_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"restaurant-service/database"
)

func TestPostgresConfig_DSN(t *testing.T) {
	cfg := database.PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "restaurant",
		Password: "pw",
		DBName:   "orders",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}

	assert.Equal(t,
		"host=db user=restaurant password=pw dbname=orders port=5432 sslmode=disable TimeZone=UTC",
		cfg.DSN())
}

func TestMigrate_CreatesTables(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	defer database.Close(db)

	require.NoError(t, database.Migrate(db))

	for _, table := range []string{"customers", "items", "orders", "order_items"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestClose_NilDB(t *testing.T) {
	assert.NoError(t, database.Close(nil))
}
