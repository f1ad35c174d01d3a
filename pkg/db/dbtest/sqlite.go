// Package dbtest opens throwaway sqlite databases carrying the same tables
// and uniqueness constraints as the goose migrations.
package dbtest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  phone TEXT,
  role TEXT NOT NULL DEFAULT 'member',
  status TEXT NOT NULL DEFAULT 'active',
  member_id TEXT,
  gateway_customer_code TEXT,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_email_key ON accounts (email);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS accounts_member_id_key ON accounts (member_id) WHERE member_id IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS plans (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  plan_code TEXT NOT NULL,
  gateway_plan_id INTEGER,
  amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  interval TEXT NOT NULL,
  features TEXT,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS plans_name_lower_key ON plans (lower(name));`,
	`CREATE UNIQUE INDEX IF NOT EXISTS plans_plan_code_key ON plans (plan_code);`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  plan_id TEXT NOT NULL,
  start_date DATETIME NOT NULL,
  next_billing_date DATETIME NOT NULL,
  next_billing_confirmed INTEGER NOT NULL DEFAULT 0,
  subscription_code TEXT,
  email_token TEXT,
  customer_code TEXT,
  customer_id INTEGER,
  amount NUMERIC NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_subscription_code_key ON subscriptions (subscription_code) WHERE subscription_code IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_one_active_per_account ON subscriptions (account_id) WHERE status = 'active';`,
	`CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  account_id TEXT NOT NULL,
  subscription_id TEXT,
  reference TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  total_amount NUMERIC NOT NULL,
  currency TEXT NOT NULL,
  type TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  description TEXT NOT NULL DEFAULT '',
  channel TEXT,
  paid_at DATETIME,
  metadata TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS transactions_reference_key ON transactions (reference);`,
}

// Open returns an isolated in-memory database with the billing schema.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}
