package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "sqlite3"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for SQLite")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "sqlite"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "postgres"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if result {
			t.Error("SupportsLastInsertId() should return false for PostgreSQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "postgres"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		result := dialect.DriverName()
		expected := "mysql"
		if result != expected {
			t.Errorf("DriverName() = %v, want %v", result, expected)
		}
	})

	t.Run("SupportsLastInsertId", func(t *testing.T) {
		result := dialect.SupportsLastInsertId()
		if !result {
			t.Error("SupportsLastInsertId() should return true for MySQL")
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		result := dialect.MigrationsSubdir()
		expected := "mysql"
		if result != expected {
			t.Errorf("MigrationsSubdir() = %v, want %v", result, expected)
		}
	})
}

func TestRewriteQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		query    string
		expected string
	}{
		{
			name:     "SQLite no change",
			dialect:  NewSQLiteDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = ?",
		},
		{
			name:     "PostgreSQL single placeholder",
			dialect:  NewPostgresDialect(),
			query:    "SELECT * FROM users WHERE id = ?",
			expected: "SELECT * FROM users WHERE id = $1",
		},
		{
			name:     "PostgreSQL multiple placeholders",
			dialect:  NewPostgresDialect(),
			query:    "INSERT INTO users (name, email) VALUES (?, ?)",
			expected: "INSERT INTO users (name, email) VALUES ($1, $2)",
		},
		{
			name:     "MySQL no change",
			dialect:  NewMySQLDialect(),
			query:    "UPDATE users SET name = ?, email = ? WHERE id = ?",
			expected: "UPDATE users SET name = ?, email = ? WHERE id = ?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.RewriteQuery(tt.query)
			if result != tt.expected {
				t.Errorf("RewriteQuery() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestInsertIgnoreQuery(t *testing.T) {
	tests := []struct {
		name     string
		dialect  Dialect
		expected string
	}{
		{
			name:     "SQLite",
			dialect:  NewSQLiteDialect(),
			expected: "INSERT OR IGNORE INTO user_badges (user_id, badge_id) VALUES (?, ?)",
		},
		{
			name:     "MySQL",
			dialect:  NewMySQLDialect(),
			expected: "INSERT IGNORE INTO user_badges (user_id, badge_id) VALUES (?, ?)",
		},
		{
			name:     "PostgreSQL",
			dialect:  NewPostgresDialect(),
			expected: "INSERT INTO user_badges (user_id, badge_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.dialect.InsertIgnoreQuery("user_badges", "user_id", "badge_id")
			if result != tt.expected {
				t.Errorf("InsertIgnoreQuery() = %v, want %v", result, tt.expected)
			}
		})
	}

	t.Run("PostgreSQL rewrites placeholders", func(t *testing.T) {
		d := NewPostgresDialect()
		got := d.RewriteQuery(d.InsertIgnoreQuery("bad_words", "word"))
		want := "INSERT INTO bad_words (word) VALUES ($1) ON CONFLICT DO NOTHING"
		if got != want {
			t.Errorf("RewriteQuery(InsertIgnoreQuery()) = %v, want %v", got, want)
		}
	})
}

func TestBoolValue(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		on   string
		off  string
	}{
		{"SQLite", NewSQLiteDialect(), "1", "0"},
		{"MySQL", NewMySQLDialect(), "TRUE", "FALSE"},
		{"PostgreSQL", NewPostgresDialect(), "TRUE", "FALSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.dialect.BoolValue(true); got != tt.on {
				t.Errorf("BoolValue(true) = %v, want %v", got, tt.on)
			}
			if got := tt.dialect.BoolValue(false); got != tt.off {
				t.Errorf("BoolValue(false) = %v, want %v", got, tt.off)
			}
		})
	}
}

func TestSQLiteDSN(t *testing.T) {
	got := NewSQLiteDialect().DSN(DialectConfig{Path: "/tmp/portal.db"})
	want := "file:/tmp/portal.db?_busy_timeout=5000&_foreign_keys=on"
	if got != want {
		t.Errorf("DSN() = %v, want %v", got, want)
	}
}

func TestMySQLDSN(t *testing.T) {
	t.Run("normalises options", func(t *testing.T) {
		dsn := NewMySQLDialect().DSN(DialectConfig{
			URL: "portal:secret@tcp(db.internal:3306)/portal",
			TLS: "skip-verify",
		})

		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			t.Fatalf("ParseDSN(%q) failed: %v", dsn, err)
		}
		if !cfg.ParseTime {
			t.Error("expected parseTime to be enabled")
		}
		if !cfg.MultiStatements {
			t.Error("expected multiStatements to be enabled")
		}
		if cfg.Timeout != mysqlConnectTimeout {
			t.Errorf("Timeout = %v, want %v", cfg.Timeout, mysqlConnectTimeout)
		}
		if cfg.TLSConfig != "skip-verify" {
			t.Errorf("TLSConfig = %v, want skip-verify", cfg.TLSConfig)
		}
		if cfg.DBName != "portal" {
			t.Errorf("DBName = %v, want portal", cfg.DBName)
		}
		if cfg.Params["charset"] != "utf8mb4" {
			t.Errorf("charset = %v, want utf8mb4", cfg.Params["charset"])
		}
	})

	t.Run("keeps explicit timeout", func(t *testing.T) {
		dsn := NewMySQLDialect().DSN(DialectConfig{URL: "portal:secret@tcp(localhost:3306)/portal?timeout=3s"})
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			t.Fatalf("ParseDSN(%q) failed: %v", dsn, err)
		}
		if cfg.Timeout != 3*time.Second {
			t.Errorf("Timeout = %v, want 3s", cfg.Timeout)
		}
	})

	t.Run("passes through unparseable URL", func(t *testing.T) {
		raw := "not a dsn"
		if got := NewMySQLDialect().DSN(DialectConfig{URL: raw}); got != raw {
			t.Errorf("DSN() = %v, want %v", got, raw)
		}
	})
}
