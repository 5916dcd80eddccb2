// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/memberportal/internal/platform/migration"
)

/*
TestToPgx5DSN verifies the scheme rewrite for golang-migrate.
*/
func TestToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/portal", "pgx5://u:p@db:5432/portal"},
		{"postgresql://u:p@db/portal?sslmode=disable", "pgx5://u:p@db/portal?sslmode=disable"},
		{"pgx5://db/portal", "pgx5://db/portal"},
		{"host=db dbname=portal", "host=db dbname=portal"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, migration.ToPgx5DSN(tt.in))
		})
	}
}
