package rdb

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestConstraintErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		unique     bool
		foreignKey bool
		notNull    bool
		check      bool
	}{
		{name: "gorm duplicated key", err: gorm.ErrDuplicatedKey, unique: true},
		{name: "wrapped duplicated key", err: errors.Wrap(gorm.ErrDuplicatedKey, "insert"), unique: true},
		{name: "sqlite unique message", err: errors.New("constraint failed: UNIQUE constraint failed: users.username (2067)"), unique: true},
		{name: "postgres duplicate message", err: errors.New(`ERROR: duplicate key value violates unique constraint "idx_users_username"`), unique: true},
		{name: "gorm foreign key", err: gorm.ErrForeignKeyViolated, foreignKey: true},
		{name: "sqlite foreign key message", err: errors.New("FOREIGN KEY constraint failed (787)"), foreignKey: true},
		{name: "not null", err: errors.New(`null value in column "title" violates not-null constraint`), notNull: true},
		{name: "gorm check", err: gorm.ErrCheckConstraintViolated, check: true},
		{name: "value too long", err: errors.New("ERROR: value too long for type character varying(100)"), check: true},
		{name: "unrelated", err: errors.New("connection refused")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, isUniqueConstraintViolation(tt.err))
			assert.Equal(t, tt.foreignKey, isForeignKeyConstraintViolation(tt.err))
			assert.Equal(t, tt.notNull, isNotNullConstraintViolation(tt.err))
			assert.Equal(t, tt.check, isCheckConstraintViolation(tt.err))
			assert.Equal(t, tt.unique || tt.foreignKey || tt.notNull || tt.check, isIntegrityViolation(tt.err))
		})
	}
}
