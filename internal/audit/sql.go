package audit

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Lllllllleong/pagetransfer/internal/models"
)

// SQLInserter appends rows to a relational table through gorm.
type SQLInserter struct {
	db *gorm.DB
}

// NewMySQLInserter opens a MySQL connection pool for dsn.
func NewMySQLInserter(dsn string) (*SQLInserter, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &SQLInserter{db: db}, nil
}

func (s *SQLInserter) Insert(ctx context.Context, table string, entry *models.AuditLogEntry) error {
	if result := s.db.WithContext(ctx).Table(table).Create(entry); result.Error != nil {
		return fmt.Errorf("failed to insert audit row: %w", result.Error)
	}
	return nil
}

func (s *SQLInserter) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
