package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AuditContext carries the actor identity and origin address made available
// to database audit triggers for the duration of one transaction.
type AuditContext struct {
	UserID   string
	ClientIP string
}

// SetAuditContext publishes the audit context as session-scoped settings on
// the transaction's connection. On PostgreSQL the values land in
// app.current_user_id and app.client_ip where audit triggers read them.
// SQLite has no session settings and no audit triggers, so this is a no-op
// there.
func (db *DB) SetAuditContext(tx *gorm.DB, audit AuditContext) error {
	if db.cfg.Driver != "postgres" {
		return nil
	}

	if err := tx.Exec("SELECT set_config('app.current_user_id', ?, true)", audit.UserID).Error; err != nil {
		return fmt.Errorf("setting audit user context: %w", err)
	}
	if err := tx.Exec("SELECT set_config('app.client_ip', ?, true)", audit.ClientIP).Error; err != nil {
		return fmt.Errorf("setting audit client context: %w", err)
	}
	return nil
}
