package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes to the database
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{"members", "idx_members_organization_id", "organization_id"},
		{"members", "idx_members_family_head_id", "family_head_id"},

		{"invoices", "idx_invoices_organization_id", "organization_id"},
		{"invoices", "idx_invoices_member_id", "member_id"},
		{"invoices", "idx_invoices_status", "status"},
		{"invoices", "idx_invoices_due_date", "due_date"},

		{"payments", "idx_payments_invoice_id", "invoice_id"},
		{"payments", "idx_payments_member_id", "member_id"},

		{"subscriptions", "idx_subscriptions_next_billing_date", "next_billing_date"},
		{"subscriptions", "idx_subscriptions_organization_id", "organization_id"},

		{"donations", "idx_donations_campaign_id", "campaign_id"},
		{"campaign_processors", "idx_campaign_processors_campaign_id", "campaign_id"},
	}

	for _, idx := range indexes {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE tablename = ? AND indexname = ?
		`, idx.table, idx.name).Count(&count).Error

		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}

		if count > 0 {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}

		fmt.Printf("Created index %s on %s(%s)\n", idx.name, idx.table, idx.columns)
	}

	// Partial unique indexes backing the at-most-one invariants: one
	// default processor per organization, one primary binding per
	// campaign, one default card per member.
	partials := []struct {
		name string
		sql  string
	}{
		{
			"uniq_payment_processors_org_default",
			`CREATE UNIQUE INDEX uniq_payment_processors_org_default
			 ON payment_processors (organization_id)
			 WHERE is_default AND deleted_at IS NULL`,
		},
		{
			"uniq_campaign_processors_primary",
			`CREATE UNIQUE INDEX uniq_campaign_processors_primary
			 ON campaign_processors (campaign_id)
			 WHERE is_primary`,
		},
		{
			"uniq_payment_methods_member_default",
			`CREATE UNIQUE INDEX uniq_payment_methods_member_default
			 ON payment_methods (member_id)
			 WHERE is_default AND deleted_at IS NULL`,
		},
	}

	for _, idx := range partials {
		var count int64
		err := db.Raw(`
			SELECT COUNT(*)
			FROM pg_indexes
			WHERE indexname = ?
		`, idx.name).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to check index %s: %w", idx.name, err)
		}
		if count > 0 {
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

// MigrateDatabase runs all database migrations
func MigrateDatabase(db *gorm.DB) error {
	if err := AddIndexes(db); err != nil {
		return fmt.Errorf("failed to add indexes: %w", err)
	}

	return nil
}
