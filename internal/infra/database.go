package infra

import (
	"fmt"

	"cajaledger/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, then applies the
// idempotent SQL patches that GORM cannot express — in particular the partial
// unique index that enforces single-open-session-per-caja at the store level.
// TranslateError is on so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	// ventas / venta_pagos belong to the external sales subsystem: migrated
	// here too so a standalone development database is usable, but this
	// engine only ever reads them.
	if err := db.AutoMigrate(
		&model.Caja{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
		&model.Venta{},
		&model.VentaPago{},
		&model.Arqueo{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL the SQL migrations own but that must
// also hold on fresh development databases: the occupancy index and the
// supporting indexes for the sweep and audit queries. Each statement uses
// IF NOT EXISTS semantics so re-running on an already-patched DB is safe.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// One 'abierta' session per caja — the occupancy slot. A second
		// concurrent opener hits a unique violation instead of silently
		// creating a duplicate.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sesiones_caja')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_sesiones_caja_abierta') THEN
		    CREATE UNIQUE INDEX uq_sesiones_caja_abierta
		        ON sesiones_caja (caja_id)
		        WHERE estado = 'abierta';
		  END IF;
		END $$`,
		// Partial index for the auto-close sweep query.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'sesiones_caja')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_sesiones_caja_abiertas') THEN
		    CREATE INDEX idx_sesiones_caja_abiertas
		        ON sesiones_caja (opened_at)
		        WHERE estado = 'abierta';
		  END IF;
		END $$`,
		// Balance computation only ever reads active movements.
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'movimientos_caja')
		    AND NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'idx_movimientos_caja_activos') THEN
		    CREATE INDEX idx_movimientos_caja_activos
		        ON movimientos_caja (sesion_caja_id)
		        WHERE estado = 'activo';
		  END IF;
		END $$`,
		// Movements are append-only: no UPDATE except the void transition,
		// and never DELETE. Enforced by a trigger so the guarantee holds for
		// ad-hoc SQL too, not only this codebase.
		`CREATE OR REPLACE FUNCTION movimientos_caja_solo_anulacion() RETURNS trigger AS $$
		BEGIN
		  IF TG_OP = 'DELETE' THEN
		    RAISE EXCEPTION 'movimientos_caja es append-only';
		  END IF;
		  IF OLD.estado = 'anulado' THEN
		    RAISE EXCEPTION 'movimiento anulado es inmutable';
		  END IF;
		  RETURN NEW;
		END;
		$$ LANGUAGE plpgsql`,
		`DO $$ BEGIN
		  IF EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'movimientos_caja')
		    AND NOT EXISTS (SELECT 1 FROM pg_trigger WHERE tgname = 'trg_movimientos_caja_solo_anulacion') THEN
		    CREATE TRIGGER trg_movimientos_caja_solo_anulacion
		        BEFORE UPDATE OR DELETE ON movimientos_caja
		        FOR EACH ROW EXECUTE FUNCTION movimientos_caja_solo_anulacion();
		  END IF;
		END $$`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
