package loader

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"seikyu/database"
	"seikyu/parsers"
)

// InitDatabase はデータベーススキーマを適用し、初期データCSVがあればロードします。
func InitDatabase(db *sqlx.DB) error {
	log.Println("Applying database schema...")
	if err := applySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema.sql: %w", err)
	}
	log.Println("Schema applied successfully.")

	// 初期データ (MASTER フォルダはアプリ直下に配置する想定)
	patientPath := "MASTER/PATIENTS.CSV"
	accountPath := "MASTER/ACCOUNTS.CSV"

	if _, err := os.Stat(patientPath); os.IsNotExist(err) {
		log.Printf("WARN: %s not found, skipping.", patientPath)
	} else {
		if err := loadPatientCSV(db, patientPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", patientPath, err)
		}
		log.Printf("Loaded %s successfully.", patientPath)
	}

	if _, err := os.Stat(accountPath); os.IsNotExist(err) {
		log.Printf("WARN: %s not found, skipping.", accountPath)
	} else {
		if err := loadBankAccountCSV(db, accountPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", accountPath, err)
		}
		log.Printf("Loaded %s successfully.", accountPath)
	}

	return nil
}

// applySchema は schema.sql ファイルを読み込んで実行します。
func applySchema(db *sqlx.DB) error {
	schemaBytes, err := os.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("could not read schema.sql: %w", err)
	}
	_, err = db.Exec(string(schemaBytes))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func loadPatientCSV(db *sqlx.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()

	records, err := parsers.ParsePatientCSV(f)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := database.UpsertPatientInTx(tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patient master: %w", err)
	}
	log.Printf("Inserted or replaced %d rows into patient_master", len(records))
	return nil
}

func loadBankAccountCSV(db *sqlx.DB, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()

	records, err := parsers.ParseBankAccountCSV(f)
	if err != nil {
		return err
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range records {
		if err := database.UpsertBankAccountInTx(tx, rec); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bank accounts: %w", err)
	}
	log.Printf("Inserted or replaced %d rows into bank_accounts", len(records))
	return nil
}
