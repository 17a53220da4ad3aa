package database

import (
	"database/sql"
)

type PgStoreRepository struct {
	conn *sql.DB
}

func NewPgStoreRepository(dsn string) (*PgStoreRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgStoreRepository{conn: db}, nil
}

func (db *PgStoreRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgStoreRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
