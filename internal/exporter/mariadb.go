// Package exporter writes filtered flow records to external sinks.
package exporter

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"flowlog-analyzer/internal/model"
)

const createTableStmt = `CREATE TABLE IF NOT EXISTS flow_records (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	ts DATETIME(6) NOT NULL,
	source_type VARCHAR(8) NOT NULL,
	resource_name VARCHAR(255) NOT NULL,
	rule_name VARCHAR(255),
	acl_id VARCHAR(255),
	src_ip VARCHAR(45),
	dst_ip VARCHAR(45),
	src_port VARCHAR(16),
	dst_port VARCHAR(16),
	protocol VARCHAR(32),
	direction CHAR(1),
	action CHAR(1),
	flow_state CHAR(1),
	packets_src_to_dst BIGINT,
	bytes_src_to_dst BIGINT,
	packets_dst_to_src BIGINT,
	bytes_dst_to_src BIGINT
)`

const insertStmt = `INSERT INTO flow_records (
	ts, source_type, resource_name, rule_name, acl_id,
	src_ip, dst_ip, src_port, dst_port,
	protocol, direction, action, flow_state,
	packets_src_to_dst, bytes_src_to_dst, packets_dst_to_src, bytes_dst_to_src
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// MariaDBExporter inserts records into a flow_records table for retention
// and offline analysis.
type MariaDBExporter struct {
	db *sql.DB
}

// NewMariaDBExporter opens and verifies a connection using a DSN in the
// go-sql-driver format.
func NewMariaDBExporter(dsn string) (*MariaDBExporter, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &MariaDBExporter{db: db}, nil
}

func (e *MariaDBExporter) Close() {
	e.db.Close()
}

// Export creates the target table if needed and inserts every record.
func (e *MariaDBExporter) Export(ctx context.Context, records []model.FlowRecord) error {
	if _, err := e.db.ExecContext(ctx, createTableStmt); err != nil {
		return fmt.Errorf("failed to create flow_records table: %w", err)
	}

	stmt, err := e.db.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			rec.Timestamp, string(rec.Source), rec.Resource,
			nullString(rec.Rule), nullString(rec.ACLID),
			nullString(rec.SrcIP), nullString(rec.DstIP),
			nullString(rec.SrcPort), nullString(rec.DstPort),
			nullString(rec.Protocol), nullString(string(rec.Direction)),
			nullString(string(rec.Action)), nullString(string(rec.State)),
			nullCounter(rec.PacketsSrcToDst), nullCounter(rec.BytesSrcToDst),
			nullCounter(rec.PacketsDstToSrc), nullCounter(rec.BytesDstToSrc),
		)
		if err != nil {
			return fmt.Errorf("failed to insert record for resource %s: %w", rec.Resource, err)
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullCounter maps an absent counter to SQL NULL, keeping the
// absent-vs-zero distinction in the exported table.
func nullCounter(v *uint64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
