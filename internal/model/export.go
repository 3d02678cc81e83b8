package model

import "time"

// ExportFormat はエクスポートファイルの形式を表す。
type ExportFormat string

const (
	ExportFormatJSONL ExportFormat = "jsonl"
	ExportFormatCSV   ExportFormat = "csv"
	ExportFormatXLSX  ExportFormat = "xlsx"
)

// ExportFile はアクティブジョブから生成されたダウンロード可能なエクスポートを表す。
// Yearが空の場合は全期間（full）のエクスポート。
type ExportFile struct {
	Name         string
	Format       ExportFormat
	Year         string
	Size         int64
	LastModified time.Time
}
