// Package export はアクティブジョブのエクスポートファイルの一覧とダウンロードURLを提供する。
package export

import (
	"regexp"

	"github.com/hitoshi/dataregistry/internal/model"
)

// namePattern はエクスポートファイル名の形式。パストラバーサル対策としてこれ以外は受け付けない。
var namePattern = regexp.MustCompile(`^(full|\d{4})\.(jsonl\.gz|csv\.tar\.gz|xlsx)$`)

// suffixFormats はファイル拡張子とエクスポート形式の対応。
var suffixFormats = map[string]model.ExportFormat{
	"jsonl.gz":   model.ExportFormatJSONL,
	"csv.tar.gz": model.ExportFormatCSV,
	"xlsx":       model.ExportFormatXLSX,
}

// formatOrder は一覧表示での形式の並び順。
var formatOrder = map[model.ExportFormat]int{
	model.ExportFormatJSONL: 0,
	model.ExportFormatCSV:   1,
	model.ExportFormatXLSX:  2,
}

// contentTypes はエクスポート形式ごとのContent-Type。
var contentTypes = map[model.ExportFormat]string{
	model.ExportFormatJSONL: "application/jsonlines",
	model.ExportFormatCSV:   "text/csv",
	model.ExportFormatXLSX:  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseName はエクスポートファイル名を形式と年に分解する。
// 全期間のファイル（full）の場合、yearは空文字列。
func ParseName(name string) (format model.ExportFormat, year string, ok bool) {
	m := namePattern.FindStringSubmatch(name)
	if m == nil {
		return "", "", false
	}
	if m[1] != "full" {
		year = m[1]
	}
	return suffixFormats[m[2]], year, true
}

// ContentType はエクスポート形式のContent-Typeを返す。
func ContentType(format model.ExportFormat) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
