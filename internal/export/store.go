package export

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strconv"
	"time"

	"github.com/hitoshi/dataregistry/internal/model"
)

// Store はジョブ単位のエクスポートファイルを扱う。
// オブジェクトは "<ジョブID>/<ファイル名>" のキーで保存されている。
type Store struct {
	backend Backend
	ttl     time.Duration
}

// NewStore はStoreを生成する。ttlはダウンロードURLの有効期間。
func NewStore(backend Backend, ttl time.Duration) *Store {
	return &Store{backend: backend, ttl: ttl}
}

// List はジョブのエクスポートファイルを、全期間を先頭に年の降順で返す。
// ファイル名の形式に合わないオブジェクトは無視する。
func (s *Store) List(ctx context.Context, jobID int64) ([]model.ExportFile, error) {
	objects, err := s.backend.List(ctx, jobPrefix(jobID))
	if err != nil {
		return nil, err
	}

	files := make([]model.ExportFile, 0, len(objects))
	for _, obj := range objects {
		name := path.Base(obj.Key)
		format, year, ok := ParseName(name)
		if !ok {
			continue
		}
		files = append(files, model.ExportFile{
			Name:         name,
			Format:       format,
			Year:         year,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if a.Year != b.Year {
			// 全期間（空文字列）を先頭に、その後は新しい年から
			if a.Year == "" || b.Year == "" {
				return a.Year == ""
			}
			return a.Year > b.Year
		}
		return formatOrder[a.Format] < formatOrder[b.Format]
	})
	return files, nil
}

// PresignedURL はエクスポートファイルの期限付きダウンロードURLを返す。
// filenameはダウンロード時の保存ファイル名として使われる。
// ファイル名が不正な場合、またはファイルが存在しない場合はEXPORT_NOT_FOUNDを返す。
func (s *Store) PresignedURL(ctx context.Context, jobID int64, name, filename string) (string, model.ExportFormat, error) {
	format, _, ok := ParseName(name)
	if !ok {
		return "", "", model.NewExportNotFoundError(name)
	}

	key := jobPrefix(jobID) + name
	obj, err := s.backend.Stat(ctx, key)
	if err != nil {
		return "", "", err
	}
	if obj == nil {
		return "", "", model.NewExportNotFoundError(name)
	}

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	params.Set("response-content-type", ContentType(format))

	u, err := s.backend.PresignGet(ctx, key, s.ttl, params)
	if err != nil {
		return "", "", err
	}
	return u.String(), format, nil
}

func jobPrefix(jobID int64) string {
	return strconv.FormatInt(jobID, 10) + "/"
}
