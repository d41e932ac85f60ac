package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/internhub/internal/model"
)

// URLPrefix は保存ファイルを静的配信するURLパス。
const URLPrefix = "/uploads/"

var errTooLarge = errors.New("upload exceeds size limit")

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafeNamePattern = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

const maxBaseNameLength = 64

// Stored は保存済みファイルの情報。
type Stored struct {
	Name string // 保存時のファイル名
	Path string // ファイルシステム上のパス
	URL  string // 公開URL
}

// FileStore はアップロードファイルの保存と破棄のインターフェース。
type FileStore interface {
	Save(ctx context.Context, policy Policy, fh *multipart.FileHeader, requestBaseURL string) (*Stored, error)
	Discard(stored *Stored) error
}

// Store はアップロードファイルをローカルディレクトリに書き込む。
// 保存したファイルは上書きせず、更新時は新しいファイルとURLで置き換える。
type Store struct {
	root          string
	publicBaseURL string
	now           func() time.Time
	suffix        func() string
}

// NewStore はStoreを生成する。
// publicBaseURL が空の場合はリクエストのスキーム・ホストからURLを組み立てる。
func NewStore(root, publicBaseURL string) *Store {
	return &Store{
		root:          root,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		now:           time.Now,
		suffix:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] },
	}
}

// Root は保存先のルートディレクトリを返す。
func (s *Store) Root() string {
	return s.root
}

// Save はポリシーに従ってファイルを検証し保存する。
// requestBaseURL は PUBLIC_BASE_URL 未設定時に使用する "scheme://host"。
func (s *Store) Save(ctx context.Context, policy Policy, fh *multipart.FileHeader, requestBaseURL string) (*Stored, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upload cancelled: %w", err)
	}

	unsupported := model.NewUnsupportedFileTypeError(policy.AllowedExtensions())

	if fh.Size > policy.MaxSize {
		return nil, model.NewFileTooLargeError(policy.MaxSize)
	}

	fileType, ext, ok := policy.match(fh.Filename)
	if !ok {
		return nil, unsupported
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := readLimited(f, policy.MaxSize)
	if errors.Is(err, errTooLarge) {
		return nil, model.NewFileTooLargeError(policy.MaxSize)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}

	if err := fileType.check(fh.Header.Get("Content-Type"), data); err != nil {
		return nil, unsupported
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("upload cancelled: %w", err)
	}

	dir := filepath.Join(s.root, policy.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := s.fileName(fh.Filename, ext)
	fullPath := filepath.Join(dir, name)
	if err := writeOnce(fullPath, data); err != nil {
		return nil, err
	}

	base := s.publicBaseURL
	if base == "" {
		base = strings.TrimRight(requestBaseURL, "/")
	}

	return &Stored{
		Name: name,
		Path: fullPath,
		URL:  base + path.Join(URLPrefix, policy.Dir, name),
	}, nil
}

// Discard は保存直後のファイルを削除する。後続の永続化に失敗した場合に使用する。
func (s *Store) Discard(stored *Stored) error {
	if stored == nil {
		return nil
	}
	if err := os.Remove(stored.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to discard upload: %w", err)
	}
	return nil
}

// fileName は "<sanitized>-<unixnano>-<random8><ext>" 形式のファイル名を生成する。
func (s *Store) fileName(original, ext string) string {
	return SanitizeBaseName(original) + "-" + strconv.FormatInt(s.now().UnixNano(), 10) + "-" + s.suffix() + ext
}

// SanitizeBaseName は元のファイル名から拡張子を除いた安全なベース名を返す。
// 空白は "_" に置換し、英数字と ._- 以外の文字も "_" に置換する。
func SanitizeBaseName(original string) string {
	base := filepath.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = whitespacePattern.ReplaceAllString(strings.TrimSpace(base), "_")
	base = unsafeNamePattern.ReplaceAllString(base, "_")
	base = strings.Trim(base, ".")
	if len(base) > maxBaseNameLength {
		base = base[:maxBaseNameLength]
	}
	if base == "" {
		return "file"
	}
	return base
}

// writeOnce は既存ファイルを上書きせずに新規作成して書き込む。
func writeOnce(fullPath string, data []byte) error {
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create upload file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(fullPath)
		return fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to close upload file: %w", err)
	}
	return nil
}

var _ FileStore = (*Store)(nil)
