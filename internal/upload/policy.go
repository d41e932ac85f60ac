// Package upload はユーザーがアップロードしたファイル（プロフィール画像・履歴書）の
// 検証と保存を提供する。
package upload

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

// 保存先ディレクトリ。/uploads/ 配下で静的配信される。
const (
	DirProfile     = "profile"
	DirApplication = "application"
)

// FileType は受け付けるファイル形式の1種類。
// 拡張子・申告MIME・内容から判定したMIMEの3つがすべて一致した場合のみ受け付ける。
type FileType struct {
	Extensions []string
	Declared   []string
	Sniffed    []string
	// Verify は内容の構造検証。nil の場合は行わない。
	Verify func(data []byte) error
}

// Policy は呼び出し箇所ごとの受け付け条件。
type Policy struct {
	Name    string
	Dir     string
	MaxSize int64
	Types   []FileType
}

var imageTypes = []FileType{
	{
		Extensions: []string{".jpg", ".jpeg"},
		Declared:   []string{"image/jpeg", "image/jpg", "image/pjpeg"},
		Sniffed:    []string{"image/jpeg"},
		Verify:     verifyImage,
	},
	{
		Extensions: []string{".png"},
		Declared:   []string{"image/png"},
		Sniffed:    []string{"image/png"},
		Verify:     verifyImage,
	},
	{
		Extensions: []string{".gif"},
		Declared:   []string{"image/gif"},
		Sniffed:    []string{"image/gif"},
		Verify:     verifyImage,
	},
}

var documentTypes = []FileType{
	{
		Extensions: []string{".pdf"},
		Declared:   []string{"application/pdf"},
		Sniffed:    []string{"application/pdf"},
		Verify:     verifyPDF,
	},
	{
		Extensions: []string{".doc"},
		Declared:   []string{"application/msword"},
		Sniffed:    []string{"application/msword", "application/x-ole-storage"},
		Verify:     verifyDOC,
	},
	{
		Extensions: []string{".docx"},
		Declared:   []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		// 先頭数KBで判定できないdocxは汎用のzipとして検出される
		Sniffed: []string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", "application/zip"},
		Verify:  verifyDOCX,
	},
}

// ImagePolicy はプロフィール画像・ロゴ用のポリシーを返す。
func ImagePolicy(maxSize int64) Policy {
	return Policy{Name: "image", Dir: DirProfile, MaxSize: maxSize, Types: imageTypes}
}

// ResumePolicy はインターンプロフィールに添付する履歴書用のポリシーを返す。
func ResumePolicy(maxSize int64) Policy {
	return Policy{Name: "resume", Dir: DirProfile, MaxSize: maxSize, Types: documentTypes}
}

// ApplicationResumePolicy は応募時に添付する履歴書用のポリシーを返す。
func ApplicationResumePolicy(maxSize int64) Policy {
	return Policy{Name: "application_resume", Dir: DirApplication, MaxSize: maxSize, Types: documentTypes}
}

// AllowedExtensions はエラーメッセージ用に受け付ける拡張子を列挙する。
func (p Policy) AllowedExtensions() []string {
	var exts []string
	for _, t := range p.Types {
		exts = append(exts, t.Extensions...)
	}
	return exts
}

// match はファイル名の拡張子に対応する FileType を返す。
func (p Policy) match(filename string) (FileType, string, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, t := range p.Types {
		if slices.Contains(t.Extensions, ext) {
			return t, ext, true
		}
	}
	return FileType{}, "", false
}

// check は申告MIMEと内容の両方が FileType と一致するかを検査する。
func (t FileType) check(declared string, data []byte) error {
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return fmt.Errorf("invalid declared content type %q: %w", declared, err)
	}
	if !slices.Contains(t.Declared, strings.ToLower(mediaType)) {
		return fmt.Errorf("declared content type %q does not match extension", mediaType)
	}

	detected := mimetype.Detect(data)
	if !sniffedMatches(detected, t.Sniffed) {
		return fmt.Errorf("content detected as %q", detected.String())
	}

	if t.Verify != nil {
		if err := t.Verify(data); err != nil {
			return err
		}
	}
	return nil
}

// sniffedMatches は検出結果またはその親の形式が許可リストに含まれるかを返す。
func sniffedMatches(detected *mimetype.MIME, allowed []string) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return true
			}
		}
	}
	return false
}

func verifyImage(data []byte) error {
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("image header is not decodable: %w", err)
	}
	return nil
}

// verifyPDF はPDFのxrefとページツリーが読めることを確認する。
// 壊れた入力でパーサがpanicする場合があるため recover する。
func verifyPDF(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser panicked: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("pdf is not readable: %w", err)
	}
	if r.NumPage() < 1 {
		return fmt.Errorf("pdf has no pages")
	}
	return nil
}

// wordDocumentStream はWord文書のOLEコンテナに必ず含まれるストリーム名（UTF-16LE）。
var wordDocumentStream = utf16LE("WordDocument")

func utf16LE(s string) []byte {
	b := make([]byte, 0, len(s)*2)
	for _, c := range []byte(s) {
		b = append(b, c, 0)
	}
	return b
}

// verifyDOC はOLEコンテナが WordDocument ストリームを持つことを確認する。
// 同じコンテナ形式の .xls や .msi を拒否する。
func verifyDOC(data []byte) error {
	if !bytes.Contains(data, wordDocumentStream) {
		return fmt.Errorf("ole container has no WordDocument stream")
	}
	return nil
}

// verifyDOCX はzipが word/document.xml と [Content_Types].xml を含むことを確認する。
func verifyDOCX(data []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("docx is not a readable zip: %w", err)
	}
	var hasDocument, hasContentTypes bool
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			hasDocument = true
		case "[Content_Types].xml":
			hasContentTypes = true
		}
	}
	if !hasDocument || !hasContentTypes {
		return fmt.Errorf("zip is not a word document")
	}
	return nil
}

// readLimited は最大 limit バイトまで読み込み、超過した場合は errTooLarge を返す。
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, errTooLarge
	}
	return data, nil
}
