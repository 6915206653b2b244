package media

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// File 待保存的文档图片
type File struct {
	Owner    string // 技师聊天身份
	MediaID  string
	DocType  string
	MimeType string
	Data     []byte
}

// Store 文档图片存储，目录结构 {root}/{owner}/{mediaID}{ext}
type Store struct {
	fs   afero.Fs
	root string
}

// NewStore 创建存储，fs 通常为 afero.NewOsFs()，测试使用 afero.NewMemMapFs()
func NewStore(fs afero.Fs, root string) *Store {
	if root == "" {
		root = "uploads"
	}
	return &Store{fs: fs, root: root}
}

// Save 写入文件并返回相对路径
func (s *Store) Save(ctx context.Context, f *File) (string, error) {
	if f == nil || f.MediaID == "" {
		return "", errors.New("media: missing media id")
	}
	if len(f.Data) == 0 {
		return "", errors.New("media: empty file")
	}

	dir := path.Join(s.root, safeName(f.Owner))
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("media: mkdir %s: %w", dir, err)
	}

	name := path.Join(dir, safeName(f.MediaID)+extension(f.MimeType))
	if err := afero.WriteFile(s.fs, name, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("media: write %s: %w", name, err)
	}
	return name, nil
}

// List 列出某技师已上传的文件
func (s *Store) List(ctx context.Context, owner string) ([]string, error) {
	dir := path.Join(s.root, safeName(owner))
	exists, err := afero.DirExists(s.fs, dir)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	infos, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("media: read dir %s: %w", dir, err)
	}
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() {
			out = append(out, path.Join(dir, info.Name()))
		}
	}
	return out, nil
}

func extension(mime string) string {
	switch mime {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// safeName 去掉路径分隔符，防止越出根目录
func safeName(s string) string {
	s = strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
	if s == "" {
		return "unknown"
	}
	return s
}
