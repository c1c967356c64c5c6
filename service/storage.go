package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"expensetracker/config"

	"github.com/google/uuid"
)

// StoredFile 已保存的附件
type StoredFile struct {
	Name string // 原始文件名
	Path string // 存储位置：本地相对路径或远程 URL
	Size int64
}

// FileStorage 附件存储
type FileStorage interface {
	Save(ctx context.Context, expenseID uint, file *multipart.FileHeader) (*StoredFile, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Delete(ctx context.Context, path string) error
}

// NewFileStorage 按配置创建存储实现
func NewFileStorage(cfg *config.StorageConfig) (FileStorage, error) {
	maxSize := cfg.MaxSizeMB * 1024 * 1024
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.LocalDir, maxSize), nil
	case "cloudinary":
		return NewCloudinaryStorage(cfg.CloudinaryURL, maxSize)
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", cfg.Driver)
	}
}

// LocalStorage 本地磁盘存储，文件位于 dir/<expenseID>/<uuid><ext>
type LocalStorage struct {
	dir     string
	maxSize int64
}

// NewLocalStorage 创建本地存储
func NewLocalStorage(dir string, maxSize int64) *LocalStorage {
	return &LocalStorage{dir: dir, maxSize: maxSize}
}

func (s *LocalStorage) Save(ctx context.Context, expenseID uint, file *multipart.FileHeader) (*StoredFile, error) {
	if s.maxSize > 0 && file.Size > s.maxSize {
		return nil, ErrFileTooLarge
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer src.Close()

	rel := filepath.Join(strconv.FormatUint(uint64(expenseID), 10), uuid.New().String()+strings.ToLower(filepath.Ext(file.Filename)))
	full := filepath.Join(s.dir, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("创建附件目录失败: %w", err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return nil, fmt.Errorf("创建附件文件失败: %w", err)
	}
	defer dst.Close()

	n, err := io.Copy(dst, src)
	if err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("写入附件失败: %w", err)
	}

	return &StoredFile{Name: filepath.Base(file.Filename), Path: filepath.ToSlash(rel), Size: n}, nil
}

func (s *LocalStorage) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Delete 文件已不存在时视为成功
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除附件失败: %w", err)
	}
	return nil
}

// resolve 拒绝跳出存储目录的路径
func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("非法的附件路径: %s", path)
	}
	return filepath.Join(s.dir, clean), nil
}
