package signature

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore 本地目录存储
type FileStore struct {
	root string
}

// NewFileStore 创建本地目录存储,目录不存在时创建
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, errors.New("signature root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create signature directory: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root 返回存储目录
func (s *FileStore) Root() string {
	return s.root
}

// Put 写入文件,使用 O_EXCL 保证不覆盖
func (s *FileStore) Put(ctx context.Context, name string, data []byte) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(s.root, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrExists, name)
		}
		return fmt.Errorf("failed to create signature file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write signature file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("failed to close signature file: %w", err)
	}
	return nil
}

// Get 读取文件
func (s *FileStore) Get(ctx context.Context, name string) ([]byte, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, name)
		}
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}
	return data, nil
}

// Check 检查目录可写
func (s *FileStore) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.CreateTemp(s.root, ".health-*")
	if err != nil {
		return fmt.Errorf("signature directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
