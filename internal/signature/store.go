package signature

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrExists 目标文件已存在
	ErrExists = errors.New("signature file already exists")
	// ErrNotExist 签名文件不存在
	ErrNotExist = errors.New("signature file does not exist")
	// ErrInvalidName 文件名不合法
	ErrInvalidName = errors.New("invalid signature file name")
)

var namePattern = regexp.MustCompile(`^[a-z]+_[0-9a-f]{32}\.png$`)

// Store 签名文件存储
// Put 不覆盖已存在的文件
type Store interface {
	Put(ctx context.Context, name string, data []byte) error
	Get(ctx context.Context, name string) ([]byte, error)
	Check(ctx context.Context) error
}

// ValidName 校验文件名格式 {slot}_{32 位十六进制}.png
func ValidName(name string) bool {
	return namePattern.MatchString(name)
}

// NewStore 根据根路径创建存储,gs://bucket/prefix 使用 GCS,否则使用本地目录
func NewStore(ctx context.Context, root string) (Store, error) {
	if strings.HasPrefix(root, gcsScheme) {
		bucket, prefix, err := ParseGCSRoot(root)
		if err != nil {
			return nil, err
		}
		return NewGCSStore(ctx, bucket, prefix)
	}
	return NewFileStore(root)
}
