package signature

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// maxNameAttempts 文件名冲突时的最大重试次数
const maxNameAttempts = 3

// Persister 将传输字符串解码并写入存储
type Persister struct {
	store    Store
	maxBytes int
	newID    func() string
}

// NewPersister 创建签名持久化器
func NewPersister(store Store, maxBytes int) *Persister {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Persister{
		store:    store,
		maxBytes: maxBytes,
		newID: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
	}
}

// Store 返回底层存储
func (p *Persister) Store() Store {
	return p.store
}

// Decode 只解码不写入,用于在写入任何文件前校验全部签名
func (p *Persister) Decode(value string) ([]byte, error) {
	return Decode(value, p.maxBytes)
}

// Save 解码并写入签名,返回文件名 {slot}_{uuid}.png
func (p *Persister) Save(ctx context.Context, slot string, value string) (string, error) {
	data, err := p.Decode(value)
	if err != nil {
		return "", err
	}
	return p.Write(ctx, slot, data)
}

// Write 写入已解码的 PNG 字节,返回新文件名
func (p *Persister) Write(ctx context.Context, slot string, data []byte) (string, error) {
	var lastErr error
	for i := 0; i < maxNameAttempts; i++ {
		name := fmt.Sprintf("%s_%s.png", slot, p.newID())
		err := p.store.Put(ctx, name, data)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, ErrExists) {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// Load 读取签名文件
func (p *Persister) Load(ctx context.Context, name string) ([]byte, error) {
	return p.store.Get(ctx, name)
}
