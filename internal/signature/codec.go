// Package signature 负责签名图片的解码、转码与持久化
package signature

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // 注册 GIF 解码器
	_ "image/jpeg" // 注册 JPEG 解码器
	"image/png"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"  // 注册 BMP 解码器
	_ "golang.org/x/image/webp" // 注册 WebP 解码器
)

const (
	// DefaultMaxBytes 解码后图片的最大字节数
	DefaultMaxBytes = 5 * 1024 * 1024
	// MaxDimension 单边最大像素数,避免解压炸弹
	MaxDimension = 8192

	dataURLPrefix = "data:image/png;base64,"
)

var (
	// ErrMissing 未提供签名
	ErrMissing = errors.New("no signature supplied")
	// ErrInvalidImage 签名不是合法的栅格图片
	ErrInvalidImage = errors.New("invalid signature image")
)

// acceptedTypes 可接受的图片 MIME 类型
var acceptedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp"}

// Decode 将传输字符串解码为 PNG 字节
// 接受 data URL 或裸 base64;PNG 原样返回,其它栅格格式转码为 PNG
func Decode(value string, maxBytes int) ([]byte, error) {
	payload := strings.TrimSpace(value)
	if payload == "" {
		return nil, ErrMissing
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	if strings.HasPrefix(payload, "data:") {
		comma := strings.IndexByte(payload, ',')
		if comma < 0 {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidImage)
		}
		if !strings.HasSuffix(payload[:comma], ";base64") {
			return nil, fmt.Errorf("%w: data url is not base64 encoded", ErrInvalidImage)
		}
		payload = payload[comma+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, payload)
	if payload == "" {
		return nil, ErrMissing
	}

	if base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+2 {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidImage, maxBytes)
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: bad base64: %v", ErrInvalidImage, err)
		}
	}
	if len(raw) > maxBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrInvalidImage, maxBytes)
	}

	mtype := mimetype.Detect(raw)
	if !mimetype.EqualsAny(mtype.String(), acceptedTypes...) {
		return nil, fmt.Errorf("%w: unsupported type %s", ErrInvalidImage, mtype.String())
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: bad dimensions %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if format == "png" {
		return raw, nil
	}

	return EncodePNG(img)
}

// EncodePNG 将图片编码为 PNG 字节
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeDataURL 将 PNG 字节包装为传输字符串
func EncodeDataURL(pngBytes []byte) string {
	return dataURLPrefix + base64.StdEncoding.EncodeToString(pngBytes)
}
