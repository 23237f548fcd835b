package capture

import (
	"encoding/json"
	"fmt"
	"io"
)

// Stroke 一笔的客户端坐标序列
type Stroke []Point

// Replay 依次回放笔画:按下第一个点,移动经过其余点,然后抬起
func (s *Surface) Replay(strokes []Stroke) error {
	for i, stroke := range strokes {
		if len(stroke) == 0 {
			continue
		}
		s.PointerDown(stroke[0].X, stroke[0].Y)
		for _, p := range stroke[1:] {
			if err := s.PointerMove(p.X, p.Y); err != nil {
				return fmt.Errorf("stroke %d: %w", i, err)
			}
		}
		s.PointerUp()
	}
	return nil
}

// strokeFile 笔画文件格式
type strokeFile struct {
	Width   float64     `json:"width"`
	Height  float64     `json:"height"`
	Strokes [][]float64 `json:"strokes"` // 每一笔为 [x0, y0, x1, y1, ...]
}

// StrokeFile 解析后的笔画文件
type StrokeFile struct {
	Rect    Rect
	Strokes []Stroke
}

// ReadStrokes 读取 JSON 笔画文件
func ReadStrokes(r io.Reader) (*StrokeFile, error) {
	var raw strokeFile
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode stroke file: %w", err)
	}
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, ErrInvalidRect
	}

	out := &StrokeFile{Rect: Rect{Width: raw.Width, Height: raw.Height}}
	for i, coords := range raw.Strokes {
		if len(coords)%2 != 0 {
			return nil, fmt.Errorf("stroke %d has an odd number of coordinates", i)
		}
		stroke := make(Stroke, 0, len(coords)/2)
		for j := 0; j < len(coords); j += 2 {
			stroke = append(stroke, Point{X: coords[j], Y: coords[j+1]})
		}
		out.Strokes = append(out.Strokes, stroke)
	}
	return out, nil
}
