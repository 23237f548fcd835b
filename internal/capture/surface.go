// Package capture 实现手写签名画板
//
// 画板记录指针/触摸轨迹并绘制到像素缓冲区,每提交一段笔画就把缓冲区编码为
// PNG data URL 写入宿主表单的隐藏字段。画板实例由 Session 持有,不使用包级状态。
package capture

import (
	"errors"
	"fmt"
	"image"
	"math"

	"git.sr.ht/~sbinet/gg"
	"github.com/neekunjshah/petty-cash/internal/signature"
	xdraw "golang.org/x/image/draw"
)

// StrokeWidth 笔画宽度(缓冲区像素)
const StrokeWidth = 2

// ErrInvalidRect 画板尺寸不合法
var ErrInvalidRect = errors.New("surface must have a positive on-screen size")

// Rect 画板在屏幕上的位置与尺寸
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// Point 坐标点
type Point struct {
	X float64
	Y float64
}

// Surface 单个签名画板
type Surface struct {
	name    string
	form    *Form
	rect    Rect
	dc      *gg.Context
	drawing bool
	last    Point
	empty   bool
}

func newSurface(name string, rect Rect, form *Form) (*Surface, error) {
	s := &Surface{name: name, form: form, empty: true}
	if err := s.Resize(rect); err != nil {
		return nil, err
	}
	return s, nil
}

// Name 画板逻辑名称
func (s *Surface) Name() string { return s.name }

// FieldName 隐藏字段名
func (s *Surface) FieldName() string { return FieldName(s.name) }

// IsEmpty 是否尚未提交任何笔画
func (s *Surface) IsEmpty() bool { return s.empty }

// IsDrawing 是否处于绘制中
func (s *Surface) IsDrawing() bool { return s.drawing }

// Last 最近记录的缓冲区坐标
func (s *Surface) Last() Point { return s.last }

// Rect 当前屏幕位置与尺寸
func (s *Surface) Rect() Rect { return s.rect }

// BufferSize 像素缓冲区尺寸
func (s *Surface) BufferSize() (int, int) {
	return s.dc.Width(), s.dc.Height()
}

// Resize 读取屏幕尺寸并让缓冲区与之一致
// 已有笔画按比例重绘到新缓冲区,隐藏字段与空标记保持不变
func (s *Surface) Resize(rect Rect) error {
	if rect.Width <= 0 || rect.Height <= 0 {
		return ErrInvalidRect
	}
	s.rect = rect
	s.rebuffer(int(math.Round(rect.Width)), int(math.Round(rect.Height)))
	return nil
}

// Move 更新屏幕位置,不影响缓冲区
func (s *Surface) Move(left, top float64) {
	s.rect.Left = left
	s.rect.Top = top
}

// ScaleBuffer 在屏幕尺寸不变的情况下修改缓冲区尺寸(例如设备像素比),已有笔画随之缩放
func (s *Surface) ScaleBuffer(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid buffer size %dx%d", width, height)
	}
	s.rebuffer(width, height)
	return nil
}

// rebuffer 换用指定尺寸的缓冲区,旧内容缩放后绘入
// 只有 Clear 会清空隐藏字段,这里不改动它
func (s *Surface) rebuffer(width, height int) {
	if s.dc == nil || s.empty {
		s.dc = newContext(width, height)
		return
	}
	if s.dc.Width() == width && s.dc.Height() == height {
		return
	}
	old := s.dc.Image()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), old, old.Bounds(), xdraw.Over, nil)
	s.dc = newContextFor(dst)
	s.last = Point{
		X: s.last.X * float64(width) / float64(old.Bounds().Dx()),
		Y: s.last.Y * float64(height) / float64(old.Bounds().Dy()),
	}
}

// Map 将事件的客户端绝对坐标映射为缓冲区坐标
// 缩放比例在调用时按 缓冲区尺寸/屏幕尺寸 计算
func (s *Surface) Map(clientX, clientY float64) Point {
	scaleX := float64(s.dc.Width()) / s.rect.Width
	scaleY := float64(s.dc.Height()) / s.rect.Height
	return Point{
		X: (clientX - s.rect.Left) * scaleX,
		Y: (clientY - s.rect.Top) * scaleY,
	}
}

// PointerDown 开始绘制
func (s *Surface) PointerDown(clientX, clientY float64) {
	s.drawing = true
	s.last = s.Map(clientX, clientY)
	s.empty = false
}

// PointerMove 绘制中时提交一段笔画并写入隐藏字段,未绘制时忽略
func (s *Surface) PointerMove(clientX, clientY float64) error {
	if !s.drawing {
		return nil
	}
	current := s.Map(clientX, clientY)
	if current == s.last {
		return nil
	}

	s.dc.DrawLine(s.last.X, s.last.Y, current.X, current.Y)
	s.dc.Stroke()
	s.last = current

	return s.capture()
}

// PointerUp 结束绘制,保留最后坐标
func (s *Surface) PointerUp() {
	s.drawing = false
}

// PointerLeave 指针离开画板,等同于抬起
func (s *Surface) PointerLeave() {
	s.drawing = false
}

// TouchStart 触摸开始,使用第一个触点
func (s *Surface) TouchStart(ev *TouchEvent) {
	if len(ev.Touches) == 0 {
		return
	}
	ev.PreventDefault()
	t := ev.Touches[0]
	s.PointerDown(t.X, t.Y)
}

// TouchMove 触摸移动,阻止页面滚动
func (s *Surface) TouchMove(ev *TouchEvent) error {
	ev.PreventDefault()
	if len(ev.Touches) == 0 {
		return nil
	}
	t := ev.Touches[0]
	return s.PointerMove(t.X, t.Y)
}

// TouchEnd 触摸结束
func (s *Surface) TouchEnd(ev *TouchEvent) {
	s.drawing = false
}

// Clear 擦除缓冲区、重置空标记并清空隐藏字段
func (s *Surface) Clear() {
	s.dc = newContext(s.dc.Width(), s.dc.Height())
	s.empty = true
	s.drawing = false
	s.form.Clear(s.FieldName())
}

// Image 返回缓冲区图像
func (s *Surface) Image() image.Image {
	return s.dc.Image()
}

// PNG 将缓冲区编码为 PNG
func (s *Surface) PNG() ([]byte, error) {
	data, err := signature.EncodePNG(s.dc.Image())
	if err != nil {
		return nil, fmt.Errorf("failed to encode surface: %w", err)
	}
	return data, nil
}

// capture 画板非空时把完整缓冲区写入隐藏字段
func (s *Surface) capture() error {
	if s.empty {
		return nil
	}
	data, err := s.PNG()
	if err != nil {
		return err
	}
	s.form.Set(s.FieldName(), signature.EncodeDataURL(data))
	return nil
}

// newContext 创建透明缓冲区并设置固定笔画样式
func newContext(width, height int) *gg.Context {
	return newContextFor(image.NewRGBA(image.Rect(0, 0, width, height)))
}

func newContextFor(im *image.RGBA) *gg.Context {
	dc := gg.NewContextForRGBA(im)
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(StrokeWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	return dc
}

// TouchEvent 触摸事件
type TouchEvent struct {
	Touches          []Point // 客户端绝对坐标
	defaultPrevented bool
}

// PreventDefault 阻止平台默认行为(滚动)
func (e *TouchEvent) PreventDefault() {
	e.defaultPrevented = true
}

// DefaultPrevented 是否已阻止默认行为
func (e *TouchEvent) DefaultPrevented() bool {
	return e.defaultPrevented
}
