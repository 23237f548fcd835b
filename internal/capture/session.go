package capture

import (
	"fmt"
	"sort"
)

// Session 一次交互会话,持有 名称 → 画板 的注册表与宿主表单
type Session struct {
	surfaces map[string]*Surface
	form     *Form
}

// NewSession 创建会话
func NewSession() *Session {
	return &Session{
		surfaces: make(map[string]*Surface),
		form:     NewForm(),
	}
}

// Attach 注册画板,缓冲区尺寸与屏幕尺寸一致
func (s *Session) Attach(name string, rect Rect) (*Surface, error) {
	if name == "" {
		return nil, fmt.Errorf("surface name is required")
	}
	if _, exists := s.surfaces[name]; exists {
		return nil, fmt.Errorf("surface %q already attached", name)
	}
	surface, err := newSurface(name, rect, s.form)
	if err != nil {
		return nil, err
	}
	s.surfaces[name] = surface
	return surface, nil
}

// Surface 按名称查找画板
func (s *Session) Surface(name string) (*Surface, bool) {
	surface, ok := s.surfaces[name]
	return surface, ok
}

// Clear 按名称清空画板
func (s *Session) Clear(name string) error {
	surface, ok := s.surfaces[name]
	if !ok {
		return fmt.Errorf("surface %q not attached", name)
	}
	surface.Clear()
	return nil
}

// Names 按名称排序返回全部画板
func (s *Session) Names() []string {
	names := make([]string, 0, len(s.surfaces))
	for name := range s.surfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Form 宿主表单
func (s *Session) Form() *Form {
	return s.form
}
