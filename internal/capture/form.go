package capture

import (
	"net/url"
	"sort"
)

// Form 宿主表单中的隐藏字段
type Form struct {
	fields map[string]string
}

// NewForm 创建空表单
func NewForm() *Form {
	return &Form{fields: make(map[string]string)}
}

// FieldName 返回画板对应的隐藏字段名
func FieldName(surface string) string {
	return surface + "_signature"
}

// Set 设置字段值
func (f *Form) Set(field, value string) {
	f.fields[field] = value
}

// Get 读取字段值,字段不存在时 ok 为 false
func (f *Form) Get(field string) (value string, ok bool) {
	value, ok = f.fields[field]
	return value, ok
}

// Clear 将字段置为空
func (f *Form) Clear(field string) {
	f.fields[field] = ""
}

// Fields 按名称排序返回全部字段名
func (f *Form) Fields() []string {
	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Values 以表单提交格式返回全部字段
func (f *Form) Values() url.Values {
	values := make(url.Values, len(f.fields))
	for name, value := range f.fields {
		values.Set(name, value)
	}
	return values
}
