package prompt

import (
	"context"
	"fmt"
	"os"
)

// Loader 模板源提供者
//
// Loader 是不透明句柄：除 ComposeLoaders 外的所有环节都把它当作
// 原子值。Load 返回模板源码文本；取消通过 ctx 传递。
type Loader interface {
	Load(ctx context.Context) (string, error)
}

// LoaderFunc 函数适配器，把普通函数用作 Loader
type LoaderFunc func(ctx context.Context) (string, error)

// Load 实现 Loader
func (f LoaderFunc) Load(ctx context.Context) (string, error) {
	return f(ctx)
}

// ═══════════════════════════════════════════════════════════════════════════
// 内置 Loader
// ═══════════════════════════════════════════════════════════════════════════

// StringLoader 返回固定内容的 loader，主要用于测试和内联模板
type StringLoader struct {
	Name    string // 来源标识，仅用于日志
	Content string
}

// NewStringLoader 创建固定内容 loader
func NewStringLoader(name, content string) *StringLoader {
	return &StringLoader{Name: name, Content: content}
}

// Load 实现 Loader
func (l *StringLoader) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return l.Content, nil
}

// FileLoader 从本地文件读取模板源
type FileLoader struct {
	Path string
}

// NewFileLoader 创建文件 loader
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// Load 实现 Loader
func (l *FileLoader) Load(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return "", fmt.Errorf("load template file %s: %w", l.Path, err)
	}
	return string(data), nil
}
