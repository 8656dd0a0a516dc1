package identity

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrMiss 存储中不存在设备标识
var ErrMiss = errors.New("device identity not found")

// Store 设备标识的本地存储接口
type Store interface {
	Load() (string, error)
	Save(id string) error
}

// Provider 设备标识提供者
// 首次调用生成 UUID 并持久化，之后原样返回；
// 存储不可用时退化为会话级临时标识（不持久化，刷新后报警不保留）
type Provider struct {
	store  Store
	mu     sync.Mutex
	cached string
}

// NewProvider 创建设备标识提供者
func NewProvider(store Store) *Provider {
	return &Provider{store: store}
}

// GetOrCreate 获取或创建设备标识
func (p *Provider) GetOrCreate() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cached != "" {
		return p.cached
	}

	if p.store != nil {
		if id, err := p.store.Load(); err == nil && id != "" {
			p.cached = id
			return id
		}
	}

	id := uuid.New().String()
	if p.store != nil {
		// 持久化失败时静默降级：标识仅在本次会话内有效
		_ = p.store.Save(id)
	}

	p.cached = id
	return id
}

// FileStore 基于文件的设备标识存储
type FileStore struct {
	path string
}

// NewFileStore 创建文件存储（path 为空时使用默认路径 ~/.goldwatch/device_id）
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, ".goldwatch", "device_id")
	}
	return &FileStore{path: path}, nil
}

// Load 读取已保存的设备标识
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrMiss
		}
		return "", err
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", ErrMiss
	}
	return id, nil
}

// Save 保存设备标识
func (s *FileStore) Save(id string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(id+"\n"), 0o600)
}
