package identity

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_StableAcrossProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "device_id")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	p1 := NewProvider(store)
	id1 := p1.GetOrCreate()
	require.NotEmpty(t, id1)

	_, err = uuid.Parse(id1)
	require.NoError(t, err)

	// 同一个 provider 内稳定
	assert.Equal(t, id1, p1.GetOrCreate())

	// 新 provider（模拟重启）读到同一个持久化标识
	p2 := NewProvider(store)
	assert.Equal(t, id1, p2.GetOrCreate())
}

type brokenStore struct{}

func (brokenStore) Load() (string, error) { return "", errors.New("storage unavailable") }
func (brokenStore) Save(string) error     { return errors.New("storage unavailable") }

func TestProvider_DegradedMode(t *testing.T) {
	// 存储不可用：返回会话级临时标识，不报错
	p := NewProvider(brokenStore{})

	id := p.GetOrCreate()
	require.NotEmpty(t, id)
	assert.Equal(t, id, p.GetOrCreate())

	// 新会话拿到的是另一个标识（未能持久化）
	p2 := NewProvider(brokenStore{})
	assert.NotEqual(t, id, p2.GetOrCreate())
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrMiss)
}
