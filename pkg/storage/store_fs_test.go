package storage

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"rflinkgateway/pkg/runtime"
	"testing"
	"time"
)

func TestFsClient(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	client, err := NewFsClient(dir)
	require.NoError(t, err)

	var got runtime.ObjectMeta
	assert.True(t, os.IsNotExist(client.Get(Gateway, &got)))

	meta := runtime.ObjectMeta{Name: "attic", ID: "0123", Version: "v1", ModTime: time.Unix(1700000000, 0).UTC()}
	require.NoError(t, client.Create(Gateway, &meta))
	assert.Error(t, client.Create(Gateway, &meta))

	require.NoError(t, client.Get(Gateway, &got))
	assert.Equal(t, meta, got)

	renamed := meta
	renamed.Name = "cellar"
	renamed.Version = "v2"
	assert.ErrorIs(t, client.Update(Gateway, "v0", &renamed), ErrMismatch)
	require.NoError(t, client.Update(Gateway, "v1", &renamed))

	require.NoError(t, client.Get(Gateway, &got))
	assert.Equal(t, "cellar", got.Name)
	assert.Equal(t, "0123", got.ID)

	assert.ErrorIs(t, client.Update("missing.json", "v1", &renamed), os.ErrNotExist)
}
