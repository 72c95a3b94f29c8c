package storage

import (
	"encoding/json"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
	"os"
	"path/filepath"
	"rflinkgateway/pkg/runtime"
	"rflinkgateway/pkg/utils/fileutil"
)

type FsClient struct {
	storePath string
}

var _ Storage = (*FsClient)(nil)

// NewFsClient keeps every key as a json file below dir, which is created when missing.
func NewFsClient(dir string) (*FsClient, error) {
	_, err := os.Stat(dir)
	if os.IsNotExist(err) {
		absPath, _ := filepath.Abs(dir)
		klog.V(2).InfoS("Created", "path", absPath)
		if err = os.MkdirAll(dir, 0711); err != nil {
			return nil, errors.Wrapf(err, "create store %s", dir)
		}
	} else if err != nil {
		return nil, errors.Wrapf(err, "stat store %s", dir)
	}
	return &FsClient{storePath: dir}, nil
}

func (fc *FsClient) Create(key string, obj interface{}) error {
	f, err := os.OpenFile(filepath.Join(fc.storePath, key), os.O_CREATE|os.O_RDWR|os.O_EXCL, 0640)
	if err != nil {
		klog.V(2).InfoS("Failed to create file", "err", err)
		return err
	}
	defer f.Close()
	if err = json.NewEncoder(f).Encode(obj); err != nil {
		klog.V(2).InfoS("Failed to encode", "err", err)
		return err
	}
	return nil
}

// Get decodes the file of key into obj. A missing key reports os.ErrNotExist.
func (fc *FsClient) Get(key string, obj interface{}) error {
	data, err := os.ReadFile(filepath.Join(fc.storePath, key))
	if err != nil {
		klog.V(2).InfoS("Failed to read", "err", err)
		return err
	}
	return json.Unmarshal(data, obj)
}

// Update replaces the content of key with obj when the stored version equals version.
func (fc *FsClient) Update(key, version string, obj interface{}) error {
	f, err := os.OpenFile(filepath.Join(fc.storePath, key), os.O_RDWR, 0640)
	if err != nil {
		if os.IsNotExist(err) {
			klog.V(2).InfoS("Failed to open file", "err", err)
			return os.ErrNotExist
		} else if isEphemeralError(err) {
			klog.V(2).InfoS("Failed to open file", "err", err)
			return ErrWriteConflict
		}
		return err
	}
	defer f.Close()

	lock, err := fileutil.NewLock(f)
	if err != nil {
		klog.V(2).InfoS("Failed to lock", "err", err)
		return ErrWriteConflict
	}
	defer lock.Release()

	var old struct {
		runtime.ObjectMeta
	}
	if err = json.NewDecoder(f).Decode(&old); err != nil {
		klog.V(2).InfoS("Failed to unmarshal", "err", err)
		return errors.Wrap(err, "decode stored object")
	}
	if version != old.Version {
		return ErrMismatch
	}

	if err = f.Truncate(0); err != nil {
		klog.V(2).InfoS("Failed to truncate", "err", err)
		return err
	}
	if _, err = f.Seek(0, 0); err != nil {
		klog.V(2).InfoS("Failed to seek", "err", err)
		return err
	}
	if err = json.NewEncoder(f).Encode(obj); err != nil {
		klog.V(2).InfoS("Failed to marshal", "err", err)
		return err
	}
	return nil
}
