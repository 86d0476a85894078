package connector

import (
	"fmt"
	"os"
	"sync"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// DescriptorCache 按路径缓存已解析的 FileDescriptorSet
// 文件由 protoc --include_imports --descriptor_set_out 生成
type DescriptorCache struct {
	mu    sync.Mutex
	files map[string]*protoregistry.Files
}

func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{files: make(map[string]*protoregistry.Files)}
}

// Load 读取并解析描述文件，解析失败不缓存
func (d *DescriptorCache) Load(path string) (*protoregistry.Files, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if files, ok := d.files[path]; ok {
		return files, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Wrapf(fmt.Errorf("%w: %w", ErrDescriptor, err), "read %s", path)
	}
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(raw, &set); err != nil {
		return nil, errs.Wrapf(fmt.Errorf("%w: %w", ErrDescriptor, err), "parse %s", path)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, errs.Wrapf(fmt.Errorf("%w: %w", ErrDescriptor, err), "build registry from %s", path)
	}
	d.files[path] = files
	return files, nil
}

// Service 在描述文件中查找全限定名的服务
func (d *DescriptorCache) Service(path, fullName string) (protoreflect.ServiceDescriptor, error) {
	files, err := d.Load(path)
	if err != nil {
		return nil, err
	}
	desc, err := files.FindDescriptorByName(protoreflect.FullName(fullName))
	if err != nil {
		return nil, errs.Wrapf(fmt.Errorf("%w: %w", ErrDescriptor, err), "service %s in %s", fullName, path)
	}
	sd, ok := desc.(protoreflect.ServiceDescriptor)
	if !ok {
		return nil, errs.Wrapf(ErrDescriptor, "%s is not a service", fullName)
	}
	return sd, nil
}
