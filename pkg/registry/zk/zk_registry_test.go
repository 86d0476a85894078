package zk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaths(t *testing.T) {
	z := &ZkRegistry{rootPath: normalizeRoot("services/")}
	assert.Equal(t, "/services", z.rootPath)
	assert.Equal(t, "/services/USER-SERVICE", z.servicePath("/USER-SERVICE/"))
	assert.Equal(t, "/services/USER-SERVICE/user-1", z.instancePath("USER-SERVICE", "user-1"))
	assert.Equal(t, defaultRootPath, normalizeRoot(""))
}

func TestNewZkRegistryRequiresServers(t *testing.T) {
	_, err := NewZkRegistry(nil, "", 0)
	assert.Error(t, err)
}
