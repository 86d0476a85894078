package eureka

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func TestDecodeJSON(t *testing.T) {
	apps, err := Decode("application/json; charset=utf-8", readFixture(t, "apps.json"))
	require.NoError(t, err)
	require.Len(t, apps.Applications, 2)
	assert.Equal(t, "1", apps.VersionDelta)

	users := apps.Applications[0]
	assert.Equal(t, "USER-SERVICE", users.Name)
	require.Len(t, users.Instances, 3)

	first := users.Instances[0]
	assert.Equal(t, "user-1", first.InstanceID)
	assert.Equal(t, "10.0.0.1", first.IPAddr)
	assert.Equal(t, StatusUp, first.Status)
	assert.Equal(t, "9090", first.Metadata["gRPC_port"])
	require.NotNil(t, first.Port)
	assert.Equal(t, 8080, first.Port.Port)
	assert.True(t, first.Port.Enabled)
	assert.False(t, first.SecurePort.Enabled)
	assert.Equal(t, Int64(1700000000000), first.LastDirtyTimestamp)
	assert.Equal(t, int64(90), first.LeaseInfo.DurationInSecs)
	assert.Equal(t, "MyOwn", first.DataCenterInfo.Name)

	// "$" 为字符串、@enabled 为 bool
	assert.Equal(t, 8080, users.Instances[1].Port.Port)
	assert.True(t, users.Instances[1].Port.Enabled)
	assert.Nil(t, users.Instances[2].Port)

	// 单实例以对象形式出现
	config := apps.Applications[1]
	require.Len(t, config.Instances, 1)
	assert.Equal(t, "config-1", config.Instances[0].InstanceID)
	assert.Empty(t, config.Instances[0].Metadata["gRPC_port"])
}

func TestDecodeXML(t *testing.T) {
	apps, err := Decode("application/xml", readFixture(t, "apps.xml"))
	require.NoError(t, err)
	require.Len(t, apps.Applications, 1)

	order := apps.Applications[0]
	assert.Equal(t, "ORDER-SERVICE", order.Name)
	require.Len(t, order.Instances, 2)

	inst := order.Instances[0]
	assert.Equal(t, "order-1", inst.InstanceID)
	assert.Equal(t, "9095", inst.Metadata["gRPC_port"])
	assert.Equal(t, "a", inst.Metadata["zone"])
	assert.Equal(t, 8080, inst.Port.Port)
	assert.True(t, inst.Port.Enabled)
	assert.Equal(t, "MyOwn", inst.DataCenterInfo.Name)
	assert.Equal(t, StatusStarting, order.Instances[1].Status)
	assert.Empty(t, order.Instances[1].Metadata)
}

func TestDecodeSniffsFormat(t *testing.T) {
	apps, err := Decode("", readFixture(t, "apps.xml"))
	require.NoError(t, err)
	assert.Equal(t, "ORDER-SERVICE", apps.Applications[0].Name)

	bom := append([]byte("\xef\xbb\xbf"), readFixture(t, "apps.json")...)
	apps, err = Decode("text/plain", bom)
	require.NoError(t, err)
	assert.Len(t, apps.Applications, 2)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("application/json", nil)
	assert.ErrorIs(t, err, ErrEmptyDocument)

	_, err = Decode("application/json", []byte(`{"applications":`))
	assert.Error(t, err)

	_, err = DecodeJSON([]byte(`{"other":{}}`))
	assert.Error(t, err)

	_, err = Decode("application/xml", []byte(`<applications><application>`))
	assert.Error(t, err)
}

func TestDecodeEmptyApplication(t *testing.T) {
	apps, err := DecodeJSON([]byte(`{"applications":{"application":[{"name":"EMPTY","instance":null}]}}`))
	require.NoError(t, err)
	require.Len(t, apps.Applications, 1)
	assert.Empty(t, apps.Applications[0].Instances)
}

func TestEncodeJSONRoundTrip(t *testing.T) {
	apps := &Applications{Applications: []*Application{{
		Name: "USER-SERVICE",
		Instances: []*Instance{{
			InstanceID: "u1",
			IPAddr:     "10.0.0.9",
			Status:     StatusUp,
			Port:       &Port{Port: 8080, Enabled: true},
			Metadata:   Metadata{"gRPC_port": "9000"},
		}},
	}}}
	b, err := EncodeJSON(apps)
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(b, &generic))
	assert.Contains(t, generic, "applications")

	back, err := DecodeJSON(b)
	require.NoError(t, err)
	assert.Equal(t, "9000", back.Applications[0].Instances[0].Metadata["gRPC_port"])
	assert.Equal(t, 8080, back.Applications[0].Instances[0].Port.Port)
}
