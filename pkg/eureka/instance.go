// Package eureka 定义 Eureka 注册中心 /eureka/apps 目录文档的原始数据结构，
// 同时兼容 JSON 与 XML 两种格式。
package eureka

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// 实例状态
const (
	StatusUp           = "UP"
	StatusDown         = "DOWN"
	StatusStarting     = "STARTING"
	StatusOutOfService = "OUT_OF_SERVICE"
	StatusUnknown      = "UNKNOWN"
)

// Applications 目录文档根节点
type Applications struct {
	XMLName      xml.Name       `json:"-" xml:"applications"`
	VersionDelta string         `json:"versions__delta,omitempty" xml:"versions__delta,omitempty"`
	AppsHashcode string         `json:"apps__hashcode,omitempty" xml:"apps__hashcode,omitempty"`
	Applications []*Application `json:"application" xml:"application"`
}

// Application 一个逻辑应用及其实例
type Application struct {
	Name      string      `json:"name" xml:"name"`
	Instances []*Instance `json:"instance" xml:"instance"`
}

// Instance 注册中心上报的单个进程实例
type Instance struct {
	InstanceID                    string          `json:"instanceId" xml:"instanceId"`
	HostName                      string          `json:"hostName" xml:"hostName"`
	App                           string          `json:"app" xml:"app"`
	IPAddr                        string          `json:"ipAddr" xml:"ipAddr"`
	Status                        string          `json:"status" xml:"status"`
	OverriddenStatus              string          `json:"overriddenStatus,omitempty" xml:"overriddenstatus,omitempty"`
	Port                          *Port           `json:"port,omitempty" xml:"port,omitempty"`
	SecurePort                    *Port           `json:"securePort,omitempty" xml:"securePort,omitempty"`
	CountryID                     Int64           `json:"countryId,omitempty" xml:"countryId,omitempty"`
	DataCenterInfo                *DataCenterInfo `json:"dataCenterInfo,omitempty" xml:"dataCenterInfo,omitempty"`
	LeaseInfo                     *LeaseInfo      `json:"leaseInfo,omitempty" xml:"leaseInfo,omitempty"`
	Metadata                      Metadata        `json:"metadata,omitempty" xml:"metadata,omitempty"`
	HomePageURL                   string          `json:"homePageUrl,omitempty" xml:"homePageUrl,omitempty"`
	StatusPageURL                 string          `json:"statusPageUrl,omitempty" xml:"statusPageUrl,omitempty"`
	HealthCheckURL                string          `json:"healthCheckUrl,omitempty" xml:"healthCheckUrl,omitempty"`
	VipAddress                    string          `json:"vipAddress,omitempty" xml:"vipAddress,omitempty"`
	SecureVipAddress              string          `json:"secureVipAddress,omitempty" xml:"secureVipAddress,omitempty"`
	IsCoordinatingDiscoveryServer Bool            `json:"isCoordinatingDiscoveryServer,omitempty" xml:"isCoordinatingDiscoveryServer,omitempty"`
	LastUpdatedTimestamp          Int64           `json:"lastUpdatedTimestamp,omitempty" xml:"lastUpdatedTimestamp,omitempty"`
	LastDirtyTimestamp            Int64           `json:"lastDirtyTimestamp,omitempty" xml:"lastDirtyTimestamp,omitempty"`
	ActionType                    string          `json:"actionType,omitempty" xml:"actionType,omitempty"`
}

type DataCenterInfo struct {
	Class string `json:"@class,omitempty" xml:"class,attr,omitempty"`
	Name  string `json:"name" xml:"name"`
}

type LeaseInfo struct {
	RenewalIntervalInSecs int64 `json:"renewalIntervalInSecs,omitempty" xml:"renewalIntervalInSecs,omitempty"`
	DurationInSecs        int64 `json:"durationInSecs,omitempty" xml:"durationInSecs,omitempty"`
	RegistrationTimestamp int64 `json:"registrationTimestamp,omitempty" xml:"registrationTimestamp,omitempty"`
	LastRenewalTimestamp  int64 `json:"lastRenewalTimestamp,omitempty" xml:"lastRenewalTimestamp,omitempty"`
	EvictionTimestamp     int64 `json:"evictionTimestamp,omitempty" xml:"evictionTimestamp,omitempty"`
	ServiceUpTimestamp    int64 `json:"serviceUpTimestamp,omitempty" xml:"serviceUpTimestamp,omitempty"`
}

// Port JSON 形如 {"$": 8080, "@enabled": "true"}，XML 形如 <port enabled="true">8080</port>
type Port struct {
	Port    int
	Enabled bool
}

func (p Port) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Port    int    `json:"$"`
		Enabled string `json:"@enabled"`
	}{p.Port, strconv.FormatBool(p.Enabled)})
}

func (p *Port) UnmarshalJSON(b []byte) error {
	var raw struct {
		Port    Int64 `json:"$"`
		Enabled Bool  `json:"@enabled"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.Port = int(raw.Port)
	p.Enabled = bool(raw.Enabled)
	return nil
}

func (p Port) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: "enabled"}, Value: strconv.FormatBool(p.Enabled)})
	return e.EncodeElement(strconv.Itoa(p.Port), start)
}

func (p *Port) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		Value   string `xml:",chardata"`
		Enabled string `xml:"enabled,attr"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw.Value))
	if err != nil {
		return fmt.Errorf("invalid port %q: %w", raw.Value, err)
	}
	p.Port = port
	p.Enabled, _ = strconv.ParseBool(raw.Enabled)
	return nil
}

// Metadata 实例自定义元数据，非字符串的 JSON 值按字面量保存
type Metadata map[string]string

func (m *Metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Metadata, len(raw))
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			out[k] = s
			continue
		}
		out[k] = string(bytes.TrimSpace(v))
	}
	*m = out
	return nil
}

func (m Metadata) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	for k, v := range m {
		if err := e.EncodeElement(v, xml.StartElement{Name: xml.Name{Local: k}}); err != nil {
			return err
		}
	}
	return e.EncodeToken(start.End())
}

// UnmarshalXML 元数据的每个子元素都是一个 key
func (m *Metadata) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	out := Metadata{}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			out[t.Name.Local] = strings.TrimSpace(v)
		case xml.EndElement:
			*m = out
			return nil
		}
	}
}

// Int64 兼容数字与字符串两种编码
type Int64 int64

func (i *Int64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*i = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", b, err)
	}
	*i = Int64(v)
	return nil
}

// Bool 兼容 true / "true"
type Bool bool

func (v *Bool) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*v = false
		return nil
	}
	parsed, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid bool %s: %w", b, err)
	}
	*v = Bool(parsed)
	return nil
}

// UnmarshalJSON 兼容 instance 为单个对象或数组
func (a *Application) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Instance json.RawMessage `json:"instance"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	instances, err := oneOrMany[*Instance](raw.Instance)
	if err != nil {
		return fmt.Errorf("application %s: %w", raw.Name, err)
	}
	a.Name = raw.Name
	a.Instances = instances
	return nil
}

// UnmarshalJSON 兼容 application 为单个对象或数组
func (a *Applications) UnmarshalJSON(b []byte) error {
	var raw struct {
		VersionDelta Int64           `json:"versions__delta"`
		AppsHashcode string          `json:"apps__hashcode"`
		Application  json.RawMessage `json:"application"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	apps, err := oneOrMany[*Application](raw.Application)
	if err != nil {
		return err
	}
	a.VersionDelta = strconv.FormatInt(int64(raw.VersionDelta), 10)
	a.AppsHashcode = raw.AppsHashcode
	a.Applications = apps
	return nil
}

func oneOrMany[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var one T
	if err := json.Unmarshal(raw, &one); err != nil {
		return nil, err
	}
	return []T{one}, nil
}
