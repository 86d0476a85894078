package eureka

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"mime"
	"strings"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// ErrEmptyDocument 响应体为空
var ErrEmptyDocument = errors.New("empty eureka document")

// Document JSON 格式的外层包装 {"applications": {...}}
type Document struct {
	Applications *Applications `json:"applications"`
}

// Decode 根据 Content-Type 解析目录文档，无法判断时按首字符嗅探
func Decode(contentType string, body []byte) (*Applications, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(body) == 0 {
		return nil, ErrEmptyDocument
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch {
		case strings.HasSuffix(mediaType, "json"):
			return DecodeJSON(body)
		case strings.HasSuffix(mediaType, "xml"):
			return DecodeXML(body)
		}
	}
	if body[0] == '<' {
		return DecodeXML(body)
	}
	return DecodeJSON(body)
}

func DecodeJSON(body []byte) (*Applications, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(body) == 0 {
		return nil, ErrEmptyDocument
	}
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode eureka json: %w", err)
	}
	if doc.Applications == nil {
		return nil, errors.New("decode eureka json: missing applications")
	}
	return doc.Applications, nil
}

func DecodeXML(body []byte) (*Applications, error) {
	body = bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(body) == 0 {
		return nil, ErrEmptyDocument
	}
	var apps Applications
	if err := xml.Unmarshal(body, &apps); err != nil {
		return nil, fmt.Errorf("decode eureka xml: %w", err)
	}
	return &apps, nil
}

// EncodeJSON 生成与 Eureka 服务端一致的 JSON 目录文档
func EncodeJSON(apps *Applications) ([]byte, error) {
	return json.Marshal(Document{Applications: apps})
}
