package errs

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// WrapError 定义错误类型
type WrapError struct {
	msg   string
	code  int
	file  string
	line  int
	cause error
}

// New 创建新错误，不包含 cause 和 code
func New(msg string) error {
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
		line = 0
	}
	return &WrapError{
		msg:  msg,
		file: shortPath(file, 3),
		line: line,
	}
}

// Wrap 包装错误，msg 可为空，不为空则表示本层错误描述
func Wrap(err error, msgs ...string) error {
	if err == nil {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
		line = 0
	}
	msg := ""
	if len(msgs) > 0 {
		msg = msgs[0]
	}
	return &WrapError{
		msg:   msg,
		file:  shortPath(file, 3),
		line:  line,
		cause: err,
	}
}

// WithCode 为错误设置 code，原错误作为 cause 保留
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
		line = 0
	}
	return &WrapError{
		code:  code,
		file:  shortPath(file, 3),
		line:  line,
		cause: err,
	}
}

// Wrapf 包装错误并格式化本层描述
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	_, file, line, ok := runtime.Caller(1)
	if !ok {
		file = "unknown"
		line = 0
	}
	return &WrapError{
		msg:   fmt.Sprintf(format, args...),
		file:  shortPath(file, 3),
		line:  line,
		cause: err,
	}
}

// Error 只输出错误描述链，位置信息通过 %+v 查看
func (e *WrapError) Error() string {
	var b strings.Builder
	if e.code != 0 {
		fmt.Fprintf(&b, "[%d] ", e.code)
	}
	b.WriteString(e.msg)
	if e.cause != nil {
		if e.msg != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *WrapError) Unwrap() error {
	return e.cause
}

func (e *WrapError) Code() int {
	return e.code
}

// Format 实现 %+v 打印完整错误链（避免末尾多余箭头）
func (e *WrapError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			// 直接遍历并写入，不构建中间切片
			err := error(e)
			for {
				if we, ok := err.(*WrapError); ok {
					if we.code == 0 {
						fmt.Fprintf(s, "%s:%d: %s", we.file, we.line, we.msg)
					} else {
						fmt.Fprintf(s, "%s:%d: [%d] %s", we.file, we.line, we.code, we.msg)
					}
					err = we.Unwrap()
					if err != nil {
						fmt.Fprint(s, " -> ")
					} else {
						break
					}
				} else if err != nil {
					fmt.Fprint(s, err.Error())
					break
				} else {
					break
				}
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// shortPath 取文件路径最后 n 级目录
func shortPath(path string, n int) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) <= n {
		return strings.Join(parts, "/")
	}
	return strings.Join(parts[len(parts)-n:], "/")
}

// CodeOf 返回错误链上第一个非零 code，没有则返回 0
func CodeOf(err error) int {
	switch x := err.(type) {
	case nil:
		return 0
	case *WrapError:
		if x.code != 0 {
			return x.code
		}
		return CodeOf(x.cause)
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if code := CodeOf(e); code != 0 {
				return code
			}
		}
	case interface{ Unwrap() error }:
		return CodeOf(x.Unwrap())
	}
	return 0
}

func Stack(err error) string {
	return fmt.Sprintf("%+v", err)
}
