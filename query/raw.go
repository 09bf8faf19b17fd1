package query

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var ErrMissingParam = errors.New("missing raw sql parameter")

// ResolveRawSQL 解析手写 SQL 中的两种插值形式：
//
//	${param} 直接文本替换，只用于表名等可信标识符
//	#{param} 绑定参数，生成 `?` 占位符
//
// 返回解析后的 SQL 与绑定参数列表，占位符格式化由调用方按方言处理
func ResolveRawSQL(sqlStr string, params map[string]any) (string, []any, error) {
	var sb strings.Builder
	var args []any

	for {
		idx := strings.IndexAny(sqlStr, "$#")
		if idx < 0 || idx+1 >= len(sqlStr) || sqlStr[idx+1] != '{' {
			if idx < 0 {
				sb.WriteString(sqlStr)
				break
			}
			sb.WriteString(sqlStr[:idx+1])
			sqlStr = sqlStr[idx+1:]
			continue
		}

		end := strings.IndexByte(sqlStr[idx:], '}')
		if end < 0 {
			return "", nil, errors.Errorf("unterminated interpolation near %q", sqlStr[idx:])
		}
		name := sqlStr[idx+2 : idx+end]
		value, ok := params[name]
		if !ok {
			return "", nil, errors.Wrap(ErrMissingParam, name)
		}

		sb.WriteString(sqlStr[:idx])
		if sqlStr[idx] == '$' {
			sb.WriteString(fmt.Sprintf("%v", value))
		} else {
			sb.WriteByte('?')
			args = append(args, value)
		}
		sqlStr = sqlStr[idx+end+1:]
	}
	return sb.String(), args, nil
}
