package web

import (
	"fmt"

	"github.com/a-h/templ"

	"github.com/louisbranch/lancerflow/internal/services/flow/tech"
)

func noticeFragment(notice tech.Notice) string {
	return fmt.Sprintf(`<div class="notice notice-%s" role="alert" data-code="%s">%s</div>`,
		templ.EscapeString(string(notice.Level)), templ.EscapeString(string(notice.Code)), templ.EscapeString(notice.Message))
}
