// Package sl содержит атрибуты slog, общие для всех сервисов.
package sl

import "log/slog"

// Err возвращает атрибут "error" с текстом ошибки. nil записывается как "<nil>".
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.String("error", err.Error())
}

// Masked возвращает атрибут, скрывающий значение секрета.
// Пустое значение остаётся видимым, чтобы отсутствие настройки было заметно в логе.
func Masked(key, secret string) slog.Attr {
	if secret == "" {
		return slog.String(key, "<empty>")
	}
	return slog.String(key, "***")
}
