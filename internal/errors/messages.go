package errors

import (
	"errors"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys for user-facing text.
const (
	msgUpdateApp      = "update-app"
	msgInvalidRecord  = "invalid-link-record"
	msgInvalidLink    = "invalid-link"
	msgUnknownKind    = "invalid-link-unknown"
	msgCopyFailed     = "copy-failed"
	msgGenericFailure = "generic-failure"
)

// SupportedLanguages lists the languages user messages are translated into.
var SupportedLanguages = []language.Tag{
	language.English,
	language.SimplifiedChinese,
}

var (
	matcher     = language.NewMatcher(SupportedLanguages)
	userCatalog = buildCatalog()
)

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))

	en := language.English
	_ = b.SetString(en, msgUpdateApp, "This link was created by a newer version of the studio. Update the app to open it.")
	_ = b.SetString(en, msgInvalidRecord, "This link is invalid: component %d could not be read.")
	_ = b.SetString(en, msgInvalidLink, "This link is invalid or was cut off.")
	_ = b.SetString(en, msgUnknownKind, "This link is invalid: it uses a component type (%s) this studio does not know.")
	_ = b.SetString(en, msgCopyFailed, "Couldn't copy automatically. Select the link and copy it manually.")
	_ = b.SetString(en, msgGenericFailure, "Something went wrong.")

	zh := language.SimplifiedChinese
	_ = b.SetString(zh, msgUpdateApp, "此链接由更新版本的工作台创建，请更新应用后再打开。")
	_ = b.SetString(zh, msgInvalidRecord, "链接无效：第 %d 个元件无法读取。")
	_ = b.SetString(zh, msgInvalidLink, "链接无效或不完整。")
	_ = b.SetString(zh, msgUnknownKind, "链接无效：包含本工作台不认识的元件类型（%s）。")
	_ = b.SetString(zh, msgCopyFailed, "无法自动复制，请手动选择并复制链接。")
	_ = b.SetString(zh, msgGenericFailure, "出现错误。")

	return b
}

// MatchLanguage picks the best supported language for an Accept-Language
// header value. Unparseable input yields English.
func MatchLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, _ := matcher.Match(tags...)

	return SupportedLanguages[index]
}

// UserMessage returns the localized text shown to a user for err. Each error
// kind gets a distinguishable message: a version mismatch asks for an app
// update, malformed or unknown-type tokens are reported as invalid links.
func UserMessage(err error, lang language.Tag) string {
	p := message.NewPrinter(lang, message.Catalog(userCatalog))

	var se *StudioError
	if !errors.As(err, &se) {
		return p.Sprintf(msgGenericFailure)
	}

	switch se.Type {
	case ErrorTypeFormat:
		return p.Sprintf(msgUpdateApp)
	case ErrorTypeMalformed:
		if se.Record >= 0 {
			return p.Sprintf(msgInvalidRecord, se.Record+1)
		}
		return p.Sprintf(msgInvalidLink)
	case ErrorTypeUnknown:
		tag, _ := se.Context["tag"].(string)
		return p.Sprintf(msgUnknownKind, tag)
	case ErrorTypeClipboard:
		return p.Sprintf(msgCopyFailed)
	default:
		return p.Sprintf(msgGenericFailure)
	}
}
