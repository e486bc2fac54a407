package apperr

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// 消息目录键
const (
	msgAddSuccess   = "ADD_SUCCESS"
	msgImportResult = "IMPORT_RESULT"
	msgUnknown      = "UNKNOWN"
)

func init() {
	zh := language.SimplifiedChinese
	en := language.English

	set := func(tag language.Tag, key, msg string) {
		_ = message.SetString(tag, key, msg)
	}

	set(zh, msgAddSuccess, "添加成功")
	set(zh, msgImportResult, "成功导入 %d 个订阅")
	set(zh, msgUnknown, "操作失败")
	set(zh, string(CodeNotFound), "订阅不存在")
	set(zh, string(CodeSubscribeExists), "订阅已存在，请重命名")
	set(zh, string(CodeLinkExists), "订阅已存在，请先删除：%s")
	set(zh, string(CodeInvalidConfig), "获取配置信息失败")
	set(zh, string(CodeFetchFailed), "获取配置信息失败")
	set(zh, string(CodePersistFailed), "获取配置信息失败")
	set(zh, string(CodeWriteFailed), "导出失败")

	set(en, msgAddSuccess, "Added")
	set(en, msgImportResult, "Imported %d subscription(s)")
	set(en, msgUnknown, "Operation failed")
	set(en, string(CodeNotFound), "Subscription not found")
	set(en, string(CodeSubscribeExists), "Subscription already exists, please rename it")
	set(en, string(CodeLinkExists), "Subscription already exists, remove it first: %s")
	set(en, string(CodeInvalidConfig), "Invalid configuration")
	set(en, string(CodeFetchFailed), "Failed to fetch configuration")
	set(en, string(CodePersistFailed), "Failed to save configuration")
	set(en, string(CodeWriteFailed), "Export failed")
}

// Lang 解析语言设置，无法识别时使用简体中文。
func Lang(name string) language.Tag {
	switch name {
	case "en", "en-US", "english":
		return language.English
	default:
		return language.SimplifiedChinese
	}
}

// Message 返回错误对应的本地化提示，err 为 nil 时返回添加成功的提示。
func Message(err error, tag language.Tag) string {
	p := message.NewPrinter(tag)
	if err == nil {
		return p.Sprintf(msgAddSuccess)
	}
	switch code := CodeOf(err); code {
	case "":
		return p.Sprintf(msgUnknown)
	case CodeLinkExists:
		return p.Sprintf(string(code), KeyOf(err))
	default:
		return p.Sprintf(string(code))
	}
}

// ImportMessage 返回导入结果的本地化提示
func ImportMessage(count int, tag language.Tag) string {
	return message.NewPrinter(tag).Sprintf(msgImportResult, count)
}
