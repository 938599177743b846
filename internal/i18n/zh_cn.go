package i18n

// ZhCNMessages 简体中文消息目录
var ZhCNMessages = map[string]string{
	"panel.chat":        "AI 对话",
	"status.ready":      "就绪",
	"status.thinking":   "思考中...",
	"status.tokens":     "约 %d 个提示 token",
	"status.cancelled":  "请求已取消。",
	"input.placeholder": "询问你的笔记...（回车发送）",
	"keys.help":         "enter 发送 • esc 取消 • ctrl+y/ctrl+n 应用/放弃最新草稿 • ctrl+c 退出",
	"keys.draft":        "ctrl+y 应用 • ctrl+n 放弃 • /apply %d • /discard %d",
	"quit.pending":      "还有 %d 份草稿待确认，再按一次 ctrl+c 退出。",
	"chat.welcome":      "已载入 %d 篇笔记（%s）。输入 /exit 退出。",
	"chat.you":          "你",
	"chat.assistant":    "助手",

	"draft.title":       "草稿 #%d：%s",
	"draft.prompt":      "将此草稿应用到 \"%s\"？[y/N] ",
	"draft.applied":     "已更新笔记：%s",
	"draft.declined":    "已放弃草稿。",
	"draft.closed":      "该草稿已处理过。",
	"draft.missing":     "没有待确认的草稿。",
	"draft.unknown":     "没有草稿 #%s。",
	"draft.unjournaled": "日志中没有该草稿。",

	"chat.created":    "已在你的笔记库中创建笔记 \"%s\"！\n\n%s",
	"chat.diagnostic": "我尝试创建笔记，但无法识别回复格式。请复制以下内容并反馈给开发者：\n\n%s",
	"chat.error":      "抱歉，出现错误，请重试。",
	"chat.empty":      "消息为空。",
	"chat.improved":   "这是 \"%s\" 的改进草稿：",

	"notice.missing_key":         "请先在设置中填写 OpenAI API key",
	"notice.note_empty":          "笔记为空",
	"notice.no_active":           "没有打开的笔记",
	"notice.recording_started":   "开始录音……按回车停止",
	"notice.recording_stopped":   "录音结束，正在处理……",
	"notice.mic_denied":          "无法访问麦克风：%s",
	"notice.transcription_added": "转写内容已插入笔记",
	"notice.transcription_empty": "转写失败",
	"notice.tags_added":          "已添加标签：%s",
	"notice.tags_none":           "没有建议的标签",
	"notice.calendar_found":      "找到 %d 个日程项",
	"notice.calendar_none":       "没有找到日程项",
	"notice.tasks_generated":     "已生成每日任务：%s",
	"notice.tasks_none":          "没有找到任务",
	"notice.backlinks_added":     "已添加 %d 个反向链接建议",
	"notice.backlinks_none":      "没有找到相关的反向链接",
	"notice.note_created":        "已创建笔记：%s",
	"notice.note_updated":        "已更新笔记：%s",
	"notice.setting_saved":       "已将 %s 保存到 %s",

	"error.request":        "API 请求失败：%s",
	"error.request_status": "API 请求失败：%d",
	"error.write":          "创建/更新笔记出错：%s",
	"error.generic":        "错误：%s",
}
