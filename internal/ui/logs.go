package ui

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// LogEntry 表示一条日志条目
type LogEntry struct {
	Level   string
	Type    string
	Message string
	Line    string // 完整的日志行
}

// LogsPanel 显示应用日志和远程请求日志，支持按级别和类型过滤。
type LogsPanel struct {
	appState      *AppState
	logContent    *widget.Label
	levelSel      *widget.Select
	typeSel       *widget.Select
	logScroll     *container.Scroll
	logBuffer     []LogEntry
	bufferMutex   sync.Mutex
	maxBufferSize int
}

// NewLogsPanel 创建并初始化日志显示面板。
// 参数：
//   - appState: 应用状态实例
//
// 返回：初始化后的日志面板实例
func NewLogsPanel(appState *AppState) *LogsPanel {
	lp := &LogsPanel{
		appState:      appState,
		maxBufferSize: 1000, // 最多保存1000条日志
	}

	lp.logContent = widget.NewLabel("")
	lp.logContent.Wrapping = fyne.TextWrapOff
	lp.logContent.TextStyle = fyne.TextStyle{Monospace: true}

	lp.levelSel = widget.NewSelect(
		[]string{"全部", "DEBUG", "INFO", "WARN", "ERROR"},
		func(string) { lp.refreshDisplay() },
	)
	lp.typeSel = widget.NewSelect(
		[]string{"全部", "app", "fetch"},
		func(string) { lp.refreshDisplay() },
	)
	lp.levelSel.SetSelected("全部")
	lp.typeSel.SetSelected("全部")

	return lp
}

// Build 构建并返回日志面板的 UI 组件。
func (lp *LogsPanel) Build() fyne.CanvasObject {
	refreshBtn := NewStyledButton("刷新", theme.ViewRefreshIcon(), lp.LoadFromFile)
	topBar := container.NewHBox(
		NewTitleLabel("日志"),
		NewSubtitleLabel("级别"), lp.levelSel,
		NewSubtitleLabel("类型"), lp.typeSel,
		refreshBtn,
	)
	lp.logScroll = container.NewScroll(lp.logContent)
	return container.NewBorder(topBar, nil, nil, nil, lp.logScroll)
}

// AppendLog 追加一条日志（Logger 面板回调调用，可能不在主线程）。
// 参数：
//   - level: 日志级别
//   - logType: 日志类型（app 或 fetch）
//   - message: 日志消息
//   - line: 完整日志行
func (lp *LogsPanel) AppendLog(level, logType, message, line string) {
	lp.append(LogEntry{
		Level:   strings.ToUpper(level),
		Type:    normalizeLogType(logType),
		Message: message,
		Line:    line,
	})
	fyne.Do(lp.refreshDisplay)
}

func (lp *LogsPanel) append(entries ...LogEntry) {
	lp.bufferMutex.Lock()
	defer lp.bufferMutex.Unlock()
	lp.logBuffer = append(lp.logBuffer, entries...)
	if over := len(lp.logBuffer) - lp.maxBufferSize; over > 0 {
		lp.logBuffer = append([]LogEntry(nil), lp.logBuffer[over:]...)
	}
}

// Entries 返回符合当前过滤条件的日志
func (lp *LogsPanel) Entries() []LogEntry {
	level, logType := lp.levelSel.Selected, lp.typeSel.Selected

	lp.bufferMutex.Lock()
	defer lp.bufferMutex.Unlock()
	out := make([]LogEntry, 0, len(lp.logBuffer))
	for _, e := range lp.logBuffer {
		if level != "" && level != "全部" && e.Level != level {
			continue
		}
		if logType != "" && logType != "全部" && e.Type != logType {
			continue
		}
		out = append(out, e)
	}
	return out
}

// LoadFromFile 从日志文件重新加载最近的日志
func (lp *LogsPanel) LoadFromFile() {
	if lp.appState == nil || lp.appState.Core == nil || lp.appState.Core.Logger == nil {
		return
	}
	f, err := os.Open(lp.appState.Core.Logger.GetLogFilePath())
	if err != nil {
		return
	}
	defer f.Close()

	var entries []LogEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if e, ok := parseLogLine(scanner.Text()); ok {
			entries = append(entries, e)
		}
	}

	lp.bufferMutex.Lock()
	lp.logBuffer = nil
	lp.bufferMutex.Unlock()
	lp.append(entries...)
	lp.refreshDisplay()
}

// parseLogLine 解析 "日期 时间 [级别] [类型] 消息" 格式的日志行
func parseLogLine(line string) (LogEntry, bool) {
	parts := strings.SplitN(line, " ", 5)
	if len(parts) < 5 {
		return LogEntry{}, false
	}
	level := strings.Trim(parts[2], "[]")
	logType := strings.Trim(parts[3], "[]")
	if level == "" || logType == "" {
		return LogEntry{}, false
	}
	return LogEntry{
		Level:   level,
		Type:    normalizeLogType(logType),
		Message: parts[4],
		Line:    line,
	}, true
}

func normalizeLogType(logType string) string {
	if strings.EqualFold(logType, "fetch") {
		return "fetch"
	}
	return "app"
}

func (lp *LogsPanel) refreshDisplay() {
	if lp.logContent == nil || lp.levelSel == nil || lp.typeSel == nil {
		return
	}
	entries := lp.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Line
	}
	lp.logContent.SetText(strings.Join(lines, "\n"))
	if lp.logScroll != nil {
		lp.logScroll.ScrollToBottom()
	}
}
