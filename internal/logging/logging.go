package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// LogLevel 日志级别
type LogLevel int

const (
	// LevelDebug 调试级别
	LevelDebug LogLevel = iota
	// LevelInfo 信息级别
	LevelInfo
	// LevelWarn 警告级别
	LevelWarn
	// LevelError 错误级别
	LevelError
	// LevelFatal 致命级别
	LevelFatal
)

var levelNames = map[LogLevel]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

var logrusLevels = map[LogLevel]logrus.Level{
	LevelDebug: logrus.DebugLevel,
	LevelInfo:  logrus.InfoLevel,
	LevelWarn:  logrus.WarnLevel,
	LevelError: logrus.ErrorLevel,
	LevelFatal: logrus.FatalLevel,
}

// LogType 日志类型
type LogType string

const (
	// LogTypeApp 应用程序日志
	LogTypeApp LogType = "app"
	// LogTypeFetch 远程配置请求日志
	LogTypeFetch LogType = "fetch"
)

// LogPanelCallback 日志面板回调函数类型
// 当有新日志写入时，会调用此回调来更新UI
type LogPanelCallback func(level, logType, message, logLine string)

// Logger 日志记录器
// 统一管理日志文件、控制台和UI面板的输出，底层由 logrus 负责格式化与分发
type Logger struct {
	level         LogLevel
	base          *logrus.Logger
	file          *os.File
	console       bool
	mutex         sync.Mutex
	logFilePath   string
	logDir        string
	panelCallback LogPanelCallback
}

const (
	// MaxLogFileSize 单个日志文件最大大小（10MB）
	MaxLogFileSize int64 = 10 * 1024 * 1024
)

// NewLogger 创建新的日志记录器
// 参数：
//   - logFilePath: 日志文件路径
//   - console: 是否输出到控制台
//   - level: 日志级别
//   - panelCallback: UI面板回调函数（可选，用于实时更新UI显示）
func NewLogger(logFilePath string, console bool, level string, panelCallback ...LogPanelCallback) (*Logger, error) {
	logLevel, err := parseLogLevel(level)
	if err != nil {
		return nil, err
	}

	unifiedLogPath := logFilePath
	if filepath.Ext(unifiedLogPath) == "" {
		unifiedLogPath = unifiedLogPath + ".log"
	}
	logDir := filepath.Dir(unifiedLogPath)

	logger := &Logger{
		level:       logLevel,
		console:     console,
		logFilePath: unifiedLogPath,
		logDir:      logDir,
	}

	if len(panelCallback) > 0 && panelCallback[0] != nil {
		logger.panelCallback = panelCallback[0]
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}

	// 启动时如果日志文件存在则归档
	if err := archive(unifiedLogPath, 1); err != nil {
		return nil, fmt.Errorf("归档日志文件失败: %w", err)
	}

	logFile, err := os.OpenFile(unifiedLogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	logger.file = logFile

	logger.base = logrus.New()
	logger.base.SetFormatter(&lineFormatter{})
	logger.base.SetLevel(logrus.DebugLevel)
	logger.base.AddHook(&panelHook{logger: logger})
	logger.base.SetOutput(logger.output())

	return logger, nil
}

// output 组合文件与控制台输出，调用方需持有 mutex 或处于初始化阶段
func (l *Logger) output() io.Writer {
	var writers []io.Writer
	if l.file != nil {
		writers = append(writers, l.file)
	}
	if l.console {
		writers = append(writers, os.Stdout)
	}
	if len(writers) == 0 {
		return io.Discard
	}
	return io.MultiWriter(writers...)
}

// archive 当文件大小达到阈值时重命名为带时间戳的归档文件
func archive(logPath string, threshold int64) error {
	fileInfo, err := os.Stat(logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if fileInfo.Size() < threshold {
		return nil
	}

	backupPath := fmt.Sprintf("%s.%s", logPath, time.Now().Format("20060102_150405.000"))
	if err := os.Rename(logPath, backupPath); err != nil {
		return fmt.Errorf("归档日志文件失败: %w", err)
	}
	return nil
}

// rotateIfNeeded 运行时检查日志文件大小，超过阈值则归档并重新打开
func (l *Logger) rotateIfNeeded() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	if l.file == nil {
		return
	}
	info, err := l.file.Stat()
	if err != nil || info.Size() < MaxLogFileSize {
		return
	}

	// 先切换输出再关闭旧文件，避免并发写入已关闭的文件
	old := l.file
	if err := archive(l.logFilePath, MaxLogFileSize); err != nil {
		fmt.Fprintf(os.Stderr, "日志归档失败: %v\n", err)
		return
	}
	l.file = nil
	l.reopenFile()
	l.base.SetOutput(l.output())
	old.Close()
}

// parseLogLevel 解析日志级别字符串
func parseLogLevel(level string) (LogLevel, error) {
	level = strings.ToLower(level)
	if level == "" {
		return LevelInfo, nil
	}
	switch level {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, fmt.Errorf("无效的日志级别: %s", level)
	}
}

// normalizeType 规范化日志类型：仅保留 app / fetch，其他归并为 app
func normalizeType(logType LogType) LogType {
	if LogType(strings.ToLower(string(logType))) == LogTypeFetch {
		return LogTypeFetch
	}
	return LogTypeApp
}

// log 记录日志
func (l *Logger) log(level LogLevel, logType LogType, format string, args ...interface{}) {
	l.mutex.Lock()
	current := l.level
	l.mutex.Unlock()
	if level < current {
		return
	}

	message := fmt.Sprintf(format, args...)
	l.base.WithField("type", string(normalizeType(logType))).Log(logrusLevels[level], message)

	if level == LevelFatal {
		l.Close()
		l.base.Exit(1)
	}

	l.rotateIfNeeded()
}

// SetPanelCallback 设置UI面板回调函数
func (l *Logger) SetPanelCallback(callback LogPanelCallback) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.panelCallback = callback
}

func (l *Logger) callback() LogPanelCallback {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.panelCallback
}

// reopenFile 重新打开日志文件，调用方需持有 mutex
func (l *Logger) reopenFile() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}

	newFile, err := os.OpenFile(l.logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		l.file = newFile
	}
}

// InfoWithType 记录指定类型的信息日志
func (l *Logger) InfoWithType(logType LogType, format string, args ...interface{}) {
	l.log(LevelInfo, logType, format, args...)
}

// Debug 记录调试日志
func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, LogTypeApp, format, args...)
}

// Info 记录信息日志
func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, LogTypeApp, format, args...)
}

// Warn 记录警告日志
func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, LogTypeApp, format, args...)
}

// Error 记录错误日志（默认应用日志）
func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, LogTypeApp, format, args...)
}

// GetLogLevel 获取当前日志级别
func (l *Logger) GetLogLevel() string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return strings.ToLower(levelNames[l.level])
}

// SetLogLevel 设置日志级别
func (l *Logger) SetLogLevel(level string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	if logLevel, err := parseLogLevel(level); err == nil {
		l.level = logLevel
	}
}

// Close 关闭日志记录器
func (l *Logger) Close() {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	old := l.file
	l.file = nil
	if l.base != nil {
		l.base.SetOutput(l.output())
	}
	if old != nil {
		old.Close()
	}
}

// GetLogFilePath 获取日志文件路径
func (l *Logger) GetLogFilePath() string {
	return l.logFilePath
}

// Log 记录日志（通用方法，支持外部调用）
func (l *Logger) Log(level, logType, message string) {
	logLevel, err := parseLogLevel(level)
	if err != nil {
		logLevel = LevelInfo
	}
	l.log(logLevel, LogType(logType), "%s", message)
}

// lineFormatter 输出 "时间 [级别] [类型] 消息" 格式的单行日志
type lineFormatter struct{}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return []byte(formatLine(entry) + "\n"), nil
}

func formatLine(entry *logrus.Entry) string {
	logType, _ := entry.Data["type"].(string)
	if logType == "" {
		logType = string(LogTypeApp)
	}
	return fmt.Sprintf("%s [%s] [%s] %s",
		entry.Time.Format("2006-01-02 15:04:05"), levelName(entry.Level), logType, entry.Message)
}

func levelName(level logrus.Level) string {
	for k, v := range logrusLevels {
		if v == level {
			return levelNames[k]
		}
	}
	return strings.ToUpper(level.String())
}

// panelHook 把每条日志同步给UI面板，保证文件与界面显示一致
type panelHook struct {
	logger *Logger
}

func (h *panelHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *panelHook) Fire(entry *logrus.Entry) error {
	cb := h.logger.callback()
	if cb == nil {
		return nil
	}
	logType, _ := entry.Data["type"].(string)
	cb(levelName(entry.Level), logType, entry.Message, formatLine(entry))
	return nil
}

// SafeLogger 安全日志包装器，处理 Logger 为 nil 的情况
type SafeLogger struct {
	logger *Logger
}

// NewSafeLogger 创建安全日志包装器
func NewSafeLogger(logger *Logger) *SafeLogger {
	return &SafeLogger{
		logger: logger,
	}
}

// Log 记录日志（安全方法，处理 logger 为 nil 的情况）
func (sl *SafeLogger) Log(level, logType, message string) {
	if sl != nil && sl.logger != nil {
		sl.logger.Log(level, logType, message)
	}
}

// Info 记录信息日志
func (sl *SafeLogger) Info(message string) {
	sl.Log("INFO", "app", message)
}

// Error 记录错误日志
func (sl *SafeLogger) Error(message string) {
	sl.Log("ERROR", "app", message)
}

// Warn 记录警告日志
func (sl *SafeLogger) Warn(message string) {
	sl.Log("WARN", "app", message)
}

// Debug 记录调试日志
func (sl *SafeLogger) Debug(message string) {
	sl.Log("DEBUG", "app", message)
}

// Fetch 记录远程请求日志
func (sl *SafeLogger) Fetch(message string) {
	sl.Log("INFO", string(LogTypeFetch), message)
}

// IsReady 检查 Logger 是否已初始化
func (sl *SafeLogger) IsReady() bool {
	return sl != nil && sl.logger != nil
}

// SetLogger 设置底层 Logger
func (sl *SafeLogger) SetLogger(logger *Logger) {
	sl.logger = logger
}
