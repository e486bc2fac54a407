package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/BBBIMAX/feiyu-player/internal/apperr"
	"github.com/BBBIMAX/feiyu-player/internal/model"
	"github.com/BBBIMAX/feiyu-player/internal/store"
)

// SubscriptionPage 订阅管理页面（主界面）
type SubscriptionPage struct {
	appState *AppState
	list     *widget.List
	current  *widget.Label
	content  fyne.CanvasObject

	mu    sync.RWMutex
	state *store.SubscribesState

	cancel func()
}

// NewSubscriptionPage 创建订阅管理页面，并监听 Hub 中的订阅快照
func NewSubscriptionPage(appState *AppState) *SubscriptionPage {
	sp := &SubscriptionPage{appState: appState}
	if hub := appState.Hub(); hub != nil {
		if st, ok := store.Subscribes(hub); ok {
			sp.state = st
		}
		sp.cancel = hub.Listen(store.SubscribesKey, sp.onSubscribes)
	}
	return sp
}

func (sp *SubscriptionPage) onSubscribes(v any) {
	st, ok := v.(*store.SubscribesState)
	if !ok || st == nil {
		return
	}
	sp.mu.Lock()
	sp.state = st
	sp.mu.Unlock()
	fyne.Do(sp.refreshWidgets)
}

// Close 停止监听订阅快照
func (sp *SubscriptionPage) Close() {
	if sp.cancel != nil {
		sp.cancel()
		sp.cancel = nil
	}
}

// Items 返回当前快照中的订阅（按添加顺序）
func (sp *SubscriptionPage) Items() []*model.Subscribe {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if sp.state == nil || sp.state.Subscribes == nil {
		return nil
	}
	return sp.state.Subscribes.Values()
}

// CurrentKey 返回当前选中的订阅名称
func (sp *SubscriptionPage) CurrentKey() string {
	sp.mu.RLock()
	defer sp.mu.RUnlock()
	if sp.state == nil {
		return ""
	}
	return sp.state.CurrentSubscribe
}

// Build 构建订阅管理页面UI
func (sp *SubscriptionPage) Build() fyne.CanvasObject {
	addBtn := widget.NewButtonWithIcon("新增订阅", theme.ContentAddIcon(), sp.showAddSubscriptionDialog)
	addBtn.Importance = widget.HighImportance

	importBtn := NewIconButton(theme.DownloadIcon(), sp.showImportDialog)
	exportBtn := NewIconButton(theme.UploadIcon(), func() { sp.export("") })
	refreshBtn := NewIconButton(theme.ViewRefreshIcon(), sp.batchUpdateSubscriptions)
	clearBtn := NewIconButton(theme.DeleteIcon(), sp.confirmClear)
	logsBtn := NewIconButton(theme.ListIcon(), func() {
		if sp.appState.MainWindow != nil {
			sp.appState.MainWindow.ShowLogsPage()
		}
	})
	settingsBtn := NewIconButton(theme.SettingsIcon(), func() {
		if sp.appState.MainWindow != nil {
			sp.appState.MainWindow.ShowSettingsPage()
		}
	})
	for _, b := range []*widget.Button{importBtn, exportBtn, refreshBtn, clearBtn, logsBtn, settingsBtn} {
		b.Importance = widget.LowImportance
	}

	headerBar := container.NewHBox(
		addBtn,
		layout.NewSpacer(),
		importBtn, exportBtn, refreshBtn, clearBtn, logsBtn, settingsBtn,
	)

	sp.current = widget.NewLabel("")
	sp.current.Truncation = fyne.TextTruncateEllipsis

	var separatorColor color.Color
	if sp.appState != nil && sp.appState.App != nil {
		separatorColor = CurrentThemeColor(sp.appState.App, theme.ColorNameSeparator)
	} else {
		separatorColor = theme.Color(theme.ColorNameSeparator)
	}
	headerStack := container.NewVBox(
		container.NewPadded(headerBar),
		container.NewPadded(sp.current),
		canvas.NewLine(separatorColor),
	)

	sp.list = widget.NewList(
		func() int { return len(sp.Items()) },
		func() fyne.CanvasObject { return NewSubscriptionCard(sp, sp.appState) },
		sp.updateSubscriptionItem,
	)

	sp.content = container.NewBorder(
		headerStack,
		nil, nil, nil,
		container.NewPadded(sp.list),
	)
	sp.refreshWidgets()
	return sp.content
}

func (sp *SubscriptionPage) updateSubscriptionItem(id widget.ListItemID, obj fyne.CanvasObject) {
	items := sp.Items()
	if id < 0 || id >= len(items) {
		return
	}
	obj.(*SubscriptionCard).Update(items[id], items[id].Key == sp.CurrentKey())
}

// Refresh 按最新快照刷新列表
func (sp *SubscriptionPage) Refresh() {
	if hub := sp.appState.Hub(); hub != nil {
		if st, ok := store.Subscribes(hub); ok {
			sp.mu.Lock()
			sp.state = st
			sp.mu.Unlock()
		}
	}
	sp.refreshWidgets()
}

func (sp *SubscriptionPage) refreshWidgets() {
	if sp.current != nil {
		sp.current.SetText("当前订阅: " + sp.CurrentKey())
	}
	if sp.list != nil {
		sp.list.Refresh()
	}
}

// run 在后台执行订阅操作，结束后在主线程显示提示
func (sp *SubscriptionPage) run(action func(ctx context.Context) (string, error)) {
	go func() {
		msg, err := action(context.Background())
		if msg == "" && err == nil {
			return
		}
		fyne.Do(func() { sp.notify(msg, err) })
	}()
}

func (sp *SubscriptionPage) notify(msg string, err error) {
	if sp.appState.Window == nil {
		return
	}
	if err != nil {
		if msg == "" {
			msg = sp.appState.Core.SubscriptionService.Message(err)
		}
		dialog.ShowInformation("操作失败", msg, sp.appState.Window)
		return
	}
	dialog.ShowInformation("提示", msg, sp.appState.Window)
}

func (sp *SubscriptionPage) showAddSubscriptionDialog() {
	keyEntry := widget.NewEntry()
	keyEntry.SetPlaceHolder("订阅名称")
	configEntry := widget.NewMultiLineEntry()
	configEntry.SetPlaceHolder("https://... 或 JSON 配置")
	configEntry.SetMinRowsVisible(6)

	items := []*widget.FormItem{
		{Text: "名称", Widget: keyEntry},
		{Text: "配置", Widget: configEntry},
	}

	d := dialog.NewForm("添加新订阅", "确定添加", "取消", items, func(ok bool) {
		key := strings.TrimSpace(keyEntry.Text)
		value := strings.TrimSpace(configEntry.Text)
		if !ok || key == "" || value == "" {
			return
		}
		sp.run(func(ctx context.Context) (string, error) {
			return sp.appState.Core.SubscriptionService.Add(ctx, key, value)
		})
	}, sp.appState.Window)

	d.Resize(fyne.NewSize(460, 320))
	d.Show()
}

func (sp *SubscriptionPage) showImportDialog() {
	urlEntry := widget.NewEntry()
	urlEntry.SetPlaceHolder("https://.../ipfs/...")

	d := dialog.NewForm("导入订阅", "导入", "取消", []*widget.FormItem{
		{Text: "链接", Widget: urlEntry},
	}, func(ok bool) {
		url := strings.TrimSpace(urlEntry.Text)
		if !ok || url == "" {
			return
		}
		sp.run(func(ctx context.Context) (string, error) {
			return sp.appState.Core.SubscriptionService.Import(ctx, url)
		})
	}, sp.appState.Window)

	d.Resize(fyne.NewSize(460, 160))
	d.Show()
}

// export 导出订阅并显示分享链接，key 为空时导出全部
func (sp *SubscriptionPage) export(key string) {
	go func() {
		url, err := sp.appState.Core.SubscriptionService.Export(context.Background(), key)
		fyne.Do(func() {
			if err != nil {
				sp.notify("", err)
				return
			}
			sp.showShareLink(url)
		})
	}()
}

func (sp *SubscriptionPage) showShareLink(url string) {
	if sp.appState.Window == nil {
		return
	}
	entry := widget.NewEntry()
	entry.SetText(url)
	copyBtn := widget.NewButtonWithIcon("复制", theme.ContentCopyIcon(), func() {
		if sp.appState.App != nil {
			sp.appState.App.Clipboard().SetContent(url)
		}
	})
	content := container.NewBorder(nil, nil, nil, copyBtn, entry)
	d := dialog.NewCustom("分享链接", "关闭", content, sp.appState.Window)
	d.Resize(fyne.NewSize(460, 140))
	d.Show()
}

func (sp *SubscriptionPage) batchUpdateSubscriptions() {
	dialog.ShowConfirm("全部更新", "确认重新获取所有远程订阅？", func(ok bool) {
		if !ok {
			return
		}
		sp.run(func(ctx context.Context) (string, error) {
			return "", sp.appState.Core.SubscriptionService.Refresh(ctx, "")
		})
	}, sp.appState.Window)
}

func (sp *SubscriptionPage) confirmClear() {
	dialog.ShowConfirm("清空订阅", "确定删除全部订阅吗？默认订阅会被保留。", func(ok bool) {
		if !ok {
			return
		}
		sp.run(func(ctx context.Context) (string, error) {
			return "", sp.appState.Core.Manager.Clear(ctx)
		})
	}, sp.appState.Window)
}

// --- SubscriptionCard 内部组件 ---

// SubscriptionCard 订阅列表中的一项
type SubscriptionCard struct {
	widget.BaseWidget
	page      *SubscriptionPage
	appState  *AppState
	sub       *model.Subscribe
	renderObj fyne.CanvasObject

	nameLabel *widget.Label
	infoLabel *widget.Label
	linkLabel *widget.Label
	statusBar *canvas.Rectangle
	bgRect    *canvas.Rectangle

	useBtn    *widget.Button
	updateBtn *widget.Button
	exportBtn *widget.Button
	editBtn   *widget.Button
	deleteBtn *widget.Button
}

// NewSubscriptionCard 创建订阅卡片
func NewSubscriptionCard(page *SubscriptionPage, appState *AppState) *SubscriptionCard {
	card := &SubscriptionCard{page: page, appState: appState}

	card.nameLabel = widget.NewLabelWithStyle("", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	card.linkLabel = widget.NewLabel("")
	card.linkLabel.Truncation = fyne.TextTruncateEllipsis
	card.infoLabel = widget.NewLabel("")

	card.statusBar = canvas.NewRectangle(card.themeColor(theme.ColorNamePrimary))
	card.statusBar.SetMinSize(fyne.NewSize(4, 0))

	card.useBtn = widget.NewButtonWithIcon("", theme.ConfirmIcon(), nil)
	card.updateBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), nil)
	card.exportBtn = widget.NewButtonWithIcon("", theme.UploadIcon(), nil)
	card.editBtn = widget.NewButtonWithIcon("", theme.DocumentCreateIcon(), nil)
	for _, b := range []*widget.Button{card.useBtn, card.updateBtn, card.exportBtn, card.editBtn} {
		b.Importance = widget.LowImportance
	}
	card.deleteBtn = widget.NewButtonWithIcon("", theme.DeleteIcon(), nil)
	card.deleteBtn.Importance = widget.DangerImportance

	card.renderObj = card.setupLayout()
	card.ExtendBaseWidget(card)
	return card
}

func (card *SubscriptionCard) themeColor(name fyne.ThemeColorName) color.Color {
	if card.appState != nil && card.appState.App != nil {
		return CurrentThemeColor(card.appState.App, name)
	}
	return theme.Color(name)
}

func (card *SubscriptionCard) setupLayout() fyne.CanvasObject {
	card.bgRect = canvas.NewRectangle(card.themeColor(theme.ColorNameInputBackground))
	card.bgRect.CornerRadius = 10

	textInfo := container.NewVBox(
		card.nameLabel,
		card.linkLabel,
		container.NewHBox(widget.NewIcon(theme.InfoIcon()), card.infoLabel),
	)

	btnBox := container.NewCenter(
		container.NewHBox(
			card.useBtn,
			card.updateBtn,
			card.exportBtn,
			card.editBtn,
			card.deleteBtn,
		),
	)

	content := container.NewBorder(
		nil, nil,
		card.statusBar,
		btnBox,
		container.NewPadded(textInfo),
	)

	return container.NewStack(card.bgRect, content)
}

// Update 用订阅记录刷新卡片，current 表示是否为当前订阅
func (card *SubscriptionCard) Update(sub *model.Subscribe, current bool) {
	card.sub = sub

	if current {
		card.statusBar.FillColor = card.themeColor(theme.ColorNamePrimary)
	} else {
		card.statusBar.FillColor = color.Transparent
	}
	card.statusBar.Refresh()
	card.bgRect.FillColor = card.themeColor(theme.ColorNameInputBackground)
	card.bgRect.Refresh()

	card.nameLabel.SetText(sub.Key)
	if sub.Link != "" {
		card.linkLabel.SetText(sub.Link)
	} else {
		card.linkLabel.SetText("本地配置")
	}
	card.infoLabel.SetText("更新于 " + formatLastUpdate(sub.LastUpdate, time.Now()))

	key := sub.Key
	if current {
		card.useBtn.Disable()
	} else {
		card.useBtn.Enable()
	}
	card.useBtn.OnTapped = func() {
		card.page.run(func(ctx context.Context) (string, error) {
			return "", card.appState.Core.Manager.SetCurrent(ctx, key)
		})
	}

	if sub.Link == "" {
		card.updateBtn.Disable()
	} else {
		card.updateBtn.Enable()
	}
	card.updateBtn.OnTapped = func() {
		card.updateBtn.Disable()
		go func() {
			err := card.appState.Core.SubscriptionService.Refresh(context.Background(), key)
			fyne.Do(func() {
				card.updateBtn.Enable()
				if err != nil {
					card.page.notify("", err)
				}
			})
		}()
	}

	card.exportBtn.OnTapped = func() { card.page.export(key) }
	card.editBtn.OnTapped = card.showEditDialog
	card.deleteBtn.OnTapped = func() {
		msg := fmt.Sprintf("确定删除订阅 '%s' 吗？", key)
		dialog.ShowConfirm("删除确认", msg, func(ok bool) {
			if !ok {
				return
			}
			card.page.run(func(ctx context.Context) (string, error) {
				return "", card.appState.Core.Manager.Remove(ctx, key)
			})
		}, card.appState.Window)
	}
}

func (card *SubscriptionCard) showEditDialog() {
	if card.sub == nil {
		return
	}
	sub := card.sub.Clone()

	configEntry := widget.NewMultiLineEntry()
	configEntry.SetMinRowsVisible(10)
	if data, err := json.MarshalIndent(sub.Config, "", "  "); err == nil {
		configEntry.SetText(string(data))
	}

	d := dialog.NewForm("编辑订阅 "+sub.Key, "保存", "取消", []*widget.FormItem{
		{Text: "配置", Widget: configEntry},
	}, func(ok bool) {
		if !ok {
			return
		}
		cfg, err := parseConfigText(configEntry.Text)
		if err != nil {
			card.page.notify("", err)
			return
		}
		sub.Config = cfg
		card.page.run(func(ctx context.Context) (string, error) {
			return "", card.appState.Core.Manager.EditSubscribe(ctx, sub)
		})
	}, card.appState.Window)

	d.Resize(fyne.NewSize(520, 420))
	d.Show()
}

// CreateRenderer 实现 fyne.Widget
func (card *SubscriptionCard) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(card.renderObj)
}

// parseConfigText 解析编辑框中的配置，要求为带 feiyu 标记的 JSON 对象
func parseConfigText(text string) (map[string]any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return nil, apperr.New(apperr.CodeInvalidConfig, "", err)
	}
	cfg, ok := model.AsConfig(v)
	if !ok {
		return nil, apperr.New(apperr.CodeInvalidConfig, "", nil)
	}
	return cfg, nil
}

// formatLastUpdate 把毫秒时间戳格式化为相对时间
func formatLastUpdate(ms int64, now time.Time) string {
	if ms <= 0 {
		return "从未更新"
	}
	t := time.UnixMilli(ms)
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return "刚刚"
	case diff < time.Hour:
		return fmt.Sprintf("%d分钟前", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d小时前", int(diff.Hours()))
	}
	return t.Format("2006-01-02")
}
