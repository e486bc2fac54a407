package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"
)

// NewButtonWithIcon 创建带图标的按钮
func NewButtonWithIcon(text string, icon fyne.Resource, onTapped func()) *widget.Button {
	btn := widget.NewButton(text, onTapped)
	if icon != nil {
		btn.SetIcon(icon)
	}
	return btn
}

// NewIconButton 创建纯图标按钮
func NewIconButton(icon fyne.Resource, onTapped func()) *widget.Button {
	btn := widget.NewButton("", onTapped)
	if icon != nil {
		btn.SetIcon(icon)
	}
	return btn
}

// NewStyledButton 创建低强调的图标按钮，用于页面头部和行内操作
func NewStyledButton(text string, icon fyne.Resource, onTapped func()) *widget.Button {
	btn := NewButtonWithIcon(text, icon, onTapped)
	btn.Importance = widget.LowImportance
	return btn
}

// NewTitleLabel 创建标题样式的标签（更大、加粗）
func NewTitleLabel(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.TextStyle = fyne.TextStyle{Bold: true}
	return label
}

// NewSubtitleLabel 创建副标题样式的标签
func NewSubtitleLabel(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.Importance = widget.LowImportance
	return label
}

// NewSeparator 创建优化的分隔线
func NewSeparator() *widget.Separator {
	return widget.NewSeparator()
}

// NewStyledSelect 创建带样式的下拉框
func NewStyledSelect(options []string, onChanged func(string)) *widget.Select {
	selectWidget := widget.NewSelect(options, onChanged)
	return selectWidget
}
