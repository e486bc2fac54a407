package model

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CompareVersions 比较两个版本号。
// 返回 -1 表示 a 较旧，0 表示相同，1 表示 a 较新。
func CompareVersions(a, b string) (int, error) {
	av, err := parseSemver(a)
	if err != nil {
		return 0, fmt.Errorf("解析版本号 %q 失败: %w", a, err)
	}
	bv, err := parseSemver(b)
	if err != nil {
		return 0, fmt.Errorf("解析版本号 %q 失败: %w", b, err)
	}
	return av.Compare(bv), nil
}

// NewerThanCurrent 判断记录是否由更新版本的程序生成。
// 无法解析的版本号视为不更新。
func NewerThanCurrent(version string) bool {
	cmp, err := CompareVersions(version, Version)
	return err == nil && cmp > 0
}

func parseSemver(version string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(version, "v"))
}
