package utils

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

func IsEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// 允许 git/ssh/http(s) 形式的仓库链接
var vcsURLPattern = regexp.MustCompile(`((git|ssh|http(s)?)|(git@[\w.]+))(:(//)?)([\w.@:/\-~]+)`)

// FilterVCSLinks 将逗号分隔的链接列表拆分后只保留符合仓库链接形式的项
func FilterVCSLinks(raw string) []string {
	if raw == "" {
		return nil
	}

	links := []string{}
	for _, candidate := range strings.Split(raw, ",") {
		candidate = strings.TrimSpace(candidate)
		if vcsURLPattern.MatchString(candidate) {
			links = append(links, candidate)
		}
	}
	return links
}

func NumberInRange(value int64, min int64, max int64) bool {
	return value >= min && value <= max
}
