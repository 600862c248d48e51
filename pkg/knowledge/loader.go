package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// articleRe 匹配条文编号，如 "第五十九条"、"第102条"
var articleRe = regexp.MustCompile(`第[一二三四五六七八九十百千0-9]+条`)

// ExtractArticleLabel 从条文中提取编号标题
//
// 例如 "《中华人民共和国宪法》第五十九条 ..." -> "第五十九条"。
// 未匹配时返回空串。
func ExtractArticleLabel(text string) string {
	return articleRe.FindString(text)
}

// LoadTxtDirectory 加载目录下所有 .txt 法律文本
//
// 每个文件按非空行切分为条文，附带文件名与条文编号元数据。
func LoadTxtDirectory(dir string) ([]Passage, error) {
	var paths []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	var passages []Passage
	for _, path := range paths {
		loaded, err := LoadTxtFile(path)
		if err != nil {
			return nil, err
		}
		passages = append(passages, loaded...)
	}

	return passages, nil
}

// LoadTxtFile 加载单个 .txt 法律文本
func LoadTxtFile(path string) ([]Passage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var passages []Passage
	for _, line := range strings.Split(string(data), "\n") {
		entry := strings.TrimSpace(line)
		if entry == "" {
			continue
		}

		passages = append(passages, Passage{
			ID:      uuid.New().String(),
			Content: entry,
			Metadata: Metadata{
				SourceName: name,
				SourceText: ExtractArticleLabel(entry),
				SourceFile: path,
			},
		})
	}

	return passages, nil
}
