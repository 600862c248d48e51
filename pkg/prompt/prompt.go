// Package prompt 定义问答链使用的提示词模板
package prompt

import (
	"fmt"
	"strings"
)

// Template 提示词模板
//
// 使用 {variable} 形式的占位符，通过 Render 替换为实际值。
type Template struct {
	// Name 模板名称
	Name string
	// Text 模板文本
	Text string
	// Variables 必需的变量名列表
	Variables []string
}

// Render 渲染模板，替换所有占位符
//
// 缺少必需变量时返回错误。
func (t *Template) Render(vars map[string]string) (string, error) {
	result := t.Text
	for _, name := range t.Variables {
		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("prompt %q: missing variable %q", t.Name, name)
		}
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result, nil
}

// Legal 知识问答模板（有上下文）
//
// 变量: context, question, chat_history
var Legal = &Template{
	Name: "legal",
	Text: `你是一名专业的中国法律顾问。请严格依据下面提供的法律条文回答用户的问题。
如果条文与问题无关，请如实说明，不要编造法律依据。

相关法律条文:
{context}

对话历史:
{chat_history}

用户问题: {question}

请给出准确、简明的回答，并注明引用的条文出处。`,
	Variables: []string{"context", "question", "chat_history"},
}

// Fallback 无知识回答模板（无上下文）
//
// 变量: question, chat_history
var Fallback = &Template{
	Name: "fallback",
	Text: `你是一名专业的中国法律顾问。知识库中没有检索到与该问题直接相关的法律条文，
请基于一般法律常识谨慎回答，并明确告知用户该回答未引用具体条文，建议咨询专业律师核实。

对话历史:
{chat_history}

用户问题: {question}`,
	Variables: []string{"question", "chat_history"},
}

// Rerank 相关性评分模板
//
// 变量: question, context。要求模型按固定格式输出评分与理由，
// 由 rerank 包的解析器提取。
var Rerank = &Template{
	Name: "rerank",
	Text: `请评估下面的法律条文与用户问题的相关程度，给出 0 到 100 的整数评分。
评分标准: 90 以上表示条文可直接回答问题；70-89 表示条文与问题密切相关；
40-69 表示部分相关；40 以下表示基本无关。

用户问题: {question}

法律条文:
{context}

请严格按照以下格式输出，不要包含其他内容:
评分: <数字>
理由: <一句话说明>`,
	Variables: []string{"question", "context"},
}
