package prompt

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category is one group of the standard terminology
type Category struct {
	Name  string   `yaml:"category"`
	Terms []string `yaml:"terms"`
}

// Vocabulary is the ordered list of terminology categories
type Vocabulary []Category

// DefaultVocabulary is the built-in badminton terminology
var DefaultVocabulary = Vocabulary{
	{
		Name: "基础技术类 (Basic Techniques)",
		Terms: []string{
			"正手握拍 (Forehand Grip)", "反手握拍 (Backhand Grip)", "转换握拍 (Grip Change)",
			"高远球 (Clear)", "吊球 (Drop Shot)", "劈吊 (Slice Drop)",
			"杀球 (Smash)", "跳杀 (Jump Smash)", "平抽球 (Drive)",
		},
	},
	{
		Name: "步法与移动类 (Footwork)",
		Terms: []string{
			"并步 (Side Step)", "交叉步 (Cross Step)", "垫步 (Lunge)",
			"启动步 (Split Step)", "回位 (Recovery)",
		},
	},
	{
		Name: "网前技术 (Net Play)",
		Terms: []string{
			"放网 (Net Shot)", "搓球 (Tumbling Net Shot)", "勾对角 (Cross Net Shot)", "扑球 (Net Kill)",
		},
	},
	{
		Name: "防守技术 (Defense)",
		Terms: []string{
			"挡网 (Block)", "挑球防守 (Defensive Lift)", "防守反抽 (Defensive Drive)", "反手防守 (Backhand Defense)",
		},
	},
	{
		Name: "发力与机制 (Biomechanics)",
		Terms: []string{
			"鞭打发力 (Whip Action)", "内旋发力 (Pronation)", "手腕爆发 (Wrist Snap)",
			"躯干旋转 (Body Rotation)", "重心转换 (Weight Transfer)",
		},
	},
	{
		Name: "战术与意识 (Tactics)",
		Terms: []string{
			"控制节奏 (Tempo Control)", "压后场 (Backcourt Pressure)",
			"拉开角度 (Creating Angles)", "连续进攻 (Continuous Attack)",
		},
	},
}

// Render formats the vocabulary as the terminology appendix of a prompt
func (v Vocabulary) Render() string {
	var b strings.Builder
	b.WriteString("## 核心术语标准库 (Standard Terminology)\n")
	b.WriteString("请在诊断时优先使用以下术语：\n")
	for _, c := range v {
		fmt.Fprintf(&b, "\n### %s:\n", c.Name)
		b.WriteString(strings.Join(c.Terms, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// LoadVocabulary reads a YAML terminology override of the form
// [{category: ..., terms: [...]}]
func LoadVocabulary(path string) (Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var v Vocabulary
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file: %w", err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("vocabulary file %s has no categories", path)
	}
	return v, nil
}
